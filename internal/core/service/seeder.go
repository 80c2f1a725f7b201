package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/usermgmt/user-service/internal/core/domain"
	"github.com/usermgmt/user-service/internal/core/ports"
)

const (
	AdminUsername = "admin"
	AdminEmail    = "admin@admin.com"

	adminSeedKey = "seed:admin"
)

// Seeder creates the default administrator when none exists.
type Seeder struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	lock     ports.SeedLock
	password string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSeeder returns a Seeder. lock may be nil when only one replica runs.
func NewSeeder(repo ports.UserRepository, hasher ports.PasswordHasher, lock ports.SeedLock, adminPassword string, logger zerolog.Logger) *Seeder {
	if adminPassword == "" {
		adminPassword = AdminUsername
	}
	return &Seeder{
		repo:     repo,
		hasher:   hasher,
		lock:     lock,
		password: adminPassword,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SeedAdmin is idempotent: it reports created=true only on the run that
// actually inserted the admin account.
func (s *Seeder) SeedAdmin(ctx context.Context) (bool, error) {
	if s.lock != nil {
		owned, err := s.lock.Acquire(ctx, adminSeedKey)
		if err != nil {
			s.logger.Warn().Err(err).Msg("seed lock unavailable, seeding anyway")
		} else if !owned {
			s.logger.Info().Msg("admin seeding in progress elsewhere, skipping")
			return false, nil
		}
	}

	s.logger.Info().Str("username", AdminUsername).Msg("checking for admin user")
	exists, err := s.repo.ExistsByUsername(ctx, AdminUsername)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	if exists {
		s.logger.Info().Msg("admin user already exists")
		return false, nil
	}

	hash, err := s.hasher.Hash(s.password)
	if err != nil {
		return false, fmt.Errorf("seed admin: hash password: %w", err)
	}

	now := s.now()
	_, err = s.repo.Save(ctx, &domain.User{
		Username:     AdminUsername,
		Email:        AdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, domain.ErrDuplicateUsername) {
		s.logger.Info().Msg("admin user created concurrently")
		return false, nil
	}
	if errors.Is(err, domain.ErrDuplicateEmail) {
		s.logger.Error().Str("email", AdminEmail).Msg("admin email belongs to another account")
		return false, fmt.Errorf("seed admin: email %s already in use: %w", AdminEmail, err)
	}
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	s.logger.Info().Msg("admin user created")
	return true, nil
}
