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
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// UserService implements ports.UserService on top of a credential store.
type UserService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, logger zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterUser checks username before email, so a duplicate username wins
// when both collide. The store's unique constraints remain the final word.
func (s *UserService) RegisterUser(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	taken, err := s.repo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	if taken {
		s.logger.Warn().Str("username", in.Username).Msg("username already taken")
		return nil, domain.ErrDuplicateUsername
	}

	taken, err = s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	if taken {
		s.logger.Warn().Str("email", in.Email).Msg("email already registered")
		return nil, domain.ErrDuplicateEmail
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register user: hash password: %w", err)
	}

	now := s.now()
	saved, err := s.repo.Save(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.logger.Info().Str("user_id", saved.ID).Str("username", saved.Username).Msg("user registered")
	return saved, nil
}

func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Warn().Str("username", username).Msg("authentication failed")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate user: %w", err)
	}

	if !s.hasher.Matches(user.PasswordHash, password) {
		s.logger.Warn().Str("username", username).Msg("authentication failed")
		return nil, nil
	}

	s.logger.Info().Str("username", username).Msg("authentication succeeded")
	return user, nil
}

func (s *UserService) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Debug().Str("user_id", id).Msg("user not found")
		}
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return user, nil
}

func (s *UserService) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return user, nil
}

// UpdateUser overwrites username and email only. Unlike registration it
// checks uniqueness against other users, so keeping one's own values is fine.
func (s *UserService) UpdateUser(ctx context.Context, id string, in ports.UpdateInput) (*domain.User, error) {
	user, err := s.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != user.Username {
		if err := s.ensureUnclaimed(ctx, s.repo.FindByUsername, in.Username, id, domain.ErrDuplicateUsername); err != nil {
			return nil, fmt.Errorf("update user %s: %w", id, err)
		}
	}
	if in.Email != user.Email {
		if err := s.ensureUnclaimed(ctx, s.repo.FindByEmail, in.Email, id, domain.ErrDuplicateEmail); err != nil {
			return nil, fmt.Errorf("update user %s: %w", id, err)
		}
	}

	user.Username = in.Username
	user.Email = in.Email
	user.Touch(s.now())

	updated, err := s.repo.Save(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}

	s.logger.Info().Str("user_id", id).Msg("user updated")
	return updated, nil
}

func (s *UserService) ensureUnclaimed(
	ctx context.Context,
	find func(context.Context, string) (*domain.User, error),
	value, ownerID string,
	dupErr error,
) error {
	other, err := find(ctx, value)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID != ownerID {
		return dupErr
	}
	return nil
}

func (s *UserService) DeleteUserByID(ctx context.Context, id string) error {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if !exists {
		s.logger.Warn().Str("user_id", id).Msg("delete aborted, user not found")
		return fmt.Errorf("delete user %s: %w", id, domain.ErrUserNotFound)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListUsers returns one page. Limit defaults to 20 and is capped at 100;
// page defaults to 1.
func (s *UserService) ListUsers(ctx context.Context, in ports.ListInput) (*ports.ListUsersResult, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	page := in.Page
	if page <= 0 {
		page = 1
	}

	items, total, err := s.repo.List(ctx, ports.PageRequest{Page: page, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListUsersResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}
