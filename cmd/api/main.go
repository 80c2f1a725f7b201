package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/usermgmt/user-service/internal/api"
	"github.com/usermgmt/user-service/internal/api/handler"
	"github.com/usermgmt/user-service/internal/core/ports"
	"github.com/usermgmt/user-service/internal/core/service"
	mongostore "github.com/usermgmt/user-service/internal/infrastructure/db/mongo"
	pgstore "github.com/usermgmt/user-service/internal/infrastructure/db/postgres"
	redisstore "github.com/usermgmt/user-service/internal/infrastructure/db/redis"
	"github.com/usermgmt/user-service/internal/pkg/config"
	"github.com/usermgmt/user-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title                       User Service API
// @version                     1.0
// @description                 User registration, authentication and account management.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "user-service",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped")
	}
	log.Info().Msg("service stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	repo, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	checks := []handler.DependencyCheck{{Name: cfg.Store.Driver, Ping: repo.Ping}}

	var lock ports.SeedLock
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()

		lock = redisstore.NewSeedLock(rdb)
		checks = append(checks, handler.DependencyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	tokens, err := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, TTL: cfg.JWT.TTL})
	if err != nil {
		return err
	}
	hasher := service.NewBcryptHasher(bcrypt.DefaultCost)
	users := service.NewUserService(repo, hasher, log)

	if cfg.Seed.Enabled {
		seeder := service.NewSeeder(repo, hasher, lock, cfg.Seed.AdminPassword, log)
		if _, err := seeder.SeedAdmin(ctx); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	e := api.NewRouter(api.Dependencies{
		Users:  users,
		Tokens: tokens,
		Logger: log,
		Checks: checks,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore connects the configured credential store and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.UserRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := pgstore.Connect(ctx, pgstore.Config{DSN: cfg.Store.PostgresDSN})
		if err != nil {
			return nil, nil, err
		}
		if err := pgstore.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgstore.NewUserRepository(pool), pool.Close, nil

	default:
		store, err := mongostore.Open(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}
		return store.Users, closeFn, nil
	}
}
