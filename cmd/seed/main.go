// Command seed creates or promotes the first ADMIN account, which the HTTP
// API cannot do because registration always yields a USER.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"

	"signmeup/internal/auth"
	"signmeup/internal/config"
	"signmeup/internal/db"
	"signmeup/internal/model"
	"signmeup/internal/repository"
	"signmeup/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	email := service.NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")
	if name == "" {
		name = "Admin"
	}
	if email == "" {
		logger.Error("ADMIN_EMAIL is required")
		os.Exit(1)
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close(gormDB)

	if err := db.Migrate(gormDB); err != nil {
		logger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := repository.NewUserRepository(gormDB)
	user, err := seedAdmin(ctx, repo, auth.NewPasswordHasher(), name, email, password)
	if err != nil {
		logger.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("admin ready", slog.String("id", user.ID.String()), slog.String("email", user.Email))
}

// seedAdmin promotes an existing user, or creates one when a password is given.
func seedAdmin(ctx context.Context, repo repository.UserRepository, hasher *auth.PasswordHasher, name, email, password string) (*model.User, error) {
	user, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role != model.RoleAdmin {
			if err := repo.UpdateRole(ctx, user.ID, model.RoleAdmin); err != nil {
				return nil, err
			}
			user.Role = model.RoleAdmin
		}
		return user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if password == "" {
		return nil, errors.New("ADMIN_PASSWORD is required to create a new admin")
	}
	hashed, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user = &model.User{Name: name, Email: email, PasswordHash: hashed, Role: model.RoleAdmin}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
