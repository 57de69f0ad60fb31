package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"signmeup/internal/auth"
	apperrors "signmeup/internal/errors"
	"signmeup/internal/model"
	"signmeup/internal/notify"
	"signmeup/internal/repository"
)

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (token string, user *model.User, err error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

type authService struct {
	userRepo   repository.UserRepository
	hasher     *auth.PasswordHasher
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	notifier   notify.Notifier
	logger     *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	hasher *auth.PasswordHasher,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	notifier notify.Notifier,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		hasher:     hasher,
		jwtService: jwtService,
		tokenStore: tokenStore,
		notifier:   notifier,
		logger:     logger,
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a USER account with a hashed password.
func (s *authService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, apperrors.Validation("name, email and password are required")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if repository.IsDuplicateKey(err) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.String()))
	enqueue(ctx, s.logger, s.notifier, func() (notify.Message, error) {
		return notify.WelcomeEmail(user.Name, user.Email)
	})
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, apperrors.Validation("email and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrUserNotFound
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return "", nil, err
	}

	token, err := s.jwtService.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Logout revokes the presented token until it would have expired.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperrors.ErrMissingToken
	}
	if err := s.tokenStore.Revoke(ctx, claims.ID, s.jwtService.Remaining(claims)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// enqueue renders a message and hands it to the notifier. Failures are logged only.
func enqueue(ctx context.Context, logger *slog.Logger, notifier notify.Notifier, build func() (notify.Message, error)) {
	msg, err := build()
	if err != nil {
		logger.ErrorContext(ctx, "failed to render email", slog.String("error", err.Error()))
		return
	}
	notifier.Enqueue(msg)
}
