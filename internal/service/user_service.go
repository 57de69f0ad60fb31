package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "signmeup/internal/errors"
	"signmeup/internal/model"
	"signmeup/internal/repository"
)

// UserService exposes user lookups and role management.
type UserService interface {
	// GetUser always reads storage so a role change takes effect on the next request.
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, actor *model.User, targetID uuid.UUID, role model.Role) (*model.User, error)
}

type userService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

// NewUserService builds a UserService.
func NewUserService(repo repository.UserRepository, logger *slog.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) UpdateRole(ctx context.Context, actor *model.User, targetID uuid.UUID, role model.Role) (*model.User, error) {
	if actor != nil && actor.ID == targetID {
		return nil, apperrors.ErrSelfRoleChange
	}
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRole(ctx, target.ID, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	target.Role = role

	s.logger.InfoContext(ctx, "user role changed",
		slog.String("user_id", target.ID.String()),
		slog.String("role", string(role)),
	)
	return target, nil
}
