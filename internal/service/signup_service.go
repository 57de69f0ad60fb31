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
	"signmeup/internal/notify"
	"signmeup/internal/repository"
)

// SignupService manages the user/event signup ledger.
type SignupService interface {
	SignUp(ctx context.Context, user *model.User, eventID uuid.UUID) (*model.Signup, error)
	Cancel(ctx context.Context, user *model.User, eventID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Event, error)
	ListForEvent(ctx context.Context, eventID uuid.UUID) ([]model.Signup, error)
}

type signupService struct {
	events   repository.EventRepository
	signups  repository.SignupRepository
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewSignupService creates a new signup service.
func NewSignupService(
	events repository.EventRepository,
	signups repository.SignupRepository,
	notifier notify.Notifier,
	logger *slog.Logger,
) SignupService {
	return &signupService{
		events:   events,
		signups:  signups,
		notifier: notifier,
		logger:   logger,
	}
}

// SignUp records user's signup for the event. The unique (user, event) index
// decides between concurrent requests that both pass the existence check.
func (s *signupService) SignUp(ctx context.Context, user *model.User, eventID uuid.UUID) (*model.Signup, error) {
	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	exists, err := s.signups.Exists(ctx, user.ID, eventID)
	if err != nil {
		return nil, fmt.Errorf("check signup: %w", err)
	}
	if exists {
		return nil, apperrors.ErrAlreadySignedUp
	}

	signup := &model.Signup{UserID: user.ID, EventID: eventID}
	if err := s.signups.Create(ctx, signup); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, apperrors.ErrAlreadySignedUp
		}
		return nil, fmt.Errorf("create signup: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed up",
		slog.String("user_id", user.ID.String()),
		slog.String("event_id", eventID.String()),
	)
	enqueue(ctx, s.logger, s.notifier, func() (notify.Message, error) {
		return notify.SignupEmail(user.Name, user.Email, event)
	})
	return signup, nil
}

func (s *signupService) Cancel(ctx context.Context, user *model.User, eventID uuid.UUID) error {
	deleted, err := s.signups.Delete(ctx, user.ID, eventID)
	if err != nil {
		return fmt.Errorf("delete signup: %w", err)
	}
	if !deleted {
		return apperrors.ErrNotSignedUp
	}

	s.logger.InfoContext(ctx, "signup canceled",
		slog.String("user_id", user.ID.String()),
		slog.String("event_id", eventID.String()),
	)

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		s.logger.WarnContext(ctx, "cancellation email skipped",
			slog.String("event_id", eventID.String()),
			slog.String("error", err.Error()),
		)
		return nil
	}
	enqueue(ctx, s.logger, s.notifier, func() (notify.Message, error) {
		return notify.CancelEmail(user.Name, user.Email, event)
	})
	return nil
}

func (s *signupService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Event, error) {
	events, err := s.signups.ListEventsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list signups for user: %w", err)
	}
	return events, nil
}

func (s *signupService) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]model.Signup, error) {
	if _, err := s.findEvent(ctx, eventID); err != nil {
		return nil, err
	}
	signups, err := s.signups.ListForEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list signups for event: %w", err)
	}
	return signups, nil
}

func (s *signupService) findEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return event, nil
}
