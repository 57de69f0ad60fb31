package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"signmeup/internal/model"
)

// SignupRepository defines persistence for the user/event signup ledger.
type SignupRepository interface {
	Create(ctx context.Context, signup *model.Signup) error
	Exists(ctx context.Context, userID, eventID uuid.UUID) (bool, error)
	// Delete removes the pair and reports whether a row was deleted.
	Delete(ctx context.Context, userID, eventID uuid.UUID) (bool, error)
	// ListEventsForUser returns the user's events, most recent signup first.
	ListEventsForUser(ctx context.Context, userID uuid.UUID) ([]model.Event, error)
	// ListForEvent returns the event's signups with their users, oldest first.
	ListForEvent(ctx context.Context, eventID uuid.UUID) ([]model.Signup, error)
	ListAttendees(ctx context.Context, eventID uuid.UUID) ([]model.Attendee, error)
}

type signupRepository struct {
	db *gorm.DB
}

// NewSignupRepository creates a new signup repository.
func NewSignupRepository(db *gorm.DB) SignupRepository {
	return &signupRepository{db: db}
}

func (r *signupRepository) Create(ctx context.Context, signup *model.Signup) error {
	return r.db.WithContext(ctx).Create(signup).Error
}

func (r *signupRepository) Exists(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Signup{}).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *signupRepository) Delete(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Delete(&model.Signup{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *signupRepository) ListEventsForUser(ctx context.Context, userID uuid.UUID) ([]model.Event, error) {
	events := []model.Event{}
	err := r.db.WithContext(ctx).
		Select("events.*").
		Joins("JOIN signups ON signups.event_id = events.id").
		Where("signups.user_id = ?", userID).
		Order("signups.created_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *signupRepository) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]model.Signup, error) {
	signups := []model.Signup{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&signups).Error
	if err != nil {
		return nil, err
	}
	return signups, nil
}

func (r *signupRepository) ListAttendees(ctx context.Context, eventID uuid.UUID) ([]model.Attendee, error) {
	attendees := []model.Attendee{}
	err := r.db.WithContext(ctx).
		Select("users.id, users.name, users.email").
		Joins("JOIN signups ON signups.user_id = users.id").
		Where("signups.event_id = ?", eventID).
		Order("signups.created_at ASC").
		Find(&attendees).Error
	if err != nil {
		return nil, err
	}
	return attendees, nil
}

// IsDuplicateKey reports whether err is a unique-index violation.
// Drivers without error translation are matched on their message.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
