package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"signmeup/internal/model"
)

// EventRepository defines event persistence operations.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	Update(ctx context.Context, event *model.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	// Delete removes the event and its signups in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Create creates a new event.
func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// Update saves every field of an existing event.
func (r *eventRepository) Update(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Save(event).Error
}

// FindByID finds an event by ID.
func (r *eventRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns all events, soonest first.
func (r *eventRepository) List(ctx context.Context) ([]model.Event, error) {
	events := []model.Event{}
	if err := r.db.WithContext(ctx).Order("date ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Delete returns gorm.ErrRecordNotFound when no event has the id.
func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&model.Signup{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Event{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
