package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"signmeup/internal/cache"
	apperrors "signmeup/internal/errors"
	"signmeup/internal/model"
	"signmeup/internal/notify"
	"signmeup/internal/repository"
)

const (
	eventCacheTTL     = time.Minute
	eventListCacheKey = "events:all"
)

// Accepted event date layouts: RFC 3339 and the forms an HTML datetime-local or date input submits.
var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// EventInput is the data needed to create an event.
type EventInput struct {
	Title       string
	Description string
	Date        string
	Location    string
}

// EventChanges holds a partial update. Nil fields are left untouched.
type EventChanges struct {
	Title       *string
	Description *string
	Date        *string
	Location    *string
}

// EventService handles event operations.
type EventService interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	// GetEvent annotates the event for viewer, which may be nil for anonymous callers.
	GetEvent(ctx context.Context, id uuid.UUID, viewer *model.User) (*model.EventDetail, error)
	CreateEvent(ctx context.Context, input EventInput) (*model.Event, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, changes EventChanges) (*model.Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

type eventService struct {
	events         repository.EventRepository
	signups        repository.SignupRepository
	cache          *cache.Client
	notifier       notify.Notifier
	notifyOnUpdate bool
	logger         *slog.Logger
}

// NewEventService creates a new event service. When notifyOnUpdate is set,
// every attendee of an updated event receives the update notice.
func NewEventService(
	events repository.EventRepository,
	signups repository.SignupRepository,
	cache *cache.Client,
	notifier notify.Notifier,
	notifyOnUpdate bool,
	logger *slog.Logger,
) EventService {
	return &eventService{
		events:         events,
		signups:        signups,
		cache:          cache,
		notifier:       notifier,
		notifyOnUpdate: notifyOnUpdate,
		logger:         logger,
	}
}

func (s *eventService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("event:%s", id.String())
}

// ParseEventDate parses an event date in any accepted layout.
func ParseEventDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.Validation("invalid date %q", value)
}

func (s *eventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	var cached []model.Event
	if s.cache.GetJSON(ctx, eventListCacheKey, &cached) {
		return cached, nil
	}

	events, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	s.cache.SetJSON(ctx, eventListCacheKey, events, eventCacheTTL)
	return events, nil
}

func (s *eventService) GetEvent(ctx context.Context, id uuid.UUID, viewer *model.User) (*model.EventDetail, error) {
	event, err := s.findEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &model.EventDetail{Event: *event}
	if viewer != nil {
		signedUp, err := s.signups.Exists(ctx, viewer.ID, id)
		if err != nil {
			return nil, fmt.Errorf("check signup: %w", err)
		}
		detail.UserSignedUp = signedUp
	}
	return detail, nil
}

// findEvent reads through the cache. The per-user flag is never cached.
func (s *eventService) findEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var cached model.Event
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	s.cache.SetJSON(ctx, s.cacheKey(id), event, eventCacheTTL)
	return event, nil
}

func (s *eventService) CreateEvent(ctx context.Context, input EventInput) (*model.Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.Validation("title is required")
	}
	if strings.TrimSpace(input.Date) == "" {
		return nil, apperrors.Validation("date is required")
	}
	date, err := ParseEventDate(input.Date)
	if err != nil {
		return nil, err
	}

	event := &model.Event{
		Title:       title,
		Description: input.Description,
		Date:        date,
		Location:    input.Location,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.cache.Delete(ctx, eventListCacheKey)
	s.logger.InfoContext(ctx, "event created", slog.String("event_id", event.ID.String()))
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id uuid.UUID, changes EventChanges) (*model.Event, error) {
	patch, err := changes.toPatch()
	if err != nil {
		return nil, err
	}

	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}

	patch.Apply(event)
	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.cache.Delete(ctx, eventListCacheKey, s.cacheKey(id))
	s.logger.InfoContext(ctx, "event updated", slog.String("event_id", event.ID.String()))

	if s.notifyOnUpdate {
		s.notifyAttendees(ctx, event)
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrEventNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}

	s.cache.Delete(ctx, eventListCacheKey, s.cacheKey(id))
	s.logger.InfoContext(ctx, "event deleted", slog.String("event_id", id.String()))
	return nil
}

func (s *eventService) notifyAttendees(ctx context.Context, event *model.Event) {
	attendees, err := s.signups.ListAttendees(ctx, event.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list attendees for update notice",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	for _, a := range attendees {
		enqueue(ctx, s.logger, s.notifier, func() (notify.Message, error) {
			return notify.EventUpdatedEmail(a.Name, a.Email, event)
		})
	}
}

// toPatch validates the changes. An empty date keeps the stored one.
func (c EventChanges) toPatch() (model.EventPatch, error) {
	patch := model.EventPatch{
		Description: c.Description,
		Location:    c.Location,
	}
	if c.Title != nil {
		title := strings.TrimSpace(*c.Title)
		if title == "" {
			return patch, apperrors.Validation("title cannot be empty")
		}
		patch.Title = &title
	}
	if c.Date != nil && strings.TrimSpace(*c.Date) != "" {
		date, err := ParseEventDate(*c.Date)
		if err != nil {
			return patch, err
		}
		patch.Date = &date
	}
	return patch, nil
}
