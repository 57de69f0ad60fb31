package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is something users can sign up for. Only admins create, change or delete events.
type Event struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Date        time.Time `json:"date" gorm:"not null;index"`
	Location    string    `json:"location" gorm:"size:255"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EventDetail is an event as seen by a particular caller.
type EventDetail struct {
	Event
	UserSignedUp bool `json:"userSignedUp"`
}

// EventPatch carries a partial event update. Nil fields keep their stored value.
type EventPatch struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
}

// Apply copies the set fields of p onto e.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
}
