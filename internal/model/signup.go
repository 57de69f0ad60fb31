package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Signup records that a user joined an event. The (UserID, EventID) pair is unique.
type Signup struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:char(36);not null;uniqueIndex:idx_signup_user_event,priority:1"`
	EventID   uuid.UUID `json:"eventId" gorm:"type:char(36);not null;uniqueIndex:idx_signup_user_event,priority:2;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`

	// Relations
	User  *Attendee `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Event *Event    `json:"event,omitempty" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (s *Signup) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Attendee is the public projection of a user shown in an event's signup list.
type Attendee struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// TableName maps Attendee onto the users table.
func (Attendee) TableName() string { return "users" }
