package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	ID          uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	Slug        string       `gorm:"unique;not null;index" json:"slug"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"not null" json:"description"`
	CoverPath   string       `json:"cover_path"`
	StartTime   time.Time    `gorm:"not null" json:"start_time"`
	EndTime     time.Time    `gorm:"not null" json:"end_time"`
	VenueID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"venue_id"`
	Venue       Venue        `json:"venue,omitempty"`
	Performers  []Performer  `gorm:"many2many:event_performers;" json:"performers,omitempty"`
	TicketTypes []TicketType `json:"ticket_types,omitempty"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
