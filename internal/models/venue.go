package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Venue struct {
	gorm.Model
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Slug     string    `gorm:"unique;not null;index" json:"slug"`
	Name     string    `gorm:"not null" json:"name"`
	Address  string    `gorm:"not null" json:"address"`
	City     string    `gorm:"not null" json:"city"`
	Capacity int       `json:"capacity"`
	Events   []Event   `json:"events,omitempty"`
}

func (venue *Venue) BeforeCreate(tx *gorm.DB) (err error) {
	if venue.ID == uuid.Nil {
		venue.ID = uuid.New()
	}
	return
}
