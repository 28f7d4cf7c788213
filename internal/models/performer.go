package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Performer struct {
	gorm.Model
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Slug      string    `gorm:"unique;not null;index" json:"slug"`
	Name      string    `gorm:"not null" json:"name"`
	Genre     string    `json:"genre"`
	Bio       string    `json:"bio"`
	ImagePath string    `json:"image_path"`
	Events    []Event   `gorm:"many2many:event_performers;" json:"events,omitempty"`
}

func (performer *Performer) BeforeCreate(tx *gorm.DB) (err error) {
	if performer.ID == uuid.Nil {
		performer.ID = uuid.New()
	}
	return
}
