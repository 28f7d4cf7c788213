package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketType carries its own remaining counter. Every mutation of Remaining
// must go through the guarded decrement in the booking handler; the check
// constraint is a backstop, not the mechanism.
type TicketType struct {
	gorm.Model
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Price     int       `gorm:"not null" json:"price"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	Remaining int       `gorm:"not null;check:remaining >= 0" json:"remaining"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
	Event     Event     `json:"-"`
}

func (ticketType *TicketType) BeforeCreate(tx *gorm.DB) (err error) {
	if ticketType.ID == uuid.Nil {
		ticketType.ID = uuid.New()
	}
	return
}
