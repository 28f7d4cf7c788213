package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Booking struct {
	gorm.Model
	ID      uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	UserID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	User    User          `json:"-"`
	EventID uuid.UUID     `gorm:"type:uuid;not null;index" json:"event_id"`
	Event   Event         `json:"event,omitempty"`
	IsUsed  bool          `gorm:"not null;default:false" json:"is_used"`
	Items   []BookingItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

func (booking *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return
}

type BookingItem struct {
	gorm.Model
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	BookingID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"booking_id"`
	TicketTypeID uuid.UUID  `gorm:"type:uuid;not null;index" json:"ticket_type_id"`
	TicketType   TicketType `json:"ticket_type,omitempty"`
	Quantity     int        `gorm:"not null;check:quantity >= 1" json:"quantity"`
}

func (item *BookingItem) BeforeCreate(tx *gorm.DB) (err error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return
}
