package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventra/eventra/internal/helpers"
	"github.com/eventra/eventra/internal/models"
)

type CreateTicketTypeRequest struct {
	Name     string `json:"name" binding:"required"`
	Price    int    `json:"price" binding:"gte=0"`
	Capacity int    `json:"capacity" binding:"required,gte=1"`
}

type UpdateTicketTypeRequest struct {
	Name     string `json:"name" binding:"required"`
	Price    int    `json:"price" binding:"gte=0"`
	Capacity int    `json:"capacity" binding:"required,gte=1"`
}

func CreateTicketType(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	var req CreateTicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithFieldErrors(c, "Invalid input. Please check your fields.", helpers.FieldErrors(err))
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Where("id = ?", eventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding event.")
		return
	}

	ticketType := models.TicketType{
		Name:      req.Name,
		Price:     req.Price,
		Capacity:  req.Capacity,
		Remaining: req.Capacity,
		EventID:   event.ID,
	}

	if err := gormDB.Create(&ticketType).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create ticket type.")
		return
	}

	invalidateEventCache(c)

	helpers.RespondWithData(c, http.StatusCreated, "Ticket type created successfully.", gin.H{
		"ticket_type_id": ticketType.ID,
	})
}

// UpdateTicketType adjusts remaining by the capacity delta so already-sold
// quantities are preserved; capacity can never drop below what is sold.
func UpdateTicketType(c *gin.Context) {
	ticketTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket type ID.")
		return
	}

	var req UpdateTicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithFieldErrors(c, "Invalid input. Please check your fields.", helpers.FieldErrors(err))
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var updated models.TicketType
	err = gormDB.Transaction(func(tx *gorm.DB) error {
		var ticketType models.TicketType
		if err := tx.First(&ticketType, "id = ?", ticketTypeID).Error; err != nil {
			return err
		}

		sold := ticketType.Capacity - ticketType.Remaining
		if req.Capacity < sold {
			return errCapacityBelowSold
		}

		delta := req.Capacity - ticketType.Capacity
		result := tx.Model(&models.TicketType{}).
			Where("id = ? AND remaining + ? >= 0", ticketType.ID, delta).
			UpdateColumns(map[string]interface{}{
				"name":      req.Name,
				"price":     req.Price,
				"capacity":  req.Capacity,
				"remaining": gorm.Expr("remaining + ?", delta),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errCapacityBelowSold
		}

		return tx.First(&updated, "id = ?", ticketType.ID).Error
	})

	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			helpers.RespondWithError(c, http.StatusNotFound, "Ticket type not found.")
		case errors.Is(err, errCapacityBelowSold):
			helpers.RespondWithError(c, http.StatusConflict, "Capacity cannot drop below the quantity already sold.")
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update ticket type.")
		}
		return
	}

	invalidateEventCache(c)

	helpers.RespondWithData(c, http.StatusOK, "Ticket type updated successfully.", updated)
}

var errCapacityBelowSold = errors.New("capacity below sold quantity")

func DeleteTicketType(c *gin.Context) {
	ticketTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket type ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var itemCount int64
	if err := gormDB.Model(&models.BookingItem{}).Where("ticket_type_id = ?", ticketTypeID).Count(&itemCount).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error checking bookings.")
		return
	}
	if itemCount > 0 {
		helpers.RespondWithError(c, http.StatusConflict, "Ticket type has bookings and cannot be deleted.")
		return
	}

	result := gormDB.Where("id = ?", ticketTypeID).Delete(&models.TicketType{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete ticket type.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket type not found.")
		return
	}

	invalidateEventCache(c)

	helpers.RespondWithData(c, http.StatusOK, "Ticket type deleted successfully.", nil)
}
