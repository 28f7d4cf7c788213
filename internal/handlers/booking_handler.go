package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventra/eventra/config"
	"github.com/eventra/eventra/internal/helpers"
	"github.com/eventra/eventra/internal/middleware"
	"github.com/eventra/eventra/internal/models"
)

type BookingItemRequest struct {
	TicketTypeID string `json:"ticket_type_id" binding:"required,uuid"`
	Quantity     int    `json:"quantity" binding:"required,gte=1"`
}

type CreateBookingRequest struct {
	EventID string               `json:"event_id" binding:"required,uuid"`
	Items   []BookingItemRequest `json:"items" binding:"required,min=1,dive"`
}

// Validate checks the payload independently of the binding layer and names
// every violated field. It has no side effects.
func (req *CreateBookingRequest) Validate() map[string]string {
	fieldErrors := map[string]string{}

	if _, err := uuid.Parse(req.EventID); req.EventID == "" || err != nil {
		fieldErrors["event_id"] = "Must be a valid identifier."
	}
	if len(req.Items) == 0 {
		fieldErrors["items"] = "Must contain at least 1 item(s)."
	}
	for i, item := range req.Items {
		if _, err := uuid.Parse(item.TicketTypeID); item.TicketTypeID == "" || err != nil {
			fieldErrors[fmt.Sprintf("items[%d].ticket_type_id", i)] = "Must be a valid identifier."
		}
		if item.Quantity < 1 {
			fieldErrors[fmt.Sprintf("items[%d].quantity", i)] = "Must be at least 1."
		}
	}

	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

// mergedItems folds duplicate ticket-type lines together so one request
// cannot pass two partial quantities through separate capacity checks.
func (req *CreateBookingRequest) mergedItems() ([]uuid.UUID, map[uuid.UUID]int) {
	quantities := make(map[uuid.UUID]int, len(req.Items))
	order := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		id := uuid.MustParse(item.TicketTypeID)
		if _, seen := quantities[id]; !seen {
			order = append(order, id)
		}
		quantities[id] += item.Quantity
	}
	return order, quantities
}

var errTicketTypeNotFound = errors.New("ticket type not found for event")

type insufficientInventoryError struct {
	TicketTypeIDs []uuid.UUID
}

func (e *insufficientInventoryError) Error() string {
	ids := make([]string, len(e.TicketTypeIDs))
	for i, id := range e.TicketTypeIDs {
		ids[i] = id.String()
	}
	return "insufficient inventory for ticket type(s): " + strings.Join(ids, ", ")
}

func CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithFieldErrors(c, "Invalid input. Please check your fields.", helpers.FieldErrors(err))
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	if fieldErrors := req.Validate(); fieldErrors != nil {
		helpers.RespondWithFieldErrors(c, "Invalid input. Please check your fields.", fieldErrors)
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	eventID := uuid.MustParse(req.EventID)
	order, quantities := req.mergedItems()

	var booking models.Booking
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.Where("id = ?", eventID).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}

		// The guarded update is the only writer of remaining: the quantity
		// comes off atomically, or not at all, so concurrent bookings for
		// the same ticket type serialize on the row and can never oversell.
		// Rows are claimed in sorted id order so overlapping multi-line
		// bookings cannot deadlock each other.
		locked := make([]uuid.UUID, len(order))
		copy(locked, order)
		sort.Slice(locked, func(i, j int) bool {
			return locked[i].String() < locked[j].String()
		})

		var insufficient []uuid.UUID
		for _, ticketTypeID := range locked {
			quantity := quantities[ticketTypeID]
			result := tx.Model(&models.TicketType{}).
				Where("id = ? AND event_id = ? AND remaining >= ?", ticketTypeID, eventID, quantity).
				UpdateColumn("remaining", gorm.Expr("remaining - ?", quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				var count int64
				if err := tx.Model(&models.TicketType{}).
					Where("id = ? AND event_id = ?", ticketTypeID, eventID).
					Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return errTicketTypeNotFound
				}
				insufficient = append(insufficient, ticketTypeID)
			}
		}
		if len(insufficient) > 0 {
			return &insufficientInventoryError{TicketTypeIDs: insufficient}
		}

		booking = models.Booking{
			UserID:  userID,
			EventID: eventID,
		}
		for _, ticketTypeID := range order {
			booking.Items = append(booking.Items, models.BookingItem{
				TicketTypeID: ticketTypeID,
				Quantity:     quantities[ticketTypeID],
			})
		}

		return tx.Create(&booking).Error
	})

	if err != nil {
		var insufficientErr *insufficientInventoryError
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		case errors.Is(err, errTicketTypeNotFound):
			helpers.RespondWithError(c, http.StatusNotFound, "Ticket type not found for this event.")
		case errors.As(err, &insufficientErr):
			helpers.RespondWithError(c, http.StatusConflict, "Not enough tickets remaining: "+insufficientErr.Error())
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create booking.")
		}
		return
	}

	if cacheClient := middleware.GetCacheClient(c); cacheClient != nil {
		// Listings embed remaining counts; drop them so the sale shows up.
		_ = cacheClient.InvalidateEventLists(c.Request.Context())
	}

	helpers.RespondWithData(c, http.StatusCreated, "Booking created successfully.", gin.H{
		"booking_id": booking.ID,
		"event_id":   booking.EventID,
		"items":      booking.Items,
	})
}

func ListBookings(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var bookings []models.Booking
	err := gormDB.Preload("Items.TicketType").Preload("Event").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving bookings.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, "Bookings retrieved.", bookings)
}

func GetBooking(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var booking models.Booking
	if err := gormDB.Preload("Items.TicketType").Preload("Event").First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Booking not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving booking.")
		return
	}

	role, _ := c.Get("role")
	if booking.UserID != userID && role != models.RoleAdmin {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to view this booking.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, "Booking retrieved.", booking)
}

// CancelBooking releases the booking's quantities back to their ticket
// types through the same transactional path that claimed them.
func CancelBooking(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		// The booking row is locked so a door scan cannot mark it used
		// while the cancellation is in flight.
		var booking models.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").First(&booking, "id = ?", bookingID).Error; err != nil {
			return err
		}
		if booking.UserID != userID {
			return errNotBookingOwner
		}
		if booking.IsUsed {
			return errBookingAlreadyUsed
		}

		for _, item := range booking.Items {
			result := tx.Model(&models.TicketType{}).
				Where("id = ?", item.TicketTypeID).
				UpdateColumn("remaining", gorm.Expr("remaining + ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
		}

		if err := tx.Where("booking_id = ?", booking.ID).Delete(&models.BookingItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&booking).Error
	})

	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			helpers.RespondWithError(c, http.StatusNotFound, "Booking not found.")
		case errors.Is(err, errNotBookingOwner):
			helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to cancel this booking.")
		case errors.Is(err, errBookingAlreadyUsed):
			helpers.RespondWithError(c, http.StatusConflict, "Booking has already been used.")
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to cancel booking.")
		}
		return
	}

	if cacheClient := middleware.GetCacheClient(c); cacheClient != nil {
		_ = cacheClient.InvalidateEventLists(c.Request.Context())
	}

	helpers.RespondWithData(c, http.StatusOK, "Booking cancelled successfully.", nil)
}

var (
	errNotBookingOwner    = errors.New("booking belongs to another user")
	errBookingAlreadyUsed = errors.New("booking already used")
)

func GenerateBookingQR(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
			return
		}

		bookingID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID.")
			return
		}

		db, exists := c.Get("db")
		if !exists {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
			return
		}
		gormDB := db.(*gorm.DB)

		var booking models.Booking
		if err := gormDB.First(&booking, "id = ?", bookingID).Error; err != nil {
			helpers.RespondWithError(c, http.StatusNotFound, "Booking not found.")
			return
		}

		if booking.UserID != userID {
			helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to generate a QR code for this booking.")
			return
		}

		if booking.IsUsed {
			helpers.RespondWithError(c, http.StatusConflict, "Booking has already been used.")
			return
		}

		qrData := helpers.BookingQRData(booking.ID, booking.EventID, booking.UserID, cfg.JWTSecret)

		qrImage, err := qrcode.Encode(qrData, qrcode.Medium, 256)
		if err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
			return
		}

		c.Data(http.StatusOK, "image/png", qrImage)
	}
}

// ValidateBooking lets an administrator scan a QR payload at the door and
// mark the booking used exactly once.
func ValidateBooking(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			QRData string `json:"qr_data" binding:"required"`
		}
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

		bookingID, err := helpers.ExtractBookingIDFromQRData(req.QRData)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid QR code format.")
			return
		}

		var booking models.Booking
		if err := gormDB.Preload("Event").First(&booking, "id = ?", bookingID).Error; err != nil {
			helpers.RespondWithError(c, http.StatusNotFound, "Booking not found.")
			return
		}

		if !helpers.ValidateBookingQRData(booking.ID, booking.EventID, booking.UserID, cfg.JWTSecret, req.QRData) {
			helpers.RespondWithError(c, http.StatusForbidden, "Invalid QR code signature.")
			return
		}

		// Conditional update so concurrent scans of the same QR cannot
		// both succeed.
		result := gormDB.Model(&booking).
			Where("is_used = ?", false).
			Update("is_used", true)
		if result.Error != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to validate booking.")
			return
		}
		if result.RowsAffected == 0 {
			helpers.RespondWithError(c, http.StatusConflict, "Booking has already been used.")
			return
		}

		helpers.RespondWithData(c, http.StatusOK, "Booking validated successfully.", gin.H{
			"booking_id":  booking.ID,
			"event_title": booking.Event.Title,
		})
	}
}
