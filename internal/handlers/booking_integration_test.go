package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventra/eventra/internal/helpers"
	"github.com/eventra/eventra/internal/models"
)

func postBooking(t *testing.T, r http.Handler, eventID uuid.UUID, items []BookingItemRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(CreateBookingRequest{
		EventID: eventID.String(),
		Items:   items,
	})
	if err != nil {
		t.Fatalf("marshal booking request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) helpers.Response {
	t.Helper()
	var resp helpers.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestCreateBookingSuccess(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, models.RoleUser)
	event := createTestEvent(t, db)
	ticketType := createTestTicketType(t, db, event.ID, 10)
	r := newTestRouter(db, user.ID, user.Role)

	w := postBooking(t, r, event.ID, []BookingItemRequest{
		{TicketTypeID: ticketType.ID.String(), Quantity: 3},
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	if !resp.Success {
		t.Errorf("success = false in %+v", resp)
	}

	if got := remainingFor(t, db, ticketType.ID); got != 7 {
		t.Errorf("remaining = %d, want 7", got)
	}

	var bookings []models.Booking
	if err := db.Preload("Items").Find(&bookings).Error; err != nil {
		t.Fatalf("loading bookings: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("bookings = %d, want 1", len(bookings))
	}
	if len(bookings[0].Items) != 1 || bookings[0].Items[0].Quantity != 3 {
		t.Errorf("unexpected booking items: %+v", bookings[0].Items)
	}
	if bookings[0].UserID != user.ID {
		t.Errorf("booking owner = %s, want %s", bookings[0].UserID, user.ID)
	}
}

func TestCreateBookingInsufficientInventoryIsAtomic(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, models.RoleUser)
	event := createTestEvent(t, db)
	plenty := createTestTicketType(t, db, event.ID, 10)
	scarce := createTestTicketType(t, db, event.ID, 2)
	r := newTestRouter(db, user.ID, user.Role)

	w := postBooking(t, r, event.ID, []BookingItemRequest{
		{TicketTypeID: plenty.ID.String(), Quantity: 5},
		{TicketTypeID: scarce.ID.String(), Quantity: 3},
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, http.StatusConflict, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	if resp.Success {
		t.Error("success = true for a failed booking")
	}

	// The whole transaction must roll back: the first line's decrement is
	// undone and nothing is persisted.
	if got := remainingFor(t, db, plenty.ID); got != 10 {
		t.Errorf("remaining for untouched line = %d, want 10", got)
	}
	if got := remainingFor(t, db, scarce.ID); got != 2 {
		t.Errorf("remaining for offending line = %d, want 2", got)
	}

	var bookingCount, itemCount int64
	db.Model(&models.Booking{}).Count(&bookingCount)
	db.Model(&models.BookingItem{}).Count(&itemCount)
	if bookingCount != 0 || itemCount != 0 {
		t.Errorf("bookings = %d, items = %d; want 0, 0", bookingCount, itemCount)
	}
}

func TestCreateBookingUnknownEvent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, models.RoleUser)
	r := newTestRouter(db, user.ID, user.Role)

	w := postBooking(t, r, uuid.New(), []BookingItemRequest{
		{TicketTypeID: uuid.New().String(), Quantity: 1},
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestCreateBookingUnknownTicketType(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, models.RoleUser)
	event := createTestEvent(t, db)
	r := newTestRouter(db, user.ID, user.Role)

	w := postBooking(t, r, event.ID, []BookingItemRequest{
		{TicketTypeID: uuid.New().String(), Quantity: 1},
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d, body = %s", w.Code, http.StatusNotFound, w.Body.String())
	}
}

func TestCreateBookingValidationNamesEveryField(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, models.RoleUser)
	r := newTestRouter(db, user.ID, user.Role)

	body := []byte(`{"event_id": "", "items": [{"ticket_type_id": "", "quantity": 0}]}`)
	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	resp := decodeEnvelope(t, w)
	if len(resp.Errors) == 0 {
		t.Fatalf("expected field errors, got %+v", resp)
	}
}

// TestConcurrentBookingsNeverOversell floods one ticket type with twice its
// capacity in concurrent demand and checks the guarded decrement admits
// exactly the capacity, regardless of interleaving.
func TestConcurrentBookingsNeverOversell(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, models.RoleUser)
	event := createTestEvent(t, db)

	const (
		capacity    = 20
		perRequest  = 2
		numRequests = 20 // double the capacity in total demand
	)
	ticketType := createTestTicketType(t, db, event.ID, capacity)
	r := newTestRouter(db, user.ID, user.Role)

	var wg sync.WaitGroup
	codes := make([]int, numRequests)
	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := postBooking(t, r, event.ID, []BookingItemRequest{
				{TicketTypeID: ticketType.ID.String(), Quantity: perRequest},
			})
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	created, conflicted := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicted++
		default:
			t.Errorf("unexpected status %d", code)
		}
	}

	wantCreated := capacity / perRequest
	if created != wantCreated {
		t.Errorf("created = %d, want %d (conflicted = %d)", created, wantCreated, conflicted)
	}

	if got := remainingFor(t, db, ticketType.ID); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}

	var sold int64
	err := db.Model(&models.BookingItem{}).
		Where("ticket_type_id = ?", ticketType.ID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sold).Error
	if err != nil {
		t.Fatalf("summing sold quantity: %v", err)
	}
	if sold != capacity {
		t.Errorf("sold = %d, want %d", sold, capacity)
	}
}

func TestCancelBookingRestoresCapacity(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, models.RoleUser)
	event := createTestEvent(t, db)
	ticketType := createTestTicketType(t, db, event.ID, 5)
	r := newTestRouter(db, user.ID, user.Role)

	w := postBooking(t, r, event.ID, []BookingItemRequest{
		{TicketTypeID: ticketType.ID.String(), Quantity: 4},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("booking failed: %s", w.Body.String())
	}

	var booking models.Booking
	if err := db.First(&booking).Error; err != nil {
		t.Fatalf("loading booking: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/bookings/%s", booking.ID), nil)
	cw := httptest.NewRecorder()
	r.ServeHTTP(cw, req)
	if cw.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body = %s", cw.Code, cw.Body.String())
	}

	if got := remainingFor(t, db, ticketType.ID); got != 5 {
		t.Errorf("remaining after cancel = %d, want 5", got)
	}

	err := db.First(&models.Booking{}, "id = ?", booking.ID).Error
	if err != gorm.ErrRecordNotFound {
		t.Errorf("expected cancelled booking to be gone, got err = %v", err)
	}
}

func TestGetBookingOwnership(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, models.RoleUser)
	stranger := createTestUser(t, db, models.RoleUser)
	admin := createTestUser(t, db, models.RoleAdmin)
	event := createTestEvent(t, db)
	ticketType := createTestTicketType(t, db, event.ID, 5)

	ownerRouter := newTestRouter(db, owner.ID, owner.Role)
	w := postBooking(t, ownerRouter, event.ID, []BookingItemRequest{
		{TicketTypeID: ticketType.ID.String(), Quantity: 1},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("booking failed: %s", w.Body.String())
	}

	var booking models.Booking
	if err := db.First(&booking).Error; err != nil {
		t.Fatalf("loading booking: %v", err)
	}

	tests := []struct {
		name string
		user models.User
		want int
	}{
		{"owner can read", owner, http.StatusOK},
		{"stranger is forbidden", stranger, http.StatusForbidden},
		{"admin can read", admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(db, tt.user.ID, tt.user.Role)
			req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/bookings/%s", booking.ID), nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
