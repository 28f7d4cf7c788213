package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventra/eventra/internal/middleware"
	"github.com/eventra/eventra/internal/models"
)

func newEventListRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	r.GET("/events", ListEvents)
	return r
}

func createEventAt(t *testing.T, db *gorm.DB, venueID uuid.UUID, title string, start time.Time) models.Event {
	t.Helper()
	event := models.Event{
		Slug:      "event-" + uuid.New().String(),
		Title:     title,
		VenueID:   venueID,
		StartTime: start,
		EndTime:   start.Add(3 * time.Hour),
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("creating event: %v", err)
	}
	return event
}

func listEventTitles(t *testing.T, r http.Handler, query string) []string {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events"+query, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Events []struct {
				Title string `json:"title"`
			} `json:"events"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	titles := make([]string, 0, len(resp.Data.Events))
	for _, e := range resp.Data.Events {
		titles = append(titles, e.Title)
	}
	return titles
}

func TestListEventsDateFilter(t *testing.T) {
	db := newTestDB(t)

	venue := models.Venue{
		Slug:    "venue-" + uuid.New().String(),
		Name:    "Filter Hall",
		Address: "1 Main St",
		City:    "Testville",
	}
	if err := db.Create(&venue).Error; err != nil {
		t.Fatalf("creating venue: %v", err)
	}

	base := time.Date(2026, time.June, 1, 20, 0, 0, 0, time.UTC)
	createEventAt(t, db, venue.ID, "Spring Show", base)
	createEventAt(t, db, venue.ID, "Summer Show", base.AddDate(0, 2, 0))
	createEventAt(t, db, venue.ID, "Autumn Show", base.AddDate(0, 4, 0))

	r := newEventListRouter(db)

	titles := listEventTitles(t, r, "?from="+base.AddDate(0, 1, 0).Format(time.RFC3339))
	if len(titles) != 2 || titles[0] != "Summer Show" || titles[1] != "Autumn Show" {
		t.Errorf("from filter returned %v, want [Summer Show Autumn Show]", titles)
	}

	titles = listEventTitles(t, r, "?to="+base.AddDate(0, 1, 0).Format(time.RFC3339))
	if len(titles) != 1 || titles[0] != "Spring Show" {
		t.Errorf("to filter returned %v, want [Spring Show]", titles)
	}

	titles = listEventTitles(t, r,
		"?from="+base.AddDate(0, 1, 0).Format(time.RFC3339)+
			"&to="+base.AddDate(0, 3, 0).Format(time.RFC3339))
	if len(titles) != 1 || titles[0] != "Summer Show" {
		t.Errorf("range filter returned %v, want [Summer Show]", titles)
	}

	// Garbage timestamps are rejected up front.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?from=next-tuesday", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad timestamp status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
