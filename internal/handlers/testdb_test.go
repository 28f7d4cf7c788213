package handlers

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eventra/eventra/internal/middleware"
	"github.com/eventra/eventra/internal/models"
)

const defaultTestDSN = "host=localhost user=postgres password=postgres dbname=eventra_test port=5432 sslmode=disable TimeZone=UTC"

// newTestDB opens the integration database or skips the test when none is
// reachable, so `go test ./...` stays green without local Postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("skipping Postgres integration test: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil || sqlDB.Ping() != nil {
		t.Skipf("skipping Postgres integration test: database unreachable")
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Venue{},
		&models.Performer{},
		&models.Event{},
		&models.TicketType{},
		&models.Booking{},
		&models.BookingItem{},
	)
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	truncateAll(t, db)
	t.Cleanup(func() {
		truncateAll(t, db)
		_ = sqlDB.Close()
	})

	return db
}

func truncateAll(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Exec(`TRUNCATE booking_items, bookings, ticket_types, event_performers, events, performers, venues, users RESTART IDENTITY CASCADE`).Error
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

// newTestRouter wires the booking and admin routes behind a stub identity so
// handler behavior can be exercised without minting JWTs.
func newTestRouter(db *gorm.DB, userID uuid.UUID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	})

	r.POST("/bookings", CreateBooking)
	r.GET("/bookings", ListBookings)
	r.GET("/bookings/:id", GetBooking)
	r.DELETE("/bookings/:id", CancelBooking)

	r.POST("/venues", CreateVenue)
	r.POST("/events/:id/ticket-types", CreateTicketType)
	r.PUT("/ticket-types/:id", UpdateTicketType)
	r.DELETE("/ticket-types/:id", DeleteTicketType)

	return r
}

func createTestUser(t *testing.T, db *gorm.DB, role string) models.User {
	t.Helper()
	user := models.User{
		Name:     "Test User",
		Email:    uuid.New().String() + "@example.com",
		Password: "hashed",
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}

func createTestEvent(t *testing.T, db *gorm.DB) models.Event {
	t.Helper()
	venue := models.Venue{
		Slug:    "venue-" + uuid.New().String(),
		Name:    "Test Hall",
		Address: "1 Main St",
		City:    "Testville",
	}
	if err := db.Create(&venue).Error; err != nil {
		t.Fatalf("creating test venue: %v", err)
	}

	event := models.Event{
		Slug:        "event-" + uuid.New().String(),
		Title:       "Test Event",
		Description: "An event for tests",
		VenueID:     venue.ID,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("creating test event: %v", err)
	}
	return event
}

func createTestTicketType(t *testing.T, db *gorm.DB, eventID uuid.UUID, capacity int) models.TicketType {
	t.Helper()
	ticketType := models.TicketType{
		Name:      "General",
		Price:     2500,
		Capacity:  capacity,
		Remaining: capacity,
		EventID:   eventID,
	}
	if err := db.Create(&ticketType).Error; err != nil {
		t.Fatalf("creating test ticket type: %v", err)
	}
	return ticketType
}

func remainingFor(t *testing.T, db *gorm.DB, ticketTypeID uuid.UUID) int {
	t.Helper()
	var ticketType models.TicketType
	if err := db.First(&ticketType, "id = ?", ticketTypeID).Error; err != nil {
		t.Fatalf("loading ticket type: %v", err)
	}
	return ticketType.Remaining
}
