package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventra/eventra/internal/helpers"
	"github.com/eventra/eventra/internal/middleware"
	"github.com/eventra/eventra/internal/models"
)

// ensureUniqueSlug appends -2, -3, ... until the slug is free for the given
// model. Runs inside the caller's transaction when one is active.
func ensureUniqueSlug(db *gorm.DB, model interface{}, slug string, ignoreID uuid.UUID) (string, error) {
	candidate := slug
	for i := 2; ; i++ {
		var count int64
		query := db.Model(model).Where("slug = ?", candidate)
		if ignoreID != uuid.Nil {
			query = query.Where("id <> ?", ignoreID)
		}
		if err := query.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
}

func CreateEvent(c *gin.Context) {
	title := c.PostForm("title")
	description := c.PostForm("description")

	startTimeStr := c.PostForm("start_time")
	endTimeStr := c.PostForm("end_time")
	startTime, err := time.Parse(time.RFC3339, startTimeStr)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid start time format.")
		return
	}
	endTime, err := time.Parse(time.RFC3339, endTimeStr)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid end time format.")
		return
	}

	venueIDStr := c.PostForm("venue_id")
	venueID, err := uuid.Parse(venueIDStr)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid venue ID.")
		return
	}

	var performerIDs []uuid.UUID
	for i := 0; ; i++ {
		raw := c.PostForm(fmt.Sprintf("performers[%d]", i))
		if raw == "" {
			break
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid performer ID.")
			return
		}
		performerIDs = append(performerIDs, id)
	}

	if title == "" || description == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing required fields.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var venue models.Venue
	if err := gormDB.Where("id = ?", venueID).First(&venue).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Venue not found.")
		return
	}

	var performers []models.Performer
	if len(performerIDs) > 0 {
		if err := gormDB.Where("id IN ?", performerIDs).Find(&performers).Error; err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Error loading performers.")
			return
		}
		if len(performers) != len(performerIDs) {
			helpers.RespondWithError(c, http.StatusNotFound, "One or more performers not found.")
			return
		}
	}

	slug, err := ensureUniqueSlug(gormDB, &models.Event{}, helpers.Slugify(title, helpers.SlugOptions{Fallback: "event"}), uuid.Nil)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate slug.")
		return
	}

	event := models.Event{
		Slug:        slug,
		Title:       title,
		Description: description,
		StartTime:   startTime,
		EndTime:     endTime,
		VenueID:     venueID,
		Performers:  performers,
	}

	coverFile, err := c.FormFile("cover")
	if err == nil {
		coverPath, err := helpers.UploadImage(c, coverFile, "event_covers")
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		event.CoverPath = coverPath
	}

	if err := gormDB.Create(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	invalidateEventCache(c)

	helpers.RespondWithData(c, http.StatusCreated, "Event created successfully.", gin.H{
		"event_id": event.ID,
		"slug":     event.Slug,
	})
}

// GetEvent accepts either a uuid or a slug in the path, since public pages
// link events by slug.
func GetEvent(c *gin.Context) {
	param := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	query := gormDB.Preload("Venue").Preload("Performers").Preload("TicketTypes")
	if id, err := uuid.Parse(param); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", param)
	}

	var event models.Event
	if err := query.First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, "Event retrieved.", event)
}

func ListEvents(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	pageNum, limitNum, err := helpers.Pagination(c)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	cacheClient := middleware.GetCacheClient(c)
	cacheKey := c.Request.URL.RawQuery
	if cacheClient != nil {
		if cached := cacheClient.GetEventList(c.Request.Context(), cacheKey); cached != "" {
			helpers.RespondWithData(c, http.StatusOK, "Events retrieved.", json.RawMessage(cached))
			return
		}
	}

	venueSlug := c.Query("venue")
	performerSlug := c.Query("performer")
	city := c.Query("city")

	query := gormDB.Model(&models.Event{})
	if venueSlug != "" {
		query = query.Joins("JOIN venues ON venues.id = events.venue_id").Where("venues.slug = ?", venueSlug)
	}
	if city != "" {
		query = query.Joins("JOIN venues v2 ON v2.id = events.venue_id").Where("v2.city = ?", city)
	}
	if performerSlug != "" {
		query = query.
			Joins("JOIN event_performers ep ON ep.event_id = events.id").
			Joins("JOIN performers ON performers.id = ep.performer_id").
			Where("performers.slug = ?", performerSlug)
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid 'from' time format.")
			return
		}
		query = query.Where("events.start_time >= ?", from)
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid 'to' time format.")
			return
		}
		query = query.Where("events.start_time <= ?", to)
	}

	var totalCount int64
	query.Count(&totalCount)

	var events []models.Event
	offset := (pageNum - 1) * limitNum
	err = query.Preload("Venue").Preload("TicketTypes").
		Offset(offset).Limit(limitNum).Order("start_time ASC").
		Find(&events).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	payload := gin.H{
		"events":      events,
		"total":       totalCount,
		"page":        pageNum,
		"limit":       limitNum,
		"total_pages": (totalCount + int64(limitNum) - 1) / int64(limitNum),
	}

	if cacheClient != nil {
		if body, err := json.Marshal(payload); err == nil {
			cacheClient.SetEventList(c.Request.Context(), cacheKey, string(body))
		}
	}

	helpers.RespondWithData(c, http.StatusOK, "Events retrieved.", payload)
}

func UpdateEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	title := c.PostForm("title")
	description := c.PostForm("description")

	startTimeStr := c.PostForm("start_time")
	endTimeStr := c.PostForm("end_time")
	startTime, err := time.Parse(time.RFC3339, startTimeStr)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid start time format.")
		return
	}
	endTime, err := time.Parse(time.RFC3339, endTimeStr)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid end time format.")
		return
	}

	if title == "" || description == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing required fields.")
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

	if venueIDStr := c.PostForm("venue_id"); venueIDStr != "" {
		venueID, err := uuid.Parse(venueIDStr)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid venue ID.")
			return
		}
		var venue models.Venue
		if err := gormDB.Where("id = ?", venueID).First(&venue).Error; err != nil {
			helpers.RespondWithError(c, http.StatusNotFound, "Venue not found.")
			return
		}
		event.VenueID = venueID
	}

	if title != event.Title {
		slug, err := ensureUniqueSlug(gormDB, &models.Event{}, helpers.Slugify(title, helpers.SlugOptions{Fallback: "event"}), event.ID)
		if err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate slug.")
			return
		}
		event.Slug = slug
	}

	event.Title = title
	event.Description = description
	event.StartTime = startTime
	event.EndTime = endTime

	coverFile, err := c.FormFile("cover")
	if err == nil {
		coverPath, err := helpers.UploadImage(c, coverFile, "event_covers")
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		if event.CoverPath != "" {
			// Asset cleanup is best effort; the booking flow never depends on it.
			if err := helpers.DeleteFile(event.CoverPath); err != nil {
				log.Printf("Error deleting old cover: %v", err)
			}
		}
		event.CoverPath = coverPath
	}

	if err := gormDB.Save(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event.")
		return
	}

	invalidateEventCache(c)

	helpers.RespondWithData(c, http.StatusOK, "Event updated successfully.", event)
}

func DeleteEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var bookingCount int64
	if err := gormDB.Model(&models.Booking{}).Where("event_id = ?", eventID).Count(&bookingCount).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error checking bookings.")
		return
	}
	if bookingCount > 0 {
		helpers.RespondWithError(c, http.StatusConflict, "Event has bookings and cannot be deleted.")
		return
	}

	result := gormDB.Where("id = ?", eventID).Delete(&models.Event{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	invalidateEventCache(c)

	helpers.RespondWithData(c, http.StatusOK, "Event deleted successfully.", nil)
}

func invalidateEventCache(c *gin.Context) {
	if cacheClient := middleware.GetCacheClient(c); cacheClient != nil {
		if err := cacheClient.InvalidateEventLists(c.Request.Context()); err != nil {
			log.Printf("Error invalidating event cache: %v", err)
		}
	}
}
