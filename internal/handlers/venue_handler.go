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

type VenueRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Address  string `json:"address" binding:"required"`
	City     string `json:"city" binding:"required"`
	Capacity int    `json:"capacity" binding:"gte=0"`
}

func CreateVenue(c *gin.Context) {
	var req VenueRequest
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

	slug, err := ensureUniqueSlug(gormDB, &models.Venue{}, helpers.Slugify(req.Name, helpers.SlugOptions{Fallback: "venue"}), uuid.Nil)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate slug.")
		return
	}

	venue := models.Venue{
		Slug:     slug,
		Name:     req.Name,
		Address:  req.Address,
		City:     req.City,
		Capacity: req.Capacity,
	}

	if err := gormDB.Create(&venue).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create venue.")
		return
	}

	helpers.RespondWithData(c, http.StatusCreated, "Venue created successfully.", gin.H{
		"venue_id": venue.ID,
		"slug":     venue.Slug,
	})
}

func GetVenue(c *gin.Context) {
	param := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	query := gormDB.Preload("Events")
	if id, err := uuid.Parse(param); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", param)
	}

	var venue models.Venue
	if err := query.First(&venue).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Venue not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving venue.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, "Venue retrieved.", venue)
}

func ListVenues(c *gin.Context) {
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

	query := gormDB.Model(&models.Venue{})
	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}

	var totalCount int64
	query.Count(&totalCount)

	var venues []models.Venue
	offset := (pageNum - 1) * limitNum
	err = query.Offset(offset).Limit(limitNum).Order("name ASC").Find(&venues).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving venues.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, "Venues retrieved.", gin.H{
		"venues":      venues,
		"total":       totalCount,
		"page":        pageNum,
		"limit":       limitNum,
		"total_pages": (totalCount + int64(limitNum) - 1) / int64(limitNum),
	})
}

func UpdateVenue(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid venue ID.")
		return
	}

	var req VenueRequest
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

	var venue models.Venue
	if err := gormDB.Where("id = ?", venueID).First(&venue).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Venue not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding venue.")
		return
	}

	if req.Name != venue.Name {
		slug, err := ensureUniqueSlug(gormDB, &models.Venue{}, helpers.Slugify(req.Name, helpers.SlugOptions{Fallback: "venue"}), venue.ID)
		if err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate slug.")
			return
		}
		venue.Slug = slug
	}

	venue.Name = req.Name
	venue.Address = req.Address
	venue.City = req.City
	venue.Capacity = req.Capacity

	if err := gormDB.Save(&venue).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update venue.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, "Venue updated successfully.", venue)
}

func DeleteVenue(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid venue ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var eventCount int64
	if err := gormDB.Model(&models.Event{}).Where("venue_id = ?", venueID).Count(&eventCount).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error checking events.")
		return
	}
	if eventCount > 0 {
		helpers.RespondWithError(c, http.StatusConflict, "Venue has events and cannot be deleted.")
		return
	}

	result := gormDB.Where("id = ?", venueID).Delete(&models.Venue{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete venue.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Venue not found.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, "Venue deleted successfully.", nil)
}
