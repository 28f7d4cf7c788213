package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventra/eventra/internal/helpers"
	"github.com/eventra/eventra/internal/models"
)

func CreatePerformer(c *gin.Context) {
	name := c.PostForm("name")
	genre := c.PostForm("genre")
	bio := c.PostForm("bio")

	if name == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing required fields.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	slug, err := ensureUniqueSlug(gormDB, &models.Performer{}, helpers.Slugify(name, helpers.SlugOptions{Fallback: "performer"}), uuid.Nil)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate slug.")
		return
	}

	performer := models.Performer{
		Slug:  slug,
		Name:  name,
		Genre: genre,
		Bio:   bio,
	}

	imageFile, err := c.FormFile("image")
	if err == nil {
		imagePath, err := helpers.UploadImage(c, imageFile, "performer_images")
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		performer.ImagePath = imagePath
	}

	if err := gormDB.Create(&performer).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create performer.")
		return
	}

	helpers.RespondWithData(c, http.StatusCreated, "Performer created successfully.", gin.H{
		"performer_id": performer.ID,
		"slug":         performer.Slug,
	})
}

func GetPerformer(c *gin.Context) {
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

	var performer models.Performer
	if err := query.First(&performer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Performer not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving performer.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, "Performer retrieved.", performer)
}

func ListPerformers(c *gin.Context) {
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

	query := gormDB.Model(&models.Performer{})
	if genre := c.Query("genre"); genre != "" {
		query = query.Where("genre = ?", genre)
	}

	var totalCount int64
	query.Count(&totalCount)

	var performers []models.Performer
	offset := (pageNum - 1) * limitNum
	err = query.Offset(offset).Limit(limitNum).Order("name ASC").Find(&performers).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving performers.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, "Performers retrieved.", gin.H{
		"performers":  performers,
		"total":       totalCount,
		"page":        pageNum,
		"limit":       limitNum,
		"total_pages": (totalCount + int64(limitNum) - 1) / int64(limitNum),
	})
}

func UpdatePerformer(c *gin.Context) {
	performerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid performer ID.")
		return
	}

	name := c.PostForm("name")
	if name == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing required fields.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var performer models.Performer
	if err := gormDB.Where("id = ?", performerID).First(&performer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Performer not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding performer.")
		return
	}

	if name != performer.Name {
		slug, err := ensureUniqueSlug(gormDB, &models.Performer{}, helpers.Slugify(name, helpers.SlugOptions{Fallback: "performer"}), performer.ID)
		if err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate slug.")
			return
		}
		performer.Slug = slug
	}

	performer.Name = name
	if genre := c.PostForm("genre"); genre != "" {
		performer.Genre = genre
	}
	if bio := c.PostForm("bio"); bio != "" {
		performer.Bio = bio
	}

	imageFile, err := c.FormFile("image")
	if err == nil {
		imagePath, err := helpers.UploadImage(c, imageFile, "performer_images")
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		if performer.ImagePath != "" {
			if err := helpers.DeleteFile(performer.ImagePath); err != nil {
				log.Printf("Error deleting old performer image: %v", err)
			}
		}
		performer.ImagePath = imagePath
	}

	if err := gormDB.Save(&performer).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update performer.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, "Performer updated successfully.", performer)
}

func DeletePerformer(c *gin.Context) {
	performerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid performer ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var performer models.Performer
	if err := gormDB.Preload("Events").Where("id = ?", performerID).First(&performer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Performer not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding performer.")
		return
	}
	if len(performer.Events) > 0 {
		helpers.RespondWithError(c, http.StatusConflict, "Performer is assigned to events and cannot be deleted.")
		return
	}

	if err := gormDB.Delete(&performer).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete performer.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, "Performer deleted successfully.", nil)
}
