package helpers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	maxImageBytes  = 5 * 1024 * 1024
	uploadBasePath = "./uploads"
)

var allowedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

// UploadImage stores a multipart image upload under uploads/<category> and
// returns the stored path. The content type is sniffed, not trusted by
// extension.
func UploadImage(c *gin.Context, fileHeader *multipart.FileHeader, category string) (string, error) {
	if fileHeader.Size > maxImageBytes {
		return "", fmt.Errorf("file size exceeds maximum limit of %d MB", maxImageBytes/(1024*1024))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil {
		return "", err
	}
	mimeType := http.DetectContentType(buffer[:n])

	allowed := false
	for _, allowedType := range allowedImageTypes {
		if mimeType == allowedType {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("invalid file type. Allowed types: %v", allowedImageTypes)
	}

	uploadPath := filepath.Join(uploadBasePath, category)
	if err := os.MkdirAll(uploadPath, os.ModePerm); err != nil {
		return "", err
	}

	ext := filepath.Ext(fileHeader.Filename)
	fullFilepath := filepath.Join(uploadPath, uuid.New().String()+ext)

	if err := c.SaveUploadedFile(fileHeader, fullFilepath); err != nil {
		return "", err
	}

	return fullFilepath, nil
}

func DeleteFile(filePath string) error {
	return os.Remove(filePath)
}
