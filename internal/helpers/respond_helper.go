package helpers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint returns, success or not.
type Response struct {
	Success bool              `json:"success"`
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func RespondWithData(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Status:  statusCode,
		Message: message,
		Data:    data,
	})
}

func RespondWithError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Status:  statusCode,
		Message: message,
	})
}

// RespondWithFieldErrors reports a validation failure with one message per
// offending field.
func RespondWithFieldErrors(c *gin.Context, message string, fieldErrors map[string]string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Status:  http.StatusBadRequest,
		Message: message,
		Errors:  fieldErrors,
	})
}
