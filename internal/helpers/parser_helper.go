package helpers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func StringToInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// Pagination reads page/limit query params with sane defaults.
func Pagination(c *gin.Context) (page, limit int, err error) {
	page, err = StringToInt(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, 0, errInvalidPage
	}
	limit, err = StringToInt(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		return 0, 0, errInvalidLimit
	}
	return page, limit, nil
}

var (
	errInvalidPage  = errors.New("invalid page number")
	errInvalidLimit = errors.New("invalid limit")
)
