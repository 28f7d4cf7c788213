package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventra/eventra/internal/cache"
)

func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	}
}

func CacheMiddleware(cacheClient *cache.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("cache", cacheClient)
		c.Next()
	}
}

func GetCacheClient(c *gin.Context) *cache.Client {
	client, exists := c.Get("cache")
	if !exists {
		return nil
	}
	return client.(*cache.Client)
}
