package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventra/eventra/internal/helpers"
	"github.com/eventra/eventra/internal/models"
)

// JWTAuthMiddleware validates a Bearer token and stores the caller's id and
// role under "user_id" and "role" for downstream handlers.
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Missing bearer token.")
			c.Abort()
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid token.")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid token claims.")
			c.Abort()
			return
		}

		rawID, _ := claims["user_id"].(string)
		userID, err := uuid.Parse(rawID)
		if err != nil {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid token claims.")
			c.Abort()
			return
		}
		role, _ := claims["role"].(string)

		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

// ErrForbidden is returned when a caller lacks the ADMIN role.
var ErrForbidden = errors.New("administrator role required")

// AssertAdmin loads the caller and confirms the ADMIN role against the
// database rather than trusting a possibly stale token claim.
func AssertAdmin(db *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, ErrForbidden
	}
	if !user.IsAdmin() {
		return nil, ErrForbidden
	}
	return &user, nil
}

// RequireAdmin gates a route group to callers whose token carries the ADMIN
// role, re-checked against the stored user when the database is available.
// It assumes JWTAuthMiddleware already ran.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if role != models.RoleAdmin {
			helpers.RespondWithError(c, http.StatusForbidden, "Administrator access required.")
			c.Abort()
			return
		}

		if v, exists := c.Get("db"); exists {
			userID, ok := CurrentUserID(c)
			if !ok {
				helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
				c.Abort()
				return
			}
			if _, err := AssertAdmin(v.(*gorm.DB), userID); err != nil {
				helpers.RespondWithError(c, http.StatusForbidden, "Administrator access required.")
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// CurrentUserID pulls the authenticated caller's id out of the context.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
