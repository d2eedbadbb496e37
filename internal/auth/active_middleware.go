package auth

import (
	"net/http"

	"studenthelp/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ActiveUserMiddleware rejects tokens whose user no longer exists.
// It must be used AFTER AuthMiddleware.
func ActiveUserMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		var count int64
		err := db.WithContext(c.Request.Context()).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if count == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User no longer exists"})
			return
		}

		c.Next()
	}
}
