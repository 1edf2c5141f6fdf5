package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaylum54/promptpit-sub001/internal/auth"
)

// UserIDKey is the gin context key carrying the resolved user identity.
// Guests carry an empty string.
const UserIDKey = "user_id"

// Identify resolves the Authorization bearer token into a user id. Requests
// without a valid token proceed as guests; identity failures never block.
func Identify(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := ""
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			userID = resolver.UserID(strings.TrimPrefix(header, "Bearer "))
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID reads the identity set by Identify.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
