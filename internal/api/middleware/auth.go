package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireToken guards the task routes with a single static bearer token.
// The token is accepted from the Authorization header or the "?token=" query
// parameter so curl one-liners and browser form posts both work.
func RequireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var presented string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			presented = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if presented == "" {
			presented = c.Query("token")
		}

		if presented == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid token"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Next()
	}
}
