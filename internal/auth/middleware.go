package auth

import (
	"net/http"
	"strings"

	"socialgraph/backend/internal/social"
	"socialgraph/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// userIDKey is the gin context key holding the authenticated user's ID.
const userIDKey = "userID"

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware rejects requests without a valid bearer token and sets the
// userID for the handlers that follow.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		userID, err := jwt.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user's ID, if any.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// ViewerFrom returns the viewer the request acts as. Requests that passed no
// auth middleware, or carried no valid token, are anonymous.
func ViewerFrom(c *gin.Context) social.Viewer {
	id, _ := UserID(c)
	return social.ViewerFor(id)
}
