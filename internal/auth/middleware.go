package auth

import (
	"net/http"
	"strings"
	"time"

	"goalmentor/internal/config"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware(cfg *config.Config, sessions *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Missing or invalid Authorization header"}})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := ParseJWT(cfg.Server.JWTSecret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Invalid or expired token"}})
			return
		}
		sessionToken, err := sessions.Get(claims.UserID)
		if err != nil || sessionToken != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Session expired or invalid"}})
			return
		}
		// Enforce inactivity timeout (refresh expiry)
		sessions.Refresh(claims.UserID, 30*time.Minute)

		// Attach user info to context; the token doubles as the session
		// state key so every login gets an isolated mentor store.
		c.Set("userId", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("sessionKey", tokenStr)

		c.Next()
	}
}
