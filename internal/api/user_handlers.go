package api

import (
	"net/http"
	"time"

	"goalmentor/internal/auth"

	"github.com/gin-gonic/gin"
)

type SetupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SetupHandler creates the first account. Refused once any account exists.
func SetupHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !d.Users.Empty() {
			c.JSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "Setup already completed"}})
			return
		}
		var req SetupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		u, err := d.Users.Create(req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "username": u.Username})
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
}

func LoginHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		// If no users exist, indicate need for setup
		if d.Users.Empty() {
			c.JSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "Initial setup required", "need_setup": true}})
			return
		}
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		u, err := d.Users.Authenticate(req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Invalid username or password"}})
			return
		}
		token, err := auth.GenerateJWT(d.Cfg.Server.JWTSecret, u.ID, u.Username, 7*24*time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to generate token"}})
			return
		}
		d.Sessions.Set(u.ID, token, 7*24*time.Hour)
		c.JSON(http.StatusOK, LoginResponse{
			Token:    token,
			UserID:   u.ID,
			Username: u.Username,
		})
	}
}

// LogoutHandler ends the session and discards its mentor state.
func LogoutHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, exists := c.Get("userId")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Not authenticated"}})
			return
		}
		d.Registry.Drop(c.GetString("sessionKey"))
		d.Sessions.Delete(userId.(uint))
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

func MeHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString("username")
		u, err := d.Users.Get(username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "User not found"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":        u.ID,
			"username":  u.Username,
			"createdAt": u.CreatedAt,
		})
	}
}
