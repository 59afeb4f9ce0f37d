package api

import (
	"net/http"

	"goalmentor/internal/config"
	"goalmentor/internal/mentor"

	"github.com/gin-gonic/gin"
)

// GET /health
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GET /config
func configHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only return non-sensitive config fields
		c.JSON(http.StatusOK, gin.H{
			"server": gin.H{
				"host":    cfg.Server.Host,
				"port":    cfg.Server.Port,
				"subpath": cfg.Server.Subpath,
			},
			"oracle": gin.H{
				"model": cfg.Oracle.Model,
			},
			"autonomy": cfg.Autonomy,
		})
	}
}

// sessionStore resolves the per-session state for an authenticated request.
func sessionStore(d *Deps, c *gin.Context) *mentor.Store {
	key := c.GetString("sessionKey")
	return d.Registry.Get(key)
}
