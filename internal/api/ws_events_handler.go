package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"goalmentor/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSEventsHandler streams celebration events (streaks, milestones, badges)
// for the caller's session. Auth comes from the header or a ?token= query
// param, same as the rest of the API; the token doubles as the session key.
func WSEventsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing JWT"})
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")
		claims, err := auth.ParseJWT(d.Cfg.Server.JWTSecret, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid JWT"})
			return
		}
		sessionToken, err := d.Sessions.Get(claims.UserID)
		if err != nil || sessionToken != token {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("WebSocket upgrade failed:", err)
			return
		}
		defer conn.Close()

		events := d.Registry.Get(token).Events()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case ev := <-events:
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-ticker.C:
				// Keepalive so idle dashboards stay connected.
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-c.Request.Context().Done():
				return
			}
		}
	}
}
