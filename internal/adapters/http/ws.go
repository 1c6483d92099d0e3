package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS authenticates the bearer credential from the query string, then
// upgrades and hands the connection to the hub. An invalid credential
// rejects the handshake outright; unauthenticated peers never get an
// accepted websocket.
func (a *API) handleWS(c *gin.Context) {
	token := c.Query(sessionCookie)
	userID, err := a.tokens.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	user, err := a.store.UserByID(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "User not found"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("ws upgrade")
		return
	}

	log.Info().Str("module", "adapters.http").
		Int64("user_id", int64(user.ID)).Str("username", user.Username).
		Msg("websocket connected")

	a.hub.Serve(*user, ws)
}
