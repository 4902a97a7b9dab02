package handler

import (
	"log"
	"net/http"

	"complaintdesk/backend/internal/apperror"
	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/feed"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS settings and the admin token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeEvents upgrades an admin connection to the live complaint feed.
// Browsers cannot set headers on a WebSocket handshake, so the token may
// also be passed as ?token=.
func (h *Handler) ServeEvents(c *gin.Context) {
	if h.Hub == nil {
		respondError(c, apperror.NotFound("Live feed is disabled"))
		return
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			header = "Bearer " + token
		}
	}
	identity, err := h.Complaints.Gate.AuthorizeHeader(header, auth.RequireAdmin)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ERROR: Failed to upgrade feed connection: %v", err)
		return
	}

	client := feed.NewWebSocketClient(h.Hub, conn, identity.UserID)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}
	client.Run()
}
