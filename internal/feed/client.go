package feed

import "complaintdesk/backend/internal/models"

// Client is a subscriber of the complaint feed (e.g. an admin WebSocket).
type Client interface {
	// GetID returns the unique identifier of this connection.
	GetID() string
	// GetSendChannel returns the channel the Hub delivers events on.
	GetSendChannel() chan<- models.ComplaintEvent
	// Run starts the client's pumps.
	Run()
	// Close stops the client. The Hub calls it once, when it drops the client.
	Close()
}
