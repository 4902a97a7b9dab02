package models

import "time"

// EventType names a complaint mutation.
type EventType string

const (
	EventSubmitted     EventType = "submitted"
	EventStatusChanged EventType = "status_changed"
	EventDeleted       EventType = "deleted"
	EventRestored      EventType = "restored"
	EventPurged        EventType = "purged"
)

// ComplaintEvent is emitted after a complaint mutation has been persisted.
// It is pushed to the admin live feed and to notification channels.
type ComplaintEvent struct {
	Type       EventType `json:"type"`
	TrackingID string    `json:"id"`
	Status     Status    `json:"status,omitempty"`
	Title      string    `json:"title,omitempty"`
	Category   string    `json:"category,omitempty"`
	// ActorID is the user that triggered the event; empty for anonymous submissions.
	ActorID string    `json:"actorId,omitempty"`
	At      time.Time `json:"at"`
}

// NewComplaintEvent builds an event from the current state of c.
func NewComplaintEvent(t EventType, c *Complaint, actorID string) ComplaintEvent {
	return ComplaintEvent{
		Type:       t,
		TrackingID: c.TrackingID,
		Status:     c.Status,
		Title:      c.Title,
		Category:   c.Category,
		ActorID:    actorID,
		At:         time.Now(),
	}
}
