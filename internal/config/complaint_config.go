package config

import "time"

const (
	// Complaints
	TrackingIDPrefix = "CMP-"
	// Tracking numbers are six digits: 100000..999999.
	TrackingIDMin  = 100000
	TrackingIDSpan = 900000
	// MaxTrackingIDAttempts bounds regeneration after a tracking id collision.
	MaxTrackingIDAttempts = 10

	// Tokens
	LoginTokenTTL    = 1 * time.Hour
	ResidentTokenTTL = 2 * time.Hour
	TokenIssuer      = "complaintdesk"

	// Locks
	ComplaintLockTTL     = 5 * time.Second
	ComplaintLockWait    = 3 * time.Second
	ComplaintLockBackoff = 25 * time.Millisecond

	// Live feed
	EventsChannel = "complaints:events"
)
