package models

import (
	"encoding/json"
	"time"
)

// Status is the triage state of a complaint.
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Complaint is an issue reported by a resident.
// TrackingID is the public identifier ("CMP-123456") shown to the reporter;
// ID is the surrogate key and records insertion order.
type Complaint struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	TrackingID string `gorm:"uniqueIndex;not null" json:"id"`

	// Reporter
	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"not null;index" json:"email"`

	// Location
	FlatNo string `gorm:"not null" json:"flatNo"`
	Wing   string `gorm:"not null" json:"wing"`

	Category    string `gorm:"not null" json:"category"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`

	Status        Status `gorm:"type:text;not null;index" json:"status"`
	AdminResponse string `gorm:"type:text" json:"adminResponse"`
	// IsDeleted marks a complaint as moved to the recycle bin.
	IsDeleted bool `gorm:"not null;index" json:"isDeleted"`

	// Version is bumped on every update and checked by the SQL store.
	Version int `gorm:"not null" json:"-"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ComplaintInput carries the fields a resident submits.
type ComplaintInput struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	FlatNo      FlatNumber `json:"flatNo"`
	Wing        string     `json:"wing"`
	Category    string     `json:"category"`
}

// FlatNumber is a flat number sent either as a JSON string or a JSON number.
type FlatNumber string

func (f *FlatNumber) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlatNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlatNumber(n.String())
	return nil
}
