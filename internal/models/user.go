package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the coarse authorization label carried in tokens.
type Role string

const (
	RoleResident Role = "resident"
	RoleAdmin    Role = "admin"
)

// ErrElevationDenied is returned when an admin upgrade precondition does not hold.
var ErrElevationDenied = errors.New("admin elevation denied")

// User is an account of a resident or of the administrator.
// Username and GoogleID are optional but unique when present.
type User struct {
	ID           string    `gorm:"primaryKey" json:"id"` // UUID
	Username     *string   `gorm:"uniqueIndex" json:"username,omitempty"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `json:"-"`
	GoogleID     *string   `gorm:"uniqueIndex" json:"-"`
	Avatar       string    `json:"avatar,omitempty"`
	Role         Role      `gorm:"type:text;not null" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate is a GORM hook that fills the UUID, normalizes the email
// and defaults the role to resident.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleResident
	}
	return
}

// UsernameValue returns the username or "" when unset.
func (u *User) UsernameValue() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}

// CanElevateToAdmin is the precondition for upgrading an account to admin
// during an external-provider login: the caller must explicitly request the
// admin role and the account must be the reserved administrator account.
func (u *User) CanElevateToAdmin(requested Role, reservedUsername string) bool {
	return requested == RoleAdmin && reservedUsername != "" && u.UsernameValue() == reservedUsername
}

// ElevateToAdmin sets the admin role if CanElevateToAdmin holds.
// It returns true when the role actually changed.
func (u *User) ElevateToAdmin(requested Role, reservedUsername string) (bool, error) {
	if !u.CanElevateToAdmin(requested, reservedUsername) {
		return false, ErrElevationDenied
	}
	if u.Role == RoleAdmin {
		return false, nil
	}
	u.Role = RoleAdmin
	return true, nil
}

// LinkGoogle attaches a Google subject to an account that has none yet.
func (u *User) LinkGoogle(subject, avatar string) bool {
	if u.GoogleID != nil && *u.GoogleID != "" {
		return false
	}
	u.GoogleID = &subject
	u.Avatar = avatar
	return true
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
