// Package lifecycle is the complaint state machine. It validates new
// complaints, applies status transitions and the recycle-bin overlay
// (soft delete / restore). It never touches storage.
package lifecycle

import (
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"complaintdesk/backend/internal/apperror"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Engine holds the clock and the tracking id generator so tests can pin them.
type Engine struct {
	NewTrackingID func() string
	Now           func() time.Time
}

// NewEngine returns an engine using random CMP-###### ids and the wall clock.
func NewEngine() *Engine {
	return &Engine{
		NewTrackingID: RandomTrackingID,
		Now:           time.Now,
	}
}

// RandomTrackingID returns a tracking id in the CMP-###### format.
func RandomTrackingID() string {
	return fmt.Sprintf("%s%06d", config.TrackingIDPrefix, config.TrackingIDMin+rand.IntN(config.TrackingIDSpan))
}

// Create validates the submitted fields and builds a pending complaint.
// Fields are checked in a fixed order and the first problem is reported.
func (e *Engine) Create(in models.ComplaintInput) (*models.Complaint, error) {
	required := []struct {
		field string
		value string
	}{
		{"name", in.Name},
		{"email", in.Email},
		{"title", in.Title},
		{"description", in.Description},
		{"flatNo", string(in.FlatNo)},
		{"wing", in.Wing},
		{"category", in.Category},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, apperror.Validation("All fields are required: %s is missing.", r.field)
		}
	}

	email := models.NormalizeEmail(in.Email)
	if !emailPattern.MatchString(email) {
		return nil, apperror.Validation("Invalid email format.")
	}

	flatNo := strings.TrimSpace(string(in.FlatNo))
	if !isNumeric(flatNo) {
		return nil, apperror.Validation("Flat Number must be numeric.")
	}

	now := e.Now()
	return &models.Complaint{
		TrackingID:  e.NewTrackingID(),
		Name:        strings.TrimSpace(in.Name),
		Email:       email,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		FlatNo:      flatNo,
		Wing:        strings.TrimSpace(in.Wing),
		Category:    strings.TrimSpace(in.Category),
		Status:      models.StatusPending,
		IsDeleted:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Transition moves an active complaint to resolved or rejected.
// Rejection requires a non-blank admin response; a response given with
// resolved is stored, an empty one keeps the previous text.
// Re-classifying an already resolved or rejected complaint is allowed.
func (e *Engine) Transition(c *models.Complaint, target models.Status, adminResponse string) error {
	if c.IsDeleted {
		return apperror.NotFound("Complaint not found")
	}

	response := strings.TrimSpace(adminResponse)
	switch target {
	case models.StatusResolved:
	case models.StatusRejected:
		if response == "" {
			return apperror.Validation("A reason (adminResponse) is required to reject a complaint.")
		}
	case models.StatusPending:
		return apperror.Validation("A complaint cannot be moved back to pending.")
	default:
		return apperror.Validation("Invalid status %q: expected resolved or rejected.", target)
	}

	c.Status = target
	if response != "" {
		c.AdminResponse = response
	}
	c.UpdatedAt = e.Now()
	return nil
}

// SoftDelete moves the complaint to the recycle bin. Status is untouched.
func (e *Engine) SoftDelete(c *models.Complaint) {
	c.IsDeleted = true
	c.UpdatedAt = e.Now()
}

// Restore takes the complaint out of the recycle bin.
// It reports false when the complaint was already active.
func (e *Engine) Restore(c *models.Complaint) bool {
	if !c.IsDeleted {
		return false
	}
	c.IsDeleted = false
	c.UpdatedAt = e.Now()
	return true
}

// CanPurge decides whether c may be permanently removed.
// Active complaints can be purged too; see DESIGN.md.
func (e *Engine) CanPurge(c *models.Complaint) error {
	return nil
}

func isNumeric(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}
