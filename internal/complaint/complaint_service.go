// Package complaint implements the complaint use cases: it authorizes the
// caller, runs the lifecycle rules, persists the result under a per-complaint
// lock and publishes an event for every successful mutation.
package complaint

import (
	"context"
	"errors"
	"log"
	"strings"

	"complaintdesk/backend/internal/apperror"
	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/lifecycle"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
)

// Operation names a complaint use case.
type Operation string

const (
	OpSubmit         Operation = "submit"
	OpListActive     Operation = "list_active"
	OpListByReporter Operation = "list_by_reporter"
	OpGet            Operation = "get"
	OpTransition     Operation = "transition"
	OpSoftDelete     Operation = "soft_delete"
	OpListDeleted    Operation = "list_deleted"
	OpRestore        Operation = "restore"
	OpPurge          Operation = "purge"
)

// Policy is the role each operation demands from its caller.
var Policy = map[Operation]auth.Requirement{
	OpSubmit:         auth.RequireNone,
	OpListActive:     auth.RequireNone,
	OpListByReporter: auth.RequireNone,
	OpGet:            auth.RequireNone,
	OpTransition:     auth.RequireAdmin,
	OpSoftDelete:     auth.RequireAdmin,
	OpListDeleted:    auth.RequireAdmin,
	OpRestore:        auth.RequireAdmin,
	OpPurge:          auth.RequireAdmin,
}

// EventSink receives complaint events after they are persisted.
// Publish must not block the caller for long.
type EventSink interface {
	Publish(ctx context.Context, ev models.ComplaintEvent)
}

// Service handles the business logic for complaints.
type Service struct {
	Storage storage.ComplaintStore
	Engine  *lifecycle.Engine
	Gate    *auth.Gate
	Locker  storage.Locker
	Sinks   []EventSink
}

// NewService creates a new complaint service.
func NewService(s storage.ComplaintStore, gate *auth.Gate, locker storage.Locker, sinks ...EventSink) *Service {
	return &Service{
		Storage: s,
		Engine:  lifecycle.NewEngine(),
		Gate:    gate,
		Locker:  locker,
		Sinks:   sinks,
	}
}

// TransitionRequest is the body of an admin status change.
type TransitionRequest struct {
	Status        models.Status `json:"status"`
	AdminResponse string        `json:"adminResponse"`
}

// Submit validates and stores a new pending complaint.
// A tracking id collision is retried with a fresh id.
func (s *Service) Submit(ctx context.Context, in models.ComplaintInput) (*models.Complaint, error) {
	if _, err := s.Authorize(ctx, OpSubmit); err != nil {
		return nil, err
	}

	c, err := s.Engine.Create(in)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		err = s.Storage.CreateComplaint(ctx, c)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrDuplicate) || attempt >= config.MaxTrackingIDAttempts {
			return nil, apperror.Internal("failed to save complaint", err)
		}
		log.Printf("WARNING: tracking id %s already taken, regenerating", c.TrackingID)
		c.TrackingID = s.Engine.NewTrackingID()
	}

	log.Printf("INFO: complaint %s submitted (%s)", c.TrackingID, c.Category)
	s.publish(ctx, models.NewComplaintEvent(models.EventSubmitted, c, ""))
	return c, nil
}

// ListActive returns every non-deleted complaint, newest first.
func (s *Service) ListActive(ctx context.Context) ([]models.Complaint, error) {
	if _, err := s.Authorize(ctx, OpListActive); err != nil {
		return nil, err
	}
	return s.list(ctx, storage.ComplaintFilter{})
}

// ListByReporter returns the active complaints filed with email.
func (s *Service) ListByReporter(ctx context.Context, email string) ([]models.Complaint, error) {
	if _, err := s.Authorize(ctx, OpListByReporter); err != nil {
		return nil, err
	}
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, apperror.Validation("Email is required.")
	}
	return s.list(ctx, storage.ComplaintFilter{Email: email})
}

// Get returns an active complaint. Soft-deleted complaints are NotFound.
func (s *Service) Get(ctx context.Context, id string) (*models.Complaint, error) {
	if _, err := s.Authorize(ctx, OpGet); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted {
		return nil, errComplaintNotFound()
	}
	return c, nil
}

// Transition changes the status of an active complaint.
func (s *Service) Transition(ctx context.Context, id string, req TransitionRequest) (*models.Complaint, error) {
	identity, err := s.Authorize(ctx, OpTransition)
	if err != nil {
		return nil, err
	}

	c, changed, err := s.mutate(ctx, id, func(c *models.Complaint) (bool, error) {
		if err := s.Engine.Transition(c, req.Status, req.AdminResponse); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		log.Printf("INFO: complaint %s marked %s by %s", c.TrackingID, c.Status, identity.UserID)
		s.publish(ctx, models.NewComplaintEvent(models.EventStatusChanged, c, identity.UserID))
	}
	return c, nil
}

// SoftDelete moves a complaint to the recycle bin. Deleting a complaint that
// is already in the bin succeeds without changes.
func (s *Service) SoftDelete(ctx context.Context, id string) (*models.Complaint, error) {
	identity, err := s.Authorize(ctx, OpSoftDelete)
	if err != nil {
		return nil, err
	}

	c, changed, err := s.mutate(ctx, id, func(c *models.Complaint) (bool, error) {
		if c.IsDeleted {
			return false, nil
		}
		s.Engine.SoftDelete(c)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		log.Printf("INFO: complaint %s moved to recycle bin by %s", c.TrackingID, identity.UserID)
		s.publish(ctx, models.NewComplaintEvent(models.EventDeleted, c, identity.UserID))
	}
	return c, nil
}

// ListDeleted returns the recycle bin, newest first.
func (s *Service) ListDeleted(ctx context.Context) ([]models.Complaint, error) {
	if _, err := s.Authorize(ctx, OpListDeleted); err != nil {
		return nil, err
	}
	return s.list(ctx, storage.ComplaintFilter{Deleted: true})
}

// Restore takes a complaint out of the recycle bin. Restoring an active
// complaint succeeds without changes; restored reports which case applied.
func (s *Service) Restore(ctx context.Context, id string) (c *models.Complaint, restored bool, err error) {
	identity, err := s.Authorize(ctx, OpRestore)
	if err != nil {
		return nil, false, err
	}

	c, restored, err = s.mutate(ctx, id, func(c *models.Complaint) (bool, error) {
		return s.Engine.Restore(c), nil
	})
	if err != nil {
		return nil, false, err
	}
	if restored {
		log.Printf("INFO: complaint %s restored by %s", c.TrackingID, identity.UserID)
		s.publish(ctx, models.NewComplaintEvent(models.EventRestored, c, identity.UserID))
	}
	return c, restored, nil
}

// Purge permanently removes a complaint, active or deleted.
func (s *Service) Purge(ctx context.Context, id string) error {
	identity, err := s.Authorize(ctx, OpPurge)
	if err != nil {
		return err
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Engine.CanPurge(c); err != nil {
		return err
	}
	if err := s.Storage.DeleteComplaint(ctx, c.TrackingID); err != nil {
		return storeError("failed to purge complaint", err)
	}

	log.Printf("INFO: complaint %s purged by %s", c.TrackingID, identity.UserID)
	s.publish(ctx, models.NewComplaintEvent(models.EventPurged, c, identity.UserID))
	return nil
}

// Authorize checks the caller on ctx against the policy for op. The
// identity of an anonymous caller is the zero Identity.
func (s *Service) Authorize(ctx context.Context, op Operation) (*auth.Identity, error) {
	req, ok := Policy[op]
	if !ok {
		// Unknown operations are admin-only.
		req = auth.RequireAdmin
	}
	identity, err := s.Gate.Authorize(ctx, req)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		identity = &auth.Identity{}
	}
	return identity, nil
}

// mutate loads the complaint under its lock, applies fn and persists the
// result when fn reports a change.
func (s *Service) mutate(ctx context.Context, id string, fn func(*models.Complaint) (bool, error)) (*models.Complaint, bool, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, false, err
	}
	changed, err := fn(c)
	if err != nil || !changed {
		return c, false, err
	}
	if err := s.Storage.UpdateComplaint(ctx, c); err != nil {
		return nil, false, storeError("failed to update complaint", err)
	}
	return c, true, nil
}

func (s *Service) lock(ctx context.Context, id string) (func(), error) {
	unlock, err := s.Locker.Lock(ctx, storage.ComplaintLockKey(strings.TrimSpace(id)))
	if err != nil {
		return nil, apperror.Internal("failed to lock complaint", err)
	}
	return unlock, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Complaint, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errComplaintNotFound()
	}
	c, err := s.Storage.GetComplaint(ctx, id)
	if err != nil {
		return nil, storeError("failed to load complaint", err)
	}
	return c, nil
}

func (s *Service) list(ctx context.Context, f storage.ComplaintFilter) ([]models.Complaint, error) {
	complaints, err := s.Storage.ListComplaints(ctx, f)
	if err != nil {
		return nil, apperror.Internal("failed to list complaints", err)
	}
	return complaints, nil
}

func (s *Service) publish(ctx context.Context, ev models.ComplaintEvent) {
	for _, sink := range s.Sinks {
		sink.Publish(ctx, ev)
	}
}

func storeError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return errComplaintNotFound()
	}
	return apperror.Internal(op, err)
}

func errComplaintNotFound() error {
	return apperror.NotFound("Complaint not found")
}
