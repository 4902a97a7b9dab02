package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"complaintdesk/backend/internal/models"
)

// Memory is an in-process Storage. It enforces the same uniqueness and
// version rules as the SQL store.
type Memory struct {
	mu         sync.RWMutex
	complaints []*models.Complaint // insertion order
	nextID     uint
	users      map[string]*models.User
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]*models.User)}
}

func (m *Memory) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findComplaint(c.TrackingID) != nil {
		return ErrDuplicate
	}
	m.nextID++
	c.ID = m.nextID
	c.Version = 1
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	stored := *c
	m.complaints = append(m.complaints, &stored)
	return nil
}

func (m *Memory) GetComplaint(ctx context.Context, trackingID string) (*models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.findComplaint(trackingID)
	if c == nil {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

func (m *Memory) ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email := models.NormalizeEmail(f.Email)
	out := []models.Complaint{}
	for _, c := range m.complaints {
		if c.IsDeleted != f.Deleted {
			continue
		}
		if email != "" && c.Email != email {
			continue
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateComplaint(ctx context.Context, c *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.findComplaint(c.TrackingID)
	if stored == nil {
		return ErrNotFound
	}
	if stored.Version != c.Version {
		return ErrConflict
	}
	stored.Status = c.Status
	stored.AdminResponse = c.AdminResponse
	stored.IsDeleted = c.IsDeleted
	stored.UpdatedAt = c.UpdatedAt
	stored.Version++
	c.Version = stored.Version
	return nil
}

func (m *Memory) DeleteComplaint(ctx context.Context, trackingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.complaints {
		if c.TrackingID == trackingID {
			m.complaints = append(m.complaints[:i], m.complaints[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) findComplaint(trackingID string) *models.Complaint {
	for _, c := range m.complaints {
		if c.TrackingID == trackingID {
			return c
		}
	}
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := u.BeforeCreate(nil); err != nil {
		return err
	}
	if _, ok := m.users[u.ID]; ok || m.clashes(u) {
		return ErrDuplicate
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *Memory) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.ID == id })
}

func (m *Memory) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, ErrNotFound
	}
	return m.findUser(func(u *models.User) bool { return u.UsernameValue() == username })
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	return m.findUser(func(u *models.User) bool { return u.Email == email })
}

func (m *Memory) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	if m.clashes(u) {
		return ErrDuplicate
	}
	u.UpdatedAt = time.Now()
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

// clashes reports whether another account already uses u's unique fields.
func (m *Memory) clashes(u *models.User) bool {
	for id, other := range m.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return true
		}
		if u.UsernameValue() != "" && other.UsernameValue() == u.UsernameValue() {
			return true
		}
		if u.GoogleID != nil && other.GoogleID != nil && *other.GoogleID == *u.GoogleID {
			return true
		}
	}
	return false
}

func (m *Memory) findUser(match func(*models.User) bool) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

var _ Storage = (*Memory)(nil)
