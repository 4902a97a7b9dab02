// Package storage persists complaints and user accounts. Service is the
// GORM-backed implementation used in production; Memory is a drop-in
// in-process implementation for tests and local runs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"

	"complaintdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrConflict  = errors.New("record was modified concurrently")
)

// ComplaintFilter selects complaints for listing. The zero value selects
// every active complaint.
type ComplaintFilter struct {
	Deleted bool
	Email   string
}

// ComplaintStore is the complaint repository keyed by tracking id.
// Lists are ordered by creation time, newest first; ties keep insertion order.
type ComplaintStore interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, trackingID string) (*models.Complaint, error)
	ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error)
	// UpdateComplaint writes status, adminResponse and isDeleted. It fails with
	// ErrConflict if c.Version is stale and bumps c.Version on success.
	UpdateComplaint(ctx context.Context, c *models.Complaint) error
	DeleteComplaint(ctx context.Context, trackingID string) error
}

// UserStore is the identity repository.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
}

type Storage interface {
	ComplaintStore
	UserStore
}

// Service is the GORM implementation of Storage. Redis is optional and only
// used to hand out distributed locks.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Open connects to the database for the given driver ("postgres" or "sqlite").
// Driver errors are translated so duplicate keys surface as gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
	return gorm.Open(dialector, &gorm.Config{TranslateError: true})
}

// Migrate creates or updates the tables.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.Complaint{},
		&models.User{},
	)
}

// Locker returns a Redis lock when Redis is configured and an in-process
// keyed mutex otherwise.
func (s *Service) Locker() Locker {
	if s.Redis != nil {
		return NewRedisLocker(s.Redis)
	}
	return NewKeyedMutex()
}

func (s *Service) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	c.Version = 1
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		log.Printf("ERROR: Failed to save complaint %s: %v", c.TrackingID, err)
		return err
	}
	return nil
}

func (s *Service) GetComplaint(ctx context.Context, trackingID string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.DB.WithContext(ctx).Where("tracking_id = ?", trackingID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error) {
	complaints := []models.Complaint{}
	q := s.DB.WithContext(ctx).Where("is_deleted = ?", f.Deleted)
	if f.Email != "" {
		q = q.Where("email = ?", models.NormalizeEmail(f.Email))
	}
	if err := q.Order("created_at DESC").Order("id ASC").Find(&complaints).Error; err != nil {
		log.Printf("ERROR: Failed to list complaints (deleted=%t): %v", f.Deleted, err)
		return nil, err
	}
	return complaints, nil
}

func (s *Service) UpdateComplaint(ctx context.Context, c *models.Complaint) error {
	current := c.Version
	res := s.DB.WithContext(ctx).Model(&models.Complaint{}).
		Where("tracking_id = ? AND version = ?", c.TrackingID, current).
		Updates(map[string]interface{}{
			"status":         c.Status,
			"admin_response": c.AdminResponse,
			"is_deleted":     c.IsDeleted,
			"version":        current + 1,
			"updated_at":     c.UpdatedAt,
		})
	if res.Error != nil {
		log.Printf("ERROR: Failed to update complaint %s: %v", c.TrackingID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the row is gone or someone else bumped the version.
		if _, err := s.GetComplaint(ctx, c.TrackingID); err != nil {
			return err
		}
		return ErrConflict
	}
	c.Version = current + 1
	return nil
}

func (s *Service) DeleteComplaint(ctx context.Context, trackingID string) error {
	res := s.DB.WithContext(ctx).Where("tracking_id = ?", trackingID).Delete(&models.Complaint{})
	if res.Error != nil {
		log.Printf("ERROR: Failed to purge complaint %s: %v", trackingID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ComplaintLockKey is the lock name guarding writes to one complaint.
func ComplaintLockKey(trackingID string) string {
	return "complaint:" + trackingID
}

var _ Storage = (*Service)(nil)
