package storage

import (
	"context"
	"errors"
	"log"

	"complaintdesk/backend/internal/models"

	"gorm.io/gorm"
)

// CreateUser saves a new account. Unique email, username or Google id
// clashes are reported as ErrDuplicate.
func (s *Service) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		log.Printf("ERROR: Failed to save user %s: %v", u.Email, err)
		return err
	}
	log.Printf("INFO: New user %s saved to database (role: %s).", u.ID, u.Role)
	return nil
}

func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email = ?", models.NormalizeEmail(email))
}

// UpdateUser saves every column of u.
func (s *Service) UpdateUser(ctx context.Context, u *models.User) error {
	if err := s.DB.WithContext(ctx).Save(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Service) findUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
