package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/auth-space/core/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicateEmail means a user with that email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// Store persists credential records in the relational database.
type Store struct{ db *gorm.DB }

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// FindByEmail returns the user with the given email, or (nil, nil) if absent.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &u, nil
}

// FindByID returns the user with the given id, or (nil, nil) if absent.
func (s *Store) FindByID(ctx context.Context, id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &u, nil
}

// Insert creates the user inside a transaction so a failed write leaves no
// half-created record. A unique-index violation maps to ErrDuplicateEmail.
func (s *Store) Insert(ctx context.Context, u *models.UserModel) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UserModel{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateEmail
		}
		return tx.Create(u).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// RecordLogin stamps the last successful login time and source IP.
func (s *Store) RecordLogin(ctx context.Context, id, ip string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_time": &now,
			"last_login_ip":   ip,
		}).Error
}
