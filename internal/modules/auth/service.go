package auth

import (
	"context"

	"github.com/auth-space/core/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserInserter is the slice of the user store the registration path needs.
type UserInserter interface {
	Insert(ctx context.Context, u *models.UserModel) error
}

type Service struct{ users UserInserter }

func NewService(users UserInserter) *Service { return &Service{users: users} }

// Register hashes the password and persists a new user. The insert runs in a
// transaction, so a persistence failure leaves no half-created record.
func (s *Service) Register(ctx context.Context, email, password string) (*models.UserModel, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.UserModel{Email: email, Password: string(hash)}
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
