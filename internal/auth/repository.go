package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email is already registered")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	CreateUser(ctx context.Context, u User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	// SetPassword upgrades a placeholder user into a real account.
	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}
