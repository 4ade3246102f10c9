package repositories

import (
	"context"

	"stringtracker/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// GetByEmail returns the user including the password hash.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByID returns the user without the password hash.
	GetByID(ctx context.Context, id string) (*models.User, error)
}
