package repositories

import (
	"context"

	"stringtracker/internal/models"
)

// GuitarRepository defines the interface for guitar data access.
type GuitarRepository interface {
	// Find returns every guitar matching filter, with brands loaded, ordered by sort.
	Find(ctx context.Context, filter models.GuitarFilter, sort models.GuitarSort) ([]models.Guitar, error)
	GetByID(ctx context.Context, id uint) (*models.Guitar, error)
	// Create resolves brandName (creating the brand if needed) and inserts guitar.
	Create(ctx context.Context, guitar *models.Guitar, brandName string) error
	// Update persists all fields of guitar. When brandName is non-nil the
	// brand is re-resolved by name first.
	Update(ctx context.Context, guitar *models.Guitar, brandName *string) error
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, id uint) (bool, error)
	// ExistsDuplicate reports whether userID already owns a guitar with the
	// same model and brand name, compared case-insensitively. excludeID is
	// ignored when zero.
	ExistsDuplicate(ctx context.Context, userID, model, brandName string, excludeID uint) (bool, error)
}

// BrandRepository defines the interface for brand data access.
type BrandRepository interface {
	List(ctx context.Context, nameLike string, direction models.SortDirection) ([]models.Brand, error)
	FindOrCreate(ctx context.Context, name string) (*models.Brand, error)
	// DeleteOrphans removes brands no guitar references and returns how many were removed.
	DeleteOrphans(ctx context.Context) (int64, error)
}
