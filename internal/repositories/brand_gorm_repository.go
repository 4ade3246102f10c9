package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stringtracker/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMBrandRepository is a GORM implementation of BrandRepository.
type GORMBrandRepository struct {
	db *gorm.DB
}

// NewGORMBrandRepository creates a new instance of GORMBrandRepository.
func NewGORMBrandRepository(db *gorm.DB) *GORMBrandRepository {
	return &GORMBrandRepository{
		db: db,
	}
}

// findOrCreateBrand resolves a brand by exact name inside tx. A concurrent
// insert of the same name is absorbed by ON CONFLICT DO NOTHING and the row
// is re-read afterwards.
func findOrCreateBrand(tx *gorm.DB, name string) (*models.Brand, error) {
	var brand models.Brand
	err := tx.Where("name = ?", name).Take(&brand).Error
	if err == nil {
		return &brand, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up brand %q: %w", name, err)
	}

	insert := models.Brand{Name: name}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&insert).Error; err != nil {
		return nil, fmt.Errorf("failed to create brand %q: %w", name, err)
	}

	if err := tx.Where("name = ?", name).Take(&brand).Error; err != nil {
		return nil, fmt.Errorf("failed to re-read brand %q: %w", name, err)
	}
	return &brand, nil
}

// List returns brands, optionally filtered by a case-insensitive name substring.
func (r *GORMBrandRepository) List(ctx context.Context, nameLike string, direction models.SortDirection) ([]models.Brand, error) {
	brands := make([]models.Brand, 0)
	q := r.db.WithContext(ctx).Model(&models.Brand{})
	if nameLike != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(nameLike)+"%")
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "name"}, Desc: direction == models.SortDesc})
	if err := q.Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return brands, nil
}

// FindOrCreate resolves a brand by exact name, creating it when absent.
func (r *GORMBrandRepository) FindOrCreate(ctx context.Context, name string) (*models.Brand, error) {
	var brand *models.Brand
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		brand, err = findOrCreateBrand(tx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return brand, nil
}

// DeleteOrphans removes brands that no guitar references.
func (r *GORMBrandRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM guitar WHERE guitar.brand_id = brand.id)").
		Delete(&models.Brand{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete orphaned brands: %w", res.Error)
	}
	return res.RowsAffected, nil
}
