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

// GORMGuitarRepository is a GORM implementation of GuitarRepository.
type GORMGuitarRepository struct {
	db *gorm.DB
}

// NewGORMGuitarRepository creates a new instance of GORMGuitarRepository.
func NewGORMGuitarRepository(db *gorm.DB) *GORMGuitarRepository {
	return &GORMGuitarRepository{
		db: db,
	}
}

// Scope narrows a guitar query. Scopes assume the brand table is joined.
type Scope func(*gorm.DB) *gorm.DB

func withBrand(db *gorm.DB) *gorm.DB {
	return db.Joins("JOIN brand ON brand.id = guitar.brand_id")
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

// ByOwner restricts results to guitars owned by userID.
func ByOwner(userID string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("guitar.user_id = ?", userID)
	}
}

// ByModelLike matches a case-insensitive model substring.
func ByModelLike(model string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(guitar.model) LIKE ?", likePattern(model))
	}
}

// ByBrandLike matches a case-insensitive brand name substring.
func ByBrandLike(name string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(brand.name) LIKE ?", likePattern(name))
	}
}

// ByBrandNames matches any of the exact brand names.
func ByBrandNames(names ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("brand.name IN ?", names)
	}
}

// ByTypes matches any of the exact instrument types.
func ByTypes(types ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("guitar.type IN ?", types)
	}
}

// ByStrings matches any of the string counts.
func ByStrings(counts ...int) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("guitar.strings IN ?", counts)
	}
}

// ByConditions matches any of the exact conditions.
func ByConditions(conditions ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("guitar.condition IN ?", conditions)
	}
}

// ByPriceRange applies inclusive bounds; a nil bound is open.
func ByPriceRange(min, max *float64) Scope {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case min != nil && max != nil:
			return db.Where("guitar.price BETWEEN ? AND ?", *min, *max)
		case min != nil:
			return db.Where("guitar.price >= ?", *min)
		case max != nil:
			return db.Where("guitar.price <= ?", *max)
		}
		return db
	}
}

// BySearch matches model or brand name as a case-insensitive substring.
func BySearch(term string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		p := likePattern(term)
		return db.Where("(LOWER(guitar.model) LIKE ? OR LOWER(brand.name) LIKE ?)", p, p)
	}
}

// WithSort orders by the requested key with id as a tiebreaker.
func WithSort(s models.GuitarSort) Scope {
	column := "guitar.model"
	switch s.Field {
	case models.SortByBrand:
		column = "brand.name"
	case models.SortByPrice:
		column = "guitar.price"
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Order(clause.OrderByColumn{Column: clause.Column{Name: column, Raw: true}, Desc: s.Direction == models.SortDesc}).
			Order("guitar.id ASC")
	}
}

// filterScopes converts a filter into the scopes that implement it.
func filterScopes(f models.GuitarFilter) []func(*gorm.DB) *gorm.DB {
	var scopes []Scope
	if f.UserID != "" {
		scopes = append(scopes, ByOwner(f.UserID))
	}
	if f.Model != "" {
		scopes = append(scopes, ByModelLike(f.Model))
	}
	if f.BrandLike != "" {
		scopes = append(scopes, ByBrandLike(f.BrandLike))
	}
	if len(f.BrandNames) > 0 {
		scopes = append(scopes, ByBrandNames(f.BrandNames...))
	}
	if len(f.Types) > 0 {
		scopes = append(scopes, ByTypes(f.Types...))
	}
	if len(f.Strings) > 0 {
		scopes = append(scopes, ByStrings(f.Strings...))
	}
	if len(f.Conditions) > 0 {
		scopes = append(scopes, ByConditions(f.Conditions...))
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		scopes = append(scopes, ByPriceRange(f.MinPrice, f.MaxPrice))
	}
	if f.Search != "" {
		scopes = append(scopes, BySearch(f.Search))
	}

	out := make([]func(*gorm.DB) *gorm.DB, len(scopes))
	for i, s := range scopes {
		out[i] = s
	}
	return out
}

// Find retrieves all guitars matching the filter.
func (r *GORMGuitarRepository) Find(ctx context.Context, filter models.GuitarFilter, sort models.GuitarSort) ([]models.Guitar, error) {
	guitars := make([]models.Guitar, 0)
	err := r.db.WithContext(ctx).
		Model(&models.Guitar{}).
		Scopes(withBrand).
		Scopes(filterScopes(filter)...).
		Scopes(WithSort(sort)).
		Preload("Brand").
		Find(&guitars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find guitars: %w", err)
	}
	return guitars, nil
}

// GetByID retrieves a single guitar with its brand.
func (r *GORMGuitarRepository) GetByID(ctx context.Context, id uint) (*models.Guitar, error) {
	var guitar models.Guitar
	if err := r.db.WithContext(ctx).Preload("Brand").First(&guitar, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("guitar with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get guitar by ID %d: %w", id, err)
	}
	return &guitar, nil
}

// Create inserts a guitar, resolving its brand in the same transaction.
func (r *GORMGuitarRepository) Create(ctx context.Context, guitar *models.Guitar, brandName string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		brand, err := findOrCreateBrand(tx, brandName)
		if err != nil {
			return err
		}
		guitar.BrandID = brand.ID
		guitar.Brand = *brand
		return tx.Omit(clause.Associations).Create(guitar).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create guitar: %w", translate(err))
	}
	return nil
}

// Update writes every column of guitar. Zero values are persisted too.
func (r *GORMGuitarRepository) Update(ctx context.Context, guitar *models.Guitar, brandName *string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if brandName != nil {
			brand, err := findOrCreateBrand(tx, *brandName)
			if err != nil {
				return err
			}
			guitar.BrandID = brand.ID
			guitar.Brand = *brand
		}
		res := tx.Model(guitar).
			Select("*").
			Omit(clause.Associations, "id", "created_at").
			Updates(guitar)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Preload("Brand").First(guitar, guitar.ID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to update guitar %d: %w", guitar.ID, translate(err))
	}
	return nil
}

// Delete deletes a guitar by its ID.
func (r *GORMGuitarRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Guitar{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete guitar %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ExistsDuplicate counts guitars of the owner sharing model and brand name.
func (r *GORMGuitarRepository) ExistsDuplicate(ctx context.Context, userID, model, brandName string, excludeID uint) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Guitar{}).
		Scopes(withBrand, ByOwner(userID)).
		Where("LOWER(guitar.model) = ?", strings.ToLower(model)).
		Where("LOWER(brand.name) = ?", strings.ToLower(brandName))
	if excludeID != 0 {
		q = q.Where("guitar.id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check duplicate guitar: %w", err)
	}
	return count > 0, nil
}
