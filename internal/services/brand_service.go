package services

import (
	"context"

	"stringtracker/internal/models"
	"stringtracker/internal/repositories"

	"go.uber.org/zap"
)

// BrandService exposes the brand catalogue.
type BrandService struct {
	repo repositories.BrandRepository
}

// NewBrandService creates a new BrandService.
func NewBrandService(repo repositories.BrandRepository) *BrandService {
	return &BrandService{repo: repo}
}

// ListBrands returns brands whose name contains nameLike, ordered by name.
func (s *BrandService) ListBrands(ctx context.Context, nameLike string, direction models.SortDirection) ([]models.Brand, error) {
	return s.repo.List(ctx, nameLike, direction)
}

// PruneOrphans deletes brands that no guitar references anymore.
func (s *BrandService) PruneOrphans(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteOrphans(ctx)
	if err != nil {
		return 0, err
	}
	zap.S().Named("brand_service").Infow("pruned orphaned brands", "removed", removed)
	return removed, nil
}
