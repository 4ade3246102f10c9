package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stringtracker/internal/models"
	"stringtracker/internal/repositories"

	"go.uber.org/zap"
)

// EventPublisher delivers a serialized event under a routing key.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// ImageCleaner discards the stored object behind an image URL.
type ImageCleaner interface {
	Discard(ctx context.Context, imageURL string)
}

// GuitarService handles business logic for the guitar inventory.
type GuitarService struct {
	repo   repositories.GuitarRepository
	events EventPublisher
	images ImageCleaner
}

// GuitarOption configures optional collaborators of a GuitarService.
type GuitarOption func(*GuitarService)

// WithEvents publishes lifecycle events after every successful write.
func WithEvents(p EventPublisher) GuitarOption {
	return func(s *GuitarService) { s.events = p }
}

// WithImageCleaner removes stored images of deleted guitars.
func WithImageCleaner(c ImageCleaner) GuitarOption {
	return func(s *GuitarService) { s.images = c }
}

// NewGuitarService creates a new GuitarService.
func NewGuitarService(repo repositories.GuitarRepository, opts ...GuitarOption) *GuitarService {
	s := &GuitarService{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGuitarInput holds the fields of a new guitar.
type CreateGuitarInput struct {
	UserID    string
	Model     string
	BrandName string
	Type      string
	Strings   int
	Condition string
	Price     float64
	ImageURL  *string
}

// UpdateGuitarInput holds the fields to change. Nil fields are left untouched.
type UpdateGuitarInput struct {
	Model     *string
	BrandName *string
	Type      *string
	Strings   *int
	Condition *string
	Price     *float64
	ImageURL  *string
}

// IsEmpty reports whether no field was supplied.
func (in UpdateGuitarInput) IsEmpty() bool {
	return in.Model == nil && in.BrandName == nil && in.Type == nil && in.Strings == nil &&
		in.Condition == nil && in.Price == nil && in.ImageURL == nil
}

// GuitarPage is one page of a listing.
type GuitarPage struct {
	Data []models.Guitar `json:"data"`
	Meta PageMeta        `json:"meta"`
}

// ListGuitars returns every guitar matching filter in sort order.
func (s *GuitarService) ListGuitars(ctx context.Context, filter models.GuitarFilter, sort models.GuitarSort) ([]models.Guitar, error) {
	guitars, err := s.repo.Find(ctx, filter, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve guitars: %w", err)
	}
	return guitars, nil
}

// ListPage validates pagination, then returns the requested page of the listing.
func (s *GuitarService) ListPage(ctx context.Context, filter models.GuitarFilter, sort models.GuitarSort, page, limit int) (*GuitarPage, error) {
	if err := ValidatePagination(page, limit); err != nil {
		return nil, err
	}
	guitars, err := s.ListGuitars(ctx, filter, sort)
	if err != nil {
		return nil, err
	}
	data, meta := Paginate(guitars, page, limit)
	return &GuitarPage{Data: data, Meta: meta}, nil
}

// GetGuitar returns a guitar owned by userID. Guitars of other owners are
// reported as not found. An empty userID skips the ownership check.
func (s *GuitarService) GetGuitar(ctx context.Context, userID string, id uint) (*models.Guitar, error) {
	guitar, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != "" && guitar.UserID != userID {
		return nil, fmt.Errorf("guitar with ID %d: %w", id, repositories.ErrNotFound)
	}
	return guitar, nil
}

func validatePrice(p float64) error {
	if p <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

func validateStrings(n int) error {
	if n <= 0 {
		return ErrInvalidStrings
	}
	return nil
}

func validateCondition(c string) error {
	if !models.ValidCondition(c) {
		return ErrInvalidCondition
	}
	return nil
}

// CreateGuitar stores a new guitar, creating its brand when needed.
func (s *GuitarService) CreateGuitar(ctx context.Context, in CreateGuitarInput) (*models.Guitar, error) {
	brandName := strings.TrimSpace(in.BrandName)
	model := strings.TrimSpace(in.Model)
	if brandName == "" {
		return nil, ErrBrandRequired
	}
	if model == "" {
		return nil, ErrModelRequired
	}
	for _, err := range []error{validatePrice(in.Price), validateStrings(in.Strings), validateCondition(in.Condition)} {
		if err != nil {
			return nil, err
		}
	}

	dup, err := s.repo.ExistsDuplicate(ctx, in.UserID, model, brandName, 0)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, fmt.Errorf("guitar %q by %q: %w", model, brandName, repositories.ErrDuplicate)
	}

	guitar := &models.Guitar{
		Model:     model,
		Type:      in.Type,
		Strings:   in.Strings,
		Condition: in.Condition,
		Price:     in.Price,
		ImageURL:  in.ImageURL,
		UserID:    in.UserID,
	}
	if err := s.repo.Create(ctx, guitar, brandName); err != nil {
		return nil, err
	}

	s.publish(models.EventGuitarCreated, guitar)
	return guitar, nil
}

// UpdateGuitar applies the supplied fields to a guitar owned by userID.
func (s *GuitarService) UpdateGuitar(ctx context.Context, userID string, id uint, in UpdateGuitarInput) (*models.Guitar, error) {
	if in.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return nil, err
		}
	}
	if in.Strings != nil {
		if err := validateStrings(*in.Strings); err != nil {
			return nil, err
		}
	}
	if in.Condition != nil {
		if err := validateCondition(*in.Condition); err != nil {
			return nil, err
		}
	}

	guitar, err := s.GetGuitar(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var brandName *string
	if in.BrandName != nil {
		name := strings.TrimSpace(*in.BrandName)
		if name == "" {
			return nil, ErrBrandRequired
		}
		brandName = &name
	}
	if in.Model != nil {
		model := strings.TrimSpace(*in.Model)
		if model == "" {
			return nil, ErrModelRequired
		}
		guitar.Model = model
	}
	if in.Type != nil {
		guitar.Type = *in.Type
	}
	if in.Strings != nil {
		guitar.Strings = *in.Strings
	}
	if in.Condition != nil {
		guitar.Condition = *in.Condition
	}
	if in.Price != nil {
		guitar.Price = *in.Price
	}
	if in.ImageURL != nil {
		guitar.ImageURL = in.ImageURL
	}

	if in.Model != nil || brandName != nil {
		effectiveBrand := guitar.Brand.Name
		if brandName != nil {
			effectiveBrand = *brandName
		}
		dup, err := s.repo.ExistsDuplicate(ctx, guitar.UserID, guitar.Model, effectiveBrand, guitar.ID)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, fmt.Errorf("guitar %q by %q: %w", guitar.Model, effectiveBrand, repositories.ErrDuplicate)
		}
	}

	if err := s.repo.Update(ctx, guitar, brandName); err != nil {
		return nil, err
	}

	s.publish(models.EventGuitarUpdated, guitar)
	return guitar, nil
}

// DeleteGuitar removes a guitar owned by userID and reports whether a record was removed.
func (s *GuitarService) DeleteGuitar(ctx context.Context, userID string, id uint) (bool, error) {
	guitar, err := s.GetGuitar(ctx, userID, id)
	if err != nil {
		return false, err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}

	if s.images != nil && guitar.ImageURL != nil {
		s.images.Discard(ctx, *guitar.ImageURL)
	}
	s.publish(models.EventGuitarDeleted, guitar)
	return true, nil
}

// publish is best effort; a broker failure never fails the write that triggered it.
func (s *GuitarService) publish(event string, g *models.Guitar) {
	if s.events == nil {
		return
	}
	log := zap.S().Named("guitar_service")

	body, err := json.Marshal(models.GuitarEvent{
		Event:      event,
		GuitarID:   g.ID,
		UserID:     g.UserID,
		Model:      g.Model,
		Brand:      g.Brand.Name,
		Price:      g.Price,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		log.Errorw("failed to marshal guitar event", "event", event, "guitar_id", g.ID, "error", err)
		return
	}
	if err := s.events.Publish(event, body); err != nil {
		log.Warnw("failed to publish guitar event", "event", event, "guitar_id", g.ID, "error", err)
		return
	}
	log.Debugw("published guitar event", "event", event, "guitar_id", g.ID)
}
