package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"stringtracker/internal/models"

	"github.com/google/uuid"
)

// memoryStore holds the guitar and brand tables shared by the in-memory
// repositories.
type memoryStore struct {
	mu           sync.RWMutex
	guitars      map[uint]models.Guitar
	brands       map[uint]models.Brand
	nextGuitarID uint
	nextBrandID  uint
}

// MemoryGuitarRepository is an in-memory implementation of GuitarRepository.
type MemoryGuitarRepository struct {
	store *memoryStore
}

// MemoryBrandRepository is an in-memory implementation of BrandRepository.
type MemoryBrandRepository struct {
	store *memoryStore
}

// NewMemoryRepositories creates guitar and brand repositories backed by the same in-memory tables.
func NewMemoryRepositories() (*MemoryGuitarRepository, *MemoryBrandRepository) {
	s := &memoryStore{
		guitars: make(map[uint]models.Guitar),
		brands:  make(map[uint]models.Brand),
	}
	return &MemoryGuitarRepository{store: s}, &MemoryBrandRepository{store: s}
}

// brandByName must be called with the lock held.
func (s *memoryStore) brandByName(name string) (models.Brand, bool) {
	for _, b := range s.brands {
		if b.Name == name {
			return b, true
		}
	}
	return models.Brand{}, false
}

// findOrCreateBrand must be called with the write lock held.
func (s *memoryStore) findOrCreateBrand(name string) models.Brand {
	if b, ok := s.brandByName(name); ok {
		return b
	}
	s.nextBrandID++
	b := models.Brand{ID: s.nextBrandID, Name: name}
	s.brands[b.ID] = b
	return b
}

// hydrate attaches the current brand row. Must be called with the lock held.
func (s *memoryStore) hydrate(g models.Guitar) models.Guitar {
	g.Brand = s.brands[g.BrandID]
	return g
}

// conflicts enforces the (owner, model, brand) uniqueness. Must be called with the lock held.
func (s *memoryStore) conflicts(g models.Guitar) bool {
	for _, other := range s.guitars {
		if other.ID != g.ID && other.UserID == g.UserID && other.Model == g.Model && other.BrandID == g.BrandID {
			return true
		}
	}
	return false
}

// Find returns all guitars matching the filter.
func (r *MemoryGuitarRepository) Find(_ context.Context, filter models.GuitarFilter, order models.GuitarSort) ([]models.Guitar, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	guitars := make([]models.Guitar, 0, len(r.store.guitars))
	for _, g := range r.store.guitars {
		g = r.store.hydrate(g)
		if filter.Matches(g) {
			guitars = append(guitars, g)
		}
	}
	sort.SliceStable(guitars, func(i, j int) bool {
		return order.Less(guitars[i], guitars[j])
	})
	return guitars, nil
}

// GetByID returns a guitar by its ID.
func (r *MemoryGuitarRepository) GetByID(_ context.Context, id uint) (*models.Guitar, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	g, ok := r.store.guitars[id]
	if !ok {
		return nil, fmt.Errorf("guitar with ID %d: %w", id, ErrNotFound)
	}
	g = r.store.hydrate(g)
	return &g, nil
}

// Create adds a new guitar.
func (r *MemoryGuitarRepository) Create(_ context.Context, guitar *models.Guitar, brandName string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	brand := r.store.findOrCreateBrand(brandName)
	candidate := *guitar
	candidate.ID = 0
	candidate.BrandID = brand.ID
	if r.store.conflicts(candidate) {
		return fmt.Errorf("failed to create guitar: %w", ErrDuplicate)
	}

	r.store.nextGuitarID++
	now := time.Now()
	guitar.ID = r.store.nextGuitarID
	guitar.BrandID = brand.ID
	guitar.Brand = brand
	guitar.CreatedAt = now
	guitar.UpdatedAt = now
	r.store.guitars[guitar.ID] = *guitar
	return nil
}

// Update replaces an existing guitar.
func (r *MemoryGuitarRepository) Update(_ context.Context, guitar *models.Guitar, brandName *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.guitars[guitar.ID]
	if !ok {
		return fmt.Errorf("failed to update guitar %d: %w", guitar.ID, ErrNotFound)
	}

	candidate := *guitar
	if brandName != nil {
		candidate.BrandID = r.store.findOrCreateBrand(*brandName).ID
	}
	if r.store.conflicts(candidate) {
		return fmt.Errorf("failed to update guitar %d: %w", guitar.ID, ErrDuplicate)
	}

	candidate.CreatedAt = existing.CreatedAt
	candidate.UpdatedAt = time.Now()
	candidate = r.store.hydrate(candidate)
	r.store.guitars[candidate.ID] = candidate
	*guitar = candidate
	return nil
}

// Delete removes a guitar by its ID.
func (r *MemoryGuitarRepository) Delete(_ context.Context, id uint) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.guitars[id]; !ok {
		return false, nil
	}
	delete(r.store.guitars, id)
	return true, nil
}

// ExistsDuplicate reports whether the owner already has the model and brand pairing.
func (r *MemoryGuitarRepository) ExistsDuplicate(_ context.Context, userID, model, brandName string, excludeID uint) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, g := range r.store.guitars {
		if g.ID == excludeID || g.UserID != userID {
			continue
		}
		if strings.EqualFold(g.Model, model) && strings.EqualFold(r.store.brands[g.BrandID].Name, brandName) {
			return true, nil
		}
	}
	return false, nil
}

// List returns brands ordered by name.
func (r *MemoryBrandRepository) List(_ context.Context, nameLike string, direction models.SortDirection) ([]models.Brand, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	brands := make([]models.Brand, 0, len(r.store.brands))
	needle := strings.ToLower(nameLike)
	for _, b := range r.store.brands {
		if needle == "" || strings.Contains(strings.ToLower(b.Name), needle) {
			brands = append(brands, b)
		}
	}
	sort.Slice(brands, func(i, j int) bool {
		if direction == models.SortDesc {
			return brands[i].Name > brands[j].Name
		}
		return brands[i].Name < brands[j].Name
	})
	return brands, nil
}

// FindOrCreate resolves a brand by exact name.
func (r *MemoryBrandRepository) FindOrCreate(_ context.Context, name string) (*models.Brand, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b := r.store.findOrCreateBrand(name)
	return &b, nil
}

// DeleteOrphans removes brands no guitar references.
func (r *MemoryBrandRepository) DeleteOrphans(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	used := make(map[uint]bool, len(r.store.brands))
	for _, g := range r.store.guitars {
		used[g.BrandID] = true
	}
	var removed int64
	for id := range r.store.brands {
		if !used[id] {
			delete(r.store.brands, id)
			removed++
		}
	}
	return removed, nil
}

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user. Emails are unique.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("failed to create user: %w", ErrDuplicate)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

// GetByEmail returns a user by email, including the password hash.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
}

// GetByID returns a user by ID without the password hash.
func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
	}
	u.Password = ""
	return &u, nil
}
