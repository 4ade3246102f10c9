package client

import (
	"context"
	"slices"
	"sync"

	"stringtracker/internal/models"
	"stringtracker/internal/services"
)

// refreshPageSize is the page size Refresh walks the listing with.
const refreshPageSize = services.MaxPageSize

// Store is the session-scoped view of the caller's inventory. Local state
// changes only after the server accepted a write. Create one per session.
type Store struct {
	client *Client

	mu       sync.RWMutex
	guitars  []models.Guitar
	inFlight int
	lastErr  error
}

// NewStore creates an empty store backed by client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// Guitars returns a copy of the local list.
func (s *Store) Guitars() []models.Guitar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.guitars)
}

// Loading reports whether any request is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// Err returns the error of the most recent operation, or nil if it succeeded.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) begin() {
	s.mu.Lock()
	s.inFlight++
	s.lastErr = nil
	s.mu.Unlock()
}

// end finishes a request, recording err and applying mutate under the lock.
func (s *Store) end(err error, mutate func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	s.lastErr = err
	if mutate != nil {
		mutate()
	}
}

// Refresh replaces the local list with every guitar the caller owns. The
// list is cleared when the fetch fails.
func (s *Store) Refresh(ctx context.Context) error {
	s.begin()
	all, err := s.fetchAll(ctx)
	s.end(err, func() {
		if err != nil {
			s.guitars = nil
			return
		}
		s.guitars = all
	})
	return err
}

func (s *Store) fetchAll(ctx context.Context) ([]models.Guitar, error) {
	all := []models.Guitar{}
	for page := 1; ; page++ {
		resp, err := s.client.List(ctx, ListOptions{Page: page, Limit: refreshPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Data...)
		if !resp.Meta.HasNextPage {
			return all, nil
		}
	}
}

// Add creates a guitar and appends it to the local list.
func (s *Store) Add(ctx context.Context, in NewGuitar) (*models.Guitar, error) {
	s.begin()
	g, err := s.client.Create(ctx, in)
	s.end(err, func() {
		if err == nil {
			s.guitars = append(s.guitars, *g)
		}
	})
	return g, err
}

// Update applies patch and replaces the matching local entry.
func (s *Store) Update(ctx context.Context, id uint, patch GuitarPatch) (*models.Guitar, error) {
	s.begin()
	g, err := s.client.Update(ctx, id, patch)
	s.end(err, func() {
		if err != nil {
			return
		}
		for i := range s.guitars {
			if s.guitars[i].ID == id {
				s.guitars[i] = *g
			}
		}
	})
	return g, err
}

// Delete removes a guitar and drops it from the local list.
func (s *Store) Delete(ctx context.Context, id uint) error {
	s.begin()
	err := s.client.Delete(ctx, id)
	s.end(err, func() {
		if err == nil {
			s.guitars = slices.DeleteFunc(s.guitars, func(g models.Guitar) bool { return g.ID == id })
		}
	})
	return err
}

// FilteredFetch returns one page matching opts without touching the local
// list. A failed fetch yields an empty slice alongside the error.
func (s *Store) FilteredFetch(ctx context.Context, opts ListOptions) ([]models.Guitar, error) {
	s.begin()
	page, err := s.client.List(ctx, opts)
	s.end(err, nil)
	if err != nil {
		return []models.Guitar{}, err
	}
	return page.Data, nil
}
