package credential

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists credential bundles by device id.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the bundle for deviceID, or ErrNotFound.
	Get(ctx context.Context, deviceID string) (*Bundle, error)

	// Save inserts or replaces the bundle for b.DeviceID.
	Save(ctx context.Context, b *Bundle) error

	// Delete removes the bundle for deviceID. Deleting a missing bundle is not an error.
	Delete(ctx context.Context, deviceID string) error

	// List returns all stored bundles ordered by device id.
	List(ctx context.Context) ([]Bundle, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	bundles map[string]Bundle
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bundles: make(map[string]Bundle),
		now:     time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, deviceID string) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bundles[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	return b.WithAddress(b.Address), nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, b *Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}

	c := b.WithAddress(b.Address)
	c.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	s.bundles[c.DeviceID] = *c
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, deviceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.bundles, deviceID)
	s.mu.Unlock()
	return nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]Bundle, 0, len(s.bundles))
	for _, b := range s.bundles {
		out = append(out, *b.WithAddress(b.Address))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out, nil
}
