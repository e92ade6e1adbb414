package storage

import (
	"context"
	"sync"
	"time"
)

// DefaultLayoutCapacity bounds the number of layouts kept in memory.
const DefaultLayoutCapacity = 256

// MemoryLayoutStore keeps layouts in a map. When full, the oldest saved
// layout is evicted.
type MemoryLayoutStore struct {
	mu       sync.RWMutex
	layouts  map[string]Layout
	order    []string
	capacity int
	clock    func() time.Time
}

// MemoryOption configures a MemoryLayoutStore.
type MemoryOption func(*MemoryLayoutStore)

// WithCapacity overrides DefaultLayoutCapacity. Non-positive values are ignored.
func WithCapacity(n int) MemoryOption {
	return func(s *MemoryLayoutStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithMemoryClock overrides the time source, primarily for tests.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryLayoutStore) {
		s.clock = clock
	}
}

// NewMemoryLayoutStore creates an empty in-memory layout store.
func NewMemoryLayoutStore(opts ...MemoryOption) *MemoryLayoutStore {
	s := &MemoryLayoutStore{
		layouts:  make(map[string]Layout),
		capacity: DefaultLayoutCapacity,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryLayoutStore) Save(_ context.Context, l Layout) (Layout, error) {
	l, err := prepareLayout(l, s.clock())
	if err != nil {
		return Layout{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.layouts[l.ID]; !exists {
		s.order = append(s.order, l.ID)
	}
	s.layouts[l.ID] = l

	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.layouts, oldest)
	}
	return l, nil
}

func (s *MemoryLayoutStore) Get(_ context.Context, id string) (Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.layouts[id]
	if !ok {
		return Layout{}, ErrLayoutNotFound
	}
	return l, nil
}

func (s *MemoryLayoutStore) List(_ context.Context) ([]Layout, error) {
	s.mu.RLock()
	out := make([]Layout, 0, len(s.layouts))
	for _, l := range s.layouts {
		out = append(out, l)
	}
	s.mu.RUnlock()

	sortLayouts(out)
	return out, nil
}

func (s *MemoryLayoutStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.layouts[id]; !ok {
		return ErrLayoutNotFound
	}
	delete(s.layouts, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
