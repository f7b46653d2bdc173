package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

// ErrNotFound is returned by Get for an unknown listing id.
var ErrNotFound = errors.New("catalog: listing not found")

// Reader is the read side of the catalog store.
type Reader interface {
	Get(ctx context.Context, id string) (*model.Listing, error)
	List(ctx context.Context) ([]*model.Listing, error)
}

// Store is the catalog document store. Put inserts or replaces by id.
type Store interface {
	Reader
	Put(ctx context.Context, l *model.Listing) error
	Close(ctx context.Context) error
}

// MemoryStore keeps listings in process, in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*model.Listing
	order []string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store holding a copy of listings.
func NewMemoryStore(listings ...*model.Listing) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]*model.Listing)}
	for _, l := range listings {
		_ = s.Put(context.Background(), l)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(l), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*model.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Listing, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.byID[id]))
	}
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, l *model.Listing) error {
	if l == nil || l.ID == "" {
		return errors.New("catalog: listing id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[l.ID]; !ok {
		s.order = append(s.order, l.ID)
	}
	s.byID[l.ID] = clone(l)
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

// clone deep-copies a listing through its JSON form.
func clone(l *model.Listing) *model.Listing {
	data, err := json.Marshal(l)
	if err != nil {
		cp := *l
		return &cp
	}
	var out model.Listing
	if err := json.Unmarshal(data, &out); err != nil {
		cp := *l
		return &cp
	}
	return &out
}
