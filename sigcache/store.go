package sigcache

import (
	"context"
	"errors"
	"sync"

	"github.com/blockberries/counterberry/types"
)

// Errors
var (
	ErrStoreClosed   = errors.New("capability store is closed")
	ErrNilCapability = errors.New("nil capability")
	ErrCorruptRecord = errors.New("corrupt capability record")
)

// Store persists capabilities by key
type Store interface {
	// Get returns the capability stored under key, if any
	Get(ctx context.Context, key string) (*types.Capability, bool, error)

	// Put stores c under key, replacing any previous entry
	Put(ctx context.Context, key string, c *types.Capability) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*types.Capability
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*types.Capability)}
}

// Get implements Store
func (s *MemoryStore) Get(_ context.Context, key string) (*types.Capability, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return cloneCapability(c), true, nil
}

// Put implements Store
func (s *MemoryStore) Put(_ context.Context, key string, c *types.Capability) error {
	if c == nil {
		return ErrNilCapability
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = cloneCapability(c)
	return nil
}

// Delete implements Store
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len returns the number of stored entries
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// cloneCapability returns a deep copy so callers cannot modify stored entries
func cloneCapability(c *types.Capability) *types.Capability {
	out := *c
	out.Signature = append([]byte(nil), c.Signature...)
	out.Statement.PublicKey = append([]byte(nil), c.Statement.PublicKey...)
	return &out
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*BoltStore)(nil)
)
