package location

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Store is the persistence behind the location slot.
type Store interface {
	// Get returns the stored name and whether one has been stored.
	Get(ctx context.Context) (string, bool, error)
	Put(ctx context.Context, name string) error
}

// Cache remembers the most recently resolved display name. It is a single slot shared by
// the whole process; every save overwrites it and nothing expires.
type Cache struct {
	store       Store
	defaultName string
}

func NewCache(store Store, defaultName string) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Cache{store: store, defaultName: defaultName}
}

// Save persists name. Blank names are ignored so a failed lookup never wipes a good one.
func (c *Cache) Save(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return c.store.Put(ctx, name)
}

// Load returns the last saved name, or the default when nothing usable is stored.
func (c *Cache) Load(ctx context.Context) string {
	name, ok, err := c.store.Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Reading last location failed, using default")
		return c.defaultName
	}
	if !ok || name == "" {
		return c.defaultName
	}
	return name
}

// MemoryStore keeps the slot in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	name  string
	saved bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name, m.saved, nil
}

func (m *MemoryStore) Put(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
	m.saved = true
	return nil
}
