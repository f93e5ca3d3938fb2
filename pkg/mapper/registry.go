package mapper

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

var (
	ErrDuplicateMapper = errors.New("mapper already registered")
	ErrMapperNotFound  = errors.New("mapper not found")
)

// Registry is an explicit, concurrency-safe set of mappers keyed by id.
// Callers own their registry; there is no process-wide instance.
type Registry struct {
	mu      sync.RWMutex
	mappers map[string]Mapper
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{mappers: make(map[string]Mapper)}
}

// Register validates m and adds it. Ids are unique.
func (r *Registry) Register(m Mapper) error {
	if m == nil {
		return fmt.Errorf("%w: nil mapper", ErrConfig)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.mappers[m.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMapper, m.ID())
	}
	r.mappers[m.ID()] = m
	return nil
}

// Get returns the mapper registered under id.
func (r *Registry) Get(id string) (Mapper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mappers[id]
	return m, ok
}

// Unregister removes id and reports whether it was present.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.mappers[id]
	delete(r.mappers, id)
	return ok
}

// List returns registered ids in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.mappers))
	for id := range r.mappers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Apply looks up id and maps raw with it.
func (r *Registry) Apply(id string, raw any) (*judgment.Judgment, error) {
	m, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMapperNotFound, id)
	}
	return m.Apply(raw)
}
