package dialog

import (
	"fmt"
	"sync"
)

// Constructor builds a unit with its collaborators injected and its state zeroed.
type Constructor func() Unit

// Registry maps unit kinds to constructors so snapshots can be restored.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds or replaces the constructor of kind.
func (r *Registry) Register(kind string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ctors[kind] = ctor
}

// New builds a fresh unit of kind.
func (r *Registry) New(kind string) (Unit, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: unknown unit kind %q", ErrProtocolViolation, kind)
	}

	return ctor(), nil
}
