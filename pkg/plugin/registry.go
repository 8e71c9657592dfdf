package plugin

import (
	"fmt"
	"sync"
)

// Registry manages decorator registration and discovery
type Registry struct {
	decorators map[string]Decorator
	mu         sync.RWMutex
}

// NewRegistry creates a new decorator registry
func NewRegistry() *Registry {
	return &Registry{
		decorators: make(map[string]Decorator),
	}
}

// Register adds a decorator to the registry
func (r *Registry) Register(dec Decorator) error {
	if dec == nil {
		return fmt.Errorf("cannot register nil decorator")
	}

	name := dec.Name()
	if name == "" {
		return fmt.Errorf("decorator name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.decorators[name]; exists {
		return fmt.Errorf("decorator %s is already registered", name)
	}

	r.decorators[name] = dec
	return nil
}

// Get retrieves a decorator by name
func (r *Registry) Get(name string) (Decorator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dec, exists := r.decorators[name]
	return dec, exists
}

// List returns all registered decorator names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.decorators))
	for name := range r.decorators {
		names = append(names, name)
	}
	return names
}
