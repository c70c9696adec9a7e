package provider

import (
	"sort"
	"sync"

	"MacroPull/internal/domain/repository"
)

// Registry resolves source names to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]repository.SourceAdapter
}

func NewRegistry(adapters ...repository.SourceAdapter) *Registry {
	r := &Registry{adapters: make(map[string]repository.SourceAdapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces the adapter under its own name.
func (r *Registry) Register(a repository.SourceAdapter) {
	if a == nil {
		return
	}
	r.mu.Lock()
	r.adapters[a.Name()] = a
	r.mu.Unlock()
}

func (r *Registry) Adapter(name string) (repository.SourceAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// Names lists registered sources in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
