package notify

import (
	"context"
	"sort"
	"sync"
)

// Registry manages inquiry sinks
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]Sink
}

// NewRegistry creates a new sink registry
func NewRegistry() *Registry {
	return &Registry{
		sinks: make(map[string]Sink),
	}
}

// Register adds a sink under its name, replacing any sink with the same name
func (r *Registry) Register(sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[sink.Name()] = sink
}

// Get retrieves a sink by name
func (r *Registry) Get(name string) Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sinks[name]
}

// List returns all registered sink names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sinks))
	for name := range r.sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sinks returns a snapshot of the registered sinks ordered by name
func (r *Registry) Sinks() []Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Sink, 0, len(r.sinks))
	for _, sink := range r.sinks {
		out = append(out, sink)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// HealthCheckAll checks health of all registered sinks
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	results := make(map[string]error)
	for _, sink := range r.Sinks() {
		results[sink.Name()] = sink.HealthCheck(ctx)
	}
	return results
}

// Unregister removes a sink from the registry
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, name)
}

// Len returns the number of registered sinks
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}
