package topics

import (
	"sort"
	"sync"
)

// ConflictHandler is called when a topic is rediscovered under a known name but
// with a different type. The registry keeps the existing descriptor either way.
type ConflictHandler func(existing, rediscovered Descriptor)

// Option configures a Registry.
type Option func(*Registry)

// WithConflictHandler installs a handler for type mismatches on rediscovery.
// The handler runs after the registry lock has been released.
func WithConflictHandler(h ConflictHandler) Option {
	return func(r *Registry) {
		r.onConflict = h
	}
}

// Registry stores the topics discovered on the network, keyed by name.
// Add may be called from any number of discovery goroutines while Find and
// List are served to readers under a shared lock.
type Registry struct {
	topics     map[string]Descriptor
	mu         sync.RWMutex
	onConflict ConflictHandler
}

// NewRegistry creates a new, empty topic registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		topics: make(map[string]Descriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add stores the descriptor unless a topic with the same name is already known.
// The first descriptor seen for a name is kept even if the type differs.
func (r *Registry) Add(topic Descriptor) {
	r.mu.Lock()
	existing, exists := r.topics[topic.Name]
	if !exists {
		r.topics[topic.Name] = topic.clone()
	}
	r.mu.Unlock()

	if exists && existing.TypeName != topic.TypeName && r.onConflict != nil {
		r.onConflict(existing, topic.clone())
	}
}

// Find returns the descriptor stored under name.
func (r *Registry) Find(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topic, exists := r.topics[name]
	if !exists {
		return Descriptor{}, false
	}
	return topic.clone(), true
}

// List returns a copy of all registered topics ordered by name
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	topics := make([]Descriptor, 0, len(r.topics))
	for _, topic := range r.topics {
		topics = append(topics, topic.clone())
	}
	r.mu.RUnlock()

	sort.Slice(topics, func(i, j int) bool {
		return topics[i].Name < topics[j].Name
	})
	return topics
}

// Count returns the number of registered topics
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.topics)
}
