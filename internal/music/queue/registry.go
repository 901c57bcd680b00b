package queue

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry maps guild IDs to their queues. Queues are created on first use
// and live for the lifetime of the registry; stop and leave clear them in place.
type Registry struct {
	mu     sync.RWMutex
	queues map[string]*Queue
	opts   []Option
}

// NewRegistry returns an empty registry. opts are applied to every queue it creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		queues: make(map[string]*Queue),
		opts:   opts,
	}
}

// Get returns the queue for guildID, creating it if needed.
func (r *Registry) Get(guildID string) *Queue {
	r.mu.RLock()
	q, ok := r.queues[guildID]
	r.mu.RUnlock()
	if ok {
		return q
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.queues[guildID]; ok {
		return q
	}
	q = New(r.opts...)
	r.queues[guildID] = q
	log.Debug().Str("component", "queue-registry").Str("guild", guildID).Msg("queue created")
	return q
}

// Lookup returns the queue for guildID without creating one.
func (r *Registry) Lookup(guildID string) (*Queue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queues[guildID]
	return q, ok
}

// Each calls fn for every known queue outside the registry lock.
func (r *Registry) Each(fn func(guildID string, q *Queue)) {
	r.mu.RLock()
	snapshot := make(map[string]*Queue, len(r.queues))
	for id, q := range r.queues {
		snapshot[id] = q
	}
	r.mu.RUnlock()

	for id, q := range snapshot {
		fn(id, q)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.queues)
}
