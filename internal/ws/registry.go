package ws

import (


	"github.com/c-pro/geche"
)

// Registry maps live session IDs to their delivery queues.
type Registry struct {
	sessions *geche.MapCache[string, *Queue]
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: geche.NewMapCache[string, *Queue](),
	}
}

// Register overwrites any queue already stored under id.
func (r *Registry) Register(id string, q *Queue) {
	r.sessions.Set(id, q)
}

// Unregister is a no-op for unknown IDs.
func (r *Registry) Unregister(id string) {
	_ = r.sessions.Del(id)
}

// Snapshot returns a copy of the current sessions. Callers may deliver to it
// without holding any registry lock.
func (r *Registry) Snapshot() map[string]*Queue {
	return r.sessions.Snapshot()
}

func (r *Registry) Len() int {
	return r.sessions.Len()
}
