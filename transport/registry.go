package transport

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// registry is the set of connections a TCPServer currently tracks. It is
// written by the accept loop and by every per-connection receive loop.
type registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Conn
}

func newRegistry() *registry {
	return &registry{conns: make(map[uuid.UUID]*Conn)}
}

// add inserts c and reports whether it was not already present.
func (r *registry) add(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[c.id]; exists {
		return false
	}
	r.conns[c.id] = c
	return true
}

// remove deletes the connection with id and reports whether it was present.
func (r *registry) remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[id]; !exists {
		return false
	}
	delete(r.conns, id)
	return true
}

func (r *registry) contains(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.conns[id]
	return exists
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// snapshot returns the tracked connections in accept order.
func (r *registry) snapshot() []*Conn {
	r.mu.RLock()
	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns = make(map[uuid.UUID]*Conn)
}
