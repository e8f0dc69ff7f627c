package transport

import (
	"sync"
)

// State is the lifecycle state of a client endpoint.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// handlers is an ordered list of registered callbacks. Dispatch iterates a
// snapshot, so a handler may register further handlers without deadlocking.
type handlers[T any] struct {
	mu   sync.RWMutex
	list []T
}

func (h *handlers[T]) add(fn T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.list = append(h.list, fn)
}

func (h *handlers[T]) snapshot() []T {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.list[:len(h.list):len(h.list)]
}
