package client

import "sync"

// unauthorizedHook stores the session-expired callback shared by all calls of
// a client.
type unauthorizedHook struct {
	mu sync.RWMutex
	fn func()
}

func (h *unauthorizedHook) SetUnauthorizedHandler(fn func()) {
	h.mu.Lock()
	h.fn = fn
	h.mu.Unlock()
}

func (h *unauthorizedHook) fire() {
	h.mu.RLock()
	fn := h.fn
	h.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
