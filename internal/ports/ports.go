// Package ports tracks which TCP ports the server currently has an
// AccessListener bound to, for In-mode tunnel sessions.
package ports

import "sync"

// Registry is a mutex-protected set of in-use ports. A single Registry is
// shared by every connection the server accepts, so that two clients can
// never claim the same listening port.
type Registry struct {
	mu    sync.Mutex
	ports map[uint16]struct{}
}

// NewRegistry returns an empty port registry.
func NewRegistry() *Registry {
	return &Registry{ports: make(map[uint16]struct{})}
}

// ErrPortInUse is returned by Reserve when the requested port is already
// held by another session.
type ErrPortInUse uint16

func (e ErrPortInUse) Error() string {
	return "port already in use"
}

// Reserve checks whether port is free and, if so, marks it in-use in the
// same critical section — callers must follow a successful Reserve with the
// actual bind immediately, and call Release if the bind subsequently fails,
// so the registry never reports a port as free when a listener is about to
// claim it out from under another request.
func (r *Registry) Reserve(port uint16) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, inUse := r.ports[port]; inUse {
		return ErrPortInUse(port)
	}
	r.ports[port] = struct{}{}
	return nil
}

// Release frees port. It is a no-op if the port was not reserved — callers
// must release a port exactly once: at session termination, or right after
// a failed bind or handshake that followed a successful Reserve.
func (r *Registry) Release(port uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ports, port)
}
