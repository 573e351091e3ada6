// Package accesslistener implements the public TCP listener an In-mode
// tunnel session exposes: accepted sockets are queued and handed off to the
// session's forwarding loop, which relays them to the client over new QUIC
// streams.
package accesslistener

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quictun/quictund/pkg/shared"
)

// Event is delivered over AccessListener's channel.
type Event struct {
	// Conn is the accepted socket. Nil when Quit is true.
	Conn net.Conn
	// Quit signals the forwarding loop should stop; Conn is nil.
	Quit bool
}

// AccessListener binds a TCP listener and, once activated, forwards
// accepted connections to a bounded channel. Until Activate is called,
// every accepted connection is silently dropped — the caller isn't
// necessarily ready to receive them yet.
type AccessListener struct {
	listener *net.TCPListener
	addr     *net.TCPAddr

	events  chan Event
	active  atomic.Bool
	stopped atomic.Bool

	closeOnce sync.Once
}

// Bind creates a TCP listener on addr. The caller must call Start to begin
// accepting connections.
func Bind(addr *net.TCPAddr) (*AccessListener, error) {
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("access listener failed to bind on %s: %w", addr, err)
	}

	boundAddr := listener.Addr().(*net.TCPAddr)
	slog.Info("bound access listener", slog.String("addr", boundAddr.String()))

	return &AccessListener{
		listener: listener,
		addr:     boundAddr,
		events:   make(chan Event, shared.AccessListenerQueueDepth),
	}, nil
}

// Start begins the accept loop in a new goroutine. It returns immediately.
func (a *AccessListener) Start() {
	go a.acceptLoop()
}

func (a *AccessListener) acceptLoop() {
	defer a.listener.Close()

	for {
		conn, err := a.listener.Accept()
		if err != nil {
			return
		}

		if a.stopped.Load() {
			conn.Close()
			return
		}

		if !a.active.Load() {
			slog.Debug("dropping connection, access listener not active", slog.String("remote", conn.RemoteAddr().String()))
			conn.Close()
			continue
		}

		select {
		case a.events <- Event{Conn: conn}:
		case <-time.After(shared.AccessListenerSendTimeout):
			slog.Debug("timed out handing off accepted connection, dropping", slog.String("remote", conn.RemoteAddr().String()))
			conn.Close()
		}
	}
}

// Activate starts (or stops) delivering accepted connections instead of
// dropping them.
func (a *AccessListener) Activate(on bool) {
	a.active.Store(on)
}

// Addr returns the TCP address the listener is bound to.
func (a *AccessListener) Addr() *net.TCPAddr {
	return a.addr
}

// Events returns the channel the forwarding loop should range over.
func (a *AccessListener) Events() <-chan Event {
	return a.events
}

// Pause enqueues a Quit event asking the forwarding loop to stop, without
// tearing down the underlying listener. If the channel is full it waits up
// to AccessListenerSendTimeout for room, like the accept loop does.
func (a *AccessListener) Pause() {
	select {
	case a.events <- Event{Quit: true}:
	case <-time.After(shared.AccessListenerSendTimeout):
	}
}

// Shutdown stops the accept loop for good. Accept blocks on the raw socket
// with no portable way to interrupt it directly, so Shutdown marks the
// listener stopped and then dials its own address once to unblock the
// pending Accept call; the loop notices stopped is set and closes the
// listener itself on the way out.
func (a *AccessListener) Shutdown() {
	a.closeOnce.Do(func() {
		a.stopped.Store(true)
		if conn, err := net.DialTimeout("tcp", a.addr.String(), time.Second); err == nil {
			conn.Close()
		}
	})
}
