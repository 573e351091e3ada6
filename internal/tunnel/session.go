package tunnel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/quic-go/quic-go"

	"github.com/quictun/quictund/internal/accesslistener"
	"github.com/quictun/quictund/internal/copier"
	"github.com/quictun/quictund/internal/metrics"
	"github.com/quictun/quictund/internal/ports"
	"github.com/quictun/quictund/internal/wire"
)

// streamHalfCloser adapts a quic.Stream to expose CloseWrite, since
// Stream.Close already closes only the write direction — exactly the
// half-close semantics copier.Copy needs.
type streamHalfCloser struct{ quic.Stream }

func (s streamHalfCloser) CloseWrite() error { return s.Stream.Close() }

// Session drives one authenticated QUIC connection for its entire
// lifetime, dispatching to the Out- or In-mode loop depending on how the
// client logged in. It releases every resource it acquired — the
// AccessListener and its reserved port — exactly once, before returning.
type Session struct {
	Conn     quic.Connection
	Registry *ports.Registry
}

// RunOut accepts bidirectional streams opened by the client and, for each
// one, dials downstreamAddr and relays bytes between the new TCP connection
// and the QUIC stream. It returns when the connection closes or times out.
func (s *Session) RunOut(ctx context.Context, downstreamAddr string) error {
	remote := s.Conn.RemoteAddr()

	for {
		stream, err := s.Conn.AcceptStream(ctx)
		if err != nil {
			return transportOutcome(err, remote)
		}

		metrics.IncrementActiveQUICStreams()
		go func(stream quic.Stream) {
			defer metrics.DecrementActiveQUICStreams()
			s.forwardOut(stream, downstreamAddr)
		}(stream)
	}
}

func (s *Session) forwardOut(stream quic.Stream, downstreamAddr string) {
	tcpConn, err := net.Dial("tcp", downstreamAddr)
	if err != nil {
		slog.Error("failed to connect to downstream", slog.String("downstream", downstreamAddr), slog.String("error", err.Error()))
		stream.CancelRead(0)
		stream.Close()
		return
	}

	slog.Debug("forwarding OUT stream", slog.Int64("stream_id", int64(stream.StreamID())), slog.String("downstream", downstreamAddr))
	copier.CopyWithMetrics(tcpConn, streamHalfCloser{stream}, metrics.RecordBytesTransferred, metrics.RecordBytesTransferred)
}

// RunIn watches the control stream for any sign the client has gone away
// and, meanwhile, forwards every socket the AccessListener delivers to a
// new QUIC stream opened back to the client. It releases the listener's
// port and shuts the listener down before returning, exactly once.
func (s *Session) RunIn(ctx context.Context, al *accesslistener.AccessListener, controlStream quic.Stream, port uint16) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		// Any outcome of reading the control stream — a value, EOF, or an
		// error — means the peer is gone; there is nothing to branch on.
		// Pause enqueues the Quit event that wakes the loop below, rather
		// than tearing the session down out-of-band.
		_, _ = wire.Recv(controlStream)
		al.Pause()
	}()

	al.Activate(true)
	defer func() {
		s.Registry.Release(port)
		al.Shutdown()
	}()

	for {
		select {
		case <-runCtx.Done():
			return nil
		case ev, ok := <-al.Events():
			if !ok || ev.Quit {
				return nil
			}
			if err := s.forwardIn(runCtx, ev.Conn); err != nil {
				return err
			}
		}
	}
}

func (s *Session) forwardIn(ctx context.Context, tcpConn net.Conn) error {
	stream, err := s.Conn.OpenStreamSync(ctx)
	if err != nil {
		tcpConn.Close()
		return fmt.Errorf("failed to open stream to client: %w", err)
	}

	metrics.IncrementActiveQUICStreams()
	go func() {
		defer metrics.DecrementActiveQUICStreams()
		copier.CopyWithMetrics(tcpConn, streamHalfCloser{stream}, metrics.RecordBytesTransferred, metrics.RecordBytesTransferred)
	}()
	return nil
}

// transportOutcome classifies an AcceptStream error per the connection's
// normal-termination cases (idle timeout, application close) versus a real
// transport failure.
func transportOutcome(err error, remote net.Addr) error {
	var idleErr *quic.IdleTimeoutError
	var appErr *quic.ApplicationError
	switch {
	case errors.As(err, &idleErr):
		slog.Info("connection timed out", slog.String("remote", remote.String()))
		return nil
	case errors.As(err, &appErr):
		slog.Debug("connection closed", slog.String("remote", remote.String()))
		return nil
	default:
		return err
	}
}
