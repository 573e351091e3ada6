// Package server owns the QUIC endpoint's lifetime: TLS and transport
// bring-up, the connection accept loop, and dispatching each authenticated
// connection to its Out- or In-mode tunnel session.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quic-go/quic-go"

	"github.com/quictun/quictund/internal/config"
	"github.com/quictun/quictund/internal/metrics"
	"github.com/quictun/quictund/internal/ports"
	"github.com/quictun/quictund/internal/tunnel"
	"github.com/quictun/quictund/pkg/shared"
)

// Server owns the QUIC listener and the set of ports currently claimed by
// In-mode sessions.
type Server struct {
	cfg      *config.ServerConfig
	allow    config.AllowSet
	registry *ports.Registry
}

// New builds a Server from cfg. cfg must already have passed
// config.ValidateServerConfig.
func New(cfg *config.ServerConfig) (*Server, error) {
	allow, err := config.NewAllowSet(cfg.AllowedDownstreams)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed_downstreams: %w", err)
	}

	return &Server{
		cfg:      cfg,
		allow:    allow,
		registry: ports.NewRegistry(),
	}, nil
}

// Start brings up the QUIC endpoint and runs the accept loop until ctx is
// canceled. A per-connection error never aborts the accept loop; only a
// listener-level failure does.
func (s *Server) Start(ctx context.Context) error {
	tlsConfig, err := shared.LoadServerTLSConfig(s.cfg.CertPath, s.cfg.KeyPath)
	if err != nil {
		return fmt.Errorf("failed to load TLS config: %w", err)
	}

	quicConfig := &quic.Config{
		InitialStreamReceiveWindow:     shared.QUICStreamReceiveWindow,
		MaxStreamReceiveWindow:         shared.QUICStreamReceiveWindow,
		InitialConnectionReceiveWindow: shared.QUICConnectionReceiveWindow,
		MaxConnectionReceiveWindow:     shared.QUICConnectionReceiveWindow,
		MaxIncomingStreams:             shared.QUICMaxIncomingStreams,
		HandshakeIdleTimeout:           shared.QUICHandshakeTimeout,
		// quic-go treats MaxIdleTimeout == 0 as "use its own built-in
		// default", not "disabled" — there is no way to truly disable the
		// idle timeout through this field. cfg.IdleTimeout() returning 0
		// for max_idle_timeout_ms: 0 therefore falls back to that library
		// default rather than running with no timeout at all; the Rust
		// original has the same net effect by leaving the field unset.
		MaxIdleTimeout:  s.cfg.IdleTimeout(),
		KeepAlivePeriod: s.cfg.KeepAlive(),
	}

	listener, err := quic.ListenAddr(s.cfg.ListenAddr, tlsConfig, quicConfig)
	if err != nil {
		return fmt.Errorf("failed to create QUIC listener: %w", err)
	}
	defer listener.Close()

	go func() {
		<-ctx.Done()
		slog.Info("shutting down QUIC listener")
		listener.Close()
	}()

	slog.Info("server bound",
		slog.String("addr", listener.Addr().String()),
		slog.Int("idle_timeout_ms", s.cfg.MaxIdleTimeoutMs),
	)

	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn quic.Connection) {
	metrics.IncrementActiveSessions()
	defer metrics.DecrementActiveSessions()

	auth, _, err := tunnel.Authenticate(ctx, conn, s.cfg, s.allow, s.registry)
	if err != nil {
		slog.Error("authentication failed", slog.String("remote", conn.RemoteAddr().String()), slog.String("error", err.Error()))
		metrics.RecordSessionFailure()
		conn.CloseWithError(0, "authentication failed")
		return
	}

	session := &tunnel.Session{Conn: conn, Registry: s.registry}

	switch auth.Mode {
	case tunnel.ModeOut:
		slog.Info("starting OUT tunnel session", slog.String("remote", conn.RemoteAddr().String()), slog.String("downstream", auth.DownstreamAddr))
		if err := session.RunOut(ctx, auth.DownstreamAddr); err != nil {
			slog.Error("OUT tunnel session failed", slog.String("remote", conn.RemoteAddr().String()), slog.String("error", err.Error()))
			metrics.RecordSessionFailure()
		}
	case tunnel.ModeIn:
		metrics.IncrementActiveListeners()
		defer metrics.DecrementActiveListeners()
		slog.Info("starting IN tunnel session", slog.String("remote", conn.RemoteAddr().String()), slog.String("access_addr", auth.AccessListener.Addr().String()))
		if err := session.RunIn(ctx, auth.AccessListener, auth.ControlStream, auth.Port); err != nil {
			slog.Error("IN tunnel session failed", slog.String("remote", conn.RemoteAddr().String()), slog.String("error", err.Error()))
			metrics.RecordSessionFailure()
		}
	}
}
