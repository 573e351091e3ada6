package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quictun/quictund/internal/config"
	"github.com/quictun/quictund/internal/metrics"
	"github.com/quictun/quictund/internal/server"
	"github.com/quictun/quictund/pkg/shared"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the tunnel server",
	Long: `Start the quictund tunnel server.

The server listens for QUIC connections, authenticates each one against the
configured password, and then runs either an Out-mode or In-mode tunnel
session for its lifetime. It runs until interrupted with Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd)
	},
}

func init() {
	runCmd.Flags().String("listen", "", "UDP address to listen on (overrides config)")
	runCmd.Flags().String("password", "", "shared secret clients must present (overrides config)")
	runCmd.Flags().String("cert", "", "TLS certificate path (overrides config)")
	runCmd.Flags().String("key", "", "TLS key path (overrides config)")
	runCmd.Flags().Int("idle-timeout", 0, "QUIC idle timeout in milliseconds (overrides config)")
	runCmd.Flags().StringArray("allow", nil, "allowed Out-mode downstream host:port (repeatable, overrides config)")
	runCmd.Flags().String("metrics-addr", "", "address to serve /metrics and /debug/vars on (empty disables)")
}

func runServer(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	applyRunFlagOverrides(cmd, cfg)

	shared.InitLogger(&shared.LogConfig{
		Level:  shared.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})

	if errs := config.ValidateServerConfig(cfg); len(errs) > 0 {
		for _, e := range errs {
			slog.Error("invalid configuration", slog.String("error", e.Error()))
		}
		return fmt.Errorf("configuration validation failed")
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if metricsAddr, _ := cmd.Flags().GetString("metrics-addr"); metricsAddr != "" {
		go func() {
			slog.Info("starting metrics server", slog.String("addr", metricsAddr))
			if err := metrics.StartMetricsServer(metricsAddr); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", slog.String("error", err.Error()))
			}
		}()
	}

	slog.Info("starting quictund", slog.String("listen_addr", cfg.ListenAddr))
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("quictund stopped")
	return nil
}

func applyRunFlagOverrides(cmd *cobra.Command, cfg *config.ServerConfig) {
	if v, _ := cmd.Flags().GetString("listen"); cmd.Flags().Changed("listen") {
		cfg.ListenAddr = v
	}
	if v, _ := cmd.Flags().GetString("password"); cmd.Flags().Changed("password") {
		cfg.Password = v
	}
	if v, _ := cmd.Flags().GetString("cert"); cmd.Flags().Changed("cert") {
		cfg.CertPath = v
	}
	if v, _ := cmd.Flags().GetString("key"); cmd.Flags().Changed("key") {
		cfg.KeyPath = v
	}
	if v, _ := cmd.Flags().GetInt("idle-timeout"); cmd.Flags().Changed("idle-timeout") {
		cfg.MaxIdleTimeoutMs = v
	}
	if v, _ := cmd.Flags().GetStringArray("allow"); cmd.Flags().Changed("allow") {
		cfg.AllowedDownstreams = v
	}
}
