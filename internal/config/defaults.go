package config

import (
	"fmt"
	"strings"
)

const defaultListenAddr = "0.0.0.0:6000"

// DefaultServerConfig returns a ServerConfig with all default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ListenAddr:         defaultListenAddr,
		CertPath:           "",
		KeyPath:            "",
		Password:           "",
		AllowedDownstreams: nil,
		MaxIdleTimeoutMs:   120_000,
		LogFormat:          "text",
		LogLevel:           "info",
	}
}

// ValidateServerConfig validates cfg and returns every error found, not just
// the first — so `quictund config validate` can report everything wrong in
// one pass.
func ValidateServerConfig(cfg *ServerConfig) []error {
	var errs []error

	if strings.TrimSpace(cfg.ListenAddr) == "" {
		errs = append(errs, &ConfigError{
			Field:   "listen_addr",
			Value:   cfg.ListenAddr,
			Message: "listen_addr cannot be empty",
		})
	} else if _, _, err := splitHostPortLoose(cfg.ListenAddr); err != nil {
		errs = append(errs, &ConfigError{
			Field:   "listen_addr",
			Value:   cfg.ListenAddr,
			Message: "must be in format host:port",
		})
	}

	if (cfg.CertPath == "") != (cfg.KeyPath == "") {
		errs = append(errs, &ConfigError{
			Field:   "cert_path/key_path",
			Value:   fmt.Sprintf("cert=%q key=%q", cfg.CertPath, cfg.KeyPath),
			Message: "cert_path and key_path must both be set or both be empty",
		})
	}

	if cfg.Password == "" {
		errs = append(errs, &ConfigError{
			Field:   "password",
			Value:   "",
			Message: "password cannot be empty",
		})
	}

	if cfg.MaxIdleTimeoutMs < 0 {
		errs = append(errs, &ConfigError{
			Field:   "max_idle_timeout_ms",
			Value:   cfg.MaxIdleTimeoutMs,
			Message: "must be 0 (library default, no keep-alive) or a positive number of milliseconds",
		})
	}

	for _, addr := range cfg.AllowedDownstreams {
		if _, _, err := splitHostPortLoose(addr); err != nil {
			errs = append(errs, &ConfigError{
				Field:   "allowed_downstreams",
				Value:   addr,
				Message: "must be in format host:port",
			})
		}
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, &ConfigError{
			Field:   "log_format",
			Value:   cfg.LogFormat,
			Message: "must be one of: text, json",
		})
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, &ConfigError{
			Field:   "log_level",
			Value:   cfg.LogLevel,
			Message: "must be one of: debug, info, warn, error",
		})
	}

	return errs
}

func splitHostPortLoose(addr string) (host, port string, err error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 || idx == len(addr)-1 {
		return "", "", fmt.Errorf("not in host:port format: %q", addr)
	}
	return addr[:idx], addr[idx+1:], nil
}
