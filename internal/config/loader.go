package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const appName = "quictund"

// LoadServerConfig loads a ServerConfig from a specific file (if configPath
// is non-empty) or from the XDG-compliant search path, layering in
// QUICTUND_-prefixed environment variables over whatever the file provides.
// Missing file is not an error — defaults and env vars still apply.
func LoadServerConfig(configPath string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()

	v := viper.New()
	v.SetConfigName(appName)
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, appName))
		v.AddConfigPath(filepath.Join("/etc", appName))
		for _, dir := range xdg.ConfigDirs {
			v.AddConfigPath(filepath.Join(dir, appName))
		}
	}

	v.SetEnvPrefix("QUICTUND")
	v.AutomaticEnv()
	v.BindEnv("listen_addr", "QUICTUND_LISTEN_ADDR")
	v.BindEnv("cert_path", "QUICTUND_CERT_PATH")
	v.BindEnv("key_path", "QUICTUND_KEY_PATH")
	v.BindEnv("password", "QUICTUND_PASSWORD")
	v.BindEnv("max_idle_timeout_ms", "QUICTUND_MAX_IDLE_TIMEOUT_MS")
	v.BindEnv("log_format", "QUICTUND_LOG_FORMAT")
	v.BindEnv("log_level", "QUICTUND_LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		// An explicitly set path that does not exist surfaces as a plain
		// not-exist error rather than viper's ConfigFileNotFoundError.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg, nil
}

// WriteExampleConfig writes an example YAML configuration to filePath,
// creating parent directories as needed.
func WriteExampleConfig(filePath string) error {
	exampleConfig := `# quictund server configuration.
# This file contains all available options with example values.

# UDP address the QUIC endpoint binds to.
listen_addr: "0.0.0.0:6000"

# TLS certificate/key pair. Leave both empty to have quictund generate a
# self-signed certificate at startup (logs a warning; test use only).
cert_path: ""
key_path: ""

# Shared secret every connecting client must present.
password: "change-me"

# Out-mode destinations clients may dial, as "host:port". Empty means any
# destination is allowed.
allowed_downstreams: []

# QUIC idle timeout in milliseconds. 0 disables keep-alive and leaves the
# idle timeout at the QUIC library's default; otherwise keep-alive fires at
# half this interval.
max_idle_timeout_ms: 120000

# Logging.
log_format: "text"  # text | json
log_level: "info"   # debug | info | warn | error
`

	dir := filepath.Dir(filePath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(filePath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filePath, err)
	}

	return nil
}

// DefaultConfigPath returns the default path used by `quictund config init`
// when no explicit path is given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, appName+".yaml")
}
