package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()

	if cfg.ListenAddr != "0.0.0.0:6000" {
		t.Errorf("expected default listen_addr 0.0.0.0:6000, got %s", cfg.ListenAddr)
	}
	if cfg.MaxIdleTimeoutMs != 120_000 {
		t.Errorf("expected default max_idle_timeout_ms 120000, got %d", cfg.MaxIdleTimeoutMs)
	}
	if cfg.LogFormat != "text" || cfg.LogLevel != "info" {
		t.Errorf("expected default log_format=text log_level=info, got %s/%s", cfg.LogFormat, cfg.LogLevel)
	}
	if len(cfg.AllowedDownstreams) != 0 {
		t.Errorf("expected no default allowed_downstreams, got %v", cfg.AllowedDownstreams)
	}
}

func TestLoadServerConfigNoFile(t *testing.T) {
	cfg, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected no error loading missing config, got %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:6000" {
		t.Errorf("expected defaults when file is missing, got listen_addr %s", cfg.ListenAddr)
	}
}

func TestLoadServerConfigWithFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "quictund.yaml")
	content := `listen_addr: "0.0.0.0:7000"
password: "s3cr3t"
allowed_downstreams:
  - "127.0.0.1:8080"
  - "example.com:443"
max_idle_timeout_ms: 30000
log_format: "json"
log_level: "debug"
`
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadServerConfig(configFile)
	if err != nil {
		t.Fatalf("expected no error loading config file, got %v", err)
	}

	if cfg.ListenAddr != "0.0.0.0:7000" {
		t.Errorf("expected listen_addr 0.0.0.0:7000, got %s", cfg.ListenAddr)
	}
	if cfg.Password != "s3cr3t" {
		t.Errorf("expected password s3cr3t, got %s", cfg.Password)
	}
	if len(cfg.AllowedDownstreams) != 2 {
		t.Errorf("expected 2 allowed_downstreams, got %d", len(cfg.AllowedDownstreams))
	}
	if cfg.MaxIdleTimeoutMs != 30000 {
		t.Errorf("expected max_idle_timeout_ms 30000, got %d", cfg.MaxIdleTimeoutMs)
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "debug" {
		t.Errorf("expected log_format=json log_level=debug, got %s/%s", cfg.LogFormat, cfg.LogLevel)
	}
}

func TestValidateServerConfig(t *testing.T) {
	valid := DefaultServerConfig()
	valid.Password = "s3cr3t"
	if errs := ValidateServerConfig(valid); len(errs) != 0 {
		t.Errorf("expected no errors for valid config, got %v", errs)
	}

	empty := &ServerConfig{
		ListenAddr: "",
		LogFormat:  "bogus",
		LogLevel:   "bogus",
	}
	errs := ValidateServerConfig(empty)
	if len(errs) == 0 {
		t.Fatal("expected errors for empty/invalid config")
	}

	mismatchedCert := DefaultServerConfig()
	mismatchedCert.Password = "s3cr3t"
	mismatchedCert.CertPath = "/tmp/cert.pem"
	if errs := ValidateServerConfig(mismatchedCert); len(errs) == 0 {
		t.Error("expected error when cert_path is set without key_path")
	}

	badAllowList := DefaultServerConfig()
	badAllowList.Password = "s3cr3t"
	badAllowList.AllowedDownstreams = []string{"not-a-host-port"}
	if errs := ValidateServerConfig(badAllowList); len(errs) == 0 {
		t.Error("expected error for malformed allowed_downstreams entry")
	}
}

func TestServerConfigIdleTimeoutAndKeepAlive(t *testing.T) {
	disabled := &ServerConfig{MaxIdleTimeoutMs: 0}
	if disabled.IdleTimeout() != 0 || disabled.KeepAlive() != 0 {
		t.Error("expected idle timeout and keep-alive both disabled when max_idle_timeout_ms is 0")
	}

	enabled := &ServerConfig{MaxIdleTimeoutMs: 10_000}
	if enabled.IdleTimeout().Milliseconds() != 10_000 {
		t.Errorf("expected idle timeout 10000ms, got %v", enabled.IdleTimeout())
	}
	if enabled.KeepAlive().Milliseconds() != 5_000 {
		t.Errorf("expected keep-alive 5000ms (half of idle timeout), got %v", enabled.KeepAlive())
	}
}

func TestAllowSet(t *testing.T) {
	empty, err := NewAllowSet(nil)
	if err != nil {
		t.Fatalf("unexpected error building empty allow set: %v", err)
	}
	if !empty.Allows("anything.example.com:1234") {
		t.Error("expected empty allow set to allow any destination")
	}

	set, err := NewAllowSet([]string{"127.0.0.1:8080", "example.com:443"})
	if err != nil {
		t.Fatalf("unexpected error building allow set: %v", err)
	}
	if !set.Allows("127.0.0.1:8080") {
		t.Error("expected set to allow 127.0.0.1:8080")
	}
	if set.Allows("127.0.0.1:9999") {
		t.Error("expected set to reject a port not in the list")
	}
	if set.Allows("other.example.com:443") {
		t.Error("expected set to reject a host not in the list")
	}

	if _, err := NewAllowSet([]string{"not-a-host-port"}); err == nil {
		t.Error("expected error for malformed allow-list entry")
	}
}
