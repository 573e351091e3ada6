package server

import (
	"testing"

	"github.com/quictun/quictund/internal/config"
)

func TestNewRejectsMalformedAllowList(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.Password = "s3cr3t"
	cfg.AllowedDownstreams = []string{"not-a-host-port"}

	if _, err := New(cfg); err == nil {
		t.Fatal("expected New to reject a malformed allowed_downstreams entry")
	}
}

func TestNewBuildsServerForValidConfig(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.Password = "s3cr3t"
	cfg.AllowedDownstreams = []string{"127.0.0.1:8080"}

	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if srv.registry == nil {
		t.Error("expected port registry to be initialized")
	}
	if !srv.allow.Allows("127.0.0.1:8080") {
		t.Error("expected allow set to permit the configured downstream")
	}
	if srv.allow.Allows("evil.example.com:80") {
		t.Error("expected allow set to reject an address not in the list")
	}
}
