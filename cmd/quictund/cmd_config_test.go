package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunConfigInitWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quictund.yaml")

	cmd := configInitCmd
	if err := runConfigInit(cmd, []string{path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}
}

func TestRunConfigInitRefusesToOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quictund.yaml")

	if err := runConfigInit(configInitCmd, []string{path}); err != nil {
		t.Fatalf("unexpected error on first init: %v", err)
	}

	if err := runConfigInit(configInitCmd, []string{path}); err == nil {
		t.Fatal("expected second init without --force to fail")
	}
}

func TestRunConfigValidateRejectsMissingPassword(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quictund.yaml")
	contents := "listen_addr: \"0.0.0.0:6000\"\npassword: \"\"\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := runConfigValidate(configValidateCmd, []string{path}); err == nil {
		t.Fatal("expected validation to fail for an empty password")
	}
}
