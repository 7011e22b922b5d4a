package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupTestHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := setupTestHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerURL != "http://localhost:8080" {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
	if want := filepath.Join(home, ".sidequest", "sidequest.db"); cfg.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	if cfg.ProbeURL != "http://localhost:8080/health" {
		t.Errorf("ProbeURL = %q, want derived health URL", cfg.ProbeURL)
	}
	if cfg.ProbeInterval != 15*time.Second {
		t.Errorf("ProbeInterval = %v, want 15s", cfg.ProbeInterval)
	}
	if cfg.QuestCount != 3 {
		t.Errorf("QuestCount = %d, want 3", cfg.QuestCount)
	}
}

func TestLoadConfigFile(t *testing.T) {
	home := setupTestHome(t)

	dir := filepath.Join(home, ".sidequest")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	content := []byte("server_url: https://quests.example.com\nquest_count: 5\nprobe_interval: 30s\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerURL != "https://quests.example.com" {
		t.Errorf("ServerURL = %q, want file value", cfg.ServerURL)
	}
	if cfg.QuestCount != 5 {
		t.Errorf("QuestCount = %d, want 5", cfg.QuestCount)
	}
	if cfg.ProbeInterval != 30*time.Second {
		t.Errorf("ProbeInterval = %v, want 30s", cfg.ProbeInterval)
	}
	if cfg.ProbeURL != "https://quests.example.com/health" {
		t.Errorf("ProbeURL = %q, want derived health URL", cfg.ProbeURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	home := setupTestHome(t)

	dir := filepath.Join(home, ".sidequest")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("server_url: https://from-file.example.com\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	t.Setenv("SIDEQUEST_SERVER_URL", "https://from-env.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerURL != "https://from-env.example.com" {
		t.Errorf("ServerURL = %q, want env value", cfg.ServerURL)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	home := setupTestHome(t)

	dir := filepath.Join(home, ".sidequest")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("server_url: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestNewLoggerPrefix(t *testing.T) {
	cfg := &Config{}
	logger := cfg.NewLogger("engine")
	if got := logger.Prefix(); got != "[engine] " {
		t.Errorf("Prefix = %q, want %q", got, "[engine] ")
	}
}
