package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskboard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.Sync.Mode != SyncPoll {
		t.Errorf("expected poll mode, got %s", cfg.Sync.Mode)
	}
	if cfg.Sync.PollInterval != 3*time.Second {
		t.Errorf("expected 3s poll interval, got %v", cfg.Sync.PollInterval)
	}
	if cfg.Sync.StreamHeartbeat != 30*time.Second {
		t.Errorf("expected 30s heartbeat, got %v", cfg.Sync.StreamHeartbeat)
	}
}

func TestLoadFile_Precedence(t *testing.T) {
	path := writeFile(t, `
port: "9000"
db_path: /var/lib/taskboard.db
sync:
  mode: stream
  poll_interval: 5s
auth:
  jwt_secret: from-file
`)
	t.Setenv("PORT", "9100")
	t.Setenv("POLL_INTERVAL", "1500")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Port != "9100" {
		t.Errorf("env should override file: got port %s", cfg.Port)
	}
	if cfg.DBPath != "/var/lib/taskboard.db" {
		t.Errorf("file should override default: got %s", cfg.DBPath)
	}
	if cfg.Sync.Mode != SyncStream {
		t.Errorf("expected stream mode, got %s", cfg.Sync.Mode)
	}
	if cfg.Sync.PollInterval != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", cfg.Sync.PollInterval)
	}
	if cfg.Sync.StreamCheck != 3*time.Second {
		t.Errorf("unset keys keep defaults: got %v", cfg.Sync.StreamCheck)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Errorf("expected secret from file, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Addr() != ":9100" {
		t.Errorf("expected :9100, got %s", cfg.Addr())
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad sync mode", env: map[string]string{"SYNC_MODE": "websocket"}},
		{name: "bad duration", env: map[string]string{"STREAM_CHECK_INTERVAL": "soon"}},
		{name: "zero interval", env: map[string]string{"POLL_INTERVAL": "0"}},
		{name: "bad debug", env: map[string]string{"DEBUG": "maybe"}},
		{name: "bad log format", env: map[string]string{"LOG_FORMAT": "xml"}},
		{name: "bad yaml", file: "port: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}
			if _, err := LoadFile(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFile_Debug(t *testing.T) {
	t.Setenv("DEBUG", "true")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !cfg.Debug || cfg.LogFormat != "json" {
		t.Errorf("expected debug json logging, got debug=%v format=%s", cfg.Debug, cfg.LogFormat)
	}
}
