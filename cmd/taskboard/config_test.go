package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TASKBOARD_API_URL", "")
	t.Setenv("TASKBOARD_LOG_FILE", "")
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != defaultAPIURL || cfg.LogFile != "" || cfg.Timeout != 0 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "api_url: http://board.internal/api\nlog_file: /tmp/board.log\ntimeout: 5s\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TASKBOARD_API_URL", "")
	t.Setenv("TASKBOARD_LOG_FILE", "")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://board.internal/api" || cfg.LogFile != "/tmp/board.log" || cfg.Timeout != 5*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	t.Setenv("TASKBOARD_API_URL", "http://localhost:9999/api")
	cfg, err = loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://localhost:9999/api" {
		t.Fatalf("env must override file, got %q", cfg.APIURL)
	}
}

func TestLoadConfigRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_url: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}
