package main

import (
	"testing"
	"time"

	"taskboard/storage"
)

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		conn     string
		addr     string
		password string
		tls      bool
	}{
		{name: "url", conn: "redis://:secret@cache:6380/0", addr: "cache:6380", password: "secret"},
		{name: "azure", conn: "cache.redis.example.net:6380,password=secret,ssl=True,abortConnect=False", addr: "cache.redis.example.net:6380", password: "secret", tls: true},
		{name: "bare", conn: "localhost:6379", addr: "localhost:6379"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := redisOptions(tt.conn)
			if opts.Addr != tt.addr || opts.Password != tt.password {
				t.Fatalf("unexpected options: addr %q password %q", opts.Addr, opts.Password)
			}
			if (opts.TLSConfig != nil) != tt.tls {
				t.Fatalf("expected tls %v", tt.tls)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"LISTEN_ADDR", "STORE_DRIVER", "TASKS_CACHE_TTL", "NOTIFY_WORKERS", "TASK_EVENTS_QUEUE", "TRACE_SAMPLE_RATIO"} {
		t.Setenv(k, "")
	}
	cfg := loadConfig()
	if cfg.listenAddr != ":8080" || cfg.store.Driver != storage.DriverPostgres {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.cacheTTL != 30*time.Second || cfg.notifier.Workers != 4 || cfg.traceRatio != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", storage.DriverSQLite)
	t.Setenv("SQLITE_PATH", "/tmp/board.db")
	t.Setenv("TASKS_CACHE_TTL", "2m")
	t.Setenv("NOTIFY_WORKERS", "8")
	t.Setenv("TRACE_SAMPLE_RATIO", "0.25")
	t.Setenv("SEED_SAMPLE_TASKS", "true")

	cfg := loadConfig()
	if cfg.store.Driver != storage.DriverSQLite || cfg.store.SQLitePath != "/tmp/board.db" || !cfg.store.SeedSamples {
		t.Fatalf("unexpected store config: %+v", cfg.store)
	}
	if cfg.cacheTTL != 2*time.Minute || cfg.notifier.Workers != 8 || cfg.traceRatio != 0.25 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
