package main

import (
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard/storage"
)

type config struct {
	listenAddr      string
	store           storage.Config
	redisConn       string
	cacheTTL        time.Duration
	eventsQueue     string
	notifier        storage.NotifierConfig
	shutdownTimeout time.Duration
	traceRatio      float64
	pprof           bool
}

func loadConfig() config {
	cfg := config{
		listenAddr: envStr("LISTEN_ADDR", ":8080"),
		store: storage.Config{
			Driver:           envStr("STORE_DRIVER", storage.DriverPostgres),
			DatabaseURL:      os.Getenv("DATABASE_URL"),
			SQLitePath:       envStr("SQLITE_PATH", "taskboard.db"),
			ConnectionString: os.Getenv("STORAGE_CONNECTION_STRING"),
			TasksTable:       envStr("TASKS_TABLE", "tasks"),
			SeedSamples:      envBool("SEED_SAMPLE_TASKS"),
		},
		redisConn:   os.Getenv("REDIS_CONNECTION_STRING"),
		cacheTTL:    envDur("TASKS_CACHE_TTL", 30*time.Second),
		eventsQueue: os.Getenv("TASK_EVENTS_QUEUE"),
		notifier: storage.NotifierConfig{
			Workers:        envInt("NOTIFY_WORKERS", 4),
			Buffer:         envInt("NOTIFY_BUFFER", 256),
			Timeout:        envDur("NOTIFY_TIMEOUT", 10*time.Second),
			HandoffTimeout: envDur("NOTIFY_HANDOFF_TIMEOUT", 15*time.Millisecond),
		},
		shutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 15*time.Second),
		traceRatio:      1.0,
		pprof:           envBool("PPROF_ENABLED"),
	}
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		cfg.listenAddr = ":" + val
	}
	if v := os.Getenv("TRACE_SAMPLE_RATIO"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r < 0 || r > 1 {
			log.Fatalf("invalid TRACE_SAMPLE_RATIO: %q", v)
		}
		cfg.traceRatio = r
	}
	if cfg.eventsQueue != "" && cfg.store.ConnectionString == "" {
		log.Fatal("TASK_EVENTS_QUEUE requires STORAGE_CONNECTION_STRING")
	}
	return cfg
}

// configureLogging applies DEBUG and LOG_FORMAT to logger.
func configureLogging(logger *log.Logger) {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		logger.SetLevel(log.DebugLevel)
	}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		logger.SetFormatter(&log.JSONFormatter{})
	}
}

// redisOptions accepts a redis:// URL or an Azure style
// "host:port,password=...,ssl=True" connection string.
func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Fatalf("invalid %s: must be a positive integer", key)
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("invalid %s: %v", key, v)
	}
	return d
}
