package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"taskboard/api"
	"taskboard/storage"
)

func main() {
	logger := log.New()
	configureLogging(logger)
	cfg := loadConfig()

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg.store)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	if err := backend.Migrate(ctx); err != nil {
		logger.Fatalf("migrate: %v", err)
	}
	if cfg.store.SeedSamples && cfg.store.Driver != storage.DriverMemory {
		n, err := storage.Seed(ctx, backend)
		if err != nil {
			logger.Fatalf("seed: %v", err)
		}
		logger.Infof("seeded %d sample tasks", n)
	}

	var store api.TaskStore = backend
	var rc *redis.Client
	if cfg.redisConn != "" {
		rc = redis.NewClient(redisOptions(cfg.redisConn))
		store = storage.NewCache(store, rc, cfg.cacheTTL)
		logger.Infof("task list cache enabled, ttl: %v", cfg.cacheTTL)
	}

	var notifier *storage.Notifier
	if cfg.eventsQueue != "" {
		pub, err := storage.NewQueuePublisher(cfg.store.ConnectionString, cfg.eventsQueue)
		if err != nil {
			logger.Fatalf("events queue: %v", err)
		}
		notifier = storage.NewNotifier(store, pub, logger, cfg.notifier)
		store = notifier
	}

	// Spans feed the trace_id log field. Exporting them is left to the
	// deployment, which can register a span processor on this provider.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.traceRatio))),
	)
	otel.SetTracerProvider(tp)

	e := api.NewServer(store, logger)
	if cfg.pprof {
		pprof.Register(e)
	}

	go func() {
		logger.Infof("taskboard api listening on %s, store: %s", cfg.listenAddr, cfg.store.Driver)
		if err := e.Start(cfg.listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				// Writes stop before the notifier drains and the stores close.
				err := e.Shutdown(ctx)
				if notifier != nil {
					err = errors.Join(err, notifier.Close())
				}
				if rc != nil {
					err = errors.Join(err, rc.Close())
				}
				return errors.Join(err, backend.Close())
			},
			"tracer": func(ctx context.Context) error {
				return tp.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Infof("taskboard api exited with code %d", exitCode)
	os.Exit(exitCode)
}
