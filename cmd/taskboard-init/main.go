package main

import (
	"context"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"taskboard/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("taskboard init starting")

	cfg := storage.Config{
		Driver:           os.Getenv("STORE_DRIVER"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SQLitePath:       os.Getenv("SQLITE_PATH"),
		ConnectionString: os.Getenv("STORAGE_CONNECTION_STRING"),
		TasksTable:       os.Getenv("TASKS_TABLE"),
	}
	if cfg.Driver == "" {
		cfg.Driver = storage.DriverPostgres
	}
	if cfg.TasksTable == "" {
		cfg.TasksTable = "tasks"
	}
	queueName := os.Getenv("TASK_EVENTS_QUEUE")

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer backend.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return backend.Migrate(gctx)
	})
	if queueName != "" {
		g.Go(func() error {
			pub, err := storage.NewQueuePublisher(cfg.ConnectionString, queueName)
			if err != nil {
				return err
			}
			return pub.EnsureQueue(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("provision: %v", err)
	}
	log.WithField("driver", cfg.Driver).Info("store provisioned")

	if seed, err := strconv.ParseBool(os.Getenv("SEED_SAMPLE_TASKS")); err == nil && seed {
		n, err := storage.Seed(ctx, backend)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		log.Infof("seeded %d sample tasks", n)
	}

	log.Info("taskboard init complete")
}
