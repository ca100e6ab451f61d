// Package storage provides task store backends and the decorators layered
// over them.
package storage

import (
	"context"
	"fmt"

	"taskboard/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverTables   = "aztables"
	DriverMemory   = "memory"
)

// Config selects and parameterises a backend.
type Config struct {
	Driver           string
	DatabaseURL      string
	SQLitePath       string
	ConnectionString string
	TasksTable       string
	SeedSamples      bool
}

// Backend is a task store that can provision itself and release resources.
type Backend interface {
	backend
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres driver requires a database url")
		}
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "taskboard.db"
		}
		return NewSQLiteStore(path)
	case DriverTables:
		if cfg.ConnectionString == "" || cfg.TasksTable == "" {
			return nil, fmt.Errorf("aztables driver requires a connection string and table name")
		}
		return NewTableStore(cfg.ConnectionString, cfg.TasksTable)
	case DriverMemory:
		if cfg.SeedSamples {
			return NewMemoryStore(SampleTasks()...), nil
		}
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Seed inserts the sample tasks when the store is empty. It returns the number
// of tasks inserted.
func Seed(ctx context.Context, b backend) (int, error) {
	existing, err := b.SelectAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	samples := SampleTasks()
	// Insert oldest first so the newest-first listing matches the samples.
	for i := len(samples) - 1; i >= 0; i-- {
		s := samples[i]
		if _, err := b.Insert(ctx, domain.NewTask{Title: s.Title, Description: s.Description, Status: s.Status}); err != nil {
			return len(samples) - 1 - i, err
		}
	}
	return len(samples), nil
}
