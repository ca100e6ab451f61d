package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskboard/domain"
)

// taskRecord is the gorm model for the tasks table.
type taskRecord struct {
	ID          string    `gorm:"primarykey;size:36"`
	Title       string    `gorm:"size:200;not null"`
	Description *string   `gorm:"size:2000"`
	Status      string    `gorm:"size:16;not null;index"`
	CreatedAt   time.Time `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for taskRecord.
func (taskRecord) TableName() string {
	return "tasks"
}

func (r taskRecord) toTask() domain.Task {
	return domain.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.Status(r.Status),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

// SQLiteStore persists tasks in a SQLite file through gorm.
type SQLiteStore struct {
	db    *gorm.DB
	clock *Clock
}

// NewSQLiteStore opens (or creates) the database at path. ":memory:" keeps a
// single private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	// SQLite allows a single writer; in-memory databases are per connection.
	sqlDB.SetMaxOpenConns(1)
	return &SQLiteStore{db: db, clock: NewClock()}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&taskRecord{}); err != nil {
		return fmt.Errorf("failed to migrate tasks table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Insert(ctx context.Context, nt domain.NewTask) (domain.Task, error) {
	now := s.clock.Now()
	rec := taskRecord{
		ID:          uuid.NewString(),
		Title:       nt.Title,
		Description: nt.Description,
		Status:      string(nt.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return rec.toTask(), nil
}

func (s *SQLiteStore) SelectAll(ctx context.Context) ([]domain.Task, error) {
	var recs []taskRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks := make([]domain.Task, len(recs))
	for i, r := range recs {
		tasks[i] = r.toTask()
	}
	return tasks, nil
}

func (s *SQLiteStore) UpdatePartial(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error) {
	var out domain.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec taskRecord
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			return err
		}
		updated := rec.toTask().Apply(p, s.clock.After(rec.UpdatedAt))
		result := tx.Model(&taskRecord{}).Where("id = ?", id).Updates(map[string]any{
			"title":       updated.Title,
			"description": updated.Description,
			"status":      string(updated.Status),
			"updated_at":  updated.UpdatedAt,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		out = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Task{}, domain.ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteByID(ctx context.Context, id string) (domain.Task, error) {
	var out domain.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec taskRecord
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&taskRecord{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		out = rec.toTask()
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Task{}, domain.ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("failed to delete task: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
