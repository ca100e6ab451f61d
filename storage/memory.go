package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskboard/domain"
)

// MemoryStore keeps tasks in process memory. It is used by tests and for
// local runs without a database.
type MemoryStore struct {
	mu    sync.RWMutex
	clock *Clock
	tasks map[string]domain.Task
}

// NewMemoryStore returns a store holding the given tasks.
func NewMemoryStore(seed ...domain.Task) *MemoryStore {
	s := &MemoryStore{clock: NewClock(), tasks: make(map[string]domain.Task, len(seed))}
	for _, t := range seed {
		s.tasks[t.ID] = t
	}
	return s
}

// SampleTasks returns the demo cards a fresh board is seeded with.
func SampleTasks() []domain.Task {
	at := func(v string) time.Time {
		t, _ := time.Parse(time.RFC3339, v)
		return t
	}
	return []domain.Task{
		{
			ID:          "0d6f4a52-7c1e-4b7e-9a43-5c2f8e1d6b01",
			Title:       "Design Homepage",
			Description: domain.StringPtr("Create wireframes and mockups for the new homepage layout"),
			Status:      domain.StatusTodo,
			CreatedAt:   at("2024-01-15T10:00:00Z"),
			UpdatedAt:   at("2024-01-15T10:00:00Z"),
		},
		{
			ID:          "5b9e2c7d-1f3a-4d8b-a6e4-7c0b2f9d3e02",
			Title:       "Setup Database",
			Description: domain.StringPtr("Configure PostgreSQL database and create initial schema"),
			Status:      domain.StatusInProgress,
			CreatedAt:   at("2024-01-14T14:30:00Z"),
			UpdatedAt:   at("2024-01-14T14:30:00Z"),
		},
		{
			ID:          "9a1c3e5f-7b2d-4f6a-8c0e-1d3b5f7a9c03",
			Title:       "User Authentication",
			Description: domain.StringPtr("Implement login and registration functionality"),
			Status:      domain.StatusDone,
			CreatedAt:   at("2024-01-13T09:15:00Z"),
			UpdatedAt:   at("2024-01-13T09:15:00Z"),
		},
	}
}

func (s *MemoryStore) Insert(ctx context.Context, nt domain.NewTask) (domain.Task, error) {
	now := s.clock.Now()
	t := domain.Task{
		ID:          uuid.NewString(),
		Title:       nt.Title,
		Description: copyString(nt.Description),
		Status:      nt.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()
	return t, nil
}

func (s *MemoryStore) SelectAll(ctx context.Context) ([]domain.Task, error) {
	s.mu.RLock()
	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		t.Description = copyString(t.Description)
		out = append(out, t)
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) UpdatePartial(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}
	updated := cur.Apply(p, s.clock.After(cur.UpdatedAt))
	s.tasks[id] = updated
	updated.Description = copyString(updated.Description)
	return updated, nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}
	delete(s.tasks, id)
	return cur, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// sortNewestFirst orders tasks by creation time, newest first, breaking ties
// by id so the order is stable.
func sortNewestFirst(tasks []domain.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
