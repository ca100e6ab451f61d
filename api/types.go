package api

import (
	"context"

	"taskboard/domain"
)

// TaskStore abstracts persistence for handlers.
type TaskStore interface {
	Insert(ctx context.Context, t domain.NewTask) (domain.Task, error)
	SelectAll(ctx context.Context) ([]domain.Task, error)
	// UpdatePartial applies p to the task and returns the stored record, or
	// domain.ErrNotFound.
	UpdatePartial(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error)
	// DeleteByID removes the task and returns the record as it was.
	DeleteByID(ctx context.Context, id string) (domain.Task, error)
	Ping(ctx context.Context) error
}
