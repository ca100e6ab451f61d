package domain

import "time"

// EventType names a change applied to a task.
type EventType string

const (
	TaskCreated EventType = "task-created"
	TaskUpdated EventType = "task-updated"
	TaskDeleted EventType = "task-deleted"
)

// TaskEvent is published after a task mutation has been persisted. Task holds
// the record after the change, or the removed record for deletions.
type TaskEvent struct {
	Type      EventType `json:"type"`
	TaskID    string    `json:"taskId"`
	Task      Task      `json:"task"`
	Timestamp time.Time `json:"timestamp"`
}
