package domain

import (
	"strings"
	"time"
)

// Status is the board column a task is shown in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists every valid status in board column order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the board columns.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task represents a single board card.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Apply returns a copy of t with the supplied patch fields replaced and
// UpdatedAt set to now. Fields missing from the patch keep their value.
func (t Task) Apply(p TaskPatch, now time.Time) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description.Set {
		if p.Description.Null {
			t.Description = nil
		} else {
			d := p.Description.Value
			t.Description = &d
		}
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	t.UpdatedAt = now
	return t
}

// NewTask carries validated fields for inserting a task. The store assigns
// the identifier and timestamps.
type NewTask struct {
	Title       string
	Description *string
	Status      Status
}

// CreateRequest is the POST /tasks body. Pointer fields distinguish a missing
// key from an empty value.
type CreateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// ValidateCreate checks req in order: required fields, non-empty title,
// status value. It returns the trimmed insert payload.
func ValidateCreate(req CreateRequest) (NewTask, error) {
	if req.Title == nil || req.Status == nil {
		return NewTask{}, ErrMissingFields
	}
	title := strings.TrimSpace(*req.Title)
	if title == "" {
		return NewTask{}, ErrEmptyTitle
	}
	if !req.Status.Valid() {
		return NewTask{}, ErrInvalidStatus
	}
	nt := NewTask{Title: title, Status: *req.Status}
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			nt.Description = &d
		}
	}
	return nt, nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
