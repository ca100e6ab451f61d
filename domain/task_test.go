package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestTaskMarshalIncludesNullDescription(t *testing.T) {
	task := Task{ID: "t1", Title: "Title", Status: StatusTodo}

	payload, err := sonic.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}

	if !strings.Contains(string(payload), `"description":null`) {
		t.Fatalf("expected null description, got %s", payload)
	}
	if !strings.Contains(string(payload), `"created_at"`) || !strings.Contains(string(payload), `"updated_at"`) {
		t.Fatalf("expected snake_case timestamps, got %s", payload)
	}
}

func TestValidateCreateOrder(t *testing.T) {
	todo := StatusTodo
	bogus := Status("archived")
	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"missing title", CreateRequest{Status: &todo}, ErrMissingFields},
		{"missing status", CreateRequest{Title: StringPtr("x")}, ErrMissingFields},
		{"missing status beats empty title", CreateRequest{Title: StringPtr("  ")}, ErrMissingFields},
		{"blank title", CreateRequest{Title: StringPtr(" \t "), Status: &todo}, ErrEmptyTitle},
		{"blank title beats bad status", CreateRequest{Title: StringPtr(""), Status: &bogus}, ErrEmptyTitle},
		{"bad status", CreateRequest{Title: StringPtr("x"), Status: &bogus}, ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateCreate(tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %T", err)
			}
		})
	}
}

func TestValidateCreateTrims(t *testing.T) {
	st := StatusInProgress
	nt, err := ValidateCreate(CreateRequest{Title: StringPtr("  Write report "), Description: StringPtr("  notes "), Status: &st})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if nt.Title != "Write report" {
		t.Fatalf("unexpected title %q", nt.Title)
	}
	if nt.Description == nil || *nt.Description != "notes" {
		t.Fatalf("unexpected description %v", nt.Description)
	}

	nt, err = ValidateCreate(CreateRequest{Title: StringPtr("x"), Description: StringPtr("   "), Status: &st})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if nt.Description != nil {
		t.Fatalf("expected blank description to be dropped, got %q", *nt.Description)
	}
}

func TestValidID(t *testing.T) {
	tests := map[string]bool{
		"3f2b8c1e-9a4d-4c6e-8b1a-2d3e4f5a6b7c": true,
		"3f2b8c1e-9a4d-1c6e-ab1a-2d3e4f5a6b7c": true,
		"3F2B8C1E-9A4D-4C6E-8B1A-2D3E4F5A6B7C": false,
		"3f2b8c1e-9a4d-6c6e-8b1a-2d3e4f5a6b7c": false,
		"3f2b8c1e-9a4d-4c6e-cb1a-2d3e4f5a6b7c": false,
		"not-a-uuid":                           false,
		"":                                     false,
		"1":                                    false,
	}
	for id, want := range tests {
		if got := ValidID(id); got != want {
			t.Errorf("ValidID(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestTaskApplyKeepsUnsuppliedFields(t *testing.T) {
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	orig := Task{
		ID:          "id",
		Title:       "Design Homepage",
		Description: StringPtr("wireframes"),
		Status:      StatusTodo,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	now := created.Add(time.Minute)

	got := orig.Apply(StatusPatch(StatusDone), now)
	if got.Status != StatusDone || got.Title != orig.Title || *got.Description != "wireframes" {
		t.Fatalf("unexpected task after status patch: %#v", got)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected timestamps: %v %v", got.CreatedAt, got.UpdatedAt)
	}

	cleared := got.Apply(TaskPatch{Description: Cleared()}, now)
	if cleared.Description != nil {
		t.Fatalf("expected description cleared")
	}
	if got.Description == nil {
		t.Fatalf("apply must not mutate the receiver's description")
	}
}
