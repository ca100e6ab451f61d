package domain

import (
	"errors"
	"testing"

	"github.com/bytedance/sonic"
)

func TestTaskPatchUnmarshalPresence(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantTitle *string
		wantDesc  OptionalString
		wantState *Status
	}{
		{name: "empty object", body: `{}`},
		{name: "status only", body: `{"status":"done"}`, wantState: statusPtr(StatusDone)},
		{name: "title only", body: `{"title":"Renamed"}`, wantTitle: StringPtr("Renamed")},
		{name: "description null clears", body: `{"description":null}`, wantDesc: Cleared()},
		{name: "description set", body: `{"description":"more"}`, wantDesc: SetTo("more")},
		{name: "unknown ignored", body: `{"priority":3,"status":"todo"}`, wantState: statusPtr(StatusTodo)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p TaskPatch
			if err := sonic.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !equalStr(p.Title, tt.wantTitle) {
				t.Fatalf("title mismatch: %v", p.Title)
			}
			if p.Description != tt.wantDesc {
				t.Fatalf("description mismatch: %#v", p.Description)
			}
			if (p.Status == nil) != (tt.wantState == nil) || (p.Status != nil && *p.Status != *tt.wantState) {
				t.Fatalf("status mismatch: %v", p.Status)
			}
		})
	}
}

func TestTaskPatchUnmarshalRejectsNulls(t *testing.T) {
	tests := map[string]error{
		`{"title":null}`:  ErrEmptyTitle,
		`{"status":null}`: ErrInvalidStatus,
		`{"title":5}`:     ErrInvalidPatchField,
	}
	for body, want := range tests {
		var p TaskPatch
		err := sonic.Unmarshal([]byte(body), &p)
		if !errors.Is(err, want) {
			t.Fatalf("%s: expected %v, got %v", body, want, err)
		}
	}
}

func TestTaskPatchMarshalOnlySetFields(t *testing.T) {
	payload, err := sonic.Marshal(StatusPatch(StatusDone))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"status":"done"}` {
		t.Fatalf("unexpected payload %s", payload)
	}

	payload, err = sonic.Marshal(TaskPatch{Description: Cleared()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"description":null}` {
		t.Fatalf("unexpected payload %s", payload)
	}

	var back TaskPatch
	if err := sonic.Unmarshal(payload, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Description != Cleared() || back.Title != nil || back.Status != nil {
		t.Fatalf("unexpected round trip %#v", back)
	}
}

func TestTaskPatchValidate(t *testing.T) {
	bogus := Status("blocked")
	tests := []struct {
		name  string
		patch TaskPatch
		want  error
	}{
		{"empty patch", TaskPatch{}, nil},
		{"blank title", TitlePatch("   "), ErrEmptyTitle},
		{"blank description", TaskPatch{Description: SetTo(" ")}, ErrEmptyDescription},
		{"cleared description", TaskPatch{Description: Cleared()}, nil},
		{"bad status", TaskPatch{Status: &bogus}, ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.patch.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	p, err := TaskPatch{Title: StringPtr("  Ship it  "), Description: SetTo(" soon ")}.Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if *p.Title != "Ship it" || p.Description.Value != "soon" {
		t.Fatalf("expected trimmed patch, got %q %q", *p.Title, p.Description.Value)
	}
}

func statusPtr(s Status) *Status { return &s }

func equalStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
