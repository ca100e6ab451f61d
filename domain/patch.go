package domain

import (
	"bytes"
	"strings"

	"github.com/bytedance/sonic"
)

// OptionalString is a field that may be absent, explicitly null, or set.
type OptionalString struct {
	Set   bool
	Null  bool
	Value string
}

// SetTo returns a present, non-null OptionalString.
func SetTo(v string) OptionalString { return OptionalString{Set: true, Value: v} }

// Cleared returns a present OptionalString carrying an explicit null.
func Cleared() OptionalString { return OptionalString{Set: true, Null: true} }

// TaskPatch is a partial task update. Unset fields leave the stored value
// untouched; a cleared Description removes it.
type TaskPatch struct {
	Title       *string
	Description OptionalString
	Status      *Status
}

// StatusPatch returns a patch changing only the status.
func StatusPatch(s Status) TaskPatch { return TaskPatch{Status: &s} }

// TitlePatch returns a patch changing only the title.
func TitlePatch(t string) TaskPatch { return TaskPatch{Title: &t} }

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && !p.Description.Set && p.Status == nil
}

// Validate checks the supplied fields and returns the trimmed patch.
func (p TaskPatch) Validate() (TaskPatch, error) {
	out := p
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return TaskPatch{}, ErrEmptyTitle
		}
		out.Title = &t
	}
	if p.Description.Set && !p.Description.Null {
		d := strings.TrimSpace(p.Description.Value)
		if d == "" {
			return TaskPatch{}, ErrEmptyDescription
		}
		out.Description.Value = d
	}
	if p.Status != nil && !p.Status.Valid() {
		return TaskPatch{}, ErrInvalidStatus
	}
	return out, nil
}

// MarshalJSON writes only the fields present in the patch. A cleared
// description is written as null.
func (p TaskPatch) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 3)
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description.Set {
		if p.Description.Null {
			out["description"] = nil
		} else {
			out["description"] = p.Description.Value
		}
	}
	if p.Status != nil {
		out["status"] = string(*p.Status)
	}
	return sonic.Marshal(out)
}

// UnmarshalJSON records which of title, description and status are present.
// Unknown keys are ignored. Null is only accepted for description.
func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]sonic.NoCopyRawMessage
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = TaskPatch{}
	if v, ok := raw["title"]; ok {
		if isNull(v) {
			return ErrEmptyTitle
		}
		var t string
		if err := sonic.Unmarshal(v, &t); err != nil {
			return ErrInvalidPatchField
		}
		p.Title = &t
	}
	if v, ok := raw["description"]; ok {
		if isNull(v) {
			p.Description = Cleared()
		} else {
			var d string
			if err := sonic.Unmarshal(v, &d); err != nil {
				return ErrInvalidPatchField
			}
			p.Description = SetTo(d)
		}
	}
	if v, ok := raw["status"]; ok {
		if isNull(v) {
			return ErrInvalidStatus
		}
		var s string
		if err := sonic.Unmarshal(v, &s); err != nil {
			return ErrInvalidPatchField
		}
		st := Status(s)
		p.Status = &st
	}
	return nil
}

func isNull(v []byte) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
