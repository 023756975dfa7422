package validation

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// MsgInvalidPK is reported for related ids that are not UUIDs.
const MsgInvalidPK = "Must be a valid UUID."

// Ref is a related object sent either as "<uuid>" or as {"id": "<uuid>"}.
// Present is set whenever the key appears in the payload, including as null.
type Ref struct {
	ID      *uuid.UUID
	Present bool
	Invalid bool
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	r.Present = true
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		var obj struct {
			ID *string `json:"id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil || obj.ID == nil {
			r.Invalid = true
			return nil
		}
		raw = *obj.ID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		r.Invalid = true
		return nil
	}
	r.ID = &id
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == nil {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]string{"id": r.ID.String()})
}

// NewRef returns a present reference to id.
func NewRef(id uuid.UUID) Ref {
	return Ref{ID: &id, Present: true}
}

// Set reports whether the reference carries a valid id.
func (r Ref) Set() bool {
	return r.ID != nil
}

// Check records MsgInvalidPK for field when the reference could not be parsed.
func (e *Errors) Check(field string, r Ref) {
	if r.Invalid {
		e.Add(field, MsgInvalidPK)
	}
}

// Refs is a list of related objects.
type Refs []Ref

// IDs returns the valid ids in order.
func (rs Refs) IDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(rs))
	for _, r := range rs {
		if r.ID != nil {
			out = append(out, *r.ID)
		}
	}
	return out
}

// AnyInvalid reports whether some item could not be parsed.
func (rs Refs) AnyInvalid() bool {
	for _, r := range rs {
		if r.Invalid || r.ID == nil {
			return true
		}
	}
	return false
}
