// Package forms reconciles the two payload shapes the analysis collaborator
// returns into one canonical types.FormStructure.
package forms

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jonathan/apply-assistant/internal/schemas"
	"github.com/jonathan/apply-assistant/internal/types"
	embedded "github.com/jonathan/apply-assistant/schemas"
)

// Shape identifies which payload layout was decoded.
type Shape int

const (
	// ShapeEmpty is a payload that carried neither layout.
	ShapeEmpty Shape = iota
	// ShapeFlat is {"fields": [...], "actions": [...]}.
	ShapeFlat
	// ShapeNested is {"form_structure": {"fields": [...], "actions": [...]}}.
	ShapeNested
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeNested:
		return "nested"
	default:
		return "empty"
	}
}

// Payload is a decoded analysis response tagged with its source shape.
type Payload struct {
	Shape     Shape
	Structure types.FormStructure
}

type body struct {
	Fields  []types.Field  `json:"fields"`
	Actions []types.Action `json:"actions"`
}

type envelope struct {
	body
	FormStructure *body `json:"form_structure"`
}

// DecodeError is returned when an analysis payload is not a JSON object.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode form structure: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// DecodePayload decodes either layout. A non-null form_structure wins over top-level keys.
func DecodePayload(data []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Payload{Shape: ShapeEmpty, Structure: Normalize(types.FormStructure{})}, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Payload{}, &DecodeError{Cause: err}
	}

	switch {
	case env.FormStructure != nil:
		return Payload{Shape: ShapeNested, Structure: fromBody(*env.FormStructure)}, nil
	case env.Fields != nil || env.Actions != nil:
		return Payload{Shape: ShapeFlat, Structure: fromBody(env.body)}, nil
	default:
		return Payload{Shape: ShapeEmpty, Structure: Normalize(types.FormStructure{})}, nil
	}
}

// Decode returns the canonical structure for either layout.
func Decode(data []byte) (types.FormStructure, error) {
	p, err := DecodePayload(data)
	if err != nil {
		return types.FormStructure{}, err
	}
	return p.Structure, nil
}

func fromBody(b body) types.FormStructure {
	return Normalize(types.FormStructure{Fields: b.Fields, Actions: b.Actions})
}

// Normalize returns a copy of fs whose field and action lists are never nil.
// It is safe to call on an already normalized structure.
func Normalize(fs types.FormStructure) types.FormStructure {
	out := types.FormStructure{
		Fields:  make([]types.Field, len(fs.Fields)),
		Actions: make([]types.Action, len(fs.Actions)),
	}
	copy(out.Fields, fs.Fields)
	copy(out.Actions, fs.Actions)
	return out
}

// Validate checks the selected layout of a payload against the embedded schema.
// Missing field or action lists are treated as empty, like Decode does.
func Validate(data []byte) error {
	p, err := DecodePayload(data)
	if err != nil {
		return err
	}
	if p.Shape == ShapeEmpty {
		return nil
	}

	var outer map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return &DecodeError{Cause: err}
	}
	inner := outer
	if p.Shape == ShapeNested {
		inner = nil
		if err := json.Unmarshal(outer["form_structure"], &inner); err != nil {
			return &DecodeError{Cause: err}
		}
	}

	doc := map[string]json.RawMessage{
		"fields":  json.RawMessage(`[]`),
		"actions": json.RawMessage(`[]`),
	}
	for _, key := range []string{"fields", "actions"} {
		if raw, ok := inner[key]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			doc[key] = raw
		}
	}

	canonical, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal form structure: %w", err)
	}
	return schemas.ValidateEmbedded(embedded.FormStructure, canonical)
}

// DuplicateLabels lists labels that appear on more than one field, in first-seen order.
func DuplicateLabels(fs types.FormStructure) []string {
	seen := make(map[string]int, len(fs.Fields))
	var dups []string
	for _, f := range fs.Fields {
		seen[f.Label]++
		if seen[f.Label] == 2 {
			dups = append(dups, f.Label)
		}
	}
	return dups
}
