package state

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Update is a partial state: a subset of schema fields returned by a step.
type Update map[string]any

// Clone copies the update, including any []string values, so the copy can be
// handed to observers without aliasing step-owned slices.
func (u Update) Clone() Update {
	if u == nil {
		return nil
	}
	out := make(Update, len(u))
	for k, v := range u {
		if ss, ok := v.([]string); ok {
			v = slices.Clone(ss)
		}
		out[k] = v
	}
	return out
}

// Keys returns the update's field names in sorted order.
func (u Update) Keys() []string {
	return slices.Sorted(maps.Keys(u))
}

// State is an immutable snapshot of one run's shared record. Every merge
// produces a new State; snapshots already handed out never change.
//
// RunID and Timestamp identify the run and are carried unchanged through
// every merge.
type State struct {
	schema    *Schema
	data      map[string]any
	RunID     string
	Timestamp time.Time
}

// New creates the first snapshot of a run. Every declared field starts at its
// zero value and initial is then merged under the schema's policies.
func New(schema *Schema, initial Update) (State, error) {
	if schema == nil {
		return State{}, &SchemaViolation{Reason: "state has no schema"}
	}

	data := make(map[string]any, len(schema.order))
	for _, f := range schema.Fields() {
		data[f.Name] = f.Kind.zero()
	}

	s := State{
		schema:    schema,
		data:      data,
		RunID:     uuid.New().String(),
		Timestamp: time.Now(),
	}

	if len(initial) == 0 {
		return s, nil
	}
	return Merge(s, initial)
}

// Schema returns the schema the state was created with.
func (s State) Schema() *Schema {
	return s.schema
}

// Get retrieves a field value. Slices are returned as copies.
func (s State) Get(name string) (any, bool) {
	v, ok := s.data[name]
	if ss, isSlice := v.([]string); isSlice {
		return slices.Clone(ss), ok
	}
	return v, ok
}

// String returns a string field, or "" when absent or of another kind.
func (s State) String(name string) string {
	v, _ := s.data[name].(string)
	return v
}

// Int returns an int field, or 0 when absent or of another kind.
func (s State) Int(name string) int {
	v, _ := s.data[name].(int)
	return v
}

// Strings returns a copy of a []string field.
func (s State) Strings(name string) []string {
	v, _ := s.data[name].([]string)
	return slices.Clone(v)
}

// Data returns a copy of every field.
func (s State) Data() map[string]any {
	return map[string]any(Update(s.data).Clone())
}

// Merge is shorthand for Merge(s, partial).
func (s State) Merge(partial Update) (State, error) {
	return Merge(s, partial)
}

// Merge folds partial into current and returns the next snapshot. Fields
// absent from partial are carried over; overwrite fields are replaced; append
// fields are concatenated in order into a fresh slice. current is never
// modified.
//
// The whole update is checked before anything is applied: an undeclared field
// or a value of the wrong kind fails with *SchemaViolation and no snapshot is
// produced.
func Merge(current State, partial Update) (State, error) {
	if current.schema == nil {
		return current, &SchemaViolation{Reason: "state has no schema"}
	}

	keys := partial.Keys()
	for _, k := range keys {
		f, ok := current.schema.fields[k]
		if !ok {
			return current, &SchemaViolation{Field: k, Reason: "field is not declared"}
		}
		if !f.Kind.accepts(partial[k]) {
			return current, &SchemaViolation{
				Field:  k,
				Reason: "expected " + f.Kind.String() + " value",
			}
		}
	}

	next := State{
		schema:    current.schema,
		data:      maps.Clone(current.data),
		RunID:     current.RunID,
		Timestamp: current.Timestamp,
	}

	for _, k := range keys {
		f := current.schema.fields[k]
		v := partial[k]

		switch f.Policy {
		case PolicyAppend:
			prev, _ := current.data[k].([]string)
			add := v.([]string)
			joined := make([]string, 0, len(prev)+len(add))
			joined = append(joined, prev...)
			joined = append(joined, add...)
			next.data[k] = joined
		default:
			if ss, ok := v.([]string); ok {
				v = slices.Clone(ss)
			}
			next.data[k] = v
		}
	}

	return next, nil
}
