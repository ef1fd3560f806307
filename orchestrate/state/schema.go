package state

import "fmt"

// Policy decides how a field absorbs a partial update.
type Policy int

const (
	// PolicyOverwrite replaces the current value.
	PolicyOverwrite Policy = iota
	// PolicyAppend concatenates the update after the current value.
	PolicyAppend
)

func (p Policy) String() string {
	switch p {
	case PolicyOverwrite:
		return "overwrite"
	case PolicyAppend:
		return "append"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Kind is the value type a field holds.
type Kind int

const (
	KindString  Kind = iota // string
	KindInt                 // int
	KindStrings             // []string
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindStrings:
		return "[]string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) zero() any {
	switch k {
	case KindInt:
		return 0
	case KindStrings:
		return []string{}
	default:
		return ""
	}
}

// accepts reports whether v has the Go type this kind stores.
func (k Kind) accepts(v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindInt:
		_, ok := v.(int)
		return ok
	case KindStrings:
		_, ok := v.([]string)
		return ok
	default:
		return false
	}
}

// Field declares one named state field.
type Field struct {
	Name   string
	Kind   Kind
	Policy Policy
}

// Schema is the closed set of fields a State may hold, with a merge policy
// per field. It is validated once at construction and immutable afterwards.
type Schema struct {
	fields map[string]Field
	order  []string
}

// NewSchema validates and builds a schema. Names must be unique and non-empty,
// and only KindStrings fields may use PolicyAppend.
func NewSchema(fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema has no fields")
	}

	s := &Schema{
		fields: make(map[string]Field, len(fields)),
		order:  make([]string, 0, len(fields)),
	}

	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field name cannot be empty")
		}
		if _, exists := s.fields[f.Name]; exists {
			return nil, fmt.Errorf("field %s declared twice", f.Name)
		}
		if f.Kind < KindString || f.Kind > KindStrings {
			return nil, fmt.Errorf("field %s has unknown %s", f.Name, f.Kind)
		}
		switch f.Policy {
		case PolicyOverwrite:
		case PolicyAppend:
			if f.Kind != KindStrings {
				return nil, fmt.Errorf("field %s: append policy requires %s, got %s", f.Name, KindStrings, f.Kind)
			}
		default:
			return nil, fmt.Errorf("field %s has unknown %s", f.Name, f.Policy)
		}

		s.fields[f.Name] = f
		s.order = append(s.order, f.Name)
	}

	return s, nil
}

// Field looks up a declared field.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.fields[name])
	}
	return out
}
