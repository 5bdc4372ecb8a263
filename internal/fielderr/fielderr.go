package fielderr

import (
	"fmt"
	"strings"
)

// Type identifies one case of the validation error taxonomy.
type Type string

const (
	TypeUnknownField           Type = "unknown_field"
	TypeDuplicateField         Type = "duplicate_field"
	TypeRequiresFieldSelection Type = "requires_field_selection"
	TypeInvalidFieldSelection  Type = "invalid_field_selection"
	TypeNoNesting              Type = "field_does_not_support_nesting"
	TypeInvalidArguments       Type = "invalid_calculation_arguments"
	TypeRequiresArguments      Type = "calculation_requires_arguments"
	TypeUnsupportedCombination Type = "unsupported_field_combination"
	TypeInvalidUnionInput      Type = "invalid_union_input"
	TypeTypeResolution         Type = "type_resolution_error"
)

// PathElement is a string field identifier or an int list index.
type PathElement any

// Path locates the offending part of a request.
type Path []PathElement

// Child returns a copy of p extended with elem.
func (p Path) Child(elem PathElement) Path {
	next := make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = elem
	return next
}

func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		}
	}
	return b.String()
}

// Error is a structured, path-qualified validation error. Message is a
// template whose %{name} placeholders refer to Vars entries, so a display
// layer can interpolate or localize independently.
type Error struct {
	Type    Type           `json:"type"`
	Message string         `json:"message"`
	Vars    map[string]any `json:"vars,omitempty"`
	Path    Path           `json:"path,omitempty"`
	Fields  []string       `json:"fields,omitempty"`
	Details string         `json:"details,omitempty"`
}

func (e *Error) Error() string {
	msg := e.Message
	for name, value := range e.Vars {
		msg = strings.ReplaceAll(msg, "%{"+name+"}", fmt.Sprintf("%v", value))
	}
	if len(e.Path) > 0 {
		return msg + " at " + e.Path.String()
	}
	return msg
}

// WithPath returns e with its path set. Used by callers that know the
// request position only after the error surfaced.
func (e *Error) WithPath(path Path) *Error {
	e.Path = path
	return e
}
