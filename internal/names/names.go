package names

import (
	"fmt"

	"github.com/viant/toolbox/format"
)

// ToExternal converts an internal lower_underscore identifier to the
// external lowerCamel convention.
func ToExternal(name string) string {
	return format.CaseLowerUnderscore.Format(name, format.CaseLowerCamel)
}

// ToInternal converts an external lowerCamel name back to the internal
// lower_underscore convention.
func ToInternal(name string) string {
	return format.CaseLowerCamel.Format(name, format.CaseLowerUnderscore)
}

// Mapping is a bidirectional table between internal field identifiers and
// external client-facing names. Declared override entries always win over the
// default case conversion; the reverse direction is derived by inverting the
// override table.
type Mapping struct {
	overrides map[string]string
	reverse   map[string]string
}

// NewMapping builds a Mapping from declared overrides. It fails when two
// internal identifiers map to the same external name, since the inverse
// table would be ambiguous.
func NewMapping(overrides map[string]string) (*Mapping, error) {
	if len(overrides) == 0 {
		return &Mapping{}, nil
	}
	reverse := make(map[string]string, len(overrides))
	for internal, external := range overrides {
		if prev, ok := reverse[external]; ok {
			first, second := prev, internal
			if second < first {
				first, second = second, first
			}
			return nil, fmt.Errorf("field name override collision: %q and %q both map to %q", first, second, external)
		}
		reverse[external] = internal
	}
	return &Mapping{overrides: overrides, reverse: reverse}, nil
}

// External renames an internal identifier to its external spelling,
// preferring a declared override.
func (m *Mapping) External(internal string) string {
	if m != nil {
		if ext, ok := m.overrides[internal]; ok {
			return ext
		}
	}
	return ToExternal(internal)
}

// Internal renames an external spelling back to the internal identifier,
// preferring the inverted override table. The result is a candidate only:
// whether it names a real field is the caller's lookup to make.
func (m *Mapping) Internal(external string) string {
	if m != nil {
		if internal, ok := m.reverse[external]; ok {
			return internal
		}
	}
	return ToInternal(external)
}

// HasOverride reports whether internal has a declared external spelling.
func (m *Mapping) HasOverride(internal string) bool {
	if m == nil {
		return false
	}
	_, ok := m.overrides[internal]
	return ok
}
