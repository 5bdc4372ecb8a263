// Package format renames field keys between the internal naming convention
// and the external client convention, in either direction, and
// disambiguates tagged-union members on the way in. It shares the
// classifier dispatch with the selector but performs no validation: unknown
// keys pass through untouched, since unknown-field detection is the
// selector's exclusive responsibility.
package format

import (
	"github.com/hanpama/fieldplan/internal/classify"
	"github.com/hanpama/fieldplan/internal/fielderr"
	"github.com/hanpama/fieldplan/internal/names"
	"github.com/hanpama/fieldplan/internal/schema"
)

// Direction selects which way keys are renamed.
type Direction int

const (
	// Inbound renames external client names to internal identifiers.
	Inbound Direction = iota
	// Outbound renames internal identifiers to external client names.
	Outbound
)

// Format renames the keys of value according to the type described by d.
// The only hard failures are union-member disambiguation and alias
// resolution; everything else degrades to pass-through.
func Format(p schema.Provider, value any, d schema.Descriptor, dir Direction) (any, *fielderr.Error) {
	return formatValue(p, value, d, dir, nil)
}

func formatValue(p schema.Provider, value any, d schema.Descriptor, dir Direction, path fielderr.Path) (any, *fielderr.Error) {
	if value == nil {
		return nil, nil
	}
	d, ferr := classify.Unwrap(p, d)
	if ferr != nil {
		return nil, ferr.WithPath(path)
	}

	switch classify.Classify(d) {
	case classify.CategoryArray:
		items, ok := value.([]any)
		if !ok || d.Constraints == nil || d.Constraints.Items == nil {
			return value, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, ferr := formatValue(p, item, *d.Constraints.Items, dir, path.Child(i))
			if ferr != nil {
				return nil, ferr
			}
			out[i] = v
		}
		return out, nil

	case classify.CategoryResource:
		res, ok := p.ResolveResource(d.Ref)
		if !ok {
			return value, nil
		}
		return formatRecord(p, value, dir, path, res.Mapping(), func(internal string) (schema.Descriptor, bool) {
			if f := res.GetField(internal); f != nil {
				return f.Type, true
			}
			return schema.Descriptor{}, false
		})

	case classify.CategoryBoundStruct:
		mapping, _ := p.MappingFor(d.Constraints.InstanceOf)
		return formatRecord(p, value, dir, path, mapping, containerFieldLookup(d.Constraints))

	case classify.CategoryFieldContainer:
		return formatRecord(p, value, dir, path, nil, containerFieldLookup(d.Constraints))

	case classify.CategoryUnion:
		if dir == Inbound {
			return formatUnionInbound(p, value, d, path)
		}
		return formatUnionOutbound(p, value, d, path)

	default:
		// Bare containers, primitives and custom scalars carry no renameable
		// structure of their own.
		return value, nil
	}
}

func containerFieldLookup(c *schema.Constraints) func(string) (schema.Descriptor, bool) {
	return func(internal string) (schema.Descriptor, bool) {
		if spec, _ := c.FieldsByName(internal); spec != nil {
			return spec.Type, true
		}
		return schema.Descriptor{}, false
	}
}

// formatRecord renames map keys through the mapping and recurses into the
// declared field types. Keys that resolve to no known field pass through
// unchanged in both directions.
func formatRecord(p schema.Provider, value any, dir Direction, path fielderr.Path, mapping *names.Mapping, lookup func(string) (schema.Descriptor, bool)) (any, *fielderr.Error) {
	record, ok := value.(map[string]any)
	if !ok {
		return value, nil
	}
	out := make(map[string]any, len(record))
	for key, raw := range record {
		var internal, renamed string
		if dir == Outbound {
			internal = key
			renamed = mapping.External(key)
		} else {
			internal = mapping.Internal(key)
			renamed = internal
		}
		fieldType, known := lookup(internal)
		if !known {
			// Unknown key: best-effort pass-through; the selector is the
			// authority on unknown fields.
			out[key] = raw
			continue
		}
		v, ferr := formatValue(p, raw, fieldType, dir, path.Child(internal))
		if ferr != nil {
			return nil, ferr
		}
		out[renamed] = v
	}
	return out, nil
}

// formatUnionInbound matches a client union payload to exactly one declared
// member: either a declared discriminant field/value pair is present, or
// exactly one payload key converts to a member tag.
func formatUnionInbound(p schema.Provider, value any, d schema.Descriptor, path fielderr.Path) (any, *fielderr.Error) {
	record, ok := value.(map[string]any)
	if !ok {
		return value, nil
	}
	c := d.Constraints

	// Strategy 1: declared discriminant present in the payload itself.
	for i := range c.Members {
		m := &c.Members[i]
		if m.TagField == "" {
			continue
		}
		tag, present := record[m.TagField]
		if !present {
			if tag, present = record[names.ToExternal(m.TagField)]; !present {
				continue
			}
		}
		if text, ok := tag.(string); ok && text == m.TagValue {
			payload, ferr := formatValue(p, value, m.Type, Inbound, path.Child(m.Tag))
			if ferr != nil {
				return nil, ferr
			}
			return map[string]any{m.Tag: payload}, nil
		}
	}

	// Strategy 2: exactly one payload key names a member tag.
	var matched *schema.Member
	var matchedKey string
	var candidates []string
	for key := range record {
		m := c.MemberByTag(key)
		if m == nil {
			m = c.MemberByTag(names.ToInternal(key))
		}
		if m == nil {
			continue
		}
		candidates = append(candidates, m.Tag)
		matched = m
		matchedKey = key
	}
	switch {
	case len(candidates) == 0:
		return nil, fielderr.NoUnionMatch(memberTags(c), path)
	case len(candidates) > 1:
		return nil, fielderr.AmbiguousUnionMatch(candidates, path)
	}
	payload, ferr := formatValue(p, record[matchedKey], matched.Type, Inbound, path.Child(matched.Tag))
	if ferr != nil {
		return nil, ferr
	}
	return map[string]any{matched.Tag: payload}, nil
}

// formatUnionOutbound renames the active member's tag with the default
// convention (union tags are never subject to override maps) and formats
// the payload by the member's declared type.
func formatUnionOutbound(p schema.Provider, value any, d schema.Descriptor, path fielderr.Path) (any, *fielderr.Error) {
	record, ok := value.(map[string]any)
	if !ok || len(record) != 1 {
		return value, nil
	}
	for tag, payload := range record {
		member := d.Constraints.MemberByTag(tag)
		if member == nil {
			return value, nil
		}
		v, ferr := formatValue(p, payload, member.Type, Outbound, path.Child(tag))
		if ferr != nil {
			return nil, ferr
		}
		return map[string]any{names.ToExternal(tag): v}, nil
	}
	return value, nil
}

func memberTags(c *schema.Constraints) []string {
	tags := make([]string, len(c.Members))
	for i, m := range c.Members {
		tags[i] = m.Tag
	}
	return tags
}
