// Package extract filters raw result trees down to the fields a validated
// template selected, normalizing primitive leaves into transport-safe
// values. Unlike the selector it never fails: the template has already been
// validated, so a structurally unexpected value indicates a backend
// authoring mistake and is normalized best-effort instead of raised.
package extract

import (
	"github.com/hanpama/fieldplan/internal/classify"
	"github.com/hanpama/fieldplan/internal/schema"
	"github.com/hanpama/fieldplan/internal/selection"
)

// Extract applies tmpl to a raw value of the type described by d. A value
// marked NotLoaded extracts to nil at the top level; within records the
// owning field is omitted instead.
func Extract(p schema.Provider, value any, d schema.Descriptor, tmpl selection.Template) any {
	out, omit := extractValue(p, value, d, tmpl)
	if omit {
		return nil
	}
	return out
}

func extractValue(p schema.Provider, value any, d schema.Descriptor, tmpl selection.Template) (any, bool) {
	switch value {
	case nil:
		return nil, false
	case Forbidden:
		return nil, false
	case NotLoaded:
		return nil, true
	}
	if page, ok := asPage(value); ok {
		return extractPage(p, page, d, tmpl), false
	}

	d, ferr := classify.Unwrap(p, d)
	if ferr != nil {
		// Unresolvable schema at extraction time degrades to structural
		// normalization; the selector already vetted the request.
		return normalizeAny(value), false
	}

	switch classify.Classify(d) {
	case classify.CategoryArray:
		return extractArray(p, value, d, tmpl), false

	case classify.CategoryResource:
		return extractResource(p, value, d, tmpl), false

	case classify.CategoryBoundStruct, classify.CategoryFieldContainer:
		return extractContainer(p, value, d, tmpl), false

	case classify.CategoryBareContainer:
		return normalizeAny(value), false

	case classify.CategoryUnion:
		return extractUnion(p, value, d, tmpl), false

	default:
		return normalizeLeaf(value, d), false
	}
}

func extractArray(p schema.Provider, value any, d schema.Descriptor, tmpl selection.Template) any {
	items, ok := asList(value)
	if !ok {
		return normalizeAny(value)
	}
	var inner schema.Descriptor
	hasInner := d.Constraints != nil && d.Constraints.Items != nil
	if hasInner {
		inner = *d.Constraints.Items
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		// Marked elements drop out of the list entirely.
		if item == Forbidden || item == NotLoaded {
			continue
		}
		if !hasInner {
			out = append(out, normalizeAny(item))
			continue
		}
		v, omit := extractValue(p, item, inner, tmpl)
		if omit {
			continue
		}
		out = append(out, v)
	}
	return out
}

func extractResource(p schema.Provider, value any, d schema.Descriptor, tmpl selection.Template) any {
	record, ok := asRecord(value)
	if !ok {
		return normalizeAny(value)
	}
	res, found := p.ResolveResource(d.Ref)
	out := make(map[string]any, len(tmpl))
	for _, entry := range tmpl {
		raw, present := record[entry.Name]
		if !present {
			continue
		}
		switch raw {
		case Forbidden:
			out[entry.Name] = nil
			continue
		case NotLoaded:
			continue
		}
		var fieldType schema.Descriptor
		typed := false
		if found {
			if f := res.GetField(entry.Name); f != nil {
				fieldType = f.Type
				typed = true
			}
		}
		if !typed {
			out[entry.Name] = normalizeAny(raw)
			continue
		}
		v, omit := extractValue(p, raw, fieldType, entry.Children)
		if omit {
			continue
		}
		out[entry.Name] = v
	}
	return out
}

func extractContainer(p schema.Provider, value any, d schema.Descriptor, tmpl selection.Template) any {
	if len(tmpl) == 0 {
		return normalizeAny(value)
	}
	// Tuples address positional values by index.
	if items, ok := asList(value); ok && d.Base == schema.BaseTuple {
		out := make(map[string]any, len(tmpl))
		for _, entry := range tmpl {
			if entry.Index < 0 || entry.Index >= len(items) {
				continue
			}
			v, omit := extractContainerField(p, items[entry.Index], d, entry)
			if omit {
				continue
			}
			out[entry.Name] = v
		}
		return out
	}
	record, ok := asRecord(value)
	if !ok {
		return normalizeAny(value)
	}
	out := make(map[string]any, len(tmpl))
	for _, entry := range tmpl {
		raw, present := record[entry.Name]
		if !present {
			continue
		}
		v, omit := extractContainerField(p, raw, d, entry)
		if omit {
			continue
		}
		out[entry.Name] = v
	}
	return out
}

func extractContainerField(p schema.Provider, raw any, d schema.Descriptor, entry selection.Entry) (any, bool) {
	spec, _ := d.Constraints.FieldsByName(entry.Name)
	if spec == nil {
		return normalizeAny(raw), false
	}
	return extractValue(p, raw, spec.Type, entry.Children)
}

func extractUnion(p schema.Provider, value any, d schema.Descriptor, tmpl selection.Template) any {
	member, payload, ok := activeMember(d.Constraints, value)
	if !ok {
		return normalizeAny(value)
	}
	entry, selected := tmpl.Lookup(member.Tag)
	if len(tmpl) > 0 && !selected {
		// The active member was not requested; nothing of this value was.
		return map[string]any{}
	}
	v, omit := extractValue(p, payload, member.Type, entry.Children)
	if omit {
		v = nil
	}
	return map[string]any{member.Tag: v}
}

// activeMember identifies which declared member a raw union value holds,
// using the union's declared storage strategy.
func activeMember(c *schema.Constraints, value any) (*schema.Member, any, bool) {
	record, ok := asRecord(value)
	if !ok {
		return nil, nil, false
	}
	switch c.Storage {
	case schema.StorageMapWithTag:
		for i := range c.Members {
			m := &c.Members[i]
			if m.TagField == "" {
				continue
			}
			tag, present := record[m.TagField]
			if present && toText(tag) == m.TagValue {
				return m, record, true
			}
		}
		return nil, nil, false
	default: // type-and-value envelope
		rawTag, hasTag := record["type"]
		payload, hasValue := record["value"]
		if !hasTag || !hasValue {
			return nil, nil, false
		}
		if m := c.MemberByTag(toText(rawTag)); m != nil {
			return m, payload, true
		}
		return nil, nil, false
	}
}
