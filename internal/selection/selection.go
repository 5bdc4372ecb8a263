// Package selection models client field-selection requests and the
// validated extraction templates derived from them.
package selection

import (
	"fmt"
	"sort"
)

// Item is one requested field: a bare leaf, a drill-down with children, or a
// calculation call with arguments. Name may arrive in either the internal or
// the external spelling; the selector resolves it.
type Item struct {
	Name     string
	Args     map[string]any
	Children Request
	// Nested distinguishes an explicit (possibly empty) nested selection
	// from a bare leaf.
	Nested bool
}

// Request is a client-supplied selection, one level deep; items nest.
type Request []Item

// Decode converts a JSON-like value tree into a Request. Accepted shapes:
// a string (bare field), a list of items, or a map whose values are nested
// lists or {args, fields} maps. Map keys are visited in sorted order so the
// decoded request is deterministic.
func Decode(v any) (Request, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return Request{{Name: val}}, nil
	case []any:
		var req Request
		for _, raw := range val {
			items, err := decodeItem(raw)
			if err != nil {
				return nil, err
			}
			req = append(req, items...)
		}
		return req, nil
	case map[string]any:
		return decodeItem(val)
	default:
		return nil, fmt.Errorf("cannot decode selection from %T", v)
	}
}

func decodeItem(v any) ([]Item, error) {
	switch val := v.(type) {
	case string:
		return []Item{{Name: val}}, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]Item, 0, len(keys))
		for _, k := range keys {
			item, err := decodeEntry(k, val[k])
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("cannot decode selection item from %T", v)
	}
}

func decodeEntry(name string, v any) (Item, error) {
	switch val := v.(type) {
	case nil:
		return Item{Name: name}, nil
	case []any:
		children, err := Decode(val)
		if err != nil {
			return Item{}, fmt.Errorf("field %q: %w", name, err)
		}
		return Item{Name: name, Children: children, Nested: true}, nil
	case map[string]any:
		item := Item{Name: name}
		for k, inner := range val {
			switch k {
			case "args":
				args, ok := inner.(map[string]any)
				if !ok && inner != nil {
					return Item{}, fmt.Errorf("field %q: args must be a map, got %T", name, inner)
				}
				item.Args = args
			case "fields":
				children, err := Decode(inner)
				if err != nil {
					return Item{}, fmt.Errorf("field %q: %w", name, err)
				}
				item.Children = children
				item.Nested = true
			default:
				return Item{}, fmt.Errorf("field %q: unexpected key %q (want args or fields)", name, k)
			}
		}
		return item, nil
	default:
		return Item{}, fmt.Errorf("field %q: cannot decode selection from %T", name, v)
	}
}
