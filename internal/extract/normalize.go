package extract

import (
	"fmt"
	"math/big"
	"reflect"
	"time"

	"github.com/hanpama/fieldplan/internal/names"
	"github.com/hanpama/fieldplan/internal/schema"
)

// normalizeLeaf canonicalizes a primitive value for transport: temporal
// values to RFC 3339 text, arbitrary-precision numbers to text,
// case-insensitive wrappers and symbols to plain strings.
func normalizeLeaf(value any, d schema.Descriptor) any {
	switch v := value.(type) {
	case forbidden, notLoaded:
		return nil
	case time.Time:
		if d.Base == schema.BaseDate {
			return v.Format(time.DateOnly)
		}
		return v.Format(time.RFC3339Nano)
	case *big.Int:
		return v.String()
	case *big.Float:
		return v.Text('f', -1)
	case *big.Rat:
		return v.FloatString(decimalScale)
	case CIString:
		return v.Value
	case Atom:
		return string(v)
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return v
	case nil:
		return nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		// Named string types (identifiers, symbols) flatten to text.
		return rv.String()
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		return normalizeAny(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// decimalScale bounds the textual precision of rational decimals.
const decimalScale = 10

// normalizeAny normalizes a value with no schema available, by structural
// inference: maps and slices recurse, structs flatten to snake_case keyed
// maps, leaves canonicalize as primitives.
func normalizeAny(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case forbidden, notLoaded:
		return nil
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case *big.Int:
		return v.String()
	case *big.Float:
		return v.Text('f', -1)
	case *big.Rat:
		return v.FloatString(decimalScale)
	case CIString:
		return v.Value
	case Atom:
		return string(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalizeAny(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeAny(item)
		}
		return out
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalizeAny(rv.Elem().Interface())
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[toText(iter.Key().Interface())] = normalizeAny(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, normalizeAny(rv.Index(i).Interface()))
		}
		return out
	case reflect.Struct:
		rt := rv.Type()
		out := make(map[string]any, rt.NumField())
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			out[names.ToInternal(f.Name)] = normalizeAny(rv.Field(i).Interface())
		}
		return out
	case reflect.String:
		return rv.String()
	default:
		return value
	}
}

// asList converts list-like values into []any, handling typed slices
// reflectively.
func asList(value any) ([]any, bool) {
	if direct, ok := value.([]any); ok {
		return direct, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// asRecord converts record-like values (maps keyed by strings or symbols,
// plain structs) into a map keyed by internal identifiers.
func asRecord(value any) (map[string]any, bool) {
	if direct, ok := value.(map[string]any); ok {
		return direct, true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, false
		}
		return asRecord(rv.Elem().Interface())
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[toText(iter.Key().Interface())] = iter.Value().Interface()
		}
		return out, true
	case reflect.Struct:
		if _, isTime := value.(time.Time); isTime {
			return nil, false
		}
		rt := rv.Type()
		out := make(map[string]any, rt.NumField())
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			out[names.ToInternal(f.Name)] = rv.Field(i).Interface()
		}
		return out, true
	default:
		return nil, false
	}
}

func toText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case Atom:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
