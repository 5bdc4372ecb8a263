package config

import (
	"fmt"

	"github.com/hanpama/fieldplan/internal/schema"
)

var primitiveBases = map[string]schema.BaseType{
	"string":    schema.BaseString,
	"integer":   schema.BaseInteger,
	"float":     schema.BaseFloat,
	"decimal":   schema.BaseDecimal,
	"boolean":   schema.BaseBoolean,
	"uuid":      schema.BaseUUID,
	"date":      schema.BaseDate,
	"datetime":  schema.BaseDatetime,
	"ci_string": schema.BaseCIString,
	"atom":      schema.BaseAtom,
}

// decodeType converts a YAML type node into a descriptor. A plain string
// names a primitive; a single-key map wraps a composite:
//
//	type: string
//	type: { array: { resource: comment } }
//	type: { struct: [ { name: amount, type: decimal } ] }
//	type: { union: { storage: map_with_tag, members: [...] } }
func decodeType(v any) (schema.Descriptor, error) {
	switch node := v.(type) {
	case nil:
		return schema.Descriptor{}, fmt.Errorf("missing type")
	case string:
		if base, ok := primitiveBases[node]; ok {
			return schema.Descriptor{Base: base}, nil
		}
		return schema.Descriptor{}, fmt.Errorf("unknown primitive type %q", node)
	case map[string]any:
		if len(node) != 1 {
			return schema.Descriptor{}, fmt.Errorf("composite type must have exactly one key")
		}
		for key, inner := range node {
			return decodeComposite(key, inner)
		}
	}
	return schema.Descriptor{}, fmt.Errorf("cannot decode type from %T", v)
}

func decodeComposite(key string, inner any) (schema.Descriptor, error) {
	switch key {
	case "array":
		item, err := decodeType(inner)
		if err != nil {
			return schema.Descriptor{}, err
		}
		return schema.Array(item), nil
	case "resource":
		name, ok := inner.(string)
		if !ok {
			return schema.Descriptor{}, fmt.Errorf("resource reference must be a name")
		}
		return schema.ResourceRef(name), nil
	case "alias":
		name, ok := inner.(string)
		if !ok {
			return schema.Descriptor{}, fmt.Errorf("alias reference must be a name")
		}
		return schema.AliasRef(name), nil
	case "struct", "keyword", "tuple":
		fields, err := decodeFieldSpecs(inner)
		if err != nil {
			return schema.Descriptor{}, fmt.Errorf("%s: %w", key, err)
		}
		switch key {
		case "struct":
			return schema.Struct(fields...), nil
		case "keyword":
			return schema.Keyword(fields...), nil
		default:
			return schema.Tuple(fields...), nil
		}
	case "union":
		return decodeUnion(inner)
	case "custom":
		return decodeCustom(inner)
	default:
		return schema.Descriptor{}, fmt.Errorf("unknown composite type %q", key)
	}
}

func decodeFieldSpecs(inner any) ([]schema.FieldSpec, error) {
	list, ok := inner.([]any)
	if !ok {
		return nil, fmt.Errorf("fields must be a list")
	}
	specs := make([]schema.FieldSpec, 0, len(list))
	for i, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %d must be a map", i)
		}
		name, _ := entry["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("field %d is missing a name", i)
		}
		t, err := decodeType(entry["type"])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		specs = append(specs, schema.Spec(name, t))
	}
	return specs, nil
}

func decodeUnion(inner any) (schema.Descriptor, error) {
	node, ok := inner.(map[string]any)
	if !ok {
		return schema.Descriptor{}, fmt.Errorf("union must be a map")
	}
	storage := schema.StorageTypeAndValue
	if raw, ok := node["storage"].(string); ok && raw != "" {
		switch schema.UnionStorage(raw) {
		case schema.StorageTypeAndValue, schema.StorageMapWithTag:
			storage = schema.UnionStorage(raw)
		default:
			return schema.Descriptor{}, fmt.Errorf("unknown union storage %q", raw)
		}
	}
	list, ok := node["members"].([]any)
	if !ok || len(list) == 0 {
		return schema.Descriptor{}, fmt.Errorf("union must declare members")
	}
	members := make([]schema.Member, 0, len(list))
	for i, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			return schema.Descriptor{}, fmt.Errorf("union member %d must be a map", i)
		}
		tag, _ := entry["tag"].(string)
		if tag == "" {
			return schema.Descriptor{}, fmt.Errorf("union member %d is missing a tag", i)
		}
		t, err := decodeType(entry["type"])
		if err != nil {
			return schema.Descriptor{}, fmt.Errorf("union member %q: %w", tag, err)
		}
		member := schema.Member{Tag: tag, Type: t}
		member.TagField, _ = entry["tag_field"].(string)
		member.TagValue, _ = entry["tag_value"].(string)
		if storage == schema.StorageMapWithTag && member.TagField == "" {
			return schema.Descriptor{}, fmt.Errorf("union member %q needs tag_field for map_with_tag storage", tag)
		}
		members = append(members, member)
	}
	return schema.Union(storage, members...), nil
}

func decodeCustom(inner any) (schema.Descriptor, error) {
	node, ok := inner.(map[string]any)
	if !ok {
		return schema.Descriptor{}, fmt.Errorf("custom scalar must be a map")
	}
	baseName, _ := node["base"].(string)
	base, ok := primitiveBases[baseName]
	if !ok {
		return schema.Descriptor{}, fmt.Errorf("custom scalar has unknown base %q", baseName)
	}
	typeName, _ := node["name"].(string)
	if typeName == "" {
		return schema.Descriptor{}, fmt.Errorf("custom scalar is missing a name")
	}
	return schema.Custom(base, typeName), nil
}
