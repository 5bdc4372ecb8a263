// Package config loads declarative schema documents into a registry. The
// authoring format is deliberately thin: resources, aliases and their field
// types in YAML, one or more documents merged in load order.
package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hanpama/fieldplan/internal/schema"
)

// Document is one parsed schema file.
type Document struct {
	Resources map[string]ResourceDoc `yaml:"resources"`
	Aliases   map[string]AliasDoc    `yaml:"aliases"`
}

// ResourceDoc declares one entity schema.
type ResourceDoc struct {
	Description string              `yaml:"description"`
	FieldNames  map[string]string   `yaml:"field_names"`
	Fields      map[string]FieldDoc `yaml:"fields"`
}

// FieldDoc declares one resource field. Kind defaults to attribute.
type FieldDoc struct {
	Kind         string   `yaml:"kind"`
	Type         any      `yaml:"type"`
	Description  string   `yaml:"description"`
	RequiresArgs bool     `yaml:"requires_args"`
	Args         []ArgDoc `yaml:"args"`
}

// ArgDoc declares one calculation argument.
type ArgDoc struct {
	Name     string `yaml:"name"`
	Type     any    `yaml:"type"`
	Required bool   `yaml:"required"`
}

// AliasDoc declares one alias wrapper.
type AliasDoc struct {
	FieldNames map[string]string `yaml:"field_names"`
	Type       any               `yaml:"type"`
}

// Parse unmarshals one YAML schema document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}
	return &doc, nil
}

// Build merges documents into a validated registry.
func Build(docs ...*Document) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	for _, doc := range docs {
		for _, name := range sortedKeys(doc.Resources) {
			res, err := buildResource(name, doc.Resources[name])
			if err != nil {
				return nil, err
			}
			reg.AddResource(res)
		}
		for _, name := range sortedKeys(doc.Aliases) {
			alias, err := buildAlias(name, doc.Aliases[name])
			if err != nil {
				return nil, err
			}
			reg.AddAlias(alias)
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func buildResource(name string, doc ResourceDoc) (*schema.Resource, error) {
	res := schema.NewResource(name, doc.Description)
	if doc.FieldNames != nil {
		res.SetOverrides(doc.FieldNames)
	}
	for _, fieldName := range sortedKeys(doc.Fields) {
		fieldDoc := doc.Fields[fieldName]
		field, err := buildField(fieldName, fieldDoc)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", name, err)
		}
		res.AddField(field)
	}
	return res, nil
}

func buildField(name string, doc FieldDoc) (*schema.Field, error) {
	kind := schema.FieldKind(doc.Kind)
	if doc.Kind == "" {
		kind = schema.KindAttribute
	}
	switch kind {
	case schema.KindAttribute, schema.KindRelation, schema.KindCalculation, schema.KindAggregate:
	default:
		return nil, fmt.Errorf("field %q: unknown kind %q", name, doc.Kind)
	}
	t, err := decodeType(doc.Type)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	field := &schema.Field{
		Name:         name,
		Kind:         kind,
		Type:         t,
		Description:  doc.Description,
		RequiresArgs: doc.RequiresArgs,
	}
	for _, arg := range doc.Args {
		at, err := decodeType(arg.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q argument %q: %w", name, arg.Name, err)
		}
		field.Arguments = append(field.Arguments, schema.Argument{Name: arg.Name, Type: at, Required: arg.Required})
		if arg.Required {
			field.RequiresArgs = true
		}
	}
	if kind != schema.KindCalculation && len(field.Arguments) > 0 {
		return nil, fmt.Errorf("field %q: only calculations declare arguments", name)
	}
	return field, nil
}

func buildAlias(name string, doc AliasDoc) (*schema.Alias, error) {
	t, err := decodeType(doc.Type)
	if err != nil {
		return nil, fmt.Errorf("alias %q: %w", name, err)
	}
	alias := schema.NewAlias(name, t)
	if doc.FieldNames != nil {
		alias.SetOverrides(doc.FieldNames)
	}
	return alias, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
