package selection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseString parses a GraphQL-style selection string such as
//
//	{ id title comments { id body } wordCount(format: "plain") }
//
// into a Request. The surrounding braces are optional. Only plain fields and
// arguments are part of the selection model; fragments, directives and
// aliases are rejected.
func ParseString(src string) (Request, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, nil
	}
	if !strings.HasPrefix(trimmed, "{") {
		trimmed = "{ " + trimmed + " }"
	}
	doc, err := parser.ParseQuery(&ast.Source{Input: trimmed})
	if err != nil {
		return nil, fmt.Errorf("parse selection: %w", err)
	}
	if len(doc.Operations) != 1 {
		return nil, fmt.Errorf("parse selection: expected a single selection set")
	}
	return fromSelectionSet(doc.Operations[0].SelectionSet)
}

func fromSelectionSet(set ast.SelectionSet) (Request, error) {
	req := make(Request, 0, len(set))
	for _, sel := range set {
		field, ok := sel.(*ast.Field)
		if !ok {
			return nil, fmt.Errorf("parse selection: fragments are not part of the selection model")
		}
		if field.Alias != "" && field.Alias != field.Name {
			return nil, fmt.Errorf("parse selection: field %q: aliases are not supported", field.Name)
		}
		if len(field.Directives) > 0 {
			return nil, fmt.Errorf("parse selection: field %q: directives are not supported", field.Name)
		}
		item := Item{Name: field.Name}
		if len(field.Arguments) > 0 {
			item.Args = make(map[string]any, len(field.Arguments))
			for _, arg := range field.Arguments {
				item.Args[arg.Name] = valueToGo(arg.Value)
			}
		}
		if len(field.SelectionSet) > 0 {
			children, err := fromSelectionSet(field.SelectionSet)
			if err != nil {
				return nil, err
			}
			item.Children = children
			item.Nested = true
		}
		req = append(req, item)
	}
	return req, nil
}

// valueToGo converts a parsed argument value to a plain Go value.
func valueToGo(value *ast.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case ast.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case ast.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case ast.StringValue, ast.BlockValue, ast.EnumValue:
		return value.Raw
	case ast.BooleanValue:
		return value.Raw == "true"
	case ast.NullValue:
		return nil
	case ast.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = valueToGo(c.Value)
		}
		return out
	case ast.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, c := range value.Children {
			m[c.Name] = valueToGo(c.Value)
		}
		return m
	default:
		return nil
	}
}
