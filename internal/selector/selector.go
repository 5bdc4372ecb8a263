// Package selector validates a client field-selection request against the
// schema and converts it into an execution plan: which fields the query
// layer fetches directly, which it resolves lazily, and the extraction
// template reapplied to every record of the result set.
package selector

import (
	"strings"

	"github.com/hanpama/fieldplan/internal/classify"
	"github.com/hanpama/fieldplan/internal/fielderr"
	"github.com/hanpama/fieldplan/internal/names"
	"github.com/hanpama/fieldplan/internal/schema"
	"github.com/hanpama/fieldplan/internal/selection"
)

// Plan is the selector's output. Direct fields are fetched with the primary
// record; Lazy fields need a secondary resolution step. Template drives the
// extractor.
type Plan struct {
	Direct   []string           `json:"direct"`
	Lazy     []LazyField        `json:"lazy,omitempty"`
	Template selection.Template `json:"template"`
}

// LazyField is one relation, aggregate, calculation or nested-composite
// entry handed off to the query-building layer.
type LazyField struct {
	Name string           `json:"name"`
	Kind schema.FieldKind `json:"kind"`
	Args map[string]any   `json:"args,omitempty"`
	// Plan carries the nested selection for fields whose own type requires
	// one; it is nil for scalar aggregates and calculations.
	Plan *Plan `json:"plan,omitempty"`
}

// maxResourceDepth bounds re-entrant traversal of self-referential resource
// graphs within a single Select call.
const maxResourceDepth = 32

// Select validates req against the type described by d and produces its
// execution plan. Validation is fail-fast: the first violation aborts the
// whole request. The provider is read-only; Select keeps all per-call state
// on its own stack.
func Select(p schema.Provider, d schema.Descriptor, req selection.Request, path fielderr.Path) (*Plan, *fielderr.Error) {
	st := &state{provider: p, open: make(map[string]int)}
	return st.selectValue(d, req, path)
}

type state struct {
	provider schema.Provider
	// open counts re-entries per resource name during this call.
	open map[string]int
}

func (st *state) selectValue(d schema.Descriptor, req selection.Request, path fielderr.Path) (*Plan, *fielderr.Error) {
	d, ferr := classify.Unwrap(st.provider, d)
	if ferr != nil {
		return nil, ferr.WithPath(path)
	}

	switch classify.Classify(d) {
	case classify.CategoryArray:
		// Arrays are transparent to selection.
		if d.Constraints == nil || d.Constraints.Items == nil {
			if len(req) > 0 {
				return nil, fielderr.InvalidFieldSelection(nameAt(path), path)
			}
			return &Plan{}, nil
		}
		return st.selectValue(*d.Constraints.Items, req, path)

	case classify.CategoryResource:
		return st.selectResource(d.Ref, req, path)

	case classify.CategoryBoundStruct:
		mapping, _ := st.provider.MappingFor(d.Constraints.InstanceOf)
		return st.selectContainer(d, d.Constraints.InstanceOf, mapping, req, path)

	case classify.CategoryFieldContainer:
		return st.selectContainer(d, string(d.Base), nil, req, path)

	case classify.CategoryBareContainer:
		// No per-field schema: selection is a no-op and all fields are
		// planned implicitly.
		return &Plan{}, nil

	case classify.CategoryUnion:
		return st.selectUnion(d, req, path)

	default: // primitive or custom scalar
		if len(req) > 0 {
			return nil, fielderr.InvalidFieldSelection(nameAt(path), path)
		}
		return &Plan{}, nil
	}
}

func (st *state) selectResource(name string, req selection.Request, path fielderr.Path) (*Plan, *fielderr.Error) {
	res, ok := st.provider.ResolveResource(name)
	if !ok {
		return nil, fielderr.TypeResolution(name, "resource is not registered", path)
	}
	st.open[name]++
	defer func() { st.open[name]-- }()
	if st.open[name] > maxResourceDepth {
		return nil, fielderr.TypeResolution(name, "resource embeds itself beyond the depth bound", path)
	}
	if len(req) == 0 {
		return nil, fielderr.RequiresFieldSelection(name, path)
	}

	mapping := res.Mapping()
	plan := &Plan{}
	seen := make(map[string]struct{}, len(req))

	for _, item := range req {
		field, internal := resolveResourceField(res, mapping, item.Name)
		if field == nil {
			return nil, fielderr.UnknownField(item.Name, res.Name, path)
		}
		key := strings.ToLower(internal)
		if _, dup := seen[key]; dup {
			return nil, fielderr.DuplicateField(internal, path)
		}
		seen[key] = struct{}{}
		fieldPath := path.Child(internal)

		if ferr := st.checkArguments(field, item, fieldPath); ferr != nil {
			return nil, ferr
		}

		needs, ferr := st.needsSelection(field.Type)
		if ferr != nil {
			return nil, ferr.WithPath(fieldPath)
		}

		switch {
		case needs:
			if !item.Nested {
				return nil, fielderr.RequiresFieldSelection(internal, fieldPath)
			}
			sub, ferr := st.selectValue(field.Type, item.Children, fieldPath)
			if ferr != nil {
				return nil, ferr
			}
			plan.Lazy = append(plan.Lazy, LazyField{Name: internal, Kind: field.Kind, Args: item.Args, Plan: sub})
			plan.Template = append(plan.Template, selection.Entry{Name: internal, Index: selection.NoIndex, Children: sub.Template})

		case field.Kind == schema.KindAttribute:
			if item.Nested && len(item.Children) > 0 {
				return nil, fielderr.InvalidFieldSelection(internal, fieldPath)
			}
			plan.Direct = append(plan.Direct, internal)
			plan.Template = append(plan.Template, selection.Entry{Name: internal, Index: selection.NoIndex})

		default: // scalar relation-free lazy kinds: aggregate, calculation
			if item.Nested && len(item.Children) > 0 {
				return nil, fielderr.NoNesting(internal, fieldPath)
			}
			plan.Lazy = append(plan.Lazy, LazyField{Name: internal, Kind: field.Kind, Args: item.Args})
			plan.Template = append(plan.Template, selection.Entry{Name: internal, Index: selection.NoIndex})
		}
	}
	return plan, nil
}

func (st *state) selectContainer(d schema.Descriptor, owner string, mapping *names.Mapping, req selection.Request, path fielderr.Path) (*Plan, *fielderr.Error) {
	fields := d.Constraints.Fields
	if len(fields) == 0 {
		return &Plan{}, nil
	}
	if len(req) == 0 {
		return nil, fielderr.RequiresFieldSelection(owner, path)
	}
	positional := d.Base == schema.BaseTuple

	plan := &Plan{}
	seen := make(map[string]struct{}, len(req))
	for _, item := range req {
		spec, idx := resolveContainerField(d.Constraints, mapping, item.Name)
		if spec == nil {
			return nil, fielderr.UnknownField(item.Name, owner, path)
		}
		key := strings.ToLower(spec.Name)
		if _, dup := seen[key]; dup {
			return nil, fielderr.DuplicateField(spec.Name, path)
		}
		seen[key] = struct{}{}
		fieldPath := path.Child(spec.Name)

		if len(item.Args) > 0 {
			return nil, fielderr.UnsupportedCombination("container fields do not accept arguments", []string{spec.Name}, fieldPath)
		}

		needs, ferr := st.needsSelection(spec.Type)
		if ferr != nil {
			return nil, ferr.WithPath(fieldPath)
		}
		entry := selection.Entry{Name: spec.Name, Index: selection.NoIndex}
		if positional {
			entry.Index = idx
		}
		if needs {
			if !item.Nested {
				return nil, fielderr.RequiresFieldSelection(spec.Name, fieldPath)
			}
			sub, ferr := st.selectValue(spec.Type, item.Children, fieldPath)
			if ferr != nil {
				return nil, ferr
			}
			entry.Children = sub.Template
		} else if item.Nested && len(item.Children) > 0 {
			return nil, fielderr.InvalidFieldSelection(spec.Name, fieldPath)
		}
		plan.Template = append(plan.Template, entry)
	}
	return plan, nil
}

func (st *state) selectUnion(d schema.Descriptor, req selection.Request, path fielderr.Path) (*Plan, *fielderr.Error) {
	members := d.Constraints.Members
	if len(members) == 0 {
		return &Plan{}, nil
	}
	if len(req) == 0 {
		return nil, fielderr.RequiresFieldSelection("union", path)
	}

	plan := &Plan{}
	seen := make(map[string]struct{}, len(req))
	for _, item := range req {
		member := resolveMember(d.Constraints, item.Name)
		if member == nil {
			return nil, fielderr.UnknownField(item.Name, "union", path)
		}
		key := strings.ToLower(member.Tag)
		if _, dup := seen[key]; dup {
			return nil, fielderr.DuplicateField(member.Tag, path)
		}
		seen[key] = struct{}{}
		memberPath := path.Child(member.Tag)

		if len(item.Args) > 0 {
			return nil, fielderr.UnsupportedCombination("union members do not accept arguments", []string{member.Tag}, memberPath)
		}

		needs, ferr := st.needsSelection(member.Type)
		if ferr != nil {
			return nil, ferr.WithPath(memberPath)
		}
		entry := selection.Entry{Name: member.Tag, Index: selection.NoIndex}
		if needs {
			if !item.Nested {
				return nil, fielderr.RequiresFieldSelection(member.Tag, memberPath)
			}
			sub, ferr := st.selectValue(member.Type, item.Children, memberPath)
			if ferr != nil {
				return nil, ferr
			}
			entry.Children = sub.Template
		} else if item.Nested && len(item.Children) > 0 {
			return nil, fielderr.InvalidFieldSelection(member.Tag, memberPath)
		}
		plan.Template = append(plan.Template, entry)
	}
	return plan, nil
}

// checkArguments validates a requested item's argument payload against the
// field declaration.
func (st *state) checkArguments(field *schema.Field, item selection.Item, path fielderr.Path) *fielderr.Error {
	if field.Kind != schema.KindCalculation {
		if len(item.Args) > 0 {
			return fielderr.UnsupportedCombination("only calculations accept arguments", []string{field.Name}, path)
		}
		return nil
	}
	if field.RequiresArgs && len(item.Args) == 0 {
		return fielderr.RequiresArguments(field.Name, path)
	}
	if len(item.Args) > 0 && len(field.Arguments) == 0 {
		return fielderr.InvalidArguments(field.Name, "calculation is declared parameterless", path)
	}
	for name := range item.Args {
		if !hasArgument(field, name, names.ToInternal(name)) {
			return fielderr.InvalidArguments(field.Name, "unknown argument "+name, path)
		}
	}
	for _, arg := range field.Arguments {
		if !arg.Required {
			continue
		}
		if _, ok := item.Args[arg.Name]; ok {
			continue
		}
		if _, ok := item.Args[names.ToExternal(arg.Name)]; ok {
			continue
		}
		return fielderr.InvalidArguments(field.Name, "missing required argument "+arg.Name, path)
	}
	return nil
}

func hasArgument(field *schema.Field, raw, converted string) bool {
	for _, arg := range field.Arguments {
		if arg.Name == raw || arg.Name == converted {
			return true
		}
	}
	return false
}

// needsSelection reports whether a type can only be requested with a nested
// selection. Arrays defer to their element type.
func (st *state) needsSelection(d schema.Descriptor) (bool, *fielderr.Error) {
	d, ferr := classify.Unwrap(st.provider, d)
	if ferr != nil {
		return false, ferr
	}
	switch classify.Classify(d) {
	case classify.CategoryArray:
		if d.Constraints == nil || d.Constraints.Items == nil {
			return false, nil
		}
		return st.needsSelection(*d.Constraints.Items)
	case classify.CategoryResource, classify.CategoryBoundStruct, classify.CategoryUnion, classify.CategoryFieldContainer:
		return true, nil
	default:
		return false, nil
	}
}

// resolveResourceField maps a requested identifier, in either spelling, to a
// declared field. Internal spellings win so that override maps can never
// shadow a direct identifier.
func resolveResourceField(res *schema.Resource, mapping *names.Mapping, name string) (*schema.Field, string) {
	if f := res.GetField(name); f != nil {
		return f, name
	}
	candidate := mapping.Internal(name)
	if f := res.GetField(candidate); f != nil {
		return f, candidate
	}
	return nil, ""
}

func resolveContainerField(c *schema.Constraints, mapping *names.Mapping, name string) (*schema.FieldSpec, int) {
	if spec, idx := c.FieldsByName(name); spec != nil {
		return spec, idx
	}
	return c.FieldsByName(mapping.Internal(name))
}

func resolveMember(c *schema.Constraints, name string) *schema.Member {
	if m := c.MemberByTag(name); m != nil {
		return m
	}
	return c.MemberByTag(names.ToInternal(name))
}

// nameAt returns the trailing field identifier of a path for diagnostics.
func nameAt(path fielderr.Path) string {
	for i := len(path) - 1; i >= 0; i-- {
		if s, ok := path[i].(string); ok {
			return s
		}
	}
	return ""
}
