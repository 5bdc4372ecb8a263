// Package classify assigns every type descriptor to one of a fixed set of
// categories. The selector, extractor and formatter all dispatch on these
// categories; keeping the taxonomy closed here keeps the three traversals
// mutually consistent.
package classify

import (
	"github.com/hanpama/fieldplan/internal/fielderr"
	"github.com/hanpama/fieldplan/internal/schema"
)

// Category is the closed dispatch taxonomy. Order matters: Classify tests
// categories in declaration order and the first match wins.
type Category int

const (
	CategoryArray Category = iota
	CategoryResource
	CategoryBoundStruct
	CategoryUnion
	CategoryFieldContainer
	CategoryBareContainer
	CategoryCustomScalar
	CategoryPrimitive
)

func (c Category) String() string {
	switch c {
	case CategoryArray:
		return "array"
	case CategoryResource:
		return "resource"
	case CategoryBoundStruct:
		return "bound_struct"
	case CategoryUnion:
		return "union"
	case CategoryFieldContainer:
		return "field_container"
	case CategoryBareContainer:
		return "bare_container"
	case CategoryCustomScalar:
		return "custom_scalar"
	default:
		return "primitive"
	}
}

// maxAliasDepth bounds alias resolution. Legitimate schemas nest a handful
// of wrappers; anything deeper is a misconfigured self-referential alias.
const maxAliasDepth = 32

// Classify determines the dispatch category for an already-unwrapped
// descriptor. Call Unwrap first for descriptors that may be aliases.
func Classify(d schema.Descriptor) Category {
	switch {
	case d.Base == schema.BaseArray:
		return CategoryArray
	case d.Base == schema.BaseResource:
		return CategoryResource
	case d.Base.IsContainer() && d.Constraints != nil && d.Constraints.InstanceOf != "":
		return CategoryBoundStruct
	case d.Base == schema.BaseUnion:
		return CategoryUnion
	case d.Base.IsContainer() && d.Constraints != nil && len(d.Constraints.Fields) > 0:
		return CategoryFieldContainer
	case d.Base.IsContainer():
		return CategoryBareContainer
	case d.Constraints != nil && d.Constraints.TypeName != "":
		return CategoryCustomScalar
	default:
		return CategoryPrimitive
	}
}

// Unwrap resolves alias wrappers down to the underlying representation,
// merging each layer's constraints with the caller-supplied ones. A layer's
// own constraints win for the keys it defines, except InstanceOf: the
// outermost wrapper that declares a name mapping stays pinned so mapping
// lookups remain possible after flattening. Unwrap is idempotent and bounded
// by maxAliasDepth; exceeding the bound reports a type resolution error.
func Unwrap(p schema.Provider, d schema.Descriptor) (schema.Descriptor, *fielderr.Error) {
	for depth := 0; d.Base == schema.BaseAlias; depth++ {
		if depth >= maxAliasDepth {
			return d, fielderr.TypeResolution(d.Ref, "alias resolution exceeded depth bound; wrapper chain is cyclic", nil)
		}
		alias, ok := p.ResolveAlias(d.Ref)
		if !ok {
			return d, fielderr.TypeResolution(d.Ref, "alias is not registered", nil)
		}
		merged := mergeConstraints(alias.Underlying.Constraints, d.Constraints)
		if merged.InstanceOf == "" && alias.HasOverrides() {
			merged.InstanceOf = alias.Name
		}
		d = schema.Descriptor{Base: alias.Underlying.Base, Ref: alias.Underlying.Ref, Constraints: merged}
	}
	return d, nil
}

// mergeConstraints overlays the alias layer's constraints onto the
// caller-supplied ones. InstanceOf is the exception: the caller's (outer)
// value survives.
func mergeConstraints(layer, outer *schema.Constraints) *schema.Constraints {
	merged := outer.Clone()
	if layer == nil {
		return merged
	}
	if layer.Items != nil {
		merged.Items = layer.Items
	}
	if len(layer.Fields) > 0 {
		merged.Fields = layer.Fields
	}
	if len(layer.Members) > 0 {
		merged.Members = layer.Members
	}
	if layer.Storage != "" {
		merged.Storage = layer.Storage
	}
	if layer.TypeName != "" {
		merged.TypeName = layer.TypeName
	}
	if merged.InstanceOf == "" && layer.InstanceOf != "" {
		merged.InstanceOf = layer.InstanceOf
	}
	return merged
}
