package schema

import "github.com/hanpama/fieldplan/internal/names"

// FieldKind classifies how a resource field is produced.
type FieldKind string

const (
	KindAttribute   FieldKind = "attribute"
	KindRelation    FieldKind = "relation"
	KindCalculation FieldKind = "calculation"
	KindAggregate   FieldKind = "aggregate"
)

// Field is one declared field on a resource.
type Field struct {
	Name        string
	Kind        FieldKind
	Type        Descriptor
	Description string
	// Arguments apply to calculations only.
	Arguments    []Argument
	RequiresArgs bool
}

// Argument declares one calculation parameter.
type Argument struct {
	Name     string
	Type     Descriptor
	Required bool
}

// Resource is an entity schema: a named set of declared fields, optionally
// with a custom external-name mapping.
type Resource struct {
	Name        string
	Description string
	Fields      []*Field

	overrides    map[string]string
	hasOverrides bool

	index   map[string]int
	mapping *names.Mapping
}

// NewResource creates an empty resource schema.
func NewResource(name, description string) *Resource {
	return &Resource{
		Name:        name,
		Description: description,
		index:       make(map[string]int),
	}
}

// AddField appends a field declaration. Later declarations of the same name
// replace earlier ones.
func (r *Resource) AddField(f *Field) *Resource {
	if idx, ok := r.index[f.Name]; ok {
		r.Fields[idx] = f
		return r
	}
	r.index[f.Name] = len(r.Fields)
	r.Fields = append(r.Fields, f)
	return r
}

// SetOverrides declares the per-type external name mapping. Collisions are
// reported by Registry.Validate rather than here so that schema construction
// stays chainable.
func (r *Resource) SetOverrides(overrides map[string]string) *Resource {
	r.overrides = overrides
	r.hasOverrides = true
	r.mapping = nil
	return r
}

// GetField returns the declared field with the given internal name.
func (r *Resource) GetField(name string) *Field {
	if idx, ok := r.index[name]; ok {
		return r.Fields[idx]
	}
	return nil
}

// HasOverrides reports whether the resource declares a name mapping.
func (r *Resource) HasOverrides() bool { return r.hasOverrides }

// Overrides returns the declared override table (may be nil).
func (r *Resource) Overrides() map[string]string { return r.overrides }

// Mapping returns the resource's name mapping. A resource without declared
// overrides still gets a mapping that applies the default convention.
func (r *Resource) Mapping() *names.Mapping {
	if r.mapping == nil {
		m, err := names.NewMapping(r.overrides)
		if err != nil {
			// Collisions are rejected at registry validation; fall back to
			// the default convention if an unvalidated schema slips through.
			m = &names.Mapping{}
		}
		r.mapping = m
	}
	return r.mapping
}

// Alias is a named indirection resolving to another descriptor, optionally
// declaring its own external-name mapping for the wrapped container.
type Alias struct {
	Name       string
	Underlying Descriptor

	overrides    map[string]string
	hasOverrides bool
	mapping      *names.Mapping
}

// NewAlias creates an alias wrapper for the given descriptor.
func NewAlias(name string, underlying Descriptor) *Alias {
	return &Alias{Name: name, Underlying: underlying}
}

// SetOverrides declares the alias's external name mapping.
func (a *Alias) SetOverrides(overrides map[string]string) *Alias {
	a.overrides = overrides
	a.hasOverrides = true
	a.mapping = nil
	return a
}

// HasOverrides reports whether the alias declares a name mapping.
func (a *Alias) HasOverrides() bool { return a.hasOverrides }

// Overrides returns the declared override table (may be nil).
func (a *Alias) Overrides() map[string]string { return a.overrides }

// Mapping returns the alias's name mapping.
func (a *Alias) Mapping() *names.Mapping {
	if a.mapping == nil {
		m, err := names.NewMapping(a.overrides)
		if err != nil {
			m = &names.Mapping{}
		}
		a.mapping = m
	}
	return a.mapping
}
