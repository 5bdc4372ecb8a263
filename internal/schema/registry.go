package schema

import (
	"fmt"
	"sort"

	"github.com/hanpama/fieldplan/internal/names"
)

// Provider is the schema lookup capability passed explicitly into every
// engine entry point. Implementations must be safe for concurrent readers;
// the engine never mutates schema metadata at request time.
type Provider interface {
	// ResolveResource returns the entity schema with the given name.
	ResolveResource(name string) (*Resource, bool)
	// ResolveAlias returns the alias wrapper with the given name.
	ResolveAlias(name string) (*Alias, bool)
	// MappingFor returns the name mapping declared by the named resource or
	// alias and whether one was declared at all.
	MappingFor(name string) (*names.Mapping, bool)
}

// Registry is an in-memory arena of resources and aliases keyed by stable
// names. Build it once at startup, then share it read-only across requests.
type Registry struct {
	resources map[string]*Resource
	aliases   map[string]*Alias
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		resources: make(map[string]*Resource),
		aliases:   make(map[string]*Alias),
	}
}

// AddResource registers r, replacing any resource with the same name.
func (g *Registry) AddResource(r *Resource) *Registry {
	g.resources[r.Name] = r
	return g
}

// AddAlias registers a, replacing any alias with the same name.
func (g *Registry) AddAlias(a *Alias) *Registry {
	g.aliases[a.Name] = a
	return g
}

// ResolveResource implements Provider.
func (g *Registry) ResolveResource(name string) (*Resource, bool) {
	r, ok := g.resources[name]
	return r, ok
}

// ResolveAlias implements Provider.
func (g *Registry) ResolveAlias(name string) (*Alias, bool) {
	a, ok := g.aliases[name]
	return a, ok
}

// MappingFor implements Provider. It consults resources first, then aliases.
func (g *Registry) MappingFor(name string) (*names.Mapping, bool) {
	if r, ok := g.resources[name]; ok {
		return r.Mapping(), r.HasOverrides()
	}
	if a, ok := g.aliases[name]; ok {
		return a.Mapping(), a.HasOverrides()
	}
	return nil, false
}

// Resources returns all registered resources sorted by name.
func (g *Registry) Resources() []*Resource {
	out := make([]*Resource, 0, len(g.resources))
	for _, r := range g.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Aliases returns all registered aliases sorted by name.
func (g *Registry) Aliases() []*Alias {
	out := make([]*Alias, 0, len(g.aliases))
	for _, a := range g.aliases {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate checks registry-wide consistency: override tables must invert
// without collisions and every resource/alias reference must resolve.
func (g *Registry) Validate() error {
	for _, r := range g.Resources() {
		if _, err := names.NewMapping(r.Overrides()); err != nil {
			return fmt.Errorf("resource %q: %w", r.Name, err)
		}
		for _, f := range r.Fields {
			if err := g.validateDescriptor(f.Type); err != nil {
				return fmt.Errorf("resource %q field %q: %w", r.Name, f.Name, err)
			}
		}
	}
	for _, a := range g.Aliases() {
		if _, err := names.NewMapping(a.Overrides()); err != nil {
			return fmt.Errorf("alias %q: %w", a.Name, err)
		}
		if err := g.validateDescriptor(a.Underlying); err != nil {
			return fmt.Errorf("alias %q: %w", a.Name, err)
		}
	}
	return nil
}

func (g *Registry) validateDescriptor(d Descriptor) error {
	switch d.Base {
	case BaseResource:
		if _, ok := g.resources[d.Ref]; !ok {
			return fmt.Errorf("unknown resource %q", d.Ref)
		}
	case BaseAlias:
		if _, ok := g.aliases[d.Ref]; !ok {
			return fmt.Errorf("unknown alias %q", d.Ref)
		}
	}
	if d.Constraints == nil {
		return nil
	}
	if d.Constraints.Items != nil {
		if err := g.validateDescriptor(*d.Constraints.Items); err != nil {
			return err
		}
	}
	for _, fs := range d.Constraints.Fields {
		if err := g.validateDescriptor(fs.Type); err != nil {
			return fmt.Errorf("field %q: %w", fs.Name, err)
		}
	}
	for _, m := range d.Constraints.Members {
		if err := g.validateDescriptor(m.Type); err != nil {
			return fmt.Errorf("member %q: %w", m.Tag, err)
		}
	}
	return nil
}
