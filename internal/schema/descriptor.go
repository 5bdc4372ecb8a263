package schema

// BaseType identifies the shape of a type descriptor.
type BaseType string

const (
	// Primitives
	BaseString   BaseType = "string"
	BaseInteger  BaseType = "integer"
	BaseFloat    BaseType = "float"
	BaseDecimal  BaseType = "decimal"
	BaseBoolean  BaseType = "boolean"
	BaseUUID     BaseType = "uuid"
	BaseDate     BaseType = "date"
	BaseDatetime BaseType = "datetime"
	BaseCIString BaseType = "ci_string"
	BaseAtom     BaseType = "atom"

	// Composites
	BaseArray    BaseType = "array"
	BaseResource BaseType = "resource"
	BaseUnion    BaseType = "union"
	BaseStruct   BaseType = "struct"
	BaseKeyword  BaseType = "keyword" // ordered key-value container
	BaseTuple    BaseType = "tuple"   // positional container

	// Alias is a named indirection resolved through the registry.
	BaseAlias BaseType = "alias"
)

// Descriptor is the (base type, constraints) pair fully describing a field's
// shape. Ref names the target resource or alias for BaseResource/BaseAlias.
type Descriptor struct {
	Base        BaseType
	Ref         string
	Constraints *Constraints
}

// Constraints carry the shape details that are only meaningful relative to
// the base type: Items for arrays, Fields for containers, Members and
// Storage for unions, InstanceOf for the name-mapping owner pinned during
// alias resolution, TypeName for custom scalars.
type Constraints struct {
	Items      *Descriptor
	Fields     []FieldSpec
	InstanceOf string
	Members    []Member
	Storage    UnionStorage
	TypeName   string
}

// FieldSpec declares one field of a container type.
type FieldSpec struct {
	Name string
	Type Descriptor
}

// Member declares one tagged-union member. TagField/TagValue describe the
// map-with-tag discriminant when the union stores members that way.
type Member struct {
	Tag      string
	Type     Descriptor
	TagField string
	TagValue string
}

// UnionStorage selects how union values carry their discriminant.
type UnionStorage string

const (
	// StorageTypeAndValue wraps the payload in {type, value}.
	StorageTypeAndValue UnionStorage = "type_and_value"
	// StorageMapWithTag embeds a discriminant field inside the payload map.
	StorageMapWithTag UnionStorage = "map_with_tag"
)

// FieldsByName returns the container field spec with the given name and its
// positional index, or nil and -1.
func (c *Constraints) FieldsByName(name string) (*FieldSpec, int) {
	if c == nil {
		return nil, -1
	}
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i], i
		}
	}
	return nil, -1
}

// MemberByTag returns the union member with the given tag, or nil.
func (c *Constraints) MemberByTag(tag string) *Member {
	if c == nil {
		return nil
	}
	for i := range c.Members {
		if c.Members[i].Tag == tag {
			return &c.Members[i]
		}
	}
	return nil
}

// Clone returns a shallow copy of c safe for per-call mutation of scalar
// fields. Nested descriptors are shared; they are never mutated.
func (c *Constraints) Clone() *Constraints {
	if c == nil {
		return &Constraints{}
	}
	cp := *c
	return &cp
}

// IsContainer reports whether b is one of the composite container bases.
func (b BaseType) IsContainer() bool {
	return b == BaseStruct || b == BaseKeyword || b == BaseTuple
}

// Helper constructors, mirroring how call sites read.

func String() Descriptor   { return Descriptor{Base: BaseString} }
func Integer() Descriptor  { return Descriptor{Base: BaseInteger} }
func Float() Descriptor    { return Descriptor{Base: BaseFloat} }
func Decimal() Descriptor  { return Descriptor{Base: BaseDecimal} }
func Boolean() Descriptor  { return Descriptor{Base: BaseBoolean} }
func UUID() Descriptor     { return Descriptor{Base: BaseUUID} }
func Date() Descriptor     { return Descriptor{Base: BaseDate} }
func Datetime() Descriptor { return Descriptor{Base: BaseDatetime} }
func CIString() Descriptor { return Descriptor{Base: BaseCIString} }
func Atom() Descriptor     { return Descriptor{Base: BaseAtom} }

// Custom declares a scalar with its own external representation name.
func Custom(base BaseType, typeName string) Descriptor {
	return Descriptor{Base: base, Constraints: &Constraints{TypeName: typeName}}
}

func Array(inner Descriptor) Descriptor {
	return Descriptor{Base: BaseArray, Constraints: &Constraints{Items: &inner}}
}

func ResourceRef(name string) Descriptor {
	return Descriptor{Base: BaseResource, Ref: name}
}

func AliasRef(name string) Descriptor {
	return Descriptor{Base: BaseAlias, Ref: name}
}

func Struct(fields ...FieldSpec) Descriptor {
	return Descriptor{Base: BaseStruct, Constraints: &Constraints{Fields: fields}}
}

func Keyword(fields ...FieldSpec) Descriptor {
	return Descriptor{Base: BaseKeyword, Constraints: &Constraints{Fields: fields}}
}

func Tuple(fields ...FieldSpec) Descriptor {
	return Descriptor{Base: BaseTuple, Constraints: &Constraints{Fields: fields}}
}

func Union(storage UnionStorage, members ...Member) Descriptor {
	return Descriptor{Base: BaseUnion, Constraints: &Constraints{Members: members, Storage: storage}}
}

func Spec(name string, t Descriptor) FieldSpec { return FieldSpec{Name: name, Type: t} }
