package classify

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/fieldplan/internal/fielderr"
	"github.com/hanpama/fieldplan/internal/schema"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		desc schema.Descriptor
		want Category
	}{
		{"array", schema.Array(schema.String()), CategoryArray},
		{"resource", schema.ResourceRef("ticket"), CategoryResource},
		{"union", schema.Union(schema.StorageMapWithTag), CategoryUnion},
		{"struct with fields", schema.Struct(schema.Spec("lat", schema.Float())), CategoryFieldContainer},
		{"tuple with fields", schema.Tuple(schema.Spec("first", schema.String())), CategoryFieldContainer},
		{"bare struct", schema.Struct(), CategoryBareContainer},
		{"bare keyword", schema.Keyword(), CategoryBareContainer},
		{"custom scalar", schema.Custom(schema.BaseString, "email"), CategoryCustomScalar},
		{"string", schema.String(), CategoryPrimitive},
		{"datetime", schema.Datetime(), CategoryPrimitive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.desc))
		})
	}
}

// A container carrying a name-mapping owner dispatches as a bound struct even
// though it also declares fields.
func TestClassifyBoundStructWinsOverFieldContainer(t *testing.T) {
	d := schema.Struct(schema.Spec("amount", schema.Decimal()))
	d.Constraints.InstanceOf = "money"
	require.Equal(t, CategoryBoundStruct, Classify(d))
}

func testProvider(t *testing.T, aliases ...*schema.Alias) schema.Provider {
	t.Helper()
	reg := schema.NewRegistry()
	for _, a := range aliases {
		reg.AddAlias(a)
	}
	return reg
}

func TestUnwrapPassesThroughNonAlias(t *testing.T) {
	p := testProvider(t)
	for _, d := range []schema.Descriptor{
		schema.String(),
		schema.Array(schema.Integer()),
		schema.ResourceRef("ticket"),
	} {
		got, err := Unwrap(p, d)
		require.Nil(t, err)
		if diff := cmp.Diff(d, got); diff != "" {
			t.Fatalf("unwrap changed a non-alias descriptor (-want +got):\n%s", diff)
		}
	}
}

func TestUnwrapChain(t *testing.T) {
	p := testProvider(t,
		schema.NewAlias("money", schema.Struct(
			schema.Spec("amount", schema.Decimal()),
			schema.Spec("currency", schema.String()),
		)).SetOverrides(map[string]string{"amount": "amt"}),
		schema.NewAlias("price", schema.AliasRef("money")),
	)

	got, ferr := Unwrap(p, schema.AliasRef("price"))
	require.Nil(t, ferr)
	require.Equal(t, schema.BaseStruct, got.Base)
	require.Len(t, got.Constraints.Fields, 2)
	// The outermost wrapper declaring overrides owns the name mapping.
	require.Equal(t, "money", got.Constraints.InstanceOf)

	// Idempotent: unwrapping the result is a no-op.
	again, ferr := Unwrap(p, got)
	require.Nil(t, ferr)
	if diff := cmp.Diff(got, again); diff != "" {
		t.Fatalf("second unwrap diverged (-want +got):\n%s", diff)
	}
}

func TestUnwrapOutermostMappingOwnerWins(t *testing.T) {
	p := testProvider(t,
		schema.NewAlias("inner", schema.Struct(
			schema.Spec("value", schema.String()),
		)).SetOverrides(map[string]string{"value": "v"}),
		schema.NewAlias("outer", schema.AliasRef("inner")).
			SetOverrides(map[string]string{"value": "val"}),
	)

	got, ferr := Unwrap(p, schema.AliasRef("outer"))
	require.Nil(t, ferr)
	require.Equal(t, "outer", got.Constraints.InstanceOf)
}

func TestUnwrapUnknownAlias(t *testing.T) {
	p := testProvider(t)
	_, ferr := Unwrap(p, schema.AliasRef("missing"))
	require.NotNil(t, ferr)
	require.Equal(t, fielderr.TypeTypeResolution, ferr.Type)
}

func TestUnwrapCyclicAlias(t *testing.T) {
	p := testProvider(t,
		schema.NewAlias("a", schema.AliasRef("b")),
		schema.NewAlias("b", schema.AliasRef("a")),
	)
	_, ferr := Unwrap(p, schema.AliasRef("a"))
	require.NotNil(t, ferr)
	require.Equal(t, fielderr.TypeTypeResolution, ferr.Type)
}
