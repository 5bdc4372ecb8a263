package extract

import (
	"math/big"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/fieldplan/internal/schema"
	"github.com/hanpama/fieldplan/internal/selection"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	comment := schema.NewResource("comment", "").
		AddField(&schema.Field{Name: "id", Kind: schema.KindAttribute, Type: schema.UUID()}).
		AddField(&schema.Field{Name: "body", Kind: schema.KindAttribute, Type: schema.String()})

	ticket := schema.NewResource("ticket", "").
		AddField(&schema.Field{Name: "id", Kind: schema.KindAttribute, Type: schema.UUID()}).
		AddField(&schema.Field{Name: "title", Kind: schema.KindAttribute, Type: schema.String()}).
		AddField(&schema.Field{Name: "created_at", Kind: schema.KindAttribute, Type: schema.Datetime()}).
		AddField(&schema.Field{Name: "due_on", Kind: schema.KindAttribute, Type: schema.Date()}).
		AddField(&schema.Field{Name: "comments", Kind: schema.KindRelation, Type: schema.Array(schema.ResourceRef("comment"))}).
		AddField(&schema.Field{Name: "price", Kind: schema.KindAttribute, Type: schema.AliasRef("money")}).
		AddField(&schema.Field{Name: "pair", Kind: schema.KindAttribute, Type: schema.Tuple(
			schema.Spec("first", schema.String()),
			schema.Spec("second", schema.Integer()),
		)}).
		AddField(&schema.Field{Name: "attachment", Kind: schema.KindAttribute, Type: schema.Union(
			schema.StorageMapWithTag,
			schema.Member{Tag: "note", TagField: "type", TagValue: "note",
				Type: schema.Struct(schema.Spec("text", schema.String()))},
			schema.Member{Tag: "url", TagField: "type", TagValue: "url",
				Type: schema.Struct(schema.Spec("href", schema.String()))},
		)})

	money := schema.NewAlias("money", schema.Struct(
		schema.Spec("amount", schema.Decimal()),
		schema.Spec("currency", schema.String()),
	)).SetOverrides(map[string]string{"amount": "amt"})

	reg := schema.NewRegistry().
		AddResource(comment).
		AddResource(ticket).
		AddAlias(money)
	require.NoError(t, reg.Validate())
	return reg
}

func entries(names ...string) selection.Template {
	tmpl := make(selection.Template, len(names))
	for i, n := range names {
		tmpl[i] = selection.Entry{Name: n, Index: selection.NoIndex}
	}
	return tmpl
}

func TestExtractLeafNormalization(t *testing.T) {
	reg := testRegistry(t)
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	record := map[string]any{
		"created_at": ts,
		"due_on":     ts,
		"title":      CIString{Value: "Hello"},
		"id":         Atom("t-1"),
	}
	got := Extract(reg, record, schema.ResourceRef("ticket"), entries("id", "title", "created_at", "due_on"))
	want := map[string]any{
		"id":         "t-1",
		"title":      "Hello",
		"created_at": "2026-03-14T09:26:53Z",
		"due_on":     "2026-03-14",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestExtractBigNumbers(t *testing.T) {
	reg := testRegistry(t)
	d := schema.ResourceRef("ticket")

	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"big int", big.NewInt(12345678901234567), "12345678901234567"},
		{"big float", big.NewFloat(2.5), "2.5"},
		{"big rat", big.NewRat(1, 3), "0.3333333333"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Extract(reg, map[string]any{"title": tc.value}, d, entries("title"))
			require.Equal(t, map[string]any{"title": tc.want}, got)
		})
	}
}

func TestExtractKeepsOnlyTemplateFields(t *testing.T) {
	reg := testRegistry(t)
	record := map[string]any{
		"id":     "t-1",
		"title":  "Hello",
		"secret": "nope",
	}
	got := Extract(reg, record, schema.ResourceRef("ticket"), entries("id", "title"))
	require.Equal(t, map[string]any{"id": "t-1", "title": "Hello"}, got)
}

func TestExtractMarkers(t *testing.T) {
	reg := testRegistry(t)
	d := schema.ResourceRef("ticket")

	t.Run("forbidden field keeps its key as nil", func(t *testing.T) {
		got := Extract(reg, map[string]any{"id": "t-1", "title": Forbidden}, d, entries("id", "title"))
		want := map[string]any{"id": "t-1", "title": nil}
		require.Equal(t, want, got)
	})

	t.Run("not-loaded field drops its key", func(t *testing.T) {
		got := Extract(reg, map[string]any{"id": "t-1", "title": NotLoaded}, d, entries("id", "title"))
		require.Equal(t, map[string]any{"id": "t-1"}, got)
	})

	t.Run("top-level markers extract to nil", func(t *testing.T) {
		require.Nil(t, Extract(reg, Forbidden, d, entries("id")))
		require.Nil(t, Extract(reg, NotLoaded, d, entries("id")))
		require.Nil(t, Extract(reg, nil, d, entries("id")))
	})
}

func TestExtractArrayDropsMarkedElements(t *testing.T) {
	reg := testRegistry(t)
	tmpl := selection.Template{{
		Name: "comments", Index: selection.NoIndex,
		Children: entries("id", "body"),
	}}
	record := map[string]any{
		"comments": []any{
			map[string]any{"id": "c-1", "body": "first"},
			Forbidden,
			NotLoaded,
			map[string]any{"id": "c-2", "body": "second"},
		},
	}
	got := Extract(reg, record, schema.ResourceRef("ticket"), tmpl)
	want := map[string]any{
		"comments": []any{
			map[string]any{"id": "c-1", "body": "first"},
			map[string]any{"id": "c-2", "body": "second"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestExtractBoundStruct(t *testing.T) {
	reg := testRegistry(t)
	tmpl := selection.Template{{
		Name: "price", Index: selection.NoIndex,
		Children: entries("amount", "currency"),
	}}
	record := map[string]any{
		"price": map[string]any{"amount": big.NewRat(199, 100), "currency": "USD", "internal_flag": true},
	}
	got := Extract(reg, record, schema.ResourceRef("ticket"), tmpl)
	want := map[string]any{
		"price": map[string]any{"amount": "1.9900000000", "currency": "USD"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

// Field markers inside a container follow the same rules as resource
// records: forbidden keeps the key as nil, not-loaded drops it.
func TestExtractBoundStructMarkers(t *testing.T) {
	reg := testRegistry(t)
	tmpl := selection.Template{{
		Name: "price", Index: selection.NoIndex,
		Children: entries("amount", "currency"),
	}}

	t.Run("not-loaded field drops its key", func(t *testing.T) {
		record := map[string]any{
			"price": map[string]any{"amount": NotLoaded, "currency": "USD"},
		}
		got := Extract(reg, record, schema.ResourceRef("ticket"), tmpl)
		want := map[string]any{
			"price": map[string]any{"currency": "USD"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
	})

	t.Run("forbidden field keeps its key as nil", func(t *testing.T) {
		record := map[string]any{
			"price": map[string]any{"amount": Forbidden, "currency": "USD"},
		}
		got := Extract(reg, record, schema.ResourceRef("ticket"), tmpl)
		want := map[string]any{
			"price": map[string]any{"amount": nil, "currency": "USD"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
	})
}

func TestExtractTuplePositional(t *testing.T) {
	reg := testRegistry(t)
	tmpl := selection.Template{{
		Name: "pair", Index: selection.NoIndex,
		Children: selection.Template{{Name: "second", Index: 1}},
	}}
	record := map[string]any{"pair": []any{"alpha", 42}}
	got := Extract(reg, record, schema.ResourceRef("ticket"), tmpl)
	want := map[string]any{"pair": map[string]any{"second": 42}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestExtractUnionMapWithTag(t *testing.T) {
	reg := testRegistry(t)
	tmpl := selection.Template{{
		Name: "attachment", Index: selection.NoIndex,
		Children: selection.Template{{
			Name: "note", Index: selection.NoIndex,
			Children: entries("text"),
		}},
	}}

	t.Run("active member was selected", func(t *testing.T) {
		record := map[string]any{
			"attachment": map[string]any{"type": "note", "text": "remember"},
		}
		got := Extract(reg, record, schema.ResourceRef("ticket"), tmpl)
		want := map[string]any{
			"attachment": map[string]any{"note": map[string]any{"text": "remember"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
	})

	t.Run("active member was not selected", func(t *testing.T) {
		record := map[string]any{
			"attachment": map[string]any{"type": "url", "href": "https://example.com"},
		}
		got := Extract(reg, record, schema.ResourceRef("ticket"), tmpl)
		want := map[string]any{"attachment": map[string]any{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
	})
}

func TestExtractUnionTypeAndValue(t *testing.T) {
	reg := testRegistry(t)
	d := schema.Union(schema.StorageTypeAndValue,
		schema.Member{Tag: "note", Type: schema.String()},
		schema.Member{Tag: "count", Type: schema.Integer()},
	)
	got := Extract(reg, map[string]any{"type": "note", "value": "hi"}, d, nil)
	require.Equal(t, map[string]any{"note": "hi"}, got)
}

func TestExtractOffsetPage(t *testing.T) {
	reg := testRegistry(t)
	page := &OffsetPage{
		Results: []any{
			map[string]any{"id": "t-1", "title": "one"},
			Forbidden,
			map[string]any{"id": "t-2", "title": "two"},
		},
		Limit:   10,
		Offset:  20,
		Count:   2,
		HasMore: true,
	}
	got := Extract(reg, page, schema.ResourceRef("ticket"), entries("id", "title"))
	want := map[string]any{
		"results": []any{
			map[string]any{"id": "t-1", "title": "one"},
			map[string]any{"id": "t-2", "title": "two"},
		},
		"limit":    10,
		"offset":   20,
		"count":    2,
		"has_more": true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestExtractCursorPage(t *testing.T) {
	reg := testRegistry(t)
	page := CursorPage{
		Results:      []any{map[string]any{"id": "t-1"}},
		BeforeCursor: "b1",
		AfterCursor:  "a1",
		Limit:        5,
		Count:        1,
		HasMore:      false,
	}
	got := Extract(reg, page, schema.ResourceRef("ticket"), entries("id"))
	want := map[string]any{
		"results":       []any{map[string]any{"id": "t-1"}},
		"before_cursor": "b1",
		"after_cursor":  "a1",
		"limit":         5,
		"count":         1,
		"has_more":      false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestNormalizeAnyStructs(t *testing.T) {
	type author struct {
		DisplayName string
		SignupCount int
		secret      string
	}
	got := normalizeAny(author{DisplayName: "Kim", SignupCount: 3, secret: "x"})
	want := map[string]any{"display_name": "Kim", "signup_count": 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestNormalizeAnyNested(t *testing.T) {
	got := normalizeAny(map[string]any{
		"tags": []any{Atom("open"), Atom("urgent")},
		"meta": map[string]any{"ci": CIString{Value: "MiXeD"}},
	})
	want := map[string]any{
		"tags": []any{"open", "urgent"},
		"meta": map[string]any{"ci": "MiXeD"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
