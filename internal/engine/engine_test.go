package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/fieldplan/internal/extract"
	"github.com/hanpama/fieldplan/internal/fielderr"
	"github.com/hanpama/fieldplan/internal/schema"
	"github.com/hanpama/fieldplan/internal/selector"
)

type fakeSource struct {
	lastResource string
	lastPlan     *selector.Plan
	records      []any
	err          error
}

func (s *fakeSource) Fetch(ctx context.Context, resource string, plan *selector.Plan) ([]any, error) {
	s.lastResource = resource
	s.lastPlan = plan
	return s.records, s.err
}

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	comment := schema.NewResource("comment", "").
		AddField(&schema.Field{Name: "id", Kind: schema.KindAttribute, Type: schema.UUID()}).
		AddField(&schema.Field{Name: "author_name", Kind: schema.KindAttribute, Type: schema.String()}).
		SetOverrides(map[string]string{"author_name": "writer"})

	ticket := schema.NewResource("ticket", "").
		AddField(&schema.Field{Name: "id", Kind: schema.KindAttribute, Type: schema.UUID()}).
		AddField(&schema.Field{Name: "title", Kind: schema.KindAttribute, Type: schema.String()}).
		AddField(&schema.Field{Name: "created_at", Kind: schema.KindAttribute, Type: schema.Datetime()}).
		AddField(&schema.Field{Name: "comments", Kind: schema.KindRelation, Type: schema.Array(schema.ResourceRef("comment"))}).
		SetOverrides(map[string]string{"title": "subjectLine"})

	reg := schema.NewRegistry().AddResource(comment).AddResource(ticket)
	require.NoError(t, reg.Validate())
	return reg
}

func TestPipelineRun(t *testing.T) {
	reg := testRegistry(t)
	src := &fakeSource{records: []any{
		map[string]any{
			"id":     "t-1",
			"title":  "Hello",
			"secret": "dropped",
			"comments": []any{
				map[string]any{"id": "c-1", "author_name": "Kim"},
			},
		},
		map[string]any{
			"id":    "t-2",
			"title": extract.Forbidden,
		},
	}}
	p := New(reg, src)

	resp, err := p.Run(context.Background(), "ticket", []any{
		"id",
		"subjectLine",
		map[string]any{"comments": []any{"id", "writer"}},
	})
	require.NoError(t, err)

	require.Equal(t, "ticket", src.lastResource)
	require.Equal(t, []string{"id", "title"}, src.lastPlan.Direct)
	require.Len(t, src.lastPlan.Lazy, 1)
	require.Equal(t, "comments", src.lastPlan.Lazy[0].Name)

	want := []any{
		map[string]any{
			"id":          "t-1",
			"subjectLine": "Hello",
			"comments": []any{
				map[string]any{"id": "c-1", "writer": "Kim"},
			},
		},
		map[string]any{
			"id":          "t-2",
			"subjectLine": nil,
		},
	}
	if diff := cmp.Diff(want, resp.Records); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestPipelineValidationStopsBeforeFetch(t *testing.T) {
	reg := testRegistry(t)
	src := &fakeSource{}
	p := New(reg, src)

	_, err := p.Run(context.Background(), "ticket", []any{"bogus"})
	require.Error(t, err)
	var ferr *fielderr.Error
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, fielderr.TypeUnknownField, ferr.Type)
	require.Empty(t, src.lastResource, "source must not be consulted for invalid requests")
}

func TestPipelineSourceError(t *testing.T) {
	reg := testRegistry(t)
	boom := errors.New("connection refused")
	p := New(reg, &fakeSource{err: boom})

	_, err := p.Run(context.Background(), "ticket", "id")
	require.ErrorIs(t, err, boom)
}

func TestPipelineFormatInput(t *testing.T) {
	reg := testRegistry(t)
	p := New(reg, &fakeSource{})

	got, err := p.FormatInput("ticket", map[string]any{
		"subjectLine": "Hello",
		"createdAt":   "2026-03-14T09:26:53Z",
	})
	require.NoError(t, err)
	want := map[string]any{
		"title":      "Hello",
		"created_at": "2026-03-14T09:26:53Z",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
