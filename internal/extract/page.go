package extract

import (
	"github.com/hanpama/fieldplan/internal/schema"
	"github.com/hanpama/fieldplan/internal/selection"
)

// OffsetPage is the offset-style paginated result envelope.
type OffsetPage struct {
	Results []any
	Limit   int
	Offset  int
	Count   int
	HasMore bool
}

// CursorPage is the cursor-style paginated result envelope.
type CursorPage struct {
	Results      []any
	BeforeCursor string
	AfterCursor  string
	Limit        int
	Count        int
	HasMore      bool
}

type pageEnvelope struct {
	results []any
	scalars map[string]any
}

func asPage(value any) (*pageEnvelope, bool) {
	switch v := value.(type) {
	case *OffsetPage:
		if v == nil {
			return nil, false
		}
		return asPage(*v)
	case OffsetPage:
		return &pageEnvelope{
			results: v.Results,
			scalars: map[string]any{
				"limit":    v.Limit,
				"offset":   v.Offset,
				"count":    v.Count,
				"has_more": v.HasMore,
			},
		}, true
	case *CursorPage:
		if v == nil {
			return nil, false
		}
		return asPage(*v)
	case CursorPage:
		return &pageEnvelope{
			results: v.Results,
			scalars: map[string]any{
				"before_cursor": v.BeforeCursor,
				"after_cursor":  v.AfterCursor,
				"limit":         v.Limit,
				"count":         v.Count,
				"has_more":      v.HasMore,
			},
		}, true
	default:
		return nil, false
	}
}

// extractPage applies element-wise extraction to the envelope's results and
// passes its scalar fields through unchanged.
func extractPage(p schema.Provider, page *pageEnvelope, d schema.Descriptor, tmpl selection.Template) map[string]any {
	results := make([]any, 0, len(page.results))
	for _, item := range page.results {
		if item == Forbidden || item == NotLoaded {
			continue
		}
		v, omit := extractValue(p, item, d, tmpl)
		if omit {
			continue
		}
		results = append(results, v)
	}
	out := make(map[string]any, len(page.scalars)+1)
	out["results"] = results
	for k, v := range page.scalars {
		out[k] = v
	}
	return out
}
