// Package engine composes the four core components into the per-request
// pipeline: validate and plan the selection, hand the plan to the data
// source, extract each raw record through the template, then rename keys
// into the client convention.
package engine

import (
	"context"
	"time"

	"github.com/hanpama/fieldplan/internal/eventbus"
	"github.com/hanpama/fieldplan/internal/events"
	"github.com/hanpama/fieldplan/internal/extract"
	"github.com/hanpama/fieldplan/internal/fielderr"
	"github.com/hanpama/fieldplan/internal/format"
	"github.com/hanpama/fieldplan/internal/reqid"
	"github.com/hanpama/fieldplan/internal/schema"
	"github.com/hanpama/fieldplan/internal/selection"
	"github.com/hanpama/fieldplan/internal/selector"
)

// Source executes an execution plan against the backing store and returns
// raw records. Implementations fetch Direct fields with the primary query
// and resolve Lazy fields however the store requires; the engine never
// touches storage itself.
type Source interface {
	Fetch(ctx context.Context, resource string, plan *selector.Plan) ([]any, error)
}

// Pipeline is safe for concurrent use: the schema provider is read-only and
// every request gets its own plan, template and recursion state.
type Pipeline struct {
	provider schema.Provider
	source   Source
}

// New creates a pipeline over the given schema and data source.
func New(provider schema.Provider, source Source) *Pipeline {
	return &Pipeline{provider: provider, source: source}
}

// Response is one processed request.
type Response struct {
	Plan    *selector.Plan
	Records []any
}

// Run processes one request: rawSelection is a JSON-like selection tree in
// either naming convention.
func (p *Pipeline) Run(ctx context.Context, resource string, rawSelection any) (*Response, error) {
	req, err := selection.Decode(rawSelection)
	if err != nil {
		return nil, err
	}
	return p.RunRequest(ctx, resource, req)
}

// RunRequest processes one already-decoded request.
func (p *Pipeline) RunRequest(ctx context.Context, resource string, req selection.Request) (resp *Response, err error) {
	ctx, _ = reqid.NewContext(ctx)
	started := time.Now()
	eventbus.Publish(ctx, events.PipelineStart{Resource: resource})
	defer func() {
		records := 0
		if resp != nil {
			records = len(resp.Records)
		}
		eventbus.Publish(ctx, events.PipelineFinish{
			Resource: resource,
			Records:  records,
			Err:      err,
			Duration: time.Since(started),
		})
	}()

	plan, err := p.Plan(ctx, resource, req)
	if err != nil {
		return nil, err
	}

	raw, err := p.source.Fetch(ctx, resource, plan)
	if err != nil {
		return nil, err
	}

	records, err := p.Render(ctx, resource, plan, raw)
	if err != nil {
		return nil, err
	}
	return &Response{Plan: plan, Records: records}, nil
}

// Plan validates req against the resource and returns its execution plan.
func (p *Pipeline) Plan(ctx context.Context, resource string, req selection.Request) (*selector.Plan, error) {
	started := time.Now()
	eventbus.Publish(ctx, events.PlanStart{Resource: resource})
	plan, ferr := selector.Select(p.provider, schema.ResourceRef(resource), req, fielderr.Path{resource})
	finish := events.PlanFinish{Resource: resource, Duration: time.Since(started)}
	if ferr != nil {
		finish.Err = ferr
		eventbus.Publish(ctx, finish)
		return nil, ferr
	}
	finish.DirectCount = len(plan.Direct)
	finish.LazyCount = len(plan.Lazy)
	eventbus.Publish(ctx, finish)
	return plan, nil
}

// Render extracts each raw record through the plan's template and renames
// the result into the external convention.
func (p *Pipeline) Render(ctx context.Context, resource string, plan *selector.Plan, raw []any) ([]any, error) {
	started := time.Now()
	eventbus.Publish(ctx, events.ExtractStart{Resource: resource, Records: len(raw)})
	defer func() {
		eventbus.Publish(ctx, events.ExtractFinish{
			Resource: resource,
			Records:  len(raw),
			Duration: time.Since(started),
		})
	}()

	d := schema.ResourceRef(resource)
	out := make([]any, 0, len(raw))
	for _, record := range raw {
		extracted := extract.Extract(p.provider, record, d, plan.Template)
		rendered, ferr := format.Format(p.provider, extracted, d, format.Outbound)
		if ferr != nil {
			return nil, ferr
		}
		out = append(out, rendered)
	}
	return out, nil
}

// FormatInput renames inbound request/argument data for the resource from
// the external convention to internal identifiers.
func (p *Pipeline) FormatInput(resource string, value any) (any, error) {
	v, ferr := format.Format(p.provider, value, schema.ResourceRef(resource), format.Inbound)
	if ferr != nil {
		return nil, ferr
	}
	return v, nil
}
