// Package eventbus is a small in-process dispatcher for pipeline lifecycle
// events. Observability layers subscribe; the engine publishes. When nothing
// subscribes, publishing is a cheap no-op.
package eventbus

import (
	"context"
	"reflect"
	"sync"
)

// Handler processes events of type T.
type Handler[T any] func(context.Context, T)

// Bus routes events to handlers registered for their dynamic type.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]func(context.Context, any)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]func(context.Context, any))}
}

func (b *Bus) add(t reflect.Type, h func(context.Context, any)) {
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], h)
	b.mu.Unlock()
}

func (b *Bus) dispatch(ctx context.Context, e any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := b.handlers[reflect.TypeOf(e)]
	b.mu.RUnlock()
	for _, h := range hs {
		h(ctx, e)
	}
}

var (
	globalMu sync.RWMutex
	global   *Bus
)

// Use installs b as the process-wide bus. Passing nil disables publishing.
func Use(b *Bus) {
	globalMu.Lock()
	global = b
	globalMu.Unlock()
}

func current() *Bus {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// Subscribe registers h for events of type T on the process-wide bus.
// Subscribing with no bus installed installs a fresh one.
func Subscribe[T any](h Handler[T]) {
	globalMu.Lock()
	if global == nil {
		global = New()
	}
	b := global
	globalMu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.add(t, func(ctx context.Context, e any) { h(ctx, e.(T)) })
}

// Publish sends e to the process-wide bus.
func Publish[T any](ctx context.Context, e T) {
	current().dispatch(ctx, e)
}
