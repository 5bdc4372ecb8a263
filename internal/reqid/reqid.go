// Package reqid tags request contexts with an opaque id so that lifecycle
// events emitted at different pipeline stages can be correlated.
package reqid

import (
	"context"
	"math/rand/v2"
	"strconv"
)

type key struct{}

// NewContext returns a copy of parent carrying a fresh request id, plus the
// id itself.
func NewContext(parent context.Context) (context.Context, string) {
	id := strconv.FormatUint(rand.Uint64(), 16)
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the request id from ctx.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}
