// Package pipeline composes middleware around a terminal handler and
// provides the stateful middleware family of the routing engine.
//
// A middleware wraps the downstream handler: it may mutate the message,
// short-circuit by returning without calling next, or observe the result on
// the way back up. For middleware [M1, M2, M3] and terminal H, the effective
// call order is:
//
//	M1.pre -> M2.pre -> M3.pre -> H -> M3.post -> M2.post -> M1.post
//
// An error returned from downstream propagates as-is; an outer middleware's
// post section does not run after an error unless it uses defer. The cancel
// signal (context) is passed through unchanged and never translated into a
// failed Result.
package pipeline

import (
	"context"
	"sync"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// Handler is the downstream callable shape: terminal handlers and the
// composed pipeline itself both have it.
type Handler func(ctx context.Context, msg *message.Message) (*message.Result, error)

// Middleware wraps a Handler. Implementations call next zero or one times.
type Middleware interface {
	Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error)
}

// MiddlewareFunc adapts a function to the Middleware interface.
type MiddlewareFunc func(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error)

// Process implements the Middleware interface.
func (f MiddlewareFunc) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	return f(ctx, msg, next)
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline holds an ordered middleware list and composes handlers from it.
//
// Registration order is preserved: the first registered middleware is the
// outermost. Build may be called many times from the same list and yields
// identical behavior; a built handler is reusable across concurrent
// invocations as long as the terminal and the middleware are themselves safe.
type Pipeline struct {
	middleware []Middleware
	mu         sync.RWMutex
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Use appends a middleware. Middleware runs in registration order,
// outermost first.
func (p *Pipeline) Use(mw Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, mw)
}

// Len returns the number of registered middleware.
func (p *Pipeline) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.middleware)
}

// Build composes the registered middleware around the terminal handler.
// The middleware list is snapshotted under lock, so later Use calls do not
// affect already-built handlers.
func (p *Pipeline) Build(terminal Handler) Handler {
	p.mu.RLock()
	snapshot := make([]Middleware, len(p.middleware))
	copy(snapshot, p.middleware)
	p.mu.RUnlock()

	h := terminal
	for i := len(snapshot) - 1; i >= 0; i-- {
		mw := snapshot[i]
		next := h
		h = func(ctx context.Context, msg *message.Message) (*message.Result, error) {
			return mw.Process(ctx, msg, next)
		}
	}
	return h
}
