package chassis

import (
	"context"
	"sync"
)

// Operation is the concrete request/response contract (C6): one named
// operation with at most one registered handler, invoked through a
// Future so the caller never blocks the calling goroutine against the
// handler's own execution. It combines OperationProvider and
// OperationConsumer the same way Channel combines Provider and Consumer.
type Operation[In, Out any] struct {
	name    string
	mu      sync.Mutex
	handler OperationHandler[In, Out]
}

var (
	_ OperationProvider[int, int] = (*Operation[int, int])(nil)
	_ OperationConsumer[int, int] = (*Operation[int, int])(nil)
)

// NewOperation creates a named Operation with no handler registered.
func NewOperation[In, Out any](name string) *Operation[In, Out] {
	return &Operation[In, Out]{name: name}
}

// Name returns the operation's name.
func (o *Operation[In, Out]) Name() string { return o.name }

// RegisterOperationHandler sets the single handler that answers Invoke
// calls. Registering a second handler without unregistering the first
// returns ErrOperationHandlerSet.
func (o *Operation[In, Out]) RegisterOperationHandler(handler OperationHandler[In, Out]) error {
	if handler == nil {
		return ErrDataElementHandlerNil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.handler != nil {
		return ErrOperationHandlerSet
	}
	o.handler = handler
	return nil
}

// UnregisterOperationHandler clears the current handler, if any, so a
// different one may be registered in its place.
func (o *Operation[In, Out]) UnregisterOperationHandler() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handler = nil
}

// Invoke runs the registered handler against in and returns a Future for
// its Result. If no handler is registered the future resolves immediately
// with ErrOperationHandlerUnset. The handler always runs on its own
// goroutine, even when it would finish fast enough to answer inline — this
// is Channel and Operation's decomposition of what the combined
// channel-module construct describes as a single call/response pair; a
// caller that wants an already-resolved Future can poll TryGet right after
// Invoke.
func (o *Operation[In, Out]) Invoke(ctx context.Context, in In) *Future[Out] {
	o.mu.Lock()
	handler := o.handler
	o.mu.Unlock()

	p := NewPromise[Out]()
	if handler == nil {
		var zero Out
		p.Set(FromError(zero, ErrOperationHandlerUnset))
		return p.Future()
	}

	go func() {
		p.Set(handler(ctx, in))
	}()
	return p.Future()
}
