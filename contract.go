package chassis

import "context"

// Provider is the write side of the in-process communication fabric for a
// single data element of type T. Allocate/SetAllocated is the two-step form
// used when the caller wants to build the value in place before publishing
// it; Set is the convenience one-step form for values that are cheap to
// copy.
type Provider[T any] interface {
	// Allocate returns a fresh Owned handle the caller can populate before
	// publishing it with SetAllocated.
	Allocate() Owned[T]
	// SetAllocated publishes an already-populated handle, taking ownership
	// of it. The caller must not use h after this call.
	SetAllocated(h Owned[T]) error
	// Set publishes v directly.
	Set(v T) error
}

// DataElementHandler is invoked once per published sample, for every
// module currently registered as an active consumer.
type DataElementHandler[T any] func(sample Shared[T])

// Consumer is the read side of the fabric for a single data element.
type Consumer[T any] interface {
	// GetAllocated returns the most recently published sample without
	// copying it.
	GetAllocated() (Shared[T], error)
	// Get copies out the most recently published value.
	Get() (T, error)
	// RegisterDataElementHandler subscribes handler to every future
	// publication made while owner's module is active. It returns an
	// unsubscribe function.
	RegisterDataElementHandler(owner string, handler DataElementHandler[T]) (unsubscribe func(), err error)
}

// OperationHandler implements one side of a request/response operation.
// It returns a Result rather than a bare error so the caller can
// distinguish a known failure from an indeterminate one.
type OperationHandler[In, Out any] func(ctx context.Context, in In) Result[Out]

// OperationProvider is the side of an RPC-like contract that answers
// requests.
type OperationProvider[In, Out any] interface {
	RegisterOperationHandler(handler OperationHandler[In, Out]) error
}

// OperationConsumer is the side of an RPC-like contract that issues
// requests. Invoke returns immediately with a Future; the caller decides
// whether to poll or block on it.
type OperationConsumer[In, Out any] interface {
	Invoke(ctx context.Context, in In) *Future[Out]
}
