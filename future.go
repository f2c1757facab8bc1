package chassis

import (
	"context"
	"sync"
)

// Void is the type used to specialize Future/Promise for operations that
// only signal completion and carry no payload.
type Void = struct{}

// Promise is the single-assignment write side of a Future. Set may be
// called exactly once; a second call panics, matching the "fatal error on
// double-assignment" rule used throughout this package for programmer
// errors rather than runtime-data errors.
type Promise[T any] struct {
	mu     sync.Mutex
	done   chan struct{}
	result Result[T]
	isSet  bool
}

// NewPromise creates an unset Promise/Future pair.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Set assigns the promise's result and wakes any waiters. Panics if called
// more than once.
func (p *Promise[T]) Set(r Result[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isSet {
		panic(ErrPromiseAlreadySet)
	}
	p.result = r
	p.isSet = true
	close(p.done)
}

// SetValue is a convenience wrapper over Set(Ok(v)).
func (p *Promise[T]) SetValue(v T) { p.Set(Ok(v)) }

// SetError is a convenience wrapper over Set(NotOk(message)).
func (p *Promise[T]) SetError(message string) { p.Set(NotOk[T](message)) }

// Cancel resolves the promise with ErrFutureCanceled, waking any waiters
// without requiring the caller to have a value or failure message on hand.
// Like Set, it may only be called once.
func (p *Promise[T]) Cancel() {
	var zero T
	p.Set(FromError(zero, ErrFutureCanceled))
}

// Future returns the read side of the promise. Safe to call any number of
// times and to share across goroutines; only Set is single-assignment.
func (p *Promise[T]) Future() *Future[T] { return &Future[T]{p: p} }

// Future is the read side of a Promise. A zero-value Future is not usable;
// obtain one from Promise.Future.
type Future[T any] struct {
	p *Promise[T]
}

// Done returns a channel that is closed once the future's value is set.
func (f *Future[T]) Done() <-chan struct{} { return f.p.done }

// TryGet polls for a value without blocking.
func (f *Future[T]) TryGet() (Result[T], bool) {
	select {
	case <-f.p.done:
		f.p.mu.Lock()
		defer f.p.mu.Unlock()
		return f.p.result, true
	default:
		return Result[T]{}, false
	}
}

// Get blocks until the value is set or ctx is done, whichever comes first.
func (f *Future[T]) Get(ctx context.Context) (Result[T], error) {
	select {
	case <-f.p.done:
		f.p.mu.Lock()
		defer f.p.mu.Unlock()
		return f.p.result, nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}

// MustGet blocks until the value is set, then panics if ctx ended first or
// the resolved Result is not ok. It is the abort-on-failure counterpart to
// the safe Get/TryGet pair, for a caller that has no recovery path of its
// own for a failed or canceled future.
func (f *Future[T]) MustGet(ctx context.Context) T {
	r, err := f.Get(ctx)
	if err != nil {
		panic(err)
	}
	return r.MustValue()
}
