package chassis

// Owned is a mutable-owner value handle: at most one Owned[T] may hold a
// live reference to a given value at a time. Move transfers ownership and
// empties the source; dereferencing an emptied handle is a programmer
// error and panics rather than returning a zero value, since silently
// handing back a zero value would hide the bug that caused it.
type Owned[T any] struct {
	v     *T
	moved bool
}

// NewOwned allocates a new owned value.
func NewOwned[T any](v T) Owned[T] {
	return Owned[T]{v: &v}
}

// IsEmpty reports whether this handle has already been moved away or was
// never assigned.
func (o Owned[T]) IsEmpty() bool { return o.v == nil }

// Get returns a pointer to the owned value. Panics with ErrHandleMoved if
// the handle was emptied by Move/Share, or ErrHandleEmpty if it was never
// assigned a value.
func (o Owned[T]) Get() *T {
	if o.v == nil {
		if o.moved {
			panic(ErrHandleMoved)
		}
		panic(ErrHandleEmpty)
	}
	return o.v
}

// Move transfers ownership to a new handle and empties the receiver. Go has
// no compiler-enforced move semantics, so this is enforced at the call site
// by convention: callers must not use o after calling o.Move().
func (o *Owned[T]) Move() Owned[T] {
	if o.v == nil {
		if o.moved {
			panic(ErrHandleMoved)
		}
		panic(ErrHandleEmpty)
	}
	moved := Owned[T]{v: o.v}
	o.v = nil
	o.moved = true
	return moved
}

// Share converts an owned value into a read-only Shared handle and empties
// the receiver — ownership of the underlying value passes to the shared
// domain, where any number of readers may hold a copy of the handle
// concurrently. There is no manual refcount to maintain: Go's garbage
// collector frees the pointee once the last Shared[T] referencing it is
// unreachable.
func (o *Owned[T]) Share() Shared[T] {
	if o.v == nil {
		if o.moved {
			panic(ErrHandleMoved)
		}
		panic(ErrHandleEmpty)
	}
	shared := Shared[T]{v: o.v}
	o.v = nil
	o.moved = true
	return shared
}

// Shared is a read-only value handle. Any number of Shared[T] values may
// reference the same underlying value at once; none of them may mutate it.
type Shared[T any] struct {
	v *T
}

// NewShared wraps v directly as a Shared handle, without going through
// Owned.Share. Used by providers that only ever publish immutable samples.
func NewShared[T any](v T) Shared[T] {
	return Shared[T]{v: &v}
}

// IsEmpty reports whether this handle carries no value.
func (s Shared[T]) IsEmpty() bool { return s.v == nil }

// Get returns a pointer to the shared value. Panics if the handle is empty;
// per the provider/consumer contract, an empty-deref is a fatal abort, not
// a recoverable condition, since it always indicates a consumer read before
// any sample was ever published.
func (s Shared[T]) Get() *T {
	if s.v == nil {
		panic(ErrHandleEmpty)
	}
	return s.v
}

// Value copies out the underlying value. Panics if the handle is empty.
func (s Shared[T]) Value() T { return *s.Get() }
