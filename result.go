package chassis

import "fmt"

// ErrorKind classifies the outcome carried by an Error or a Result. It
// deliberately has only three members: an operation either completed
// cleanly, completed with a known failure, or its outcome could not be
// determined (e.g. a downstream call timed out before reporting).
type ErrorKind int

const (
	ErrKindOK ErrorKind = iota
	ErrKindNotOK
	ErrKindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindOK:
		return "ok"
	case ErrKindNotOK:
		return "notOk"
	case ErrKindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Error is the coarse error value passed across module boundaries. It is a
// value type, not a Go error interface, so it can be embedded in a Result
// and compared/logged without an allocation.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Result is the return value of any provider/consumer or task operation
// that can fail. It carries either a value or an Error, never both.
type Result[T any] struct {
	value T
	err   *Error
	ok    bool
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// NotOk wraps a known failure.
func NotOk[T any](message string) Result[T] {
	return Result[T]{err: &Error{Kind: ErrKindNotOK, Message: message}}
}

// UnknownResult wraps an indeterminate outcome.
func UnknownResult[T any](message string) Result[T] {
	return Result[T]{err: &Error{Kind: ErrKindUnknown, Message: message}}
}

// FromError converts a Go error into a NotOk Result, or Ok(v) if err is nil.
func FromError[T any](v T, err error) Result[T] {
	if err == nil {
		return Ok(v)
	}
	return NotOk[T](err.Error())
}

// IsOK reports whether the result carries a value.
func (r Result[T]) IsOK() bool { return r.ok }

// Err returns the carried Error and true, or the zero Error and false if
// the result is Ok.
func (r Result[T]) Err() (Error, bool) {
	if r.err == nil {
		return Error{}, false
	}
	return *r.err, true
}

// Value returns the carried value and a non-nil error if the result is not
// Ok — the idiomatic two-return form for callers that just want to bubble
// the failure up as a plain Go error.
func (r Result[T]) Value() (T, error) {
	if r.err != nil {
		return r.value, *r.err
	}
	return r.value, nil
}

// MustValue returns the carried value and panics if the result is not Ok.
// Reserved for call sites that have already checked IsOK, e.g. after a
// Future.Get that returned a nil error.
func (r Result[T]) MustValue() T {
	if r.err != nil {
		panic(*r.err)
	}
	return r.value
}
