package chassis

import "go.uber.org/multierr"

// RegisterService publishes svc under name so other modules can look it up
// by type with GetService during their own Init. This is the narrow,
// generic replacement for a reflection-based service registry: callers
// name what they want and get a compile-time-checked type back instead of
// an any that needs an assertion at every call site.
func RegisterService[T any](c *Controller, name string, svc T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.services[name]; exists {
		return ErrServiceAlreadyRegistered
	}
	c.services[name] = svc
	return nil
}

// GetService looks up a service registered under name and type-asserts it
// to T. ok is false if nothing is registered under that name or if it was
// registered as a different type.
func GetService[T any](c *Controller, name string) (T, bool) {
	c.mu.Lock()
	v, exists := c.services[name]
	c.mu.Unlock()
	if !exists {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// joinErrors aggregates shutdown errors across modules with multierr
// instead of a last-error-wins assignment, so Shutdown's caller can see
// every module that failed to stop, not just the last one.
func joinErrors(existing, next error) error {
	if next == nil {
		return existing
	}
	return multierr.Append(existing, next)
}
