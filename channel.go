package chassis

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ChannelOption configures a Channel at construction time.
type ChannelOption[T any] func(*Channel[T])

// WithHistory makes the channel retain the last n published samples,
// queryable through History. Without this option only the latest sample is
// kept, matching the plain Provider/Consumer contract.
func WithHistory[T any](n int) ChannelOption[T] {
	return func(c *Channel[T]) {
		cache, err := lru.New[uint64, Shared[T]](n)
		if err == nil {
			c.history = cache
		}
	}
}

// WithChannelLogger sets the Channel's logger. Channel stores it but does
// not log handler invocations or their failures through it.
func WithChannelLogger[T any](l Logger) ChannelOption[T] {
	return func(c *Channel[T]) { c.logger = l }
}

// EventHandlerActivator is implemented by Channel (and any other Provider
// that gates fan-out by owner-module activation state). A ModuleExecutor
// holds the activators a module has registered against, so the Controller
// can call StartEventHandlerForModule/StopEventHandlerForModule on them
// automatically as that module becomes operational or shuts down.
type EventHandlerActivator interface {
	StartEventHandlerForModule(module string)
	StopEventHandlerForModule(module string)
}

type subscription[T any] struct {
	id      string
	owner   string
	handler DataElementHandler[T]
}

// Channel is the in-process communication module (C7): a single named data
// element that combines the Provider and Consumer sides of the contract,
// plus subscriber gating by owner-module activation state. Every read of
// the current sample and every mutation of the subscriber list goes
// through mu, so Channel is safe to use from the scheduler's tick thread
// and from module goroutines concurrently.
type Channel[T any] struct {
	mu      sync.RWMutex
	name    string
	current Shared[T]
	subs    []*subscription[T]
	active  map[string]bool
	history *lru.Cache[uint64, Shared[T]]
	seq     uint64
	nextSub uint64
	logger  Logger
}

var _ Provider[int] = (*Channel[int])(nil)
var _ Consumer[int] = (*Channel[int])(nil)
var _ EventHandlerActivator = (*Channel[int])(nil)

// NewChannel creates a named, empty Channel.
func NewChannel[T any](name string, opts ...ChannelOption[T]) *Channel[T] {
	c := &Channel[T]{
		name:   name,
		active: make(map[string]bool),
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the channel's data-element name.
func (c *Channel[T]) Name() string { return c.name }

// StartEventHandlerForModule activates fan-out to every subscriber owned by
// module. Until this is called, handlers registered by that module are
// held but never invoked — this is what keeps a not-yet-operational module
// from seeing samples before it is ready for them.
func (c *Channel[T]) StartEventHandlerForModule(module string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active[module] = true
}

// StopEventHandlerForModule deactivates fan-out to module's subscribers
// without unregistering them, so a module can be paused and later resumed
// without re-subscribing.
func (c *Channel[T]) StopEventHandlerForModule(module string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active[module] = false
}

// Allocate returns a fresh, unpublished handle.
func (c *Channel[T]) Allocate() Owned[T] {
	var zero T
	return NewOwned(zero)
}

// SetAllocated publishes h as the new current sample and fans it out to
// every active subscriber.
func (c *Channel[T]) SetAllocated(h Owned[T]) error {
	shared := h.Share()
	c.publish(shared)
	return nil
}

// Set publishes v directly.
func (c *Channel[T]) Set(v T) error {
	c.publish(NewShared(v))
	return nil
}

func (c *Channel[T]) publish(sample Shared[T]) {
	c.mu.Lock()
	c.current = sample
	c.seq++
	seq := c.seq
	if c.history != nil {
		c.history.Add(seq, sample)
	}
	// Snapshot the subscriber list — and which owners are currently
	// active — before invoking any handler, so a handler that
	// subscribes/unsubscribes re-entrantly only takes effect on the next
	// publish, never on this one.
	snap := make([]*subscription[T], 0, len(c.subs))
	for _, sub := range c.subs {
		if c.active[sub.owner] {
			snap = append(snap, sub)
		}
	}
	c.mu.Unlock()

	for _, sub := range snap {
		sub.handler(sample)
	}
}

// GetAllocated returns the current sample without copying it.
func (c *Channel[T]) GetAllocated() (Shared[T], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current.IsEmpty() {
		return Shared[T]{}, ErrNoDataAvailable
	}
	return c.current, nil
}

// Get copies out the current value, or the zero value if nothing has been
// published yet. Unlike GetAllocated, Get never reports "no data" as an
// error — a consumer that only ever wants a value, never the not-ok
// signal, gets a default-constructed one instead.
func (c *Channel[T]) Get() (T, error) {
	s, err := c.GetAllocated()
	if err != nil {
		var zero T
		if errors.Is(err, ErrNoDataAvailable) {
			return zero, nil
		}
		return zero, err
	}
	return s.Value(), nil
}

// RegisterDataElementHandler subscribes handler on behalf of owner. The
// subscription is inert while owner is not active: if
// StartEventHandlerForModule(owner) has already been called, it receives
// the next publish; otherwise it waits for that call.
func (c *Channel[T]) RegisterDataElementHandler(owner string, handler DataElementHandler[T]) (func(), error) {
	if handler == nil {
		return nil, ErrDataElementHandlerNil
	}
	c.mu.Lock()
	id := atomic.AddUint64(&c.nextSub, 1)
	sub := &subscription[T]{id: strconv.FormatUint(id, 10), owner: owner, handler: handler}
	c.subs = append(c.subs, sub)
	if _, ok := c.active[owner]; !ok {
		c.active[owner] = false
	}
	c.mu.Unlock()

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == sub.id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				break
			}
		}
	}
	return unsubscribe, nil
}

// History returns the retained samples, oldest first, if WithHistory was
// used; otherwise it returns nil.
func (c *Channel[T]) History() []Shared[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.history == nil {
		return nil
	}
	keys := c.history.Keys()
	out := make([]Shared[T], 0, len(keys))
	for _, k := range keys {
		if v, ok := c.history.Peek(k); ok {
			out = append(out, v)
		}
	}
	return out
}
