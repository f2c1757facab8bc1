// Package chassis provides a tick-driven module runtime: modules declare
// dependencies and periodic tasks, a Controller resolves startup/shutdown
// order and drives a cooperative scheduler, and Result/Future/Promise and
// Provider/Consumer contracts give modules a uniform way to exchange data
// without reaching for goroutines and channels directly.
package chassis

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ControllerOption configures a Controller at construction time.
type ControllerOption func(*Controller)

// WithLogger sets the Logger the controller and its scheduler log through.
func WithLogger(l Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = l
		c.scheduler.logger = l
	}
}

// WithHooks registers the embedding application's lifecycle hooks (C10).
func WithHooks(h Hooks) ControllerOption {
	return func(c *Controller) { c.hooks = h }
}

// WithTickPeriod overrides the scheduler's tick period (default 10ms).
func WithTickPeriod(d time.Duration) ControllerOption {
	return func(c *Controller) { c.scheduler.tickPeriod = d }
}

// WithStartingStallTimeout overrides how long the controller waits for a
// Startable module to report operational or error before logging the
// stall, reporting ErrStartingStalled as a critical error (which shuts the
// controller down) and returning it from Start (default 30s).
func WithStartingStallTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) { c.startingStallTimeout = d }
}

// WithShutdownTimeout overrides the deadline Run applies around the whole
// shutdown sequence (default 30s).
func WithShutdownTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) { c.shutdownTimeout = d }
}

// readyGate is fired exactly once, by whichever of Start's goroutine or
// ReportOperational/ReportError gets there first.
type readyGate struct {
	ch   chan struct{}
	once sync.Once
}

func newReadyGate() *readyGate { return &readyGate{ch: make(chan struct{})} }

func (g *readyGate) fire() { g.once.Do(func() { close(g.ch) }) }

// Controller is the executable controller (C9): the module registry,
// lifecycle orchestrator, and process entry point. One Controller owns one
// Scheduler and drives every registered module through
// notInitialized -> notOperational -> starting -> operational -> shutdown.
type Controller struct {
	mu                sync.Mutex
	modules           map[string]Module
	registrationOrder []string
	states            map[string]*stateMachine
	executors         map[string]*ModuleExecutor
	readyGates        map[string]*readyGate
	order             []string

	initialized bool
	started     bool

	scheduler *Scheduler
	events    *eventBus
	logger    Logger
	hooks     Hooks
	services  map[string]any

	startingStallTimeout time.Duration
	shutdownTimeout      time.Duration
}

// NewController creates a Controller with no modules registered yet.
func NewController(opts ...ControllerOption) *Controller {
	events := newEventBus("chassis/controller")
	c := &Controller{
		modules:              make(map[string]Module),
		states:               make(map[string]*stateMachine),
		executors:            make(map[string]*ModuleExecutor),
		readyGates:           make(map[string]*readyGate),
		services:             make(map[string]any),
		scheduler:            NewScheduler(10*time.Millisecond, WithSchedulerObserver(events)),
		events:               events,
		logger:               noopLogger{},
		startingStallTimeout: 30 * time.Second,
		shutdownTimeout:      30 * time.Second,
	}
	c.scheduler.onTaskError = func(owner string, err error) {
		c.ReportError(owner, err, false)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterModule adds m to the controller. Must be called before
// Initialize; registering after Initialize has run returns
// ErrModulesAddedAfterStart since dynamic module addition post-start is
// unsupported.
func (c *Controller) RegisterModule(m Module) error {
	if m == nil {
		return ErrModuleNil
	}
	name := m.Name()
	if name == "" {
		return ErrModuleNameEmpty
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return ErrModulesAddedAfterStart
	}
	if _, exists := c.modules[name]; exists {
		return ErrModuleAlreadyRegistered
	}
	c.modules[name] = m
	c.registrationOrder = append(c.registrationOrder, name)
	c.states[name] = newStateMachine()
	c.scheduler.SetModuleActive(name, false)
	c.events.emit(context.Background(), EventModuleRegistered, name, nil)
	return nil
}

// Executor returns the ModuleExecutor scoped to moduleName, for scheduling
// periodic tasks from within that module's Init.
func (c *Controller) Executor(moduleName string) (*ModuleExecutor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exec, ok := c.executors[moduleName]
	if !ok {
		return nil, ErrModuleNotFound
	}
	return exec, nil
}

// Logger returns the controller's configured Logger.
func (c *Controller) Logger() Logger { return c.logger }

// RegisterObserver and UnregisterObserver implement Subject, exposing the
// controller's lifecycle/diagnostic event stream.
func (c *Controller) RegisterObserver(o Observer) { c.events.RegisterObserver(o) }
func (c *Controller) UnregisterObserver(id string) { c.events.UnregisterObserver(id) }

// Scheduler returns the controller's Scheduler, for read-only diagnostics
// (Scheduler.Tasks) or for supplemental packages like calendar that need
// to coexist with it.
func (c *Controller) Scheduler() *Scheduler { return c.scheduler }

// ModuleNames returns every registered module's name, in registration
// order.
func (c *Controller) ModuleNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.registrationOrder...)
}

// Dependencies returns the declared dependencies of a registered module,
// or nil if it does not implement DependencyAware.
func (c *Controller) Dependencies(name string) []string {
	c.mu.Lock()
	m, ok := c.modules[name]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	if da, ok := m.(DependencyAware); ok {
		return da.Dependencies()
	}
	return nil
}

// ModuleState reports the current lifecycle state of a registered module.
func (c *Controller) ModuleState(name string) (ModuleState, error) {
	c.mu.Lock()
	sm, ok := c.states[name]
	c.mu.Unlock()
	if !ok {
		return StateNotInitialized, ErrModuleNotFound
	}
	return sm.current(), nil
}

// Initialize resolves the module dependency graph and runs each module's
// Init, in dependency order, transitioning every module from
// notInitialized to notOperational.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return nil
	}
	modulesCopy := make(map[string]Module, len(c.modules))
	for k, v := range c.modules {
		modulesCopy[k] = v
	}
	regOrder := append([]string(nil), c.registrationOrder...)
	c.mu.Unlock()

	if err := c.hooks.runPreInitialize(ctx); err != nil {
		return err
	}

	order, err := resolveModuleOrder(modulesCopy, regOrder)
	if err != nil {
		c.ReportError("controller", err, true)
		return err
	}

	for _, name := range order {
		m := c.modules[name]
		var deps []string
		if da, ok := m.(DependencyAware); ok {
			deps = da.Dependencies()
		}
		exec := newModuleExecutor(name, deps, c.scheduler, c.events)

		c.mu.Lock()
		c.executors[name] = exec
		c.mu.Unlock()

		if initable, ok := m.(Initializable); ok {
			if err := initable.Init(c); err != nil {
				return err
			}
		}
		if tp, ok := m.(TaskProvider); ok {
			for _, t := range tp.Tasks() {
				if err := exec.Schedule(t); err != nil {
					return err
				}
			}
		}
		if err := c.states[name].transition(StateNotOperational); err != nil {
			return err
		}
		c.events.emit(ctx, EventModuleInitialized, name, nil)
	}

	c.mu.Lock()
	c.order = order
	c.initialized = true
	c.mu.Unlock()

	return c.hooks.runPostInitialize(ctx)
}

// Start starts the scheduler's tick loop, then drives every module from
// notOperational through starting (if the module is Startable) to
// operational, in dependency order. Each Startable module's Start runs on
// its own goroutine; a nil return is reported as operational and an error
// is passed to ReportError (see Startable). Start waits up to
// startingStallTimeout for one of those reports before going on to the
// next module; a module that stalls past it is logged and reported as a
// critical ErrStartingStalled, which shuts the controller down, and Start
// returns ErrStartingStalled.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return ErrControllerNotInitialized
	}
	if c.started {
		c.mu.Unlock()
		return ErrControllerAlreadyStarted
	}
	c.started = true
	order := append([]string(nil), c.order...)
	c.mu.Unlock()

	if err := c.hooks.runPreStart(ctx); err != nil {
		return err
	}
	c.events.emit(ctx, EventControllerStarting, "controller", nil)

	if err := c.scheduler.Start(ctx); err != nil {
		return err
	}

	for _, name := range order {
		if err := c.startModule(ctx, name); err != nil {
			return err
		}
	}

	c.events.emit(ctx, EventControllerOperational, "controller", nil)
	return c.hooks.runPostStart(ctx)
}

func (c *Controller) startModule(ctx context.Context, name string) error {
	m := c.modules[name]
	sm := c.states[name]

	startable, ok := m.(Startable)
	if !ok {
		if err := sm.transition(StateOperational); err != nil {
			return err
		}
		c.activateModule(name)
		c.events.emit(ctx, EventModuleOperational, name, nil)
		return nil
	}

	if err := sm.transition(StateStarting); err != nil {
		return err
	}
	c.events.emit(ctx, EventModuleStarting, name, nil)

	gate := newReadyGate()
	c.mu.Lock()
	c.readyGates[name] = gate
	c.mu.Unlock()

	go func() {
		if err := startable.Start(ctx); err != nil {
			c.ReportError(name, err, false)
			return
		}
		c.ReportOperational(name)
	}()

	select {
	case <-gate.ch:
		return nil
	case <-time.After(c.startingStallTimeout):
		c.logger.Warn("module did not report operational or error before the starting-stall threshold elapsed", "module", name)
		c.ReportError(name, ErrStartingStalled, true)
		return ErrStartingStalled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// activateModule admits name's tasks to the scheduler and activates every
// channel it registered through its ModuleExecutor, unless the module
// implements StartingSkipper and asked to skip task admission.
func (c *Controller) activateModule(name string) {
	c.mu.Lock()
	m := c.modules[name]
	exec := c.executors[name]
	c.mu.Unlock()

	if skip, ok := m.(StartingSkipper); !ok || !skip.SkipStartingOfModule() {
		c.scheduler.SetModuleActive(name, true)
	}
	if exec != nil {
		for _, ch := range exec.channels {
			ch.StartEventHandlerForModule(name)
		}
	}
}

// deactivateModule withdraws name's tasks from the scheduler and
// deactivates every channel it registered through its ModuleExecutor.
func (c *Controller) deactivateModule(name string) {
	c.mu.Lock()
	exec := c.executors[name]
	c.mu.Unlock()

	c.scheduler.SetModuleActive(name, false)
	if exec != nil {
		for _, ch := range exec.channels {
			ch.StopEventHandlerForModule(name)
		}
	}
}

// ReportOperational is called by a Startable module, on its own goroutine,
// once it is ready to receive ticks. Calling it for a module that is not
// currently in the starting state is a no-op beyond emitting the event.
func (c *Controller) ReportOperational(name string) {
	c.mu.Lock()
	sm := c.states[name]
	gate := c.readyGates[name]
	c.mu.Unlock()
	if sm == nil {
		return
	}
	if sm.current() == StateStarting {
		if err := sm.transition(StateOperational); err == nil {
			c.activateModule(name)
		}
	}
	if gate != nil {
		gate.fire()
	}
	c.events.emit(context.Background(), EventModuleOperational, name, nil)
}

// ReportError is called by a module, or by the controller itself, to
// surface a failure. It calls the module's own ErrorHandler if it
// implements one, runs the embedding application's Hooks.OnError, and
// emits EventModuleError. critical marks a failure the controller cannot
// continue running past — a lifecycle stall or an unresolvable module
// dependency graph — and initiates Shutdown once reported; a non-critical
// error (e.g. a single Startable.Start or task failure) is surfaced but
// never aborts anything on its own.
func (c *Controller) ReportError(name string, err error, critical bool) {
	c.mu.Lock()
	gate := c.readyGates[name]
	m := c.modules[name]
	c.mu.Unlock()

	if eh, ok := m.(ErrorHandler); ok {
		eh.OnError(err)
	}
	c.hooks.reportError(context.Background(), name, err)
	c.events.emit(context.Background(), EventModuleError, name, map[string]any{"error": err.Error(), "critical": critical})
	if gate != nil {
		gate.fire()
	}
	if critical {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
		defer cancel()
		_ = c.Shutdown(shutdownCtx)
	}
}

// Shutdown stops the scheduler and then every module, in the reverse of
// startup order, aggregating any Stop errors with multierr.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	order := append([]string(nil), c.order...)
	c.mu.Unlock()

	if err := c.hooks.runPreShutdown(ctx); err != nil {
		return err
	}
	c.events.emit(ctx, EventControllerShutdown, "controller", nil)

	_ = c.scheduler.Stop(ctx)

	var aggregate error
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		c.deactivateModule(name)
		if exec, ok := c.executors[name]; ok {
			exec.cancelAll()
		}
		if stoppable, ok := c.modules[name].(Stoppable); ok {
			if err := stoppable.Stop(ctx); err != nil {
				aggregate = joinErrors(aggregate, err)
			}
		}
		if deinitable, ok := c.modules[name].(Deinitializable); ok {
			if err := deinitable.DeInit(ctx); err != nil {
				aggregate = joinErrors(aggregate, err)
			}
		}
		_ = c.states[name].transition(StateShutdown)
		c.events.emit(ctx, EventModuleStopped, name, nil)
	}

	if err := c.hooks.runPostShutdown(ctx); err != nil {
		aggregate = joinErrors(aggregate, err)
	}
	return aggregate
}

// Run initializes, starts, blocks until SIGINT, SIGTERM, SIGHUP, SIGQUIT or
// ctx is done, then shuts down within the controller's shutdown timeout.
// This is the executable's main entry point.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Initialize(ctx); err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
	defer cancel()
	return c.Shutdown(shutdownCtx)
}
