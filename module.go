package chassis

import "context"

// Module is the minimal contract every application module implements.
type Module interface {
	// Name returns the module's unique identifier within a Controller.
	Name() string
}

// DependencyAware modules declare other modules that are initialized and
// started before them, and stopped after them.
type DependencyAware interface {
	Dependencies() []string
}

// Initializable modules run one-time setup — opening handles, registering
// providers/consumers, declaring tasks — before the controller starts
// anything. Init runs while the module is still in StateNotInitialized
// (it moves to StateNotOperational once Init returns nil) and must not
// block.
type Initializable interface {
	Init(ctrl *Controller) error
}

// Startable modules run startup work (e.g. connecting to a peer, warming a
// cache) after Init but before the module is considered operational. The
// controller runs Start on its own goroutine: a nil return reports the
// module operational, and an error is passed to ReportError, leaving the
// module in the starting state. While Start is still running, the module
// may call Controller.ReportOperational or Controller.ReportError itself.
// If Start has neither returned nor been overtaken by such a report when
// the starting-stall threshold elapses, the controller flags the module as
// stalled. A nil return counts as the operational report even when the
// module carries on setting up in the background; a later
// ReportOperational call only emits another operational event.
type Startable interface {
	Start(ctx context.Context) error
}

// Stoppable modules release resources during shutdown. Stop runs in the
// reverse of startup order and should not block indefinitely; the
// controller applies its own shutdown deadline around the whole sequence.
type Stoppable interface {
	Stop(ctx context.Context) error
}

// Deinitializable modules release resources acquired during Init. DeInit
// runs right after the module's own Stop, inside the same
// reverse-of-startup loop, so every module that depends on it has already
// been stopped and deinitialized; the modules it depends on have not been
// stopped yet.
type Deinitializable interface {
	DeInit(ctx context.Context) error
}

// StartingSkipper lets a Startable module report operational while
// keeping the scheduler from admitting its own tasks. A module whose
// async Start work never produces ticking work of its own implements this
// so it can reach the operational state without the controller ever
// calling SetModuleActive(name, true) for it.
type StartingSkipper interface {
	SkipStartingOfModule() bool
}

// ErrorHandler lets a module react to a failure reported for itself via
// ReportError, independently of the embedding application's global
// Hooks.OnError sink (C10).
type ErrorHandler interface {
	OnError(err error)
}

// TaskProvider modules contribute periodic work to the scheduler. Tasks is
// called once, during Controller.Initialize, right after the module's own
// Init returns.
type TaskProvider interface {
	Tasks() []*Task
}

// resolveModuleOrder computes a startup order for modules such that every
// module appears after all modules it (transitively) depends on. Shutdown
// uses the reverse of this order. registrationOrder breaks ties between
// modules with no dependency relationship, so the result is deterministic
// for a given sequence of RegisterModule calls.
func resolveModuleOrder(modules map[string]Module, registrationOrder []string) ([]string, error) {
	graph := make(map[string][]string, len(modules))
	for name, m := range modules {
		var deps []string
		if da, ok := m.(DependencyAware); ok {
			deps = da.Dependencies()
		}
		for _, d := range deps {
			if _, ok := modules[d]; !ok {
				return nil, ErrModuleDependencyMissing
			}
		}
		graph[name] = deps
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[string]int, len(graph))
	order := make([]string, 0, len(graph))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			return ErrCircularDependency
		}
		state[name] = visiting
		for _, dep := range graph[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = visited
		order = append(order, name)
		return nil
	}

	for _, name := range registrationOrder {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
