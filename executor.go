package chassis

import "fmt"

// ModuleExecutor is the per-module facade over the shared Scheduler (C5).
// A module never talks to the Scheduler directly; it gets a ModuleExecutor
// scoped to its own name from the Controller during Init, and all task
// names it schedules are implicitly namespaced under that module.
type ModuleExecutor struct {
	owner     string
	deps      []string
	scheduler *Scheduler
	events    *eventBus
	added     []string
	channels  []EventHandlerActivator
}

func newModuleExecutor(owner string, deps []string, scheduler *Scheduler, events *eventBus) *ModuleExecutor {
	return &ModuleExecutor{owner: owner, deps: deps, scheduler: scheduler, events: events}
}

// Schedule registers a task owned by this executor's module. The task's
// Owner field is set automatically, and the module's own declared
// dependencies are merged into RunAfterModules so a task can never be
// scheduled ahead of a module it depends on, even if the module's author
// never mentions that dependency on the task itself.
func (e *ModuleExecutor) Schedule(t *Task) error {
	if t == nil {
		return ErrTaskNil
	}
	t.Owner = e.owner
	t.RunAfterModules = mergeRunAfterModules(t.RunAfterModules, e.deps)
	if err := e.scheduler.AddTask(t); err != nil {
		return err
	}
	e.added = append(e.added, t.FullName())
	return nil
}

// mergeRunAfterModules appends every dep not already present in existing,
// preserving existing's order and avoiding duplicate entries.
func mergeRunAfterModules(existing, deps []string) []string {
	if len(deps) == 0 {
		return existing
	}
	seen := make(map[string]bool, len(existing))
	for _, m := range existing {
		seen[m] = true
	}
	out := existing
	for _, d := range deps {
		if !seen[d] {
			out = append(out, d)
			seen[d] = true
		}
	}
	return out
}

// Cancel removes a previously scheduled task by its short name (without
// the owner prefix).
func (e *ModuleExecutor) Cancel(taskName string) error {
	full := fmt.Sprintf("%s.%s", e.owner, taskName)
	if err := e.scheduler.RemoveTask(full); err != nil {
		return err
	}
	for i, name := range e.added {
		if name == full {
			e.added = append(e.added[:i], e.added[i+1:]...)
			break
		}
	}
	return nil
}

// cancelAll removes every task this executor ever scheduled. The
// Controller calls this during a module's shutdown.
func (e *ModuleExecutor) cancelAll() {
	for _, name := range e.added {
		_ = e.scheduler.RemoveTask(name)
	}
	e.added = nil
}

// RegisterChannel records ch as something this module's consumers are
// registered against, so the Controller calls
// StartEventHandlerForModule/StopEventHandlerForModule on it automatically
// as this module becomes operational and when it shuts down, instead of
// the module having to wire that activation itself.
func (e *ModuleExecutor) RegisterChannel(ch EventHandlerActivator) {
	e.channels = append(e.channels, ch)
}
