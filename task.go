package chassis

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskFunc is the body of a periodic task. The context carries the
// per-invocation deadline derived from the task's Budget, if any.
type TaskFunc func(ctx context.Context) error

// Task is the scheduler's unit of periodic work — one entry in a module's
// tick-driven workload. Name, Budget and Offset mirror the
// (task_name, budget, offset) tuple a module author supplies when mapping a
// task onto an executable's tick period.
type Task struct {
	// Name identifies the task within its owning module.
	Name string
	// Owner is the name of the module this task belongs to. The scheduler
	// only runs a task while its owner module is in the operational state.
	Owner string
	// Period is expressed in ticks: the task runs once every Period ticks.
	Period uint32
	// Offset is the tick, modulo Period, on which this task becomes
	// eligible; must be strictly less than Period.
	Offset uint32
	// Budget is the soft execution-time ceiling. Exceeding it is logged as
	// a budget overrun; the scheduler never stops or kills the task. The
	// context passed to Fn carries a deadline of Budget, so a task that
	// watches its context sees it expire at that point.
	Budget time.Duration
	// RunAfterModules lists other modules whose tasks this task is placed
	// after in the schedule, so any of them that run in a tick run before
	// this task. Tasks of those modules that are not eligible in a tick do
	// not hold this task back.
	RunAfterModules []string
	// RunAfterTasks lists specific peer tasks (by "module.task" name) that
	// this task is placed after, so when both run in a tick the peer runs
	// first. A peer that is not eligible in a tick does not hold this task
	// back.
	RunAfterTasks []string
	// Active gates eligibility independently of the owner module's state;
	// a module may deactivate one of its own tasks without affecting the
	// others.
	Active bool

	Fn TaskFunc

	id uuid.UUID
}

// FullName returns the "owner.name" identifier used in RunAfterTasks
// references and in scheduler logging.
func (t *Task) FullName() string { return t.Owner + "." + t.Name }

// ID returns this task's unique identifier, assigning one on first call if
// AddTask has not already done so. It exists for diagnostics and event
// correlation — nothing in the scheduler's own eligibility or ordering
// logic depends on it.
func (t *Task) ID() uuid.UUID {
	if t.id == uuid.Nil {
		t.id = uuid.New()
	}
	return t.id
}

func (t *Task) validate() error {
	if t == nil {
		return ErrTaskNil
	}
	if t.Name == "" {
		return ErrTaskNameEmpty
	}
	if t.Period == 0 {
		return ErrTaskPeriodZero
	}
	if t.Offset >= t.Period {
		return ErrTaskOffsetOutOfRange
	}
	t.ID()
	return nil
}

// eligible reports whether t should run on the given tick index, given that
// its owner module is currently active/operational.
func (t *Task) eligible(tick uint64, ownerActive bool) bool {
	if !t.Active || !ownerActive {
		return false
	}
	return tick%uint64(t.Period) == uint64(t.Offset)
}
