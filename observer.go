package chassis

import (
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// EventType enumerates the controller's diagnostic and lifecycle event
// kinds, named in CloudEvents' reverse-domain convention.
type EventType string

const (
	EventModuleRegistered  EventType = "com.chassis.module.registered"
	EventModuleInitialized EventType = "com.chassis.module.initialized"
	EventModuleStarting    EventType = "com.chassis.module.starting"
	EventModuleOperational EventType = "com.chassis.module.operational"
	EventModuleError       EventType = "com.chassis.module.error"
	EventModuleStopped     EventType = "com.chassis.module.stopped"

	EventControllerStarting    EventType = "com.chassis.controller.starting"
	EventControllerOperational EventType = "com.chassis.controller.operational"
	EventControllerShutdown    EventType = "com.chassis.controller.shutdown"

	EventTaskBudgetOverrun EventType = "com.chassis.task.budget_overrun"
	EventTaskPanicked      EventType = "com.chassis.task.panicked"

	EventConfigChanged EventType = "com.chassis.config.changed"
)

// Observer receives every event a Subject emits. OnEvent must not block;
// slow observers should hand off to their own goroutine.
type Observer interface {
	ObserverID() string
	OnEvent(ctx context.Context, event cloudevents.Event)
}

// Subject is the event-emitting side of the observer relationship,
// implemented by Controller. The Scheduler emits into the Controller's
// event stream rather than exposing observers of its own.
type Subject interface {
	RegisterObserver(o Observer)
	UnregisterObserver(id string)
}

// eventBus is the shared Subject implementation used internally. Handlers
// are invoked against a snapshot of the observer list taken before
// dispatch, so an observer that registers/unregisters itself re-entrantly
// only affects the next emission.
type eventBus struct {
	mu        sync.RWMutex
	observers map[string]Observer
	source    string
}

func newEventBus(source string) *eventBus {
	return &eventBus{observers: make(map[string]Observer), source: source}
}

func (b *eventBus) RegisterObserver(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers[o.ObserverID()] = o
}

func (b *eventBus) UnregisterObserver(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.observers, id)
}

func (b *eventBus) snapshot() []Observer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap := make([]Observer, 0, len(b.observers))
	for _, o := range b.observers {
		snap = append(snap, o)
	}
	return snap
}

// emit builds a CloudEvent and fans it out to a snapshot of the currently
// registered observers. If no observers are registered this is a no-op —
// emitting diagnostics is never required for correct operation.
func (b *eventBus) emit(ctx context.Context, eventType EventType, subject string, data map[string]any) {
	snap := b.snapshot()
	if len(snap) == 0 {
		return
	}
	ev := cloudevents.NewEvent()
	ev.SetID(uuid.NewString())
	ev.SetSource(b.source)
	ev.SetType(string(eventType))
	ev.SetSubject(subject)
	ev.SetTime(time.Now())
	if data != nil {
		_ = ev.SetData(cloudevents.ApplicationJSON, data)
	}
	for _, o := range snap {
		o.OnEvent(ctx, ev)
	}
}

// FunctionalObserver adapts a plain function to the Observer interface.
type FunctionalObserver struct {
	id string
	fn func(ctx context.Context, event cloudevents.Event)
}

// NewFunctionalObserver builds an Observer from id and fn.
func NewFunctionalObserver(id string, fn func(ctx context.Context, event cloudevents.Event)) *FunctionalObserver {
	return &FunctionalObserver{id: id, fn: fn}
}

func (f *FunctionalObserver) ObserverID() string { return f.id }

func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) {
	if f.fn != nil {
		f.fn(ctx, event)
	}
}
