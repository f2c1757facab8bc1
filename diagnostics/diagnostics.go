// Package diagnostics is a read-only introspection module: it exposes the
// controller's module and task state over HTTP for operators, and nothing
// else. It never calls back into the controller's lifecycle or
// provider/consumer APIs, so mounting it cannot change runtime behavior.
package diagnostics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/chassisrt/chassis"
	"github.com/go-chi/chi/v5"
)

// ModuleName is this module's registered name.
const ModuleName = "diagnostics"

type moduleView struct {
	Name         string   `json:"name"`
	State        string   `json:"state"`
	Dependencies []string `json:"dependencies,omitempty"`
}

type taskView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Owner         string `json:"owner"`
	Period        uint32 `json:"period"`
	Offset        uint32 `json:"offset"`
	Active        bool   `json:"active"`
	LastOverrunAt string `json:"last_overrun_at,omitempty"`
	LastOverrunMS int64  `json:"last_overrun_ms,omitempty"`
}

// Module serves GET /modules and GET /tasks on its own HTTP server.
// Registering it with a Controller is optional; the runtime functions
// identically with or without it mounted.
type Module struct {
	addr   string
	ctrl   *chassis.Controller
	server *http.Server
}

var (
	_ chassis.Module        = (*Module)(nil)
	_ chassis.Initializable = (*Module)(nil)
	_ chassis.Startable     = (*Module)(nil)
	_ chassis.Stoppable     = (*Module)(nil)
)

// New creates a diagnostics Module listening on addr (e.g. "127.0.0.1:9099").
func New(addr string) *Module {
	return &Module{addr: addr}
}

func (m *Module) Name() string { return ModuleName }

// Init captures the controller so Start can read its state; it never
// mutates anything on ctrl.
func (m *Module) Init(ctrl *chassis.Controller) error {
	m.ctrl = ctrl
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	router := chi.NewRouter()
	router.Get("/modules", m.handleModules)
	router.Get("/tasks", m.handleTasks)

	m.server = &http.Server{Addr: m.addr, Handler: router}
	go func() {
		_ = m.server.ListenAndServe()
	}()
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

func (m *Module) handleModules(w http.ResponseWriter, r *http.Request) {
	names := m.ctrl.ModuleNames()
	views := make([]moduleView, 0, len(names))
	for _, name := range names {
		state, _ := m.ctrl.ModuleState(name)
		views = append(views, moduleView{
			Name:         name,
			State:        state.String(),
			Dependencies: m.ctrl.Dependencies(name),
		})
	}
	writeJSON(w, views)
}

func (m *Module) handleTasks(w http.ResponseWriter, r *http.Request) {
	tasks := m.ctrl.Scheduler().Tasks()
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		v := taskView{ID: t.ID, Name: t.Name, Owner: t.Owner, Period: t.Period, Offset: t.Offset, Active: t.Active}
		if !t.LastOverrunAt.IsZero() {
			v.LastOverrunAt = t.LastOverrunAt.UTC().Format(time.RFC3339Nano)
			v.LastOverrunMS = t.LastOverrun.Milliseconds()
		}
		views = append(views, v)
	}
	writeJSON(w, views)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
