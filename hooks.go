package chassis

import "context"

// Hooks lets the embedding application observe and react to controller
// phase transitions without implementing a full Module. Every field is
// optional; a nil hook is simply skipped. Hooks run synchronously and can
// return an error to abort the phase they bracket (except the Post* hooks
// and OnError, which cannot abort anything that already happened).
type Hooks struct {
	PreInitialize  func(ctx context.Context) error
	PostInitialize func(ctx context.Context) error

	PreStart  func(ctx context.Context) error
	PostStart func(ctx context.Context) error

	PreShutdown  func(ctx context.Context) error
	PostShutdown func(ctx context.Context) error

	// OnError is called for every error reported through ReportError, by a
	// module or by the controller itself. Errors returned by the phase
	// hooks above are returned to the caller of that phase, not passed
	// here. It runs on whatever goroutine reported the error, so it must
	// not block.
	OnError func(ctx context.Context, moduleName string, err error)
}

func (h Hooks) runPreInitialize(ctx context.Context) error  { return run(h.PreInitialize, ctx) }
func (h Hooks) runPostInitialize(ctx context.Context) error { return run(h.PostInitialize, ctx) }
func (h Hooks) runPreStart(ctx context.Context) error       { return run(h.PreStart, ctx) }
func (h Hooks) runPostStart(ctx context.Context) error      { return run(h.PostStart, ctx) }
func (h Hooks) runPreShutdown(ctx context.Context) error    { return run(h.PreShutdown, ctx) }
func (h Hooks) runPostShutdown(ctx context.Context) error   { return run(h.PostShutdown, ctx) }

func (h Hooks) reportError(ctx context.Context, moduleName string, err error) {
	if h.OnError != nil {
		h.OnError(ctx, moduleName, err)
	}
}

func run(fn func(context.Context) error, ctx context.Context) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}
