package chassis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseModule is embedded by the fixtures below so each only has to
// implement the lifecycle method it actually cares about.
type baseModule struct {
	name string
	deps []string
}

func (m *baseModule) Name() string           { return m.name }
func (m *baseModule) Dependencies() []string { return m.deps }

type syncStartModule struct {
	baseModule
	started int32
	stopped int32
}

func (m *syncStartModule) Start(ctx context.Context) error {
	atomic.AddInt32(&m.started, 1)
	return nil
}

func (m *syncStartModule) Stop(ctx context.Context) error {
	atomic.AddInt32(&m.stopped, 1)
	return nil
}

type asyncStartModule struct {
	baseModule
	ctrl  *Controller
	delay time.Duration
}

func (m *asyncStartModule) Init(ctrl *Controller) error {
	m.ctrl = ctrl
	return nil
}

func (m *asyncStartModule) Start(ctx context.Context) error {
	go func() {
		time.Sleep(m.delay)
		m.ctrl.ReportOperational(m.name)
	}()
	return nil
}

type failingStartModule struct {
	baseModule
}

func (m *failingStartModule) Start(ctx context.Context) error {
	return assertErr{"start failed"}
}

type deinitModule struct {
	baseModule
	deinited int32
}

func (m *deinitModule) DeInit(ctx context.Context) error {
	atomic.AddInt32(&m.deinited, 1)
	return nil
}

type skippingStartModule struct {
	baseModule
}

func (m *skippingStartModule) Start(ctx context.Context) error { return nil }
func (m *skippingStartModule) SkipStartingOfModule() bool      { return true }

type channelOwningModule struct {
	baseModule
	ch *Channel[int]
}

func (m *channelOwningModule) Init(ctrl *Controller) error {
	exec, err := ctrl.Executor(m.name)
	if err != nil {
		return err
	}
	exec.RegisterChannel(m.ch)
	return nil
}

type errorHandlingModule struct {
	baseModule
	lastErr error
}

func (m *errorHandlingModule) Start(ctx context.Context) error {
	return assertErr{"boom"}
}

func (m *errorHandlingModule) OnError(err error) {
	m.lastErr = err
}

func TestControllerFullLifecycleWithDependencies(t *testing.T) {
	ctrl := NewController(WithTickPeriod(time.Millisecond))

	producer := &syncStartModule{baseModule: baseModule{name: "producer"}}
	consumer := &syncStartModule{baseModule: baseModule{name: "consumer", deps: []string{"producer"}}}

	require.NoError(t, ctrl.RegisterModule(producer))
	require.NoError(t, ctrl.RegisterModule(consumer))

	require.NoError(t, ctrl.Initialize(context.Background()))
	require.NoError(t, ctrl.Start(context.Background()))

	state, err := ctrl.ModuleState("producer")
	require.NoError(t, err)
	assert.Equal(t, StateOperational, state)

	state, err = ctrl.ModuleState("consumer")
	require.NoError(t, err)
	assert.Equal(t, StateOperational, state)

	require.NoError(t, ctrl.Shutdown(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&producer.stopped))
	assert.Equal(t, int32(1), atomic.LoadInt32(&consumer.stopped))

	state, _ = ctrl.ModuleState("producer")
	assert.Equal(t, StateShutdown, state)
}

func TestControllerAsyncModuleReportsOperational(t *testing.T) {
	ctrl := NewController(WithTickPeriod(time.Millisecond))
	m := &asyncStartModule{baseModule: baseModule{name: "async"}, delay: 10 * time.Millisecond}
	require.NoError(t, ctrl.RegisterModule(m))

	require.NoError(t, ctrl.Initialize(context.Background()))
	require.NoError(t, ctrl.Start(context.Background()))

	state, err := ctrl.ModuleState("async")
	require.NoError(t, err)
	assert.Equal(t, StateOperational, state)

	require.NoError(t, ctrl.Shutdown(context.Background()))
}

func TestControllerStartingStallIsLoggedAndInitiatesShutdown(t *testing.T) {
	logger := &recordingLogger{}
	var reportedErr error
	ctrl := NewController(
		WithTickPeriod(time.Millisecond),
		WithStartingStallTimeout(5*time.Millisecond),
		WithLogger(logger),
		WithHooks(Hooks{OnError: func(ctx context.Context, moduleName string, err error) {
			reportedErr = err
		}}),
	)
	m := &asyncStartModule{baseModule: baseModule{name: "slow"}, delay: time.Hour}
	require.NoError(t, ctrl.RegisterModule(m))

	require.NoError(t, ctrl.Initialize(context.Background()))
	err := ctrl.Start(context.Background())

	assert.True(t, logger.warnCount() > 0)
	assert.ErrorIs(t, err, ErrStartingStalled)
	assert.ErrorIs(t, reportedErr, ErrStartingStalled)

	state, _ := ctrl.ModuleState("slow")
	assert.Equal(t, StateShutdown, state, "a starting-stall is critical and initiates shutdown")
}

func TestControllerReportErrorDoesNotAbortStartup(t *testing.T) {
	failing := &failingStartModule{baseModule: baseModule{name: "failing"}}
	healthy := &syncStartModule{baseModule: baseModule{name: "healthy", deps: []string{"failing"}}}

	var reportedErr error
	ctrl := NewController(
		WithTickPeriod(time.Millisecond),
		WithHooks(Hooks{OnError: func(ctx context.Context, moduleName string, err error) {
			reportedErr = err
		}}),
	)

	require.NoError(t, ctrl.RegisterModule(failing))
	require.NoError(t, ctrl.RegisterModule(healthy))
	require.NoError(t, ctrl.Initialize(context.Background()))
	require.NoError(t, ctrl.Start(context.Background()))

	require.Error(t, reportedErr)
	state, _ := ctrl.ModuleState("healthy")
	assert.Equal(t, StateOperational, state)
}

func TestControllerRejectsDuplicateModuleNames(t *testing.T) {
	ctrl := NewController()
	require.NoError(t, ctrl.RegisterModule(&syncStartModule{baseModule: baseModule{name: "a"}}))
	assert.ErrorIs(t, ctrl.RegisterModule(&syncStartModule{baseModule: baseModule{name: "a"}}), ErrModuleAlreadyRegistered)
}

func TestControllerRejectsRegistrationAfterInitialize(t *testing.T) {
	ctrl := NewController()
	require.NoError(t, ctrl.RegisterModule(&syncStartModule{baseModule: baseModule{name: "a"}}))
	require.NoError(t, ctrl.Initialize(context.Background()))
	assert.ErrorIs(t, ctrl.RegisterModule(&syncStartModule{baseModule: baseModule{name: "b"}}), ErrModulesAddedAfterStart)
}

func TestControllerHooksFireAroundPhases(t *testing.T) {
	var order []string
	ctrl := NewController(WithHooks(Hooks{
		PreInitialize:  func(ctx context.Context) error { order = append(order, "preInit"); return nil },
		PostInitialize: func(ctx context.Context) error { order = append(order, "postInit"); return nil },
		PreStart:       func(ctx context.Context) error { order = append(order, "preStart"); return nil },
		PostStart:      func(ctx context.Context) error { order = append(order, "postStart"); return nil },
		PreShutdown:    func(ctx context.Context) error { order = append(order, "preShutdown"); return nil },
		PostShutdown:   func(ctx context.Context) error { order = append(order, "postShutdown"); return nil },
	}))
	require.NoError(t, ctrl.RegisterModule(&syncStartModule{baseModule: baseModule{name: "m"}}))

	require.NoError(t, ctrl.Initialize(context.Background()))
	require.NoError(t, ctrl.Start(context.Background()))
	require.NoError(t, ctrl.Shutdown(context.Background()))

	assert.Equal(t, []string{"preInit", "postInit", "preStart", "postStart", "preShutdown", "postShutdown"}, order)
}

func TestControllerCallsDeInitAfterStopInReverseOrder(t *testing.T) {
	ctrl := NewController(WithTickPeriod(time.Millisecond))
	m := &deinitModule{baseModule: baseModule{name: "m"}}
	require.NoError(t, ctrl.RegisterModule(m))

	require.NoError(t, ctrl.Initialize(context.Background()))
	require.NoError(t, ctrl.Start(context.Background()))
	require.NoError(t, ctrl.Shutdown(context.Background()))

	assert.Equal(t, int32(1), atomic.LoadInt32(&m.deinited))
}

func TestControllerCircularDependencyIsCriticalAndInitiatesShutdown(t *testing.T) {
	var reportedErr error
	ctrl := NewController(WithHooks(Hooks{OnError: func(ctx context.Context, moduleName string, err error) {
		reportedErr = err
	}}))
	require.NoError(t, ctrl.RegisterModule(&syncStartModule{baseModule: baseModule{name: "a", deps: []string{"b"}}}))
	require.NoError(t, ctrl.RegisterModule(&syncStartModule{baseModule: baseModule{name: "b", deps: []string{"a"}}}))

	err := ctrl.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrCircularDependency)
	assert.ErrorIs(t, reportedErr, ErrCircularDependency)
}

func TestControllerStartingSkipperReachesOperationalWithoutTaskAdmission(t *testing.T) {
	ctrl := NewController(WithTickPeriod(time.Millisecond))
	m := &skippingStartModule{baseModule: baseModule{name: "m"}}
	require.NoError(t, ctrl.RegisterModule(m))

	require.NoError(t, ctrl.Initialize(context.Background()))
	require.NoError(t, ctrl.Start(context.Background()))

	state, err := ctrl.ModuleState("m")
	require.NoError(t, err)
	assert.Equal(t, StateOperational, state)
	assert.False(t, ctrl.scheduler.moduleOK["m"], "a StartingSkipper must not have its tasks admitted")
}

func TestControllerReportErrorCallsModuleOwnErrorHandler(t *testing.T) {
	ctrl := NewController(WithTickPeriod(time.Millisecond))
	m := &errorHandlingModule{baseModule: baseModule{name: "m"}}
	require.NoError(t, ctrl.RegisterModule(m))

	require.NoError(t, ctrl.Initialize(context.Background()))
	require.NoError(t, ctrl.Start(context.Background()))

	require.Error(t, m.lastErr)
}

func TestControllerActivatesRegisteredChannelsOnOperational(t *testing.T) {
	ctrl := NewController(WithTickPeriod(time.Millisecond))
	ch := NewChannel[int]("speed")
	m := &channelOwningModule{baseModule: baseModule{name: "m"}, ch: ch}
	require.NoError(t, ctrl.RegisterModule(m))

	require.NoError(t, ctrl.Initialize(context.Background()))
	require.NoError(t, ctrl.Start(context.Background()))

	var got int
	_, err := ch.RegisterDataElementHandler("m", func(sample Shared[int]) { got = sample.Value() })
	require.NoError(t, err)
	require.NoError(t, ch.Set(7))
	assert.Equal(t, 7, got, "the controller must activate a module's registered channels on reaching operational")

	require.NoError(t, ctrl.Shutdown(context.Background()))
	require.NoError(t, ch.Set(8))
	assert.Equal(t, 7, got, "the controller must deactivate a module's registered channels on shutdown")
}
