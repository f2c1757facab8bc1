package chassis

import "errors"

// Module registration and dependency errors.
var (
	ErrModuleNil               = errors.New("chassis: module is nil")
	ErrModuleNameEmpty         = errors.New("chassis: module name is empty")
	ErrModuleAlreadyRegistered = errors.New("chassis: module already registered")
	ErrModuleNotFound          = errors.New("chassis: module not found")
	ErrModuleDependencyMissing = errors.New("chassis: module depends on an unregistered module")
	ErrCircularDependency      = errors.New("chassis: circular module dependency detected")
	ErrModulesAddedAfterStart  = errors.New("chassis: modules cannot be registered after the controller has started")

	// ErrStartingStalled is reported when a module remains in StateStarting
	// past the controller's configured starting-stall threshold without its
	// Start returning or a ReportOperational or ReportError call for it.
	ErrStartingStalled = errors.New("chassis: module did not report operational or error before the starting-stall threshold elapsed")
)

// Controller lifecycle errors.
var (
	ErrControllerNotInitialized = errors.New("chassis: controller has not been initialized")
	ErrControllerAlreadyStarted = errors.New("chassis: controller has already been started")
	ErrControllerNotOperational = errors.New("chassis: controller is not operational")
	ErrControllerShutdown       = errors.New("chassis: controller has already shut down")
)

// Module state transition errors.
var (
	ErrInvalidStateTransition = errors.New("chassis: invalid module state transition")
)

// Scheduler and task errors.
var (
	ErrTaskNil                 = errors.New("chassis: task is nil")
	ErrTaskNameEmpty           = errors.New("chassis: task name is empty")
	ErrTaskAlreadyScheduled    = errors.New("chassis: task with this name is already scheduled")
	ErrTaskNotFound            = errors.New("chassis: task not found")
	ErrTaskPeriodZero          = errors.New("chassis: task period must be greater than zero")
	ErrTaskOffsetOutOfRange    = errors.New("chassis: task offset must be less than its period")
	ErrTaskDependencyMissing   = errors.New("chassis: task depends on a module or peer task that is not yet scheduled")
	ErrSchedulerAlreadyRunning = errors.New("chassis: scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("chassis: scheduler is not running")
)

// Result, Future and Promise errors.
var (
	ErrPromiseAlreadySet = errors.New("chassis: promise has already been set")
	ErrFutureNotReady    = errors.New("chassis: future has no value yet")
	ErrFutureCanceled    = errors.New("chassis: future was canceled before a value was set")
)

// Owned-value handle errors. Dereferencing an empty handle is treated as a
// programmer error and panics with one of these rather than returning it,
// so the distinction between "never assigned" and "moved away" survives
// into the panic value instead of collapsing to a generic message.
var (
	ErrHandleEmpty = errors.New("chassis: owned value handle is empty")
	ErrHandleMoved = errors.New("chassis: owned value handle was already moved")
)

// Provider/Consumer contract errors.
var (
	ErrNoDataAvailable       = errors.New("chassis: consumer has not received any data yet")
	ErrDataElementHandlerNil = errors.New("chassis: data element handler is nil")
	ErrOperationHandlerUnset = errors.New("chassis: no operation handler registered")
	ErrOperationHandlerSet   = errors.New("chassis: operation handler already registered")
)

// Service registry errors.
var (
	ErrServiceAlreadyRegistered = errors.New("chassis: service already registered under this name")
)

// Configuration errors.
var (
	ErrConfigPathEmpty      = errors.New("chassis: config path is empty")
	ErrConfigUnsupportedExt = errors.New("chassis: unsupported config file extension")
	ErrConfigKeyNotFound    = errors.New("chassis: config key not found")
)
