package chassis

import "go.uber.org/zap"

// Logger is the logging contract used throughout chassis. It intentionally
// mirrors the shape of log/slog's leveled methods so any slog-backed
// implementation can satisfy it with a thin wrapper.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// zapLogger adapts a *zap.SugaredLogger to Logger.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger returns the default Logger implementation, backed by zap.
func NewZapLogger(z *zap.Logger) Logger {
	if z == nil {
		var err error
		z, err = zap.NewProduction()
		if err != nil {
			z = zap.NewNop()
		}
	}
	return &zapLogger{sugar: z.Sugar()}
}

func (l *zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

// noopLogger discards everything. Used as the controller's default when the
// caller does not supply a Logger.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
