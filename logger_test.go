package chassis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewZapLoggerWithNilFallsBackToUsableLogger(t *testing.T) {
	l := NewZapLogger(nil)
	assert.NotPanics(t, func() {
		l.Info("hello", "key", "value")
	})
}

func TestZapLoggerRoutesLevelsCorrectly(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewZapLogger(zap.New(core))

	l.Debug("debug message", "k", "v")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	entries := logs.All()
	assert.Len(t, entries, 4)
	assert.Equal(t, "debug message", entries[0].Message)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
	assert.Equal(t, zap.WarnLevel, entries[2].Level)
	assert.Equal(t, zap.ErrorLevel, entries[3].Level)
}

func TestNoopLoggerDiscardsEverything(t *testing.T) {
	var l Logger = noopLogger{}
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x")
		l.Warn("x")
		l.Error("x")
	})
}
