package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"http-sniffer/domain/port"
	"http-sniffer/infrastructure/logging"
)

func newObserved(level zapcore.Level) (*ZapLoggerAdapter, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapLoggerAdapter(zap.New(core).Sugar()), logs
}

func TestZapLoggerAdapter_Levels(t *testing.T) {
	adapter, logs := newObserved(zapcore.DebugLevel)

	adapter.Debug("d")
	adapter.Info("i", port.StatusCode(200))
	adapter.Warn("w", port.Reason("slow"))
	adapter.Error("e", port.Error(errors.New("boom")))

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, int64(200), entries[1].ContextMap()[port.FieldStatusCode])
	assert.Equal(t, "slow", entries[2].ContextMap()[port.FieldReason])
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}

func TestZapLoggerAdapter_With(t *testing.T) {
	adapter, logs := newObserved(zapcore.InfoLevel)

	child := adapter.With(port.ExchangeID("ex-1"), port.Method("GET"))
	child.Info("completed", port.Duration("elapsed", 1500*time.Millisecond))

	assert.Same(t, adapter, adapter.With())

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "ex-1", ctx[port.FieldExchangeID])
	assert.Equal(t, "GET", ctx[port.FieldMethod])
	assert.Equal(t, int64(1500), ctx["elapsed"])
}

func TestConvertValue(t *testing.T) {
	assert.Equal(t, int64(2000), convertValue(2*time.Second))
	assert.Equal(t, "x", convertValue(errors.New("x")))
	assert.Equal(t, 3, convertValue(3))
}

func TestNewCategoryLogger(t *testing.T) {
	logging.InitTestLoggers()

	for _, cat := range []string{logging.CategoryGeneral, logging.CategorySystem, logging.CategoryTraffic, "unknown"} {
		l := NewCategoryLogger(cat)
		require.NotNil(t, l)
		l.Info("no-op")
	}
}

func TestNewZapLoggerAdapter_NilSugar(t *testing.T) {
	NewZapLoggerAdapter(nil).Info("safe")
}
