package sink

import (
	"context"

	"go.uber.org/zap"

	"http-sniffer/domain/port"
)

// Logger writes each trace as one structured zap entry.
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates a sink over logger, usually the traffic category logger.
func NewLogger(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger}
}

func (l *Logger) Emit(_ context.Context, trace port.Trace) error {
	fields := []zap.Field{
		zap.String(port.FieldExchangeID, trace.ExchangeID),
		zap.String(port.FieldKind, string(trace.Kind)),
		zap.String("trace", trace.Text),
	}
	if trace.URL != nil {
		fields = append(fields,
			zap.String(port.FieldURL, trace.URL.String()),
			zap.String(port.FieldHost, trace.URL.Hostname()),
		)
	}

	if trace.Failed {
		l.logger.Warn("exchange failed", fields...)
		return nil
	}
	l.logger.Info("exchange "+string(trace.Kind), fields...)
	return nil
}
