package logging

import (
	"time"

	"go.uber.org/zap"

	"http-sniffer/domain/port"
	"http-sniffer/infrastructure/logging"
)

// ZapLoggerAdapter routes the tap's port.Logger calls onto one of the category
// sugared loggers. Durations are logged in milliseconds and errors as their text,
// so exchange logs stay comparable with the traffic log files.
type ZapLoggerAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapLoggerAdapter wraps sugar. A nil sugar discards everything.
func NewZapLoggerAdapter(sugar *zap.SugaredLogger) *ZapLoggerAdapter {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &ZapLoggerAdapter{
		sugar: sugar,
	}
}

// NewCategoryLogger returns an adapter over one of the global category loggers.
// Unknown categories fall back to the general logger.
func NewCategoryLogger(category string) *ZapLoggerAdapter {
	switch category {
	case logging.CategorySystem:
		return NewZapLoggerAdapter(logging.SystemSugar)
	case logging.CategoryTraffic:
		return NewZapLoggerAdapter(logging.TrafficSugar)
	default:
		return NewZapLoggerAdapter(logging.GeneralSugar)
	}
}

// Debug logs per-exchange detail such as completion sizes.
func (z *ZapLoggerAdapter) Debug(msg string, fields ...port.Field) {
	if len(fields) == 0 {
		z.sugar.Debug(msg)
		return
	}
	z.sugar.Debugw(msg, toInterfacePairs(fields)...)
}

func (z *ZapLoggerAdapter) Info(msg string, fields ...port.Field) {
	if len(fields) == 0 {
		z.sugar.Info(msg)
		return
	}
	z.sugar.Infow(msg, toInterfacePairs(fields)...)
}

// Warn is used for sink failures the caller never sees.
func (z *ZapLoggerAdapter) Warn(msg string, fields ...port.Field) {
	if len(fields) == 0 {
		z.sugar.Warn(msg)
		return
	}
	z.sugar.Warnw(msg, toInterfacePairs(fields)...)
}

func (z *ZapLoggerAdapter) Error(msg string, fields ...port.Field) {
	if len(fields) == 0 {
		z.sugar.Error(msg)
		return
	}
	z.sugar.Errorw(msg, toInterfacePairs(fields)...)
}

// With binds fields such as the exchange ID to every later entry.
func (z *ZapLoggerAdapter) With(fields ...port.Field) port.Logger {
	if len(fields) == 0 {
		return z
	}
	return NewZapLoggerAdapter(z.sugar.With(toInterfacePairs(fields)...))
}

func toInterfacePairs(fields []port.Field) []any {
	if len(fields) == 0 {
		return nil
	}

	pairs := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		pairs = append(pairs, f.Key, convertValue(f.Value))
	}
	return pairs
}

// convertValue flattens durations and errors for the JSON encoder.
func convertValue(value any) any {
	switch v := value.(type) {
	case time.Duration:
		return v.Milliseconds()
	case error:
		if v != nil {
			return v.Error()
		}
		return ""
	default:
		return v
	}
}

var _ port.Logger = (*ZapLoggerAdapter)(nil)
