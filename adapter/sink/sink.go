// Package sink holds the destinations rendered traces can be written to.
package sink

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"http-sniffer/domain/port"
	"http-sniffer/infrastructure/config"
)

// Discard drops every trace without error.
type Discard struct{}

func (Discard) Emit(context.Context, port.Trace) error { return nil }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the sink selected by cfg. trafficLogger backs the logger sink.
// The returned Closer releases files opened by the sink.
func New(cfg *config.Config, trafficLogger *zap.Logger) (port.Sink, io.Closer) {
	var (
		s      port.Sink
		closer io.Closer = nopCloser{}
	)

	switch cfg.Sniffer.GetSink() {
	case config.SinkLogger:
		s = NewLogger(trafficLogger)
	case config.SinkFile:
		f := NewFile(cfg.Sniffer.GetSinkFile(), cfg.Logging)
		s, closer = f, f
	case config.SinkNone:
		s = Discard{}
	default:
		s = NewConsole(os.Stdout, cfg.Sniffer.GetColorize())
	}

	if cfg.Sniffer.IsRateLimited() {
		s = NewRateLimited(s, cfg.Sniffer.RateLimitPerSecond, cfg.Sniffer.GetBurst())
	}
	return s, closer
}
