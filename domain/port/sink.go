package port

import (
	"context"
	"errors"
	"net/url"
)

// ErrTraceDropped is returned by sinks that deliberately discard a trace.
var ErrTraceDropped = errors.New("trace dropped")

// LogKind classifies a rendered trace.
type LogKind string

const (
	// LogKindRequest is emitted when a request is accepted for interception.
	LogKindRequest LogKind = "request"
	// LogKindResponse is emitted once the exchange completes, successfully or not.
	LogKindResponse LogKind = "response"
)

// Trace is one rendered block handed to a Sink.
type Trace struct {
	ExchangeID string
	URL        *url.URL
	Kind       LogKind
	// Failed is set on response traces of exchanges that ended with an error.
	Failed bool
	Text   string
}

//go:generate mockgen -source=sink.go -destination=mocks/mock_sink.go -package=mocks

// Sink receives rendered traces.
type Sink interface {
	Emit(ctx context.Context, trace Trace) error
}

// SinkFunc adapts a (url, kind, text) callback to the Sink interface.
type SinkFunc func(u *url.URL, kind LogKind, text string)

// Emit calls f with the trace's URL, kind and text.
func (f SinkFunc) Emit(_ context.Context, trace Trace) error {
	f(trace.URL, trace.Kind, trace.Text)
	return nil
}
