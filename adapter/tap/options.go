package tap

import (
	"net/http"
	"time"

	"http-sniffer/domain/port"
	"http-sniffer/domain/service"
)

type options struct {
	registry     *service.Registry
	ignored      []string
	sink         port.Sink
	logger       port.Logger
	metrics      port.MetricsProvider
	transport    http.RoundTripper
	maxBodyBytes int
	clock        func() time.Time
}

// Option configures a Tap.
type Option func(*options)

// WithRegistry sets the deserializer registry. Defaults to deserializer.NewDefaultRegistry.
func WithRegistry(r *service.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithIgnoredDomains sets the initial ignore-list.
func WithIgnoredDomains(domains ...string) Option {
	return func(o *options) {
		o.ignored = append(o.ignored, domains...)
	}
}

// WithSink sets where traces go. Defaults to a console sink on stdout.
func WithSink(s port.Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithLogger sets the operational logger.
func WithLogger(l port.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(m port.MetricsProvider) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTransport sets the transport real calls are forwarded to. Without it
// the Tap builds and owns its own transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithMaxBodyBytes caps the captured response body. Zero means unbounded.
func WithMaxBodyBytes(n int) Option {
	return func(o *options) {
		o.maxBodyBytes = n
	}
}

// WithClock overrides the clock used to measure exchange duration.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}
