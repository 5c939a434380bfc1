// Package tap intercepts outgoing HTTP exchanges and reports them as traces.
package tap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"http-sniffer/adapter/sink"
	"http-sniffer/application/deserializer"
	"http-sniffer/application/record"
	"http-sniffer/domain/entity"
	"http-sniffer/domain/port"
	"http-sniffer/domain/service"
	httpclient "http-sniffer/infrastructure/http"
)

// Tap is an http.RoundTripper that records every eligible exchange it forwards.
type Tap struct {
	registry     *service.Registry
	ignored      *service.IgnoreList
	renderer     *record.Renderer
	logger       port.Logger
	metrics      port.MetricsProvider
	transport    http.RoundTripper
	owned        *http.Transport
	maxBodyBytes int
	clock        func() time.Time

	sinkMu sync.RWMutex
	sink   port.Sink

	mu     sync.Mutex
	active map[*Interception]struct{}
	closed bool
	wg     sync.WaitGroup
}

// New creates a Tap. Without WithTransport it owns a private transport built
// from the default client settings.
func New(opts ...Option) *Tap {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = &port.NopLogger{}
	}
	if o.metrics == nil {
		o.metrics = port.NopMetrics{}
	}
	if o.registry == nil {
		o.registry = deserializer.NewDefaultRegistry(service.WithRegistryLogger(o.logger))
	}
	if o.sink == nil {
		o.sink = sink.NewConsole(os.Stdout, true)
	}
	if o.clock == nil {
		o.clock = time.Now
	}

	t := &Tap{
		registry:     o.registry,
		ignored:      service.NewIgnoreList(o.ignored...),
		renderer:     record.NewRenderer(o.registry, record.WithLogger(o.logger)),
		logger:       o.logger,
		metrics:      o.metrics,
		transport:    o.transport,
		maxBodyBytes: o.maxBodyBytes,
		clock:        o.clock,
		sink:         o.sink,
		active:       make(map[*Interception]struct{}),
	}
	if t.transport == nil {
		t.owned = httpclient.NewTransport(httpclient.DefaultClientConfig())
		t.transport = t.owned
	}
	return t
}

// Eligible reports whether req would be intercepted: an http or https URL,
// not already intercepted upstream, and a host outside the ignore-list.
func (t *Tap) Eligible(req *http.Request) bool {
	if req == nil || req.URL == nil {
		return false
	}
	switch strings.ToLower(req.URL.Scheme) {
	case "http", "https":
	default:
		return false
	}
	if IsIntercepted(req.Context()) {
		return false
	}
	return !t.ignored.Matches(req.URL.Hostname())
}

// RoundTrip forwards req, recording the exchange when req is eligible.
// Responses and errors reach the caller exactly as the transport produced them.
func (t *Tap) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Closed() || !t.Eligible(req) {
		return t.transport.RoundTrip(req)
	}

	return t.Intercept(req).Start()
}

// Intercept prepares an interception of req without starting it.
// The request body, if any, is read fully and replaced on the forwarded copy.
// A body that fails to read makes Start fail with that error after tracing it.
func (t *Tap) Intercept(req *http.Request) *Interception {
	return newInterception(t, req)
}

// SetIgnoredDomains replaces the ignore-list.
func (t *Tap) SetIgnoredDomains(domains []string) {
	t.ignored.Set(domains)
	t.logger.Debug("忽略域名列表已更新", port.Int("count", len(t.ignored.Domains())))
}

// IgnoredDomains returns the normalized ignore-list.
func (t *Tap) IgnoredDomains() []string {
	return t.ignored.Domains()
}

// SetSink replaces the trace sink. Exchanges already in flight may still use the old one.
func (t *Tap) SetSink(s port.Sink) {
	if s == nil {
		return
	}
	t.sinkMu.Lock()
	t.sink = s
	t.sinkMu.Unlock()
}

func (t *Tap) currentSink() port.Sink {
	t.sinkMu.RLock()
	defer t.sinkMu.RUnlock()
	return t.sink
}

// RegisterDeserializer adds d to the registry under patterns.
func (t *Tap) RegisterDeserializer(d port.Deserializer, patterns ...string) {
	t.registry.Register(d, patterns...)
}

// Registry returns the deserializer registry in use.
func (t *Tap) Registry() *service.Registry {
	return t.registry
}

// Wait blocks until every started interception has emitted its traces.
func (t *Tap) Wait() {
	t.wg.Wait()
}

// Close stops all in-flight interceptions and releases the owned transport.
// Later requests are forwarded without interception. Close is idempotent.
func (t *Tap) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	inflight := make([]*Interception, 0, len(t.active))
	for ic := range t.active {
		inflight = append(inflight, ic)
	}
	t.mu.Unlock()

	for _, ic := range inflight {
		ic.Stop()
	}
	if t.owned != nil {
		t.owned.CloseIdleConnections()
	}
	return nil
}

// CloseIdleConnections forwards to the wrapped transport so http.Client can reach it.
func (t *Tap) CloseIdleConnections() {
	type idleCloser interface{ CloseIdleConnections() }
	if c, ok := t.transport.(idleCloser); ok {
		c.CloseIdleConnections()
	}
}

// Closed reports whether Close has been called.
func (t *Tap) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Active returns the number of started exchanges that have not completed.
func (t *Tap) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// track registers a starting exchange. It reports false once the tap is closed.
func (t *Tap) track(ic *Interception) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}
	t.active[ic] = struct{}{}
	t.wg.Add(1)
	t.mu.Unlock()
	t.metrics.IncActiveExchanges()
	return true
}

func (t *Tap) untrack(ic *Interception) {
	t.mu.Lock()
	delete(t.active, ic)
	t.mu.Unlock()
	t.metrics.DecActiveExchanges()
}

// finish records metrics for a completed exchange.
func (t *Tap) finish(ex *entity.Exchange) {
	outcome := port.OutcomeSuccess
	if ex.Failed() {
		outcome = port.OutcomeError
	}
	t.metrics.ObserveExchange(ex.Request.Method, outcome, ex.Duration)

	fields := []port.Field{
		port.ExchangeID(ex.ID),
		port.Method(ex.Request.Method),
		port.Host(ex.Request.URL.Hostname()),
		port.DurationMS(ex.Duration),
	}
	if ex.Response != nil {
		fields = append(fields,
			port.StatusCode(ex.Response.StatusCode),
			port.BodySize(humanize.Bytes(uint64(len(ex.Response.Body))+uint64(ex.Response.Truncated))),
		)
	}
	if ex.Failed() {
		fields = append(fields, port.Error(ex.Err))
	}
	t.logger.Debug("exchange completed", fields...)
}

func (t *Tap) emit(ctx context.Context, trace port.Trace) {
	err := t.currentSink().Emit(ctx, trace)
	switch {
	case err == nil:
		t.metrics.IncTracesEmitted(trace.Kind)
	case errors.Is(err, port.ErrTraceDropped):
		t.metrics.IncTracesDropped("rate_limited")
	default:
		t.metrics.IncTracesDropped("sink_error")
		t.logger.Warn("trace 输出失败",
			port.ExchangeID(trace.ExchangeID),
			port.Kind(trace.Kind),
			port.Error(err),
		)
	}
}
