package record

import (
	"http-sniffer/domain/entity"
	"http-sniffer/domain/port"
)

// LogRecord accumulates one exchange and renders it through a shared Renderer.
// Like entity.Exchange it expects events from a single goroutine.
type LogRecord struct {
	exchange *entity.Exchange
	renderer *Renderer
}

// NewRecord starts a record for req.
func (r *Renderer) NewRecord(req entity.RequestSnapshot, opts ...entity.ExchangeOption) *LogRecord {
	return &LogRecord{
		exchange: entity.NewExchange(req, opts...),
		renderer: r,
	}
}

// Exchange returns the underlying exchange.
func (l *LogRecord) Exchange() *entity.Exchange {
	return l.exchange
}

// Apply feeds ev into the exchange state machine.
func (l *LogRecord) Apply(ev entity.Event) (completed bool, err error) {
	return l.exchange.Apply(ev)
}

// RequestTrace renders the request block.
func (l *LogRecord) RequestTrace() port.Trace {
	return port.Trace{
		ExchangeID: l.exchange.ID,
		URL:        l.exchange.Request.URL,
		Kind:       port.LogKindRequest,
		Text:       l.renderer.RenderRequest(l.exchange),
	}
}

// CompletionTrace renders the response or error block. It must only be called
// once the exchange has completed.
func (l *LogRecord) CompletionTrace() port.Trace {
	return port.Trace{
		ExchangeID: l.exchange.ID,
		URL:        l.exchange.Request.URL,
		Kind:       port.LogKindResponse,
		Failed:     l.exchange.Failed(),
		Text:       l.renderer.RenderCompletion(l.exchange),
	}
}
