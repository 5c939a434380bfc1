package entity

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	domainerror "http-sniffer/domain/error"
)

// State is the lifecycle position of an Exchange.
type State int

const (
	StateCreated State = iota
	StateResponseReceived
	StateCompleted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateResponseReceived:
		return "response_received"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// RequestSnapshot is the immutable view of an intercepted request.
type RequestSnapshot struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
	// HasBody distinguishes an empty body from no body at all.
	HasBody bool
}

// ResponseSnapshot accumulates the response head and body.
type ResponseSnapshot struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Truncated counts body bytes that were seen but not kept.
	Truncated int64
}

// ContentType returns the response Content-Type or DefaultContentType when absent.
func (r *ResponseSnapshot) ContentType() string {
	if r == nil {
		return DefaultContentType
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return DefaultContentType
}

// Exchange is one intercepted request/response/error lifecycle.
// It is not safe for concurrent use; callers feed it events from a single goroutine.
type Exchange struct {
	ID       string
	Request  RequestSnapshot
	Response *ResponseSnapshot
	Redirect *url.URL
	Err      error
	Start    time.Time
	Duration time.Duration

	state        State
	maxBodyBytes int
	now          func() time.Time
}

// ExchangeOption configures an Exchange.
type ExchangeOption func(*Exchange)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) ExchangeOption {
	return func(e *Exchange) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMaxBodyBytes caps the accumulated response body. Zero or less means unbounded.
func WithMaxBodyBytes(n int) ExchangeOption {
	return func(e *Exchange) {
		e.maxBodyBytes = n
	}
}

// NewExchange creates an exchange in the Created state and starts its clock.
func NewExchange(req RequestSnapshot, opts ...ExchangeOption) *Exchange {
	e := &Exchange{
		ID:      uuid.NewString(),
		Request: req,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Start = e.now()
	return e
}

// State returns the current lifecycle state.
func (e *Exchange) State() State {
	return e.state
}

// Completed reports whether a CompleteEvent has been applied.
func (e *Exchange) Completed() bool {
	return e.state == StateCompleted
}

// Failed reports whether the exchange completed with an error.
func (e *Exchange) Failed() bool {
	return e.state == StateCompleted && e.Err != nil
}

// Apply feeds one event into the state machine. completed is true only for the
// event that moved the exchange into StateCompleted; a repeated CompleteEvent is a no-op.
func (e *Exchange) Apply(ev Event) (completed bool, err error) {
	if e.state == StateCompleted {
		if _, ok := ev.(CompleteEvent); ok {
			return false, nil
		}
		return false, domainerror.NewInvalidTransition(e.state.String(), eventName(ev))
	}

	switch ev := ev.(type) {
	case ResponseEvent:
		if e.state != StateCreated {
			break
		}
		e.Response = &ResponseSnapshot{
			StatusCode: ev.StatusCode,
			Header:     ev.Header.Clone(),
		}
		e.state = StateResponseReceived
		return false, nil

	case DataEvent:
		if e.state != StateResponseReceived {
			break
		}
		e.appendBody(ev.Chunk)
		return false, nil

	case RedirectEvent:
		e.Redirect = ev.Location
		return false, nil

	case CompleteEvent:
		e.Err = ev.Err
		e.Duration = e.now().Sub(e.Start)
		e.state = StateCompleted
		return true, nil
	}

	return false, domainerror.NewInvalidTransition(e.state.String(), eventName(ev))
}

func (e *Exchange) appendBody(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	if e.maxBodyBytes <= 0 {
		e.Response.Body = append(e.Response.Body, chunk...)
		return
	}

	room := e.maxBodyBytes - len(e.Response.Body)
	if room <= 0 {
		e.Response.Truncated += int64(len(chunk))
		return
	}
	if len(chunk) > room {
		e.Response.Truncated += int64(len(chunk) - room)
		chunk = chunk[:room]
	}
	e.Response.Body = append(e.Response.Body, chunk...)
}

func eventName(ev Event) string {
	if ev == nil {
		return "nil"
	}
	return ev.eventName()
}
