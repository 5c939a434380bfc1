package entity

import (
	"net/http"
	"net/url"
)

// Event is one observation of an in-flight exchange. The set of events is closed.
type Event interface {
	eventName() string
}

// ResponseEvent carries the response head.
type ResponseEvent struct {
	StatusCode int
	Header     http.Header
}

// DataEvent carries one chunk of the response body as the caller read it.
type DataEvent struct {
	Chunk []byte
}

// RedirectEvent records that the server redirected the request.
type RedirectEvent struct {
	Location *url.URL
}

// CompleteEvent terminates the exchange. A nil Err means success.
type CompleteEvent struct {
	Err error
}

func (ResponseEvent) eventName() string { return "response" }
func (DataEvent) eventName() string     { return "data" }
func (RedirectEvent) eventName() string { return "redirect" }
func (CompleteEvent) eventName() string { return "complete" }
