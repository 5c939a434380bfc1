package port

import "time"

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// MetricsProvider records tap activity.
type MetricsProvider interface {
	IncActiveExchanges()
	DecActiveExchanges()
	ObserveExchange(method, outcome string, duration time.Duration)
	IncTracesEmitted(kind LogKind)
	IncTracesDropped(reason string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) IncActiveExchanges()                           {}
func (NopMetrics) DecActiveExchanges()                           {}
func (NopMetrics) ObserveExchange(string, string, time.Duration) {}
func (NopMetrics) IncTracesEmitted(LogKind)                      {}
func (NopMetrics) IncTracesDropped(string)                       {}
