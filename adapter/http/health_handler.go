package http

import (
	"encoding/json"
	"net/http"

	"http-sniffer/domain/port"
	"http-sniffer/infrastructure/config"
)

// ConfigProvider returns the current configuration.
type ConfigProvider interface {
	Get() *config.Config
}

// TapState is the part of the tap the health endpoint reports on.
type TapState interface {
	Active() int
	Closed() bool
	IgnoredDomains() []string
}

type HealthHandler struct {
	configProvider ConfigProvider
	tap            TapState
	version        string
	logger         port.Logger
}

func NewHealthHandler(configProvider ConfigProvider, tap TapState, version string, logger port.Logger) *HealthHandler {
	if logger == nil {
		logger = &port.NopLogger{}
	}
	return &HealthHandler{
		configProvider: configProvider,
		tap:            tap,
		version:        version,
		logger:         logger,
	}
}

type HealthStatus struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	Sink            string `json:"sink"`
	ActiveExchanges int    `json:"active_exchanges"`
	IgnoredDomains  int    `json:"ignored_domains"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg := h.configProvider.Get()

	status := HealthStatus{
		Status:          "healthy",
		Version:         h.version,
		Sink:            cfg.Sniffer.GetSink(),
		ActiveExchanges: h.tap.Active(),
		IgnoredDomains:  len(h.tap.IgnoredDomains()),
	}

	w.Header().Set("Content-Type", "application/json")
	if !h.IsHealthy() {
		status.Status = "closed"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(status); err != nil {
		h.logger.Error("failed to encode health status", port.Error(err))
		return
	}
}

// IsHealthy reports whether the tap still intercepts traffic.
func (h *HealthHandler) IsHealthy() bool {
	return !h.tap.Closed()
}
