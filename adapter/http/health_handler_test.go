package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"http-sniffer/infrastructure/config"
)

type fakeTap struct {
	active  int
	closed  bool
	ignored []string
}

func (f fakeTap) Active() int              { return f.active }
func (f fakeTap) Closed() bool             { return f.closed }
func (f fakeTap) IgnoredDomains() []string { return f.ignored }

func TestHealthHandler(t *testing.T) {
	cfg := &config.Config{Sniffer: config.Sniffer{Sink: config.SinkFile}}

	tests := []struct {
		name       string
		tap        fakeTap
		wantCode   int
		wantStatus string
	}{
		{"healthy", fakeTap{active: 2, ignored: []string{"a", "b"}}, http.StatusOK, "healthy"},
		{"closed tap", fakeTap{closed: true}, http.StatusServiceUnavailable, "closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(config.NewStaticManager(cfg), tt.tap, "1.2.3", nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var status HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, "1.2.3", status.Version)
			assert.Equal(t, config.SinkFile, status.Sink)
			assert.Equal(t, tt.tap.active, status.ActiveExchanges)
			assert.Equal(t, len(tt.tap.ignored), status.IgnoredDomains)
		})
	}
}
