package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adaptermetrics "http-sniffer/adapter/metrics"
	"http-sniffer/adapter/tap"
	"http-sniffer/domain/port"
	"http-sniffer/infrastructure/config"
	"http-sniffer/infrastructure/logging"
)

func TestMain(m *testing.M) {
	logging.SetTestMode(true)
	logging.InitTestLoggers()
	os.Exit(m.Run())
}

type recordingSink struct {
	mu     sync.Mutex
	traces []port.Trace
}

func (r *recordingSink) Emit(_ context.Context, trace port.Trace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traces = append(r.traces, trace)
	return nil
}

func (r *recordingSink) all() []port.Trace {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]port.Trace(nil), r.traces...)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { configPath = "" })
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "http-sniffer dev")
	assert.Contains(t, out, "构建时间: unknown")
}

func TestFetchCommand_WritesTraceFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"hello":"world"}`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	tracePath := filepath.Join(dir, "traffic.log")
	bodyPath := filepath.Join(dir, "body.json")
	cfgPath := filepath.Join(dir, "sniffer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("sniffer:\n  sink: file\n  sink_file: "+tracePath+"\n"), 0o644))

	_, err := execute(t, "fetch", "--config", cfgPath, "-o", bodyPath, srv.URL+"/greeting")
	require.NoError(t, err)

	body, err := os.ReadFile(bodyPath)
	require.NoError(t, err)
	assert.Equal(t, `{"hello":"world"}`, string(body))

	trace, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	assert.Contains(t, string(trace), "Request [GET] : "+srv.URL+"/greeting")
	assert.Contains(t, string(trace), "Status: 200 - OK")
	assert.Contains(t, string(trace), `"hello": "world"`)
}

func TestFetchCommand_RequiresURL(t *testing.T) {
	_, err := execute(t, "fetch")
	assert.Error(t, err)
}

func TestBuildFetchRequest(t *testing.T) {
	tests := []struct {
		name       string
		opts       fetchOptions
		wantMethod string
		wantHeader string
		wantErr    bool
	}{
		{name: "default get", opts: fetchOptions{}, wantMethod: http.MethodGet},
		{name: "data implies post", opts: fetchOptions{Data: "a=1"}, wantMethod: http.MethodPost},
		{name: "explicit method", opts: fetchOptions{Method: "put", Data: "x"}, wantMethod: http.MethodPut},
		{name: "header", opts: fetchOptions{Headers: []string{"Accept:  application/json "}}, wantMethod: http.MethodGet, wantHeader: "application/json"},
		{name: "malformed header", opts: fetchOptions{Headers: []string{"no-colon"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := buildFetchRequest(context.Background(), tt.opts, "http://example.com")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, tt.wantHeader, req.Header.Get("Accept"))
		})
	}
}

func TestSinkChanged(t *testing.T) {
	base := config.Sniffer{Sink: config.SinkConsole}

	same := base
	same.IgnoredDomains = []string{"a.com"}
	assert.False(t, sinkChanged(&base, &same))

	file := base
	file.Sink = config.SinkFile
	assert.True(t, sinkChanged(&base, &file))

	limited := base
	limited.RateLimitPerSecond = 3
	assert.True(t, sinkChanged(&base, &limited))
}

func TestProxyHandler_TracesForwardedRequests(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "through the proxy")
	}))
	defer backend.Close()

	cfg := &config.Config{Metrics: config.Metrics{Enabled: true}}
	mgr := config.NewStaticManager(cfg)
	metrics := adaptermetrics.NewPrometheusMetricsAdapter()
	transport := &http.Transport{}
	sink := &recordingSink{}
	tp := tap.New(tap.WithSink(sink), tap.WithTransport(transport), tap.WithMetrics(metrics))
	defer tp.Close()

	admin := newAdminMux(mgr, tp, metrics.Handler())
	proxySrv := httptest.NewServer(newProxyHandler(cfg, tp, transport, admin, false))
	defer proxySrv.Close()

	proxyURL, err := url.Parse(proxySrv.URL)
	require.NoError(t, err)
	client := &http.Client{Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)}}

	resp, err := client.Get(backend.URL + "/via")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	tp.Wait()

	assert.Equal(t, "through the proxy", string(body))
	traces := sink.all()
	require.Len(t, traces, 2)
	assert.Contains(t, traces[0].Text, "Request [GET] : "+backend.URL+"/via")
	assert.Contains(t, traces[1].Text, "Body: [\nthrough the proxy\n]")

	metricsResp, err := http.Get(proxySrv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	exposition, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
	assert.Contains(t, string(exposition), "sniffer_exchanges_total")

	healthResp, err := http.Get(proxySrv.URL + healthPath)
	require.NoError(t, err)
	healthResp.Body.Close()
	assert.Equal(t, http.StatusOK, healthResp.StatusCode)
}
