package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elazarl/goproxy"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	adapterhttp "http-sniffer/adapter/http"
	adapterlogging "http-sniffer/adapter/logging"
	adaptermetrics "http-sniffer/adapter/metrics"
	"http-sniffer/adapter/sink"
	"http-sniffer/adapter/tap"
	"http-sniffer/infrastructure/config"
	httpclient "http-sniffer/infrastructure/http"
	"http-sniffer/infrastructure/logging"
)

const (
	shutdownTimeout = 5 * time.Second
	healthPath      = "/healthz"
)

func newProxyCmd() *cobra.Command {
	var (
		listen string
		mitm   bool
	)
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Run a forward proxy that traces every exchange passing through it.",
		Long: `Run a local forward HTTP proxy. Plain HTTP requests are always traced.
HTTPS is tunnelled untouched unless --mitm is set, in which case the proxy
terminates TLS with its built-in CA so the exchanges can be traced too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := configManager.Get().Proxy.GetListen()
			if cmd.Flags().Changed("listen") {
				addr = listen
			}
			return runProxy(cmd.Context(), configManager, addr, mitm)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "监听地址 (默认使用配置 proxy.listen)")
	cmd.Flags().BoolVar(&mitm, "mitm", false, "解密 HTTPS 流量以便记录")
	return cmd
}

// newProxyHandler builds the goproxy server. Every forwarded request goes through t;
// requests addressed to the proxy itself are served by admin.
func newProxyHandler(cfg *config.Config, t *tap.Tap, transport *http.Transport, admin http.Handler, mitm bool) *goproxy.ProxyHttpServer {
	proxy := goproxy.NewProxyHttpServer()
	proxy.Verbose = cfg.Proxy.Verbose
	proxy.Logger = zap.NewStdLog(logging.SystemLogger)
	proxy.Tr = transport

	if mitm {
		proxy.OnRequest().HandleConnect(goproxy.AlwaysMitm)
	}
	proxy.OnRequest().DoFunc(func(r *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
		ctx.RoundTripper = goproxy.RoundTripperFunc(func(req *http.Request, _ *goproxy.ProxyCtx) (*http.Response, error) {
			return t.RoundTrip(req)
		})
		return r, nil
	})

	if admin != nil {
		proxy.NonproxyHandler = admin
	}
	return proxy
}

// newAdminMux serves the health endpoint and, when enabled, the metrics endpoint.
func newAdminMux(mgr *config.Manager, t *tap.Tap, metricsHandler http.Handler) *http.ServeMux {
	cfg := mgr.Get()
	mux := http.NewServeMux()
	mux.Handle(healthPath, adapterhttp.NewHealthHandler(mgr, t, Version,
		adapterlogging.NewCategoryLogger(logging.CategorySystem)))
	if cfg.Metrics.Enabled && metricsHandler != nil {
		mux.Handle(cfg.Metrics.GetPath(), metricsHandler)
	}
	return mux
}

func runProxy(ctx context.Context, mgr *config.Manager, addr string, mitm bool) error {
	cfg := mgr.Get()
	metrics := adaptermetrics.NewPrometheusMetricsAdapter()
	transport := httpclient.NewTransport(httpclient.ClientConfigFrom(cfg.Transport))

	t, sinkCloser := newTap(cfg, transport, metrics)
	defer func() {
		_ = t.Close()
		t.Wait()
		_ = sinkCloser.Close()
	}()

	proxy := newProxyHandler(cfg, t, transport, newAdminMux(mgr, t, metrics.Handler()), mitm)
	srv := httpclient.NewServer(httpclient.DefaultServerConfig(addr, httpclient.RecoveryMiddleware(proxy)))
	errCh := srv.Start()
	logging.SystemSugar.Infow("代理已启动",
		"listen", addr,
		"sink", cfg.Sniffer.GetSink(),
		"mitm", mitm,
		"metrics", cfg.Metrics.Enabled,
	)

	notify := mgr.Watch()
	defer mgr.StopWatch()

	for {
		select {
		case err, ok := <-errCh:
			if ok && err != nil {
				return fmt.Errorf("代理服务启动失败: %w", err)
			}
			return nil

		case <-notify:
			next := mgr.Get()
			t.SetIgnoredDomains(next.Sniffer.IgnoredDomains)
			if sinkChanged(&cfg.Sniffer, &next.Sniffer) {
				sinkCloser = swapSink(t, next, sinkCloser)
			}
			cfg = next
			logging.SystemSugar.Infow("配置已重载",
				"ignored_domains", len(next.Sniffer.IgnoredDomains),
				"sink", next.Sniffer.GetSink(),
			)

		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			logging.SystemSugar.Info("正在关闭代理")
			return srv.Shutdown(shutdownCtx)
		}
	}
}

// swapSink installs the sink described by cfg and closes the previous one.
// In-flight exchanges that still hold the old sink log a warning if it is a closed file.
func swapSink(t *tap.Tap, cfg *config.Config, old io.Closer) io.Closer {
	s, closer := sink.New(cfg, logging.TrafficLogger)
	t.SetSink(s)
	if err := old.Close(); err != nil {
		logging.SystemSugar.Warnw("关闭旧的 sink 失败", "error", err)
	}
	return closer
}

func sinkChanged(old, next *config.Sniffer) bool {
	return old.GetSink() != next.GetSink() ||
		old.GetSinkFile() != next.GetSinkFile() ||
		old.GetColorize() != next.GetColorize() ||
		old.RateLimitPerSecond != next.RateLimitPerSecond ||
		old.GetBurst() != next.GetBurst()
}
