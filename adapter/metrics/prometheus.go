package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"http-sniffer/domain/port"
)

const namespace = "sniffer"

// PrometheusMetricsAdapter 将 tap 活动记录为 Prometheus 指标
type PrometheusMetricsAdapter struct {
	registry        *prometheus.Registry
	activeExchanges prometheus.Gauge
	exchangesTotal  *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	tracesEmitted   *prometheus.CounterVec
	tracesDropped   *prometheus.CounterVec
}

// NewPrometheusMetricsAdapter 创建一个新的 Prometheus 指标适配器，指标注册到独立的 Registry
func NewPrometheusMetricsAdapter() *PrometheusMetricsAdapter {
	a := &PrometheusMetricsAdapter{
		registry: prometheus.NewRegistry(),
		activeExchanges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_exchanges",
			Help:      "Number of intercepted exchanges that have not completed yet.",
		}),
		exchangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchanges_total",
			Help:      "Completed intercepted exchanges by method and outcome.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "exchange_duration_seconds",
			Help:      "Wall clock duration of intercepted exchanges.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
		tracesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traces_emitted_total",
			Help:      "Rendered traces handed to the sink by kind.",
		}, []string{"kind"}),
		tracesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traces_dropped_total",
			Help:      "Rendered traces that never reached the sink by reason.",
		}, []string{"reason"}),
	}

	a.registry.MustRegister(
		a.activeExchanges,
		a.exchangesTotal,
		a.duration,
		a.tracesEmitted,
		a.tracesDropped,
		collectors.NewGoCollector(),
	)
	return a
}

// IncActiveExchanges 增加进行中的 exchange 数
func (a *PrometheusMetricsAdapter) IncActiveExchanges() {
	a.activeExchanges.Inc()
}

// DecActiveExchanges 减少进行中的 exchange 数
func (a *PrometheusMetricsAdapter) DecActiveExchanges() {
	a.activeExchanges.Dec()
}

// ObserveExchange 记录一次完成的 exchange
func (a *PrometheusMetricsAdapter) ObserveExchange(method, outcome string, duration time.Duration) {
	a.exchangesTotal.WithLabelValues(method, outcome).Inc()
	a.duration.WithLabelValues(method, outcome).Observe(duration.Seconds())
}

// IncTracesEmitted 记录交给 sink 的 trace
func (a *PrometheusMetricsAdapter) IncTracesEmitted(kind port.LogKind) {
	a.tracesEmitted.WithLabelValues(string(kind)).Inc()
}

// IncTracesDropped 记录被丢弃的 trace
func (a *PrometheusMetricsAdapter) IncTracesDropped(reason string) {
	a.tracesDropped.WithLabelValues(reason).Inc()
}

// Registry 返回底层 Registry
func (a *PrometheusMetricsAdapter) Registry() *prometheus.Registry {
	return a.registry
}

// Handler 返回 /metrics 处理器
func (a *PrometheusMetricsAdapter) Handler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}

// 确保 PrometheusMetricsAdapter 实现 port.MetricsProvider 接口
var _ port.MetricsProvider = (*PrometheusMetricsAdapter)(nil)
