package cmd

import (
	"io"
	"net/http"

	adapterlogging "http-sniffer/adapter/logging"
	"http-sniffer/adapter/sink"
	"http-sniffer/adapter/tap"
	"http-sniffer/application/deserializer"
	"http-sniffer/domain/port"
	"http-sniffer/domain/service"
	"http-sniffer/infrastructure/config"
	"http-sniffer/infrastructure/logging"
)

// newTap wires a Tap from cfg in front of rt.
// The returned Closer releases the sink.
func newTap(cfg *config.Config, rt http.RoundTripper, metrics port.MetricsProvider) (*tap.Tap, io.Closer) {
	logger := adapterlogging.NewCategoryLogger(logging.CategoryGeneral)
	registry := deserializer.NewDefaultRegistry(
		service.WithRegistryLogger(logger),
		service.WithResolveCacheSize(cfg.Sniffer.GetResolveCacheSize()),
	)
	s, closer := sink.New(cfg, logging.TrafficLogger)

	t := tap.New(
		tap.WithTransport(rt),
		tap.WithRegistry(registry),
		tap.WithSink(s),
		tap.WithLogger(logger),
		tap.WithMetrics(metrics),
		tap.WithIgnoredDomains(cfg.Sniffer.IgnoredDomains...),
		tap.WithMaxBodyBytes(cfg.Sniffer.GetMaxBodyBytes()),
	)
	return t, closer
}
