package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"http-sniffer/infrastructure/config"
)

type ClientConfig struct {
	ConnectTimeout        time.Duration
	ResponseHeaderTimeout time.Duration
	TotalTimeout          time.Duration
	MaxConnsPerHost       int
	MaxIdleConns          int
	KeepAlive             time.Duration
	IdleConnTimeout       time.Duration
	InsecureSkipVerify    bool
}

// ClientConfigFrom 把 transport 配置转换为 ClientConfig
func ClientConfigFrom(t config.Transport) ClientConfig {
	return ClientConfig{
		ConnectTimeout:        t.GetConnectTimeout(),
		ResponseHeaderTimeout: t.GetResponseHeaderTimeout(),
		TotalTimeout:          t.GetTotalTimeout(),
		MaxConnsPerHost:       t.GetMaxConnsPerHost(),
		MaxIdleConns:          t.GetMaxIdleConns(),
		KeepAlive:             t.GetKeepAlive(),
		IdleConnTimeout:       t.GetIdleConnTimeout(),
		InsecureSkipVerify:    t.InsecureSkipVerify,
	}
}

// NewTransport 创建真正发起网络请求的 Transport，由 tap 独占
func NewTransport(cfg ClientConfig) *http.Transport {
	idlePerHost := cfg.MaxConnsPerHost / 4
	if idlePerHost < 2 {
		idlePerHost = 2
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   idlePerHost,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // 仅用于调试自签名证书
	}
	return transport
}

// NewHTTPClient 创建使用 rt 的客户端，rt 为 nil 时使用 NewTransport
func NewHTTPClient(cfg ClientConfig, rt http.RoundTripper) *http.Client {
	if rt == nil {
		rt = NewTransport(cfg)
	}
	return &http.Client{
		Timeout:   cfg.TotalTimeout,
		Transport: rt,
	}
}

func DefaultClientConfig() ClientConfig {
	return ClientConfigFrom(config.Transport{})
}
