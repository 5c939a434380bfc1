package http

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Server 封装 HTTP 服务器，提供优雅关闭功能
type Server struct {
	server *http.Server
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Addr              string
	Handler           http.Handler
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// NewServer 创建新的 HTTP 服务器
func NewServer(cfg ServerConfig) *Server {
	return &Server{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           cfg.Handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}
}

// Start 启动服务器（非阻塞）。监听失败的错误写入返回的通道，正常关闭时通道直接关闭
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// DefaultServerConfig 返回默认服务器配置。
// 代理的响应体可能持续很久，因此不设置 WriteTimeout
func DefaultServerConfig(addr string, handler http.Handler) ServerConfig {
	return ServerConfig{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
