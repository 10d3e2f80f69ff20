// Package server 提供可选的 HTTP 服务：暴露 Prometheus 指标和驱动注册状态的健康检查。
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/asgard-driver/internal/connector"
	"github.com/asgard-driver/pkg/config"
)

// httpShutdownTimeout 优雅关闭超时时间，避免关闭流程无限阻塞
const httpShutdownTimeout = 5 * time.Second

const indexPage = `<html>
<head><title>asgard driver</title></head>
<body>
<h1>asgard driver</h1>
<p><a href="/metrics">metrics</a></p>
<p><a href="/health">health</a></p>
</body>
</html>`

// StateReporter 健康检查依赖的连接器状态
type StateReporter interface {
	State() connector.State
}

// HTTPServer 封装监听地址、HTTP服务器和指标注册器
type HTTPServer struct {
	addr     string
	server   *http.Server
	listener net.Listener
	log      *zap.Logger
}

// statusWriter 包装http.ResponseWriter，用于捕获响应状态码
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// NewHTTPServer 创建HTTP服务实例：
//   - /metrics：私有注册器中的指标
//   - /health：sensor 已注册返回 200，否则 503
//   - /：索引页
func NewHTTPServer(cfg *config.ServerConfig, log *zap.Logger, registry *prometheus.Registry, state StateReporter) *HTTPServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(log),
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		s := state.State()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !s.Registered() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "NOT READY: %s\n", s)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "OK: %s\n", s)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexPage))
	})

	return &HTTPServer{
		addr: cfg.Addr,
		log:  log,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      logRequests(log, mux),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// logRequests 记录请求方法、URL、客户端地址、响应状态码、处理耗时
func logRequests(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", ww.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// Start 同步监听（端口占用等错误直接返回），在子goroutine中处理请求
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.log.Info("starting HTTP server",
		zap.String("listen_addr", ln.Addr().String()),
		zap.Duration("read_timeout", s.server.ReadTimeout),
		zap.Duration("write_timeout", s.server.WriteTimeout),
		zap.Duration("idle_timeout", s.server.IdleTimeout))

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped unexpectedly", zap.Error(err))
		}
	}()
	return nil
}

// Addr 实际监听地址（端口为 0 时由系统分配）
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Shutdown 优雅关闭：停止接收新请求，等待现有请求在超时时间内完成
func (s *HTTPServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		// 超时视为关闭完成
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil
		}
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	s.log.Info("HTTP server shutdown successfully", zap.String("listen_addr", s.Addr()))
	return nil
}
