package httpserver

import (
	"log/slog"
	"time"
)

// Option configures a Server during construction.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: empty addr")
	}
	return func(s *Server) { s.addr = addr }
}

// WithReadTimeout bounds reading of the entire request, body included.
func WithReadTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: read timeout must be positive")
	}
	return func(s *Server) { s.readTimeout = d }
}

// WithWriteTimeout bounds writing of the response.
func WithWriteTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: write timeout must be positive")
	}
	return func(s *Server) { s.writeTimeout = d }
}

// WithIdleTimeout bounds how long a keep-alive connection may sit idle.
func WithIdleTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: idle timeout must be positive")
	}
	return func(s *Server) { s.idleTimeout = d }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: shutdown timeout must be positive")
	}
	return func(s *Server) { s.shutdownTimeout = d }
}

// WithLogger supplies the logger passed to start and stop hooks. A nil
// logger keeps the default, which discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStartHook registers a callback that runs right before the server
// starts listening.
func WithStartHook(h func(*slog.Logger)) Option {
	if h == nil {
		panic("httpserver: nil start hook")
	}
	return func(s *Server) { s.startHooks = append(s.startHooks, h) }
}

// WithStopHook registers a callback that runs after the server has drained.
func WithStopHook(h func(*slog.Logger)) Option {
	if h == nil {
		panic("httpserver: nil stop hook")
	}
	return func(s *Server) { s.stopHooks = append(s.stopHooks, h) }
}
