package httpserver

import "errors"

var (
	// ErrStart wraps listener failures reported by Run.
	ErrStart = errors.New("httpserver: start failed")
	// ErrShutdown wraps failures to drain the server within the shutdown timeout.
	ErrShutdown = errors.New("httpserver: shutdown failed")
)
