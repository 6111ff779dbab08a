// Package httpserver wraps net/http with graceful shutdown, env-driven
// configuration, lifecycle hooks, and a combined liveness/readiness handler.
//
// A Server is built with New or NewFromConfig and functional options, then
// started with Run, which blocks until the context is cancelled, a SIGINT or
// SIGTERM arrives, or the listener fails:
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStartHook(func(l *slog.Logger) {
//			l.Info("listening")
//		}),
//	)
//	if err := srv.Run(ctx, handler); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// On shutdown the server drains in-flight requests within the configured
// shutdown timeout and then runs the stop hooks.
//
// HealthCheckHandler mounts on any route and serves "ALIVE" when no
// readiness probes are registered, "READY" when all probes pass, and
// "NOT_READY" with status 500 when one fails.
//
// Run failures wrap ErrStart and shutdown failures wrap ErrShutdown, so both
// can be tested with errors.Is.
package httpserver
