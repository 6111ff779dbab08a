package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/visitdesk/visitdesk/pkg/logger"
)

// HealthCheckHandler serves liveness and readiness probes on one endpoint.
// With no probes registered it responds 200 "ALIVE". With probes it runs
// each against the request context and responds 200 "READY", or 500
// "NOT_READY" on the first failure.
func HealthCheckHandler(log *slog.Logger, probes ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(probes) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
			return
		}

		for _, probe := range probes {
			if err := probe(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness probe failed", logger.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
