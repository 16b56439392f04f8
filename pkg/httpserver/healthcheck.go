package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/dmitrymomot/grimoire/pkg/logger"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// Liveness always answers 200 "ALIVE".
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	}
}

// Readiness runs every check with the given timeout and answers 200 "READY"
// when all pass, 503 "NOT_READY" otherwise. Failing checks are logged by name.
func Readiness(log *slog.Logger, timeout time.Duration, checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		ready := true
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				ready = false
				log.LogAttrs(ctx, slog.LevelError, "readiness check failed",
					logger.Component("httpserver"),
					slog.String("check", name),
					logger.Error(err),
				)
			}
		}

		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
