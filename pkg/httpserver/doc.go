// Package httpserver runs an http.Handler until its context is cancelled and
// then shuts it down gracefully.
//
// Signal handling is left to the caller; cancel the context passed to Run
// (for example with signal.NotifyContext) to stop the server.
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	r.Get("/healthz", httpserver.Liveness())
//	r.Get("/readyz", httpserver.Readiness(log, cfg.ReadinessTimeout, map[string]httpserver.Check{
//		"redis":    kv.Healthcheck(store),
//		"postgres": pg.Healthcheck(pool),
//	}))
//	err := srv.Run(ctx, r)
//
// Errors from Run wrap ErrStart and errors from Shutdown wrap ErrShutdown.
package httpserver
