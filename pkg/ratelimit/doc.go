// Package ratelimit limits how often a key may perform an action within a
// fixed window, with counters kept in the shared key-value store so every
// instance sees the same budget.
//
// When the store is unreachable the limiter fails open: requests are allowed
// and the failure is logged.
//
//	limiter, err := ratelimit.New(store, ratelimit.Config{Limit: 30, Window: time.Minute})
//	r.With(ratelimit.Middleware(limiter, userKey)).Post("/items/{id}/like", toggle)
package ratelimit
