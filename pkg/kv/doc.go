// Package kv is the key-value store adapter shared by the notification
// pipeline and the count cache. It wraps a go-redis client and exposes the
// handful of primitives those services need: get/set with TTL, delete,
// atomic increment and list append/trim/range/remove.
//
// The underlying client is created lazily on first use and go-redis keeps
// reconnecting its pool on its own, so a Store can be built before Redis is
// reachable. Every operation runs under Config.OpTimeout, logs failures at
// WARN, and returns an error wrapping ErrUnavailable so the caller picks the
// fallback (cache miss, skip the notification, fail the request).
//
//	store, err := kv.New(cfg, kv.WithLogger(log))
//	if err != nil {
//	    return err // malformed REDIS_URL
//	}
//	defer store.Close()
//
//	n, err := store.Incr(ctx, "admin:notifications:seq")
package kv
