// Package usercount serves the total user count through a short-lived cache.
//
// Reads within the TTL may return a stale value. Mutations that change the
// number of users must call Invalidate after they commit, never before,
// otherwise a concurrent Read can repopulate the cache with the old value.
// This service does not create or delete users itself. The account layer that
// owns the users table (sign-up, account deletion, admin user removal) is the
// expected caller of Invalidate. Without it, reads converge once the TTL expires.
//
//	cache := usercount.NewCache(store, usercount.NewPgSource(pool), usercount.WithTTL(cfg.TTL))
//	c, err := cache.Read(ctx)
//	// c.Value, c.Cached
package usercount
