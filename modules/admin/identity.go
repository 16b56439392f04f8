package admin

import (
	"context"
	"errors"
	"net/http"
)

var ErrUnauthenticated = errors.New("admin: unauthenticated")

// Identity is the caller as resolved by the host application.
type Identity struct {
	UserID int64
	Admin  bool
}

// IdentityFunc resolves the caller of r. It returns ErrUnauthenticated when
// the request carries no valid credentials.
type IdentityFunc func(r *http.Request) (Identity, error)

type identityKey struct{}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by the router's auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
