package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/grimoire/modules/admin"
)

type adminChecker interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// proxyIdentity trusts the user id set by the authenticating reverse proxy in
// front of this service and looks up the admin flag in the database.
func proxyIdentity(header string, admins adminChecker) admin.IdentityFunc {
	return func(r *http.Request) (admin.Identity, error) {
		raw := r.Header.Get(header)
		if raw == "" {
			return admin.Identity{}, admin.ErrUnauthenticated
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			return admin.Identity{}, admin.ErrUnauthenticated
		}
		isAdmin, err := admins.IsAdmin(r.Context(), userID)
		if err != nil {
			return admin.Identity{}, err
		}
		return admin.Identity{UserID: userID, Admin: isAdmin}, nil
	}
}
