package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/grimoire/pkg/logger"
	"github.com/dmitrymomot/grimoire/pkg/ratelimit"
	"github.com/dmitrymomot/grimoire/svc/likes"
	"github.com/dmitrymomot/grimoire/svc/notifications"
	"github.com/dmitrymomot/grimoire/svc/usercount"
)

// NotificationManager is satisfied by *notifications.Manager.
type NotificationManager interface {
	List(ctx context.Context) []notifications.Notification
	Acknowledge(ctx context.Context, id uint64) (bool, error)
	Clear(ctx context.Context) error
}

// LikeService is satisfied by *likes.Service.
type LikeService interface {
	Toggle(ctx context.Context, itemID, userID int64) (likes.Result, error)
	Count(ctx context.Context, itemID int64) (int64, error)
}

// UserCounter is satisfied by *usercount.Cache.
type UserCounter interface {
	Read(ctx context.Context) (usercount.Count, error)
}

type Options struct {
	Notifications NotificationManager
	Likes         LikeService
	UserCount     UserCounter
	Identity      IdentityFunc
	// LikeLimiter, when set, bounds like toggles per user.
	LikeLimiter *ratelimit.Limiter
	Logger      *slog.Logger
}

type handlers struct {
	Options
}

// Router builds the chi router for all routes listed in the package doc.
func Router(opts Options) chi.Router {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	h := &handlers{Options: opts}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.authenticate)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Get("/notifications", h.listNotifications)
		r.Delete("/notifications", h.clearNotifications)
		r.Delete("/notifications/{id}", h.acknowledgeNotification)
		r.Get("/stats/users", h.userCount)
	})

	r.Route("/items/{id}", func(r chi.Router) {
		r.Get("/likes", h.likeCount)

		like := r.With()
		if opts.LikeLimiter != nil {
			like = r.With(ratelimit.Middleware(opts.LikeLimiter, callerKey))
		}
		like.Post("/like", h.toggleLike)
	})

	return r
}

// authenticate stores the caller's identity in the context when present.
// Anonymous requests continue; handlers that need a user reject them.
func (h *handlers) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Identity == nil {
			next.ServeHTTP(w, r)
			return
		}
		id, err := h.Identity(r)
		switch {
		case err == nil:
			r = r.WithContext(withIdentity(r.Context(), id))
		case !errors.Is(err, ErrUnauthenticated):
			h.Logger.LogAttrs(r.Context(), slog.LevelError, "identity lookup failed",
				logger.Component("admin"),
				logger.Error(err),
			)
			respondError(w, r, h.Logger, http.StatusInternalServerError, "internal", "identity lookup failed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerKey(r *http.Request) string {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		return ""
	}
	return "user:" + strconv.FormatInt(id.UserID, 10)
}

func (h *handlers) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			respondError(w, r, h.Logger, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}
		if !id.Admin {
			respondError(w, r, h.Logger, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.Logger, h.Notifications.List(r.Context()))
}

func (h *handlers) acknowledgeNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, r, h.Logger, http.StatusBadRequest, "invalid_id", "notification id must be a positive integer")
		return
	}

	removed, err := h.Notifications.Acknowledge(r.Context(), id)
	if err != nil {
		h.internal(w, r, "acknowledge notification", err)
		return
	}
	if !removed {
		respondError(w, r, h.Logger, http.StatusNotFound, "not_found", "notification not found")
		return
	}
	respond(w, r, h.Logger, map[string]bool{"acknowledged": true})
}

func (h *handlers) clearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := h.Notifications.Clear(r.Context()); err != nil {
		h.internal(w, r, "clear notifications", err)
		return
	}
	respond(w, r, h.Logger, map[string]bool{"cleared": true})
}

func (h *handlers) userCount(w http.ResponseWriter, r *http.Request) {
	c, err := h.UserCount.Read(r.Context())
	if err != nil {
		h.internal(w, r, "read user count", err)
		return
	}
	respond(w, r, h.Logger, c)
}

func (h *handlers) toggleLike(w http.ResponseWriter, r *http.Request) {
	caller, authed := IdentityFromContext(r.Context())
	if !authed {
		respondError(w, r, h.Logger, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}
	itemID, good := h.itemID(w, r)
	if !good {
		return
	}

	res, err := h.Likes.Toggle(r.Context(), itemID, caller.UserID)
	if errors.Is(err, likes.ErrItemNotFound) {
		respondError(w, r, h.Logger, http.StatusNotFound, "not_found", "item not found")
		return
	}
	if errors.Is(err, likes.ErrUserNotFound) {
		respondError(w, r, h.Logger, http.StatusUnauthorized, "unauthenticated", "unknown user")
		return
	}
	if err != nil {
		h.internal(w, r, "toggle like", err)
		return
	}
	respond(w, r, h.Logger, res)
}

func (h *handlers) likeCount(w http.ResponseWriter, r *http.Request) {
	itemID, good := h.itemID(w, r)
	if !good {
		return
	}

	n, err := h.Likes.Count(r.Context(), itemID)
	if errors.Is(err, likes.ErrItemNotFound) {
		respondError(w, r, h.Logger, http.StatusNotFound, "not_found", "item not found")
		return
	}
	if err != nil {
		h.internal(w, r, "count likes", err)
		return
	}
	respond(w, r, h.Logger, map[string]int64{"item_id": itemID, "total_likes": n})
}

func (h *handlers) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, h.Logger, http.StatusBadRequest, "invalid_id", "item id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *handlers) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.Logger.LogAttrs(r.Context(), slog.LevelError, "request failed",
		logger.Component("admin"),
		logger.Operation(op),
		logger.Error(err),
	)
	respondError(w, r, h.Logger, http.StatusInternalServerError, "internal", "internal error")
}
