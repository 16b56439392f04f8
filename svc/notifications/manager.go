package notifications

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/grimoire/pkg/logger"
)

// Manager is the admin-facing surface over the notification log.
// It performs no authorization; callers must only expose it to admins.
type Manager struct {
	log    *Log
	logger *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager returns the admin-facing view over log.
func NewManager(log *Log, opts ...ManagerOption) *Manager {
	m := &Manager{
		log:    log,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// List returns the retained notifications, oldest first. A store outage
// yields an empty list rather than an error.
func (m *Manager) List(ctx context.Context) []Notification {
	list, err := m.log.List(ctx)
	if err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "notification log unavailable, returning empty list",
			logger.Component("notifications"),
			logger.Error(err),
		)
		return []Notification{}
	}
	return list
}

// Acknowledge removes the notification with the given id. It returns false
// when no such notification is retained, including when it was already
// acknowledged or evicted.
func (m *Manager) Acknowledge(ctx context.Context, id uint64) (bool, error) {
	removed, err := m.log.Remove(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		m.logger.LogAttrs(ctx, slog.LevelDebug, "notification acknowledged",
			logger.Component("notifications"),
			logger.NotificationID(id),
		)
	}
	return removed, nil
}

// Clear drops every retained notification. Ids keep increasing afterwards.
func (m *Manager) Clear(ctx context.Context) error {
	return m.log.Clear(ctx)
}
