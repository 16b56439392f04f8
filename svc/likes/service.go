package likes

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/grimoire/pkg/logger"
)

// Service toggles likes and reports like counts.
// Callers are expected to have authenticated userID already.
type Service struct {
	storage Storage
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService returns a Service over storage.
func NewService(storage Storage, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Toggle likes the item for userID if they have not liked it yet, and unlikes it otherwise.
// A concurrent toggle that already inserted the same like makes this call report Liked=true.
func (s *Service) Toggle(ctx context.Context, itemID, userID int64) (Result, error) {
	if err := s.requireItem(ctx, itemID); err != nil {
		return Result{}, err
	}

	liked, err := s.flip(ctx, itemID, userID)
	if err != nil {
		return Result{}, err
	}

	total, err := s.storage.Count(ctx, itemID)
	if err != nil {
		return Result{}, err
	}

	s.logger.LogAttrs(ctx, slog.LevelDebug, "like toggled",
		logger.Component("likes"),
		logger.ItemID(itemID),
		logger.UserID(userID),
		slog.Bool("liked", liked),
		slog.Int64("total_likes", total),
	)
	return Result{Liked: liked, TotalLikes: total}, nil
}

func (s *Service) flip(ctx context.Context, itemID, userID int64) (bool, error) {
	_, err := s.storage.Find(ctx, itemID, userID)
	switch {
	case err == nil:
		// A concurrent unlike may have removed it already; either way it is gone.
		if _, err := s.storage.Delete(ctx, itemID, userID); err != nil {
			return false, err
		}
		return false, nil
	case !errors.Is(err, ErrLikeNotFound):
		return false, err
	}

	_, err = s.storage.Insert(ctx, itemID, userID)
	if errors.Is(err, ErrDuplicate) {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "concurrent like detected, treating as liked",
			logger.Component("likes"),
			logger.ItemID(itemID),
			logger.UserID(userID),
		)
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the current number of likes for the item.
func (s *Service) Count(ctx context.Context, itemID int64) (int64, error) {
	if err := s.requireItem(ctx, itemID); err != nil {
		return 0, err
	}
	return s.storage.Count(ctx, itemID)
}

func (s *Service) requireItem(ctx context.Context, itemID int64) error {
	ok, err := s.storage.ItemExists(ctx, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}
