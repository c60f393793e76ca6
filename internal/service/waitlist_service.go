package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"parkhaus/internal/db"
	"parkhaus/internal/entities"
	"parkhaus/internal/repository"
)

// WaitlistService records unmet demand as one FIFO queue per
// (spot type, rounded window) key. It never books on its own: a release only
// surfaces the queue head for a caller-driven confirmation.
type WaitlistService struct {
	store    repository.Store
	notifier Notifier
	clock    Clock
	ttl      time.Duration
	logger   *zap.Logger
}

func NewWaitlistService(store repository.Store, notifier Notifier, clock Clock, ttl time.Duration, logger *zap.Logger) *WaitlistService {
	return &WaitlistService{store: store, notifier: notifier, clock: clock, ttl: ttl, logger: logger}
}

// queueKey rounds the window outward to whole hours so near-identical
// requests share one queue.
func queueKey(spotType string, start, end time.Time) string {
	s := start.UTC().Truncate(time.Hour)
	e := end.UTC().Truncate(time.Hour)
	if e.Before(end.UTC()) {
		e = e.Add(time.Hour)
	}
	return fmt.Sprintf("%s|%s|%s", spotType, s.Format(time.RFC3339), e.Format(time.RFC3339))
}

func (s *WaitlistService) AddToWaitlist(ctx context.Context, req entities.WaitlistRequest) (*entities.WaitlistResult, error) {
	if !req.EndTime.After(req.StartTime) {
		return &entities.WaitlistResult{
			Kind:    entities.ResultValidation,
			Message: "end_time must be after start_time",
		}, nil
	}

	now := s.clock.Now()
	entry := &db.WaitlistEntry{
		UserID:      req.UserID,
		SpotType:    req.SpotType,
		Features:    req.Features,
		WindowStart: req.StartTime,
		WindowEnd:   req.EndTime,
		QueueKey:    queueKey(req.SpotType, req.StartTime, req.EndTime),
		ExpiresAt:   now.Add(s.ttl),
	}

	err := s.store.RunAtomically(ctx, func(st repository.Store) error {
		// Lazy expiry: stale entries are gone before a position is handed out.
		if _, err := st.Waitlist().PurgeExpired(ctx, now); err != nil {
			return err
		}
		return st.Waitlist().Enqueue(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("waitlisted request",
		zap.String("queue_key", entry.QueueKey),
		zap.Int("position", entry.Position))
	return &entities.WaitlistResult{
		Success:   true,
		Kind:      entities.ResultOK,
		Position:  entry.Position,
		ExpiresAt: entry.ExpiresAt,
	}, nil
}

// NotifyOnRelease offers a freed (spot type, window) to the head of the
// matching queue. Best-effort: a missing queue is not an error.
func (s *WaitlistService) NotifyOnRelease(ctx context.Context, spotType string, start, end time.Time) error {
	now := s.clock.Now()
	if _, err := s.store.Waitlist().PurgeExpired(ctx, now); err != nil {
		return err
	}

	key := queueKey(spotType, start, end)
	head, err := s.store.Waitlist().PeekHead(ctx, key, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	user, err := s.store.Users().GetByID(ctx, head.UserID)
	if err != nil {
		return fmt.Errorf("waitlist head user %d: %w", head.UserID, err)
	}

	s.notifier.SpotFreed(user, head)
	if err := s.store.Waitlist().IncrementNotified(ctx, head.ID); err != nil {
		return err
	}

	s.logger.Info("waitlist candidate notified",
		zap.String("queue_key", key),
		zap.Int("user_id", head.UserID),
		zap.Int("position", head.Position))
	return nil
}

// PurgeExpired drops stale entries; the reclamation scheduler calls this on
// its cadence.
func (s *WaitlistService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.Waitlist().PurgeExpired(ctx, s.clock.Now())
}
