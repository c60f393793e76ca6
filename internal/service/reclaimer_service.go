package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"parkhaus/internal/db"
	"parkhaus/internal/repository"
)

// ReclaimerService is the background reclamation pass. It only *finds* work;
// every transition goes through the lifecycle manager, so the timer-driven
// path and the request path share one code path.
type ReclaimerService struct {
	store        repository.Store
	reservations *ReservationService
	waitlist     *WaitlistService
	clock        Clock
	noShowGrace  time.Duration
	logger       *zap.Logger
}

func NewReclaimerService(
	store repository.Store,
	reservations *ReservationService,
	waitlist *WaitlistService,
	clock Clock,
	noShowGrace time.Duration,
	logger *zap.Logger,
) *ReclaimerService {
	return &ReclaimerService{
		store:        store,
		reservations: reservations,
		waitlist:     waitlist,
		clock:        clock,
		noShowGrace:  noShowGrace,
		logger:       logger,
	}
}

// Run executes both sweeps plus the waitlist purge. Errors are logged, not
// returned: one bad row must not stop the pass.
func (r *ReclaimerService) Run(ctx context.Context) {
	if n, err := r.SweepExpired(ctx); err != nil {
		r.logger.Error("expiry sweep failed", zap.Error(err))
	} else if n > 0 {
		r.logger.Info("expiry sweep reclaimed reservations", zap.Int("count", n))
	}

	if n, err := r.SweepNoShows(ctx); err != nil {
		r.logger.Error("no-show sweep failed", zap.Error(err))
	} else if n > 0 {
		r.logger.Info("no-show sweep reclaimed reservations", zap.Int("count", n))
	}

	if n, err := r.waitlist.PurgeExpired(ctx); err != nil {
		r.logger.Error("waitlist purge failed", zap.Error(err))
	} else if n > 0 {
		r.logger.Info("purged expired waitlist entries", zap.Int64("count", n))
	}
}

// SweepExpired releases spots whose reservations ran past their end time:
// checked-in stays complete at the estimated cost, never-checked-in
// confirmations expire.
func (r *ReclaimerService) SweepExpired(ctx context.Context) (int, error) {
	now := r.clock.Now()
	lapsed, err := r.store.Reservations().FindOccupyingPastEnd(ctx, now)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, res := range lapsed {
		var changed bool
		var err error
		if res.Status == db.StatusActive || res.CheckedInAt != nil {
			changed, err = r.reservations.CompleteLapsed(ctx, res.ID)
		} else {
			changed, err = r.reservations.ExpireLapsed(ctx, res.ID)
		}
		if err != nil {
			r.logger.Error("failed to reclaim lapsed reservation",
				zap.Int("reservation_id", res.ID), zap.Error(err))
			continue
		}
		if changed {
			reclaimed++
		}
	}
	return reclaimed, nil
}

// SweepNoShows marks occupying reservations with no check-in as no-shows once
// the grace period after their start time has passed.
func (r *ReclaimerService) SweepNoShows(ctx context.Context) (int, error) {
	cutoff := r.clock.Now().Add(-r.noShowGrace)
	stale, err := r.store.Reservations().FindOccupyingNotCheckedInBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, res := range stale {
		changed, err := r.reservations.MarkNoShow(ctx, res.ID)
		if err != nil {
			r.logger.Error("failed to mark no-show",
				zap.Int("reservation_id", res.ID), zap.Error(err))
			continue
		}
		if changed {
			reclaimed++
		}
	}
	return reclaimed, nil
}
