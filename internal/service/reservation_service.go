package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parkhaus/internal/db"
	"parkhaus/internal/entities"
	"parkhaus/internal/repository"
)

const (
	minReservationDuration = 30 * time.Minute
	maxReservationDuration = 24 * time.Hour
)

// Refund tiers relative to the cancellation deadline and start time.
const (
	refundFull    = 100
	refundPartial = 50
	refundNone    = 0
)

var (
	// errBookingConflict aborts the commit transaction when the final
	// conflict re-check no longer resolves cleanly.
	errBookingConflict = errors.New("booking conflict at commit time")
	errNoTransition    = errors.New("no state transition performed")
)

// ReservationService is the lifecycle manager: it owns every reservation
// state transition and the refund policy. Callers never mutate reservations
// or spots directly.
type ReservationService struct {
	store            repository.Store
	matcher          *MatcherService
	conflicts        *ConflictService
	waitlist         *WaitlistService
	notifier         Notifier
	clock            Clock
	cancellationLead time.Duration
	logger           *zap.Logger
}

func NewReservationService(
	store repository.Store,
	matcher *MatcherService,
	conflicts *ConflictService,
	waitlist *WaitlistService,
	notifier Notifier,
	clock Clock,
	cancellationLead time.Duration,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		store:            store,
		matcher:          matcher,
		conflicts:        conflicts,
		waitlist:         waitlist,
		notifier:         notifier,
		clock:            clock,
		cancellationLead: cancellationLead,
		logger:           logger,
	}
}

func (s *ReservationService) CreateReservation(ctx context.Context, req entities.ReservationRequest) (*entities.CreateReservationResult, error) {
	now := s.clock.Now()

	violations, err := s.validateRequest(ctx, now, req)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return &entities.CreateReservationResult{
			Kind:    entities.ResultValidation,
			Message: "reservation request is invalid",
			Errors:  violations,
		}, nil
	}

	match, err := s.matcher.FindAvailableSpot(ctx, req)
	if err != nil {
		return nil, err
	}

	if !match.Available {
		if req.AllowWaitlist {
			wl, err := s.waitlist.AddToWaitlist(ctx, entities.WaitlistRequest{
				UserID:    req.UserID,
				SpotType:  req.SpotType,
				Features:  req.Features,
				StartTime: req.StartTime,
				EndTime:   req.EndTime,
			})
			if err != nil {
				return nil, err
			}
			return &entities.CreateReservationResult{
				Success:          true,
				Kind:             entities.ResultOK,
				Status:           db.StatusWaitlisted,
				Message:          fmt.Sprintf("no %s spot available; added to waitlist", req.SpotType),
				WaitlistPosition: wl.Position,
			}, nil
		}
		return &entities.CreateReservationResult{
			Kind:         entities.ResultConflict,
			Message:      fmt.Sprintf("no %s spot available for the requested window", req.SpotType),
			Alternatives: match.Alternatives,
		}, nil
	}

	spot, err := s.store.Spots().GetByID(ctx, match.SpotID)
	if err != nil {
		return nil, err
	}

	res := &db.Reservation{
		Code:                 uuid.NewString(),
		UserID:               req.UserID,
		SpotID:               &spot.ID,
		LicensePlate:         req.LicensePlate,
		VehicleMake:          req.VehicleMake,
		VehicleModel:         req.VehicleModel,
		VehicleColor:         req.VehicleColor,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		CancellationDeadline: req.StartTime.Add(-s.cancellationLead),
		EstimatedCost:        EstimateCost(spot.SpotType, req.StartTime, req.EndTime),
		Status:               db.StatusConfirmed,
		Notes:                req.Notes,
	}

	var commitCheck *entities.ConflictCheckResult
	err = s.store.RunAtomically(ctx, func(st repository.Store) error {
		// Re-check in the same transaction that commits: closes the window
		// between matcher selection and insert.
		check, err := s.conflicts.FindConflictsIn(ctx, st, spot.ID, req.StartTime, req.EndTime, 0)
		if err != nil {
			return err
		}
		if check.Resolution != entities.ResolutionAutoResolve {
			commitCheck = check
			return errBookingConflict
		}
		if err := st.Reservations().Create(ctx, res); err != nil {
			return err
		}
		return st.Spots().SetStatus(ctx, spot.ID, db.SpotReserved)
	})
	if errors.Is(err, errBookingConflict) || errors.Is(err, repository.ErrConflictConstraint) {
		result := &entities.CreateReservationResult{
			Kind:    entities.ResultConflict,
			Message: "spot was taken while booking; please retry",
		}
		if commitCheck != nil {
			result.Conflicts = commitCheck.Conflicts
		}
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation confirmed",
		zap.String("code", res.Code),
		zap.Int("spot_id", spot.ID),
		zap.Float64("estimated_cost", res.EstimatedCost))
	return &entities.CreateReservationResult{
		Success:       true,
		Kind:          entities.ResultOK,
		Status:        db.StatusConfirmed,
		ReservationID: res.ID,
		Code:          res.Code,
		SpotID:        spot.ID,
		EstimatedCost: res.EstimatedCost,
	}, nil
}

// validateRequest collects every violated constraint so callers see the full
// list, not just the first.
func (s *ReservationService) validateRequest(ctx context.Context, now time.Time, req entities.ReservationRequest) ([]string, error) {
	var violations []string

	if !req.StartTime.After(now) {
		violations = append(violations, "start_time must be in the future")
	}
	if !req.EndTime.After(req.StartTime) {
		violations = append(violations, "end_time must be after start_time")
	} else {
		duration := req.EndTime.Sub(req.StartTime)
		if duration < minReservationDuration {
			violations = append(violations, "duration must be at least 30 minutes")
		}
		if duration > maxReservationDuration {
			violations = append(violations, "duration must not exceed 24 hours")
		}
	}
	if req.LicensePlate == "" {
		violations = append(violations, "license plate is required")
	}

	user, err := s.store.Users().GetByID(ctx, req.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		violations = append(violations, "user not found")
	case err != nil:
		return nil, err
	case !user.IsActive:
		violations = append(violations, "user is inactive")
	}

	return violations, nil
}

func (s *ReservationService) CancelReservation(ctx context.Context, id, userID int, reason string) (*entities.CancelReservationResult, error) {
	res, err := s.store.Reservations().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return &entities.CancelReservationResult{Kind: entities.ResultNotFound, Message: "reservation not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return &entities.CancelReservationResult{Kind: entities.ResultForbidden, Message: "reservation belongs to another user"}, nil
	}
	if db.IsTerminalStatus(res.Status) {
		return &entities.CancelReservationResult{
			Kind:    entities.ResultRejected,
			Message: fmt.Sprintf("reservation is already %s", res.Status),
		}, nil
	}
	if !db.IsOccupyingStatus(res.Status) {
		return &entities.CancelReservationResult{
			Kind:    entities.ResultRejected,
			Message: fmt.Sprintf("reservation in status %s cannot be cancelled", res.Status),
		}, nil
	}

	now := s.clock.Now()
	percent := refundPercent(now, res)
	amount := roundMoney(res.EstimatedCost * float64(percent) / 100)

	err = s.store.RunAtomically(ctx, func(st repository.Store) error {
		changed, err := st.Reservations().UpdateStatusFrom(ctx, id, db.OccupyingStatuses, db.StatusCancelled)
		if err != nil {
			return err
		}
		if !changed {
			return errNoTransition
		}
		if res.SpotID != nil {
			return st.Spots().SetStatus(ctx, *res.SpotID, db.SpotAvailable)
		}
		return nil
	})
	if errors.Is(err, errNoTransition) {
		return &entities.CancelReservationResult{Kind: entities.ResultRejected, Message: "reservation already transitioned"}, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation cancelled",
		zap.String("code", res.Code),
		zap.Int("refund_percent", percent),
		zap.String("reason", reason))

	s.notifyAfterCancel(ctx, res, amount)

	return &entities.CancelReservationResult{
		Success:       true,
		Kind:          entities.ResultOK,
		Message:       "reservation cancelled",
		RefundPercent: percent,
		RefundAmount:  amount,
	}, nil
}

// notifyAfterCancel runs after the transaction commits; failures are logged,
// never surfaced, since the cancellation already happened.
func (s *ReservationService) notifyAfterCancel(ctx context.Context, res *db.Reservation, refund float64) {
	if user, err := s.store.Users().GetByID(ctx, res.UserID); err == nil {
		s.notifier.ReservationCancelled(user, res, refund)
	} else {
		s.logger.Warn("cancel notice skipped", zap.Int("user_id", res.UserID), zap.Error(err))
	}

	if res.SpotID == nil {
		return
	}
	spot, err := s.store.Spots().GetByID(ctx, *res.SpotID)
	if err != nil {
		s.logger.Warn("waitlist release skipped", zap.Int("spot_id", *res.SpotID), zap.Error(err))
		return
	}
	if err := s.waitlist.NotifyOnRelease(ctx, spot.SpotType, res.StartTime, res.EndTime); err != nil {
		s.logger.Warn("waitlist release notification failed", zap.Error(err))
	}
}

func refundPercent(now time.Time, res *db.Reservation) int {
	switch {
	case !now.After(res.CancellationDeadline):
		return refundFull
	case !now.After(res.StartTime):
		return refundPartial
	default:
		return refundNone
	}
}

// CheckInReservation records the driver's arrival: confirmed -> active.
func (s *ReservationService) CheckInReservation(ctx context.Context, id, userID int) (*entities.OperationResult, error) {
	res, err := s.store.Reservations().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return &entities.OperationResult{Kind: entities.ResultNotFound, Message: "reservation not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return &entities.OperationResult{Kind: entities.ResultForbidden, Message: "reservation belongs to another user"}, nil
	}
	if res.Status != db.StatusConfirmed {
		return &entities.OperationResult{
			Kind:    entities.ResultRejected,
			Message: fmt.Sprintf("cannot check in a %s reservation", res.Status),
		}, nil
	}

	now := s.clock.Now()
	err = s.store.RunAtomically(ctx, func(st repository.Store) error {
		if err := st.Reservations().MarkCheckedIn(ctx, id, now); err != nil {
			return err
		}
		if res.SpotID != nil {
			return st.Spots().SetStatus(ctx, *res.SpotID, db.SpotOccupied)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entities.OperationResult{Success: true, Kind: entities.ResultOK, Message: "checked in"}, nil
}

// CompleteReservation ends an active stay. The actual duration supersedes the
// estimate, with a 30 minute billing floor.
func (s *ReservationService) CompleteReservation(ctx context.Context, id int) (*entities.OperationResult, error) {
	res, err := s.store.Reservations().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return &entities.OperationResult{Kind: entities.ResultNotFound, Message: "reservation not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	if res.Status != db.StatusActive {
		return &entities.OperationResult{
			Kind:    entities.ResultRejected,
			Message: fmt.Sprintf("cannot complete a %s reservation", res.Status),
		}, nil
	}

	actual := res.EstimatedCost
	if res.SpotID != nil {
		spot, err := s.store.Spots().GetByID(ctx, *res.SpotID)
		if err != nil {
			return nil, err
		}
		stayed := s.clock.Now().Sub(res.StartTime)
		if stayed < minReservationDuration {
			stayed = minReservationDuration
		}
		actual = roundMoney(stayed.Hours() * BaseRatePerHour(spot.SpotType))
	}

	err = s.store.RunAtomically(ctx, func(st repository.Store) error {
		changed, err := st.Reservations().UpdateStatusFrom(ctx, id, []string{db.StatusActive}, db.StatusCompleted)
		if err != nil {
			return err
		}
		if !changed {
			return errNoTransition
		}
		if err := st.Reservations().MarkCompleted(ctx, id, actual); err != nil {
			return err
		}
		if res.SpotID != nil {
			return st.Spots().SetStatus(ctx, *res.SpotID, db.SpotAvailable)
		}
		return nil
	})
	if errors.Is(err, errNoTransition) {
		return &entities.OperationResult{Kind: entities.ResultRejected, Message: "reservation already transitioned"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &entities.OperationResult{Success: true, Kind: entities.ResultOK, Message: "reservation completed", ActualCost: &actual}, nil
}

// CompleteLapsed is the reclamation sweep's implicit completion for an active
// reservation whose window has passed; actual cost falls back to the
// estimate. Reports whether a transition happened, so re-runs are no-ops.
func (s *ReservationService) CompleteLapsed(ctx context.Context, id int) (bool, error) {
	return s.sweepTransition(ctx, id, db.OccupyingStatuses, db.StatusCompleted, true)
}

// ExpireLapsed expires a confirmed reservation that lapsed without a
// check-in.
func (s *ReservationService) ExpireLapsed(ctx context.Context, id int) (bool, error) {
	return s.sweepTransition(ctx, id, []string{db.StatusConfirmed}, db.StatusExpired, false)
}

// MarkNoShow releases the spot of an occupying reservation that never saw a
// check-in. Only the reclamation scheduler calls this.
func (s *ReservationService) MarkNoShow(ctx context.Context, id int) (bool, error) {
	res, err := s.store.Reservations().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if res.CheckedInAt != nil {
		return false, nil
	}
	return s.sweepTransition(ctx, id, db.OccupyingStatuses, db.StatusNoShow, false)
}

func (s *ReservationService) sweepTransition(ctx context.Context, id int, from []string, to string, settleCost bool) (bool, error) {
	res, err := s.store.Reservations().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	err = s.store.RunAtomically(ctx, func(st repository.Store) error {
		changed, err := st.Reservations().UpdateStatusFrom(ctx, id, from, to)
		if err != nil {
			return err
		}
		if !changed {
			return errNoTransition
		}
		if settleCost {
			if err := st.Reservations().MarkCompleted(ctx, id, res.EstimatedCost); err != nil {
				return err
			}
		}
		if res.SpotID != nil {
			return st.Spots().SetStatus(ctx, *res.SpotID, db.SpotAvailable)
		}
		return nil
	})
	if errors.Is(err, errNoTransition) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.logger.Info("reservation reclaimed", zap.String("code", res.Code), zap.String("status", to))
	return true, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id int) (*db.Reservation, error) {
	return s.store.Reservations().GetByID(ctx, id)
}

func (s *ReservationService) GetUserReservations(ctx context.Context, userID int) ([]db.Reservation, error) {
	return s.store.Reservations().ListByUser(ctx, userID)
}

func (s *ReservationService) ListSpots(ctx context.Context) ([]db.Spot, error) {
	return s.store.Spots().List(ctx)
}

// CheckAvailability runs the matcher without committing anything.
func (s *ReservationService) CheckAvailability(ctx context.Context, req entities.ReservationRequest) (*entities.AvailabilityResponse, error) {
	if !req.EndTime.After(req.StartTime) {
		return &entities.AvailabilityResponse{Message: "end_time must be after start_time"}, nil
	}
	match, err := s.matcher.FindAvailableSpot(ctx, req)
	if err != nil {
		return nil, err
	}
	resp := &entities.AvailabilityResponse{
		Available:    match.Available,
		SpotID:       match.SpotID,
		Alternatives: match.Alternatives,
	}
	if !match.Available {
		resp.Message = fmt.Sprintf("no %s spot available for the requested window", req.SpotType)
	}
	return resp, nil
}

func (s *ReservationService) GetReservationStats(ctx context.Context) (*entities.ReservationStats, error) {
	byStatus, err := s.store.Reservations().StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.store.Reservations().BookedRevenue(ctx)
	if err != nil {
		return nil, err
	}
	spotCounts, err := s.store.Spots().StatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, c := range spotCounts {
		total += c
	}
	return &entities.ReservationStats{
		ByStatus:      byStatus,
		BookedRevenue: revenue,
		SpotsTotal:    total,
		SpotsOccupied: spotCounts[db.SpotOccupied],
		SpotsReserved: spotCounts[db.SpotReserved],
	}, nil
}
