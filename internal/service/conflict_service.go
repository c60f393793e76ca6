package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"parkhaus/internal/entities"
	"parkhaus/internal/repository"
)

// Overlap-duration thresholds for severity classification.
const (
	mediumSeverityMinutes = 60
	highSeverityMinutes   = 120
)

// ConflictService finds occupying reservations that overlap a candidate
// (spot, window) and decides whether a booking may proceed. Pure read.
type ConflictService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewConflictService(store repository.Store, logger *zap.Logger) *ConflictService {
	return &ConflictService{store: store, logger: logger}
}

func (s *ConflictService) FindConflicts(ctx context.Context, spotID int, start, end time.Time, excludeID int) (*entities.ConflictCheckResult, error) {
	return s.FindConflictsIn(ctx, s.store, spotID, start, end, excludeID)
}

// FindConflictsIn runs the check against an explicit store, so the lifecycle
// manager can re-check inside the same transaction that commits a booking.
func (s *ConflictService) FindConflictsIn(ctx context.Context, st repository.Store, spotID int, start, end time.Time, excludeID int) (*entities.ConflictCheckResult, error) {
	overlapping, err := st.Reservations().FindOverlapping(ctx, spotID, start, end, excludeID)
	if err != nil {
		return nil, fmt.Errorf("conflict check on spot %d: %w", spotID, err)
	}

	result := &entities.ConflictCheckResult{Resolution: entities.ResolutionAutoResolve}
	for _, other := range overlapping {
		overlapStart := maxTime(start, other.StartTime)
		overlapEnd := minTime(end, other.EndTime)
		minutes := DurationMinutes(overlapStart, overlapEnd)
		result.Conflicts = append(result.Conflicts, entities.Conflict{
			ReservationID:  other.ID,
			Code:           other.Code,
			OverlapStart:   overlapStart,
			OverlapEnd:     overlapEnd,
			OverlapMinutes: minutes,
			Severity:       classifySeverity(minutes),
		})
	}

	for _, c := range result.Conflicts {
		if c.Severity == entities.SeverityHigh {
			result.Resolution = entities.ResolutionReject
			break
		}
		result.Resolution = entities.ResolutionManualReview
	}

	if result.HasConflicts() {
		s.logger.Debug("conflicts found",
			zap.Int("spot_id", spotID),
			zap.Int("conflicts", len(result.Conflicts)),
			zap.String("resolution", result.Resolution))
	}
	return result, nil
}

func classifySeverity(overlapMinutes int) string {
	switch {
	case overlapMinutes > highSeverityMinutes:
		return entities.SeverityHigh
	case overlapMinutes > mediumSeverityMinutes:
		return entities.SeverityMedium
	default:
		return entities.SeverityLow
	}
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
