package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"parkhaus/internal/db"
	"parkhaus/internal/entities"
	"parkhaus/internal/repository"
)

const maxAlternatives = 5

// MatcherService turns a reservation request into a concrete, conflict-free
// spot, or a ranked list of alternatives when none exists.
type MatcherService struct {
	store     repository.Store
	conflicts *ConflictService
	logger    *zap.Logger
}

func NewMatcherService(store repository.Store, conflicts *ConflictService, logger *zap.Logger) *MatcherService {
	return &MatcherService{store: store, conflicts: conflicts, logger: logger}
}

func (m *MatcherService) FindAvailableSpot(ctx context.Context, req entities.ReservationRequest) (*entities.SpotMatchResult, error) {
	// Specific spot requested: take it if it is active and conflict-free,
	// otherwise fall back to the general search.
	if req.SpotID != nil {
		spot, err := m.store.Spots().GetByID(ctx, *req.SpotID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			m.logger.Warn("requested spot does not exist", zap.Int("spot_id", *req.SpotID))
		case err != nil:
			return nil, err
		case spot.IsActive:
			check, err := m.conflicts.FindConflicts(ctx, spot.ID, req.StartTime, req.EndTime, 0)
			if err != nil {
				return nil, err
			}
			if check.Resolution == entities.ResolutionAutoResolve {
				return &entities.SpotMatchResult{Available: true, SpotID: spot.ID}, nil
			}
		}
	}

	spots, err := m.store.Spots().FindAvailableByType(ctx, req.SpotType)
	if err != nil {
		return nil, fmt.Errorf("matching %s spot: %w", req.SpotType, err)
	}

	// Spots carrying every requested feature go first; within each group the
	// repository's floor/number order is preserved, so allocation stays
	// deterministic.
	if len(req.Features) > 0 {
		sort.SliceStable(spots, func(i, j int) bool {
			return hasAllFeatures(spots[i], req.Features) && !hasAllFeatures(spots[j], req.Features)
		})
	}

	result := &entities.SpotMatchResult{}
	for _, spot := range spots {
		check, err := m.conflicts.FindConflicts(ctx, spot.ID, req.StartTime, req.EndTime, 0)
		if err != nil {
			return nil, err
		}
		if check.Resolution == entities.ResolutionAutoResolve {
			result.Available = true
			result.SpotID = spot.ID
			return result, nil
		}
		if len(result.Alternatives) < maxAlternatives {
			result.Alternatives = append(result.Alternatives, entities.SpotAlternative{
				SpotID:     spot.ID,
				Label:      spot.Label,
				Floor:      spot.Floor,
				SpotNumber: spot.SpotNumber,
				SpotType:   spot.SpotType,
			})
		}
	}

	m.logger.Info("no conflict-free spot",
		zap.String("spot_type", req.SpotType),
		zap.Int("alternatives", len(result.Alternatives)))
	return result, nil
}

func hasAllFeatures(spot db.Spot, wanted []string) bool {
	for _, w := range wanted {
		found := false
		for _, f := range spot.Features {
			if f == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
