package entities

import "time"

// Conflict severity, classified by overlap duration.
const (
	SeverityLow    = "LOW"    // up to 60 minutes
	SeverityMedium = "MEDIUM" // up to 120 minutes
	SeverityHigh   = "HIGH"   // over 120 minutes
)

// Aggregate resolution for a conflict check.
const (
	ResolutionAutoResolve  = "AUTO_RESOLVE"  // no conflicts, safe to book
	ResolutionManualReview = "MANUAL_REVIEW" // conflicts exist, none severe
	ResolutionReject       = "REJECT"        // at least one severe conflict
)

type Conflict struct {
	ReservationID  int       `json:"reservation_id"`
	Code           string    `json:"code"`
	OverlapStart   time.Time `json:"overlap_start"`
	OverlapEnd     time.Time `json:"overlap_end"`
	OverlapMinutes int       `json:"overlap_minutes"`
	Severity       string    `json:"severity"`
}

type ConflictCheckResult struct {
	Conflicts  []Conflict `json:"conflicts,omitempty"`
	Resolution string     `json:"resolution"`
}

func (r *ConflictCheckResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}
