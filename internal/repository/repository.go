package repository

import (
	"context"
	"errors"
	"time"

	"parkhaus/internal/db"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEntry = errors.New("record already exists")

	// ErrConflictConstraint is returned when the database-level overlap
	// exclusion rejects a reservation insert. Callers treat it as a booking
	// conflict, not an infrastructure failure.
	ErrConflictConstraint = errors.New("overlapping reservation rejected by constraint")
)

type ReservationRepository interface {
	Create(ctx context.Context, res *db.Reservation) error
	GetByID(ctx context.Context, id int) (*db.Reservation, error)
	GetByCode(ctx context.Context, code string) (*db.Reservation, error)
	ListByUser(ctx context.Context, userID int) ([]db.Reservation, error)

	// FindOverlapping returns occupying reservations on spotID whose
	// [start_time, end_time) interval overlaps [start, end). excludeID > 0
	// removes that reservation from the result.
	FindOverlapping(ctx context.Context, spotID int, start, end time.Time, excludeID int) ([]db.Reservation, error)

	// UpdateStatusFrom transitions id to status only if its current status is
	// in from, and reports whether a row changed. This is what keeps the
	// background sweeps idempotent under concurrent cancellations.
	UpdateStatusFrom(ctx context.Context, id int, from []string, status string) (bool, error)
	MarkCheckedIn(ctx context.Context, id int, at time.Time) error
	MarkCompleted(ctx context.Context, id int, actualCost float64) error

	FindOccupyingPastEnd(ctx context.Context, now time.Time) ([]db.Reservation, error)
	FindOccupyingNotCheckedInBefore(ctx context.Context, cutoff time.Time) ([]db.Reservation, error)

	StatusCounts(ctx context.Context) (map[string]int, error)
	BookedRevenue(ctx context.Context) (float64, error)
}

type SpotRepository interface {
	GetByID(ctx context.Context, id int) (*db.Spot, error)

	// FindAvailableByType returns active spots of the given type with status
	// available, ordered by floor then spot number so allocation stays
	// deterministic.
	FindAvailableByType(ctx context.Context, spotType string) ([]db.Spot, error)
	List(ctx context.Context) ([]db.Spot, error)
	SetStatus(ctx context.Context, id int, status string) error
	StatusCounts(ctx context.Context) (map[string]int, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int) (*db.User, error)
}

type WaitlistRepository interface {
	// Enqueue inserts the entry at the tail of its queue key and fills in
	// ID and Position.
	Enqueue(ctx context.Context, entry *db.WaitlistEntry) error
	PeekHead(ctx context.Context, queueKey string, now time.Time) (*db.WaitlistEntry, error)
	IncrementNotified(ctx context.Context, id int) error
	Remove(ctx context.Context, id int) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Store bundles the repositories with the atomic-transaction wrapper. Every
// multi-entity state transition runs inside RunAtomically; the callback
// receives a Store whose repositories share one transaction.
type Store interface {
	Reservations() ReservationRepository
	Spots() SpotRepository
	Users() UserRepository
	Waitlist() WaitlistRepository
	RunAtomically(ctx context.Context, fn func(Store) error) error
}
