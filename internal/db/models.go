package db

import "time"

// Reservation statuses. Terminal statuses are never left once reached.
const (
	StatusConfirmed      = "confirmed"
	StatusPendingPayment = "pending_payment"
	StatusActive         = "active"
	StatusCancelled      = "cancelled"
	StatusExpired        = "expired"
	StatusNoShow         = "no_show"
	StatusCompleted      = "completed"

	// StatusWaitlisted is returned to callers when a request lands on the
	// waitlist; no reservation row ever carries it.
	StatusWaitlisted = "waitlisted"
)

// OccupyingStatuses are the statuses under which a reservation holds its spot.
var OccupyingStatuses = []string{StatusConfirmed, StatusActive}

// TerminalStatuses can never transition to anything else.
var TerminalStatuses = []string{StatusCancelled, StatusExpired, StatusNoShow, StatusCompleted}

func IsTerminalStatus(status string) bool {
	for _, s := range TerminalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsOccupyingStatus(status string) bool {
	return status == StatusConfirmed || status == StatusActive
}

// Spot statuses.
const (
	SpotAvailable = "available"
	SpotReserved  = "reserved"
	SpotOccupied  = "occupied"
)

// Spot types.
const (
	SpotTypeCompact   = "compact"
	SpotTypeStandard  = "standard"
	SpotTypeOversized = "oversized"
)

// Known spot features.
const (
	FeatureEVCharging = "ev_charging"
	FeatureAccessible = "accessible"
	FeatureCovered    = "covered"
)

type User struct {
	ID       int
	Name     string
	Email    string
	Phone    string
	IsActive bool
}

type Spot struct {
	ID         int
	Label      string
	Floor      int
	SpotNumber int
	SpotType   string
	Features   []string
	Status     string
	IsActive   bool
}

type Reservation struct {
	ID                   int
	Code                 string
	UserID               int
	SpotID               *int
	LicensePlate         string
	VehicleMake          string
	VehicleModel         string
	VehicleColor         string
	StartTime            time.Time
	EndTime              time.Time
	CheckedInAt          *time.Time
	CancellationDeadline time.Time
	EstimatedCost        float64
	ActualCost           *float64
	Status               string
	Notes                string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type WaitlistEntry struct {
	ID            int
	UserID        int
	SpotType      string
	Features      []string
	WindowStart   time.Time
	WindowEnd     time.Time
	QueueKey      string
	Position      int
	ExpiresAt     time.Time
	NotifiedCount int
	CreatedAt     time.Time
}
