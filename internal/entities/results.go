package entities

import "time"

// Result kinds let callers map business outcomes to transport codes without
// parsing messages. Infrastructure faults are returned as errors instead.
const (
	ResultOK         = "ok"
	ResultValidation = "validation_error"
	ResultNotFound   = "not_found"
	ResultForbidden  = "forbidden"
	ResultConflict   = "conflict"
	ResultRejected   = "rejected"
)

type CreateReservationResult struct {
	Success          bool       `json:"success"`
	Kind             string     `json:"kind"`
	Status           string     `json:"status,omitempty"`
	Message          string     `json:"message,omitempty"`
	Errors           []string   `json:"errors,omitempty"`
	ReservationID    int        `json:"reservation_id,omitempty"`
	Code             string     `json:"code,omitempty"`
	SpotID           int        `json:"spot_id,omitempty"`
	EstimatedCost    float64    `json:"estimated_cost,omitempty"`
	WaitlistPosition int        `json:"waitlist_position,omitempty"`
	Conflicts        []Conflict `json:"conflicts,omitempty"`

	Alternatives []SpotAlternative `json:"alternatives,omitempty"`
}

type CancelReservationResult struct {
	Success       bool    `json:"success"`
	Kind          string  `json:"kind"`
	Message       string  `json:"message,omitempty"`
	RefundPercent int     `json:"refund_percent"`
	RefundAmount  float64 `json:"refund_amount"`
}

// OperationResult covers check-in, completion and the reclaimer transitions.
type OperationResult struct {
	Success    bool     `json:"success"`
	Kind       string   `json:"kind"`
	Message    string   `json:"message,omitempty"`
	ActualCost *float64 `json:"actual_cost,omitempty"`
}

type WaitlistResult struct {
	Success   bool      `json:"success"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message,omitempty"`
	Position  int       `json:"position,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

type ReservationStats struct {
	ByStatus      map[string]int `json:"by_status"`
	BookedRevenue float64        `json:"booked_revenue"`
	SpotsTotal    int            `json:"spots_total"`
	SpotsOccupied int            `json:"spots_occupied"`
	SpotsReserved int            `json:"spots_reserved"`
}
