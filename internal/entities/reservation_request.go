package entities

import "time"

type ReservationRequest struct {
	UserID        int       `json:"user_id"`
	SpotType      string    `json:"spot_type"`
	SpotID        *int      `json:"spot_id,omitempty"` // request a specific spot
	Features      []string  `json:"features,omitempty"`
	LicensePlate  string    `json:"license_plate"`
	VehicleMake   string    `json:"vehicle_make"`
	VehicleModel  string    `json:"vehicle_model"`
	VehicleColor  string    `json:"vehicle_color"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	AllowWaitlist bool      `json:"allow_waitlist"`
	Notes         string    `json:"notes,omitempty"`
}

type WaitlistRequest struct {
	UserID    int       `json:"user_id"`
	SpotType  string    `json:"spot_type"`
	Features  []string  `json:"features,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
