package entities

type SpotAlternative struct {
	SpotID     int    `json:"spot_id"`
	Label      string `json:"label"`
	Floor      int    `json:"floor"`
	SpotNumber int    `json:"spot_number"`
	SpotType   string `json:"spot_type"`
}

type SpotMatchResult struct {
	Available    bool              `json:"available"`
	SpotID       int               `json:"spot_id,omitempty"`
	Alternatives []SpotAlternative `json:"alternatives,omitempty"`
}

type AvailabilityResponse struct {
	Available    bool              `json:"available"`
	SpotID       int               `json:"spot_id,omitempty"`
	Alternatives []SpotAlternative `json:"alternatives,omitempty"`
	Message      string            `json:"message,omitempty"`
}
