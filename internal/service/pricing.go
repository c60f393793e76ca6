package service

import (
	"math"
	"time"

	"parkhaus/internal/db"
)

// Base hourly rates in currency units per hour.
var baseHourlyRates = map[string]float64{
	db.SpotTypeCompact:   4.0,
	db.SpotTypeStandard:  5.0,
	db.SpotTypeOversized: 7.0,
}

func BaseRatePerHour(spotType string) float64 {
	if rate, ok := baseHourlyRates[spotType]; ok {
		return rate
	}
	return baseHourlyRates[db.SpotTypeStandard]
}

func DurationHours(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}

func DurationMinutes(start, end time.Time) int {
	return int(end.Sub(start).Minutes())
}

// EstimateCost prices a stay: duration times the type's hourly rate,
// rounded to cents.
func EstimateCost(spotType string, start, end time.Time) float64 {
	return roundMoney(DurationHours(start, end) * BaseRatePerHour(spotType))
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
