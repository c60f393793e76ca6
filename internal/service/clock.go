package service

import "time"

// Clock abstracts "now" so time-relative rules (deadlines, sweeps, refund
// tiers) can be tested at a pinned instant.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }
