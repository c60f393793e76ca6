package service

import (
	"time"

	"go.uber.org/zap"

	"parkhaus/internal/db"
)

type testEnv struct {
	store        *fakeStore
	clock        *fakeClock
	notifier     *fakeNotifier
	conflicts    *ConflictService
	matcher      *MatcherService
	waitlist     *WaitlistService
	reservations *ReservationService
	reclaimer    *ReclaimerService
}

func newTestEnv(now time.Time) *testEnv {
	logger := zap.NewNop()
	store := newFakeStore()
	clock := &fakeClock{now: now}
	notifier := &fakeNotifier{}

	conflicts := NewConflictService(store, logger)
	matcher := NewMatcherService(store, conflicts, logger)
	waitlist := NewWaitlistService(store, notifier, clock, 24*time.Hour, logger)
	reservations := NewReservationService(store, matcher, conflicts, waitlist, notifier, clock, 2*time.Hour, logger)
	reclaimer := NewReclaimerService(store, reservations, waitlist, clock, 30*time.Minute, logger)

	return &testEnv{
		store:        store,
		clock:        clock,
		notifier:     notifier,
		conflicts:    conflicts,
		matcher:      matcher,
		waitlist:     waitlist,
		reservations: reservations,
		reclaimer:    reclaimer,
	}
}

func (e *testEnv) activeUser(id int) *db.User {
	return e.store.addUser(db.User{ID: id, Name: "Test User", Email: "user@example.com", Phone: "+10000000000", IsActive: true})
}

func (e *testEnv) standardSpot(id, floor, number int) *db.Spot {
	return e.store.addSpot(db.Spot{
		ID:         id,
		Label:      "spot",
		Floor:      floor,
		SpotNumber: number,
		SpotType:   db.SpotTypeStandard,
	})
}

func intPtr(v int) *int { return &v }
