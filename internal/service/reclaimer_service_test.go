package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkhaus/internal/db"
)

func TestSweepExpiredCompletesActiveStay(t *testing.T) {
	now := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.activeUser(1)
	spot := env.standardSpot(1, 1, 1)
	spot.Status = db.SpotOccupied

	checkin := now.Add(-3 * time.Hour)
	res := env.store.addReservation(db.Reservation{
		Code: "RES-1", UserID: 1, SpotID: intPtr(1),
		StartTime: now.Add(-3 * time.Hour), EndTime: now.Add(-30 * time.Minute),
		CheckedInAt: &checkin, EstimatedCost: 12.5,
		Status: db.StatusActive,
	})

	reclaimed, err := env.reclaimer.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	stored := env.store.reservationByID(res.ID)
	assert.Equal(t, db.StatusCompleted, stored.Status)
	require.NotNil(t, stored.ActualCost)
	assert.Equal(t, 12.5, *stored.ActualCost)
	assert.Equal(t, db.SpotAvailable, env.store.spotByID(1).Status)
}

func TestSweepExpiredExpiresUnclaimedConfirmation(t *testing.T) {
	now := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.activeUser(1)
	spot := env.standardSpot(1, 1, 1)
	spot.Status = db.SpotReserved

	res := env.store.addReservation(db.Reservation{
		Code: "RES-1", UserID: 1, SpotID: intPtr(1),
		StartTime: now.Add(-3 * time.Hour), EndTime: now.Add(-time.Hour),
		EstimatedCost: 10.0,
		Status:        db.StatusConfirmed,
	})

	reclaimed, err := env.reclaimer.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	stored := env.store.reservationByID(res.ID)
	assert.Equal(t, db.StatusExpired, stored.Status)
	assert.Nil(t, stored.ActualCost)
	assert.Equal(t, db.SpotAvailable, env.store.spotByID(1).Status)
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.activeUser(1)
	env.standardSpot(1, 1, 1).Status = db.SpotOccupied
	env.standardSpot(2, 1, 2).Status = db.SpotReserved

	checkin := now.Add(-4 * time.Hour)
	env.store.addReservation(db.Reservation{
		Code: "A", UserID: 1, SpotID: intPtr(1),
		StartTime: now.Add(-4 * time.Hour), EndTime: now.Add(-time.Hour),
		CheckedInAt: &checkin, EstimatedCost: 15.0, Status: db.StatusActive,
	})
	env.store.addReservation(db.Reservation{
		Code: "B", UserID: 1, SpotID: intPtr(2),
		StartTime: now.Add(-3 * time.Hour), EndTime: now.Add(-time.Hour),
		EstimatedCost: 10.0, Status: db.StatusConfirmed,
	})

	first, err := env.reclaimer.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first)

	// A second pass over the same data finds nothing left to do.
	second, err := env.reclaimer.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second)

	assert.Equal(t, db.SpotAvailable, env.store.spotByID(1).Status)
	assert.Equal(t, db.SpotAvailable, env.store.spotByID(2).Status)
}

func TestSweepExpiredLeavesFutureReservationsAlone(t *testing.T) {
	now := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.activeUser(1)
	env.standardSpot(1, 1, 1).Status = db.SpotReserved

	res := env.store.addReservation(db.Reservation{
		Code: "RES-1", UserID: 1, SpotID: intPtr(1),
		StartTime: now.Add(time.Hour), EndTime: now.Add(3 * time.Hour),
		Status: db.StatusConfirmed,
	})

	reclaimed, err := env.reclaimer.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)
	assert.Equal(t, db.StatusConfirmed, env.store.reservationByID(res.ID).Status)
	assert.Equal(t, db.SpotReserved, env.store.spotByID(1).Status)
}

func TestSweepNoShowsReleasesUnclaimedSpot(t *testing.T) {
	now := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.activeUser(1)
	env.standardSpot(1, 1, 1).Status = db.SpotReserved

	// Started 40 minutes ago, grace is 30, nobody arrived.
	res := env.store.addReservation(db.Reservation{
		Code: "RES-1", UserID: 1, SpotID: intPtr(1),
		StartTime: now.Add(-40 * time.Minute), EndTime: now.Add(80 * time.Minute),
		Status: db.StatusActive,
	})

	reclaimed, err := env.reclaimer.SweepNoShows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)
	assert.Equal(t, db.StatusNoShow, env.store.reservationByID(res.ID).Status)
	assert.Equal(t, db.SpotAvailable, env.store.spotByID(1).Status)
}

func TestSweepNoShowsRespectsGracePeriod(t *testing.T) {
	now := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.activeUser(1)
	env.standardSpot(1, 1, 1).Status = db.SpotReserved

	res := env.store.addReservation(db.Reservation{
		Code: "RES-1", UserID: 1, SpotID: intPtr(1),
		StartTime: now.Add(-20 * time.Minute), EndTime: now.Add(100 * time.Minute),
		Status: db.StatusConfirmed,
	})

	reclaimed, err := env.reclaimer.SweepNoShows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)
	assert.Equal(t, db.StatusConfirmed, env.store.reservationByID(res.ID).Status)
}

func TestSweepNoShowsSkipsCheckedInDrivers(t *testing.T) {
	now := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.activeUser(1)
	env.standardSpot(1, 1, 1).Status = db.SpotOccupied

	checkin := now.Add(-35 * time.Minute)
	res := env.store.addReservation(db.Reservation{
		Code: "RES-1", UserID: 1, SpotID: intPtr(1),
		StartTime: now.Add(-45 * time.Minute), EndTime: now.Add(time.Hour),
		CheckedInAt: &checkin,
		Status:      db.StatusActive,
	})

	reclaimed, err := env.reclaimer.SweepNoShows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)
	assert.Equal(t, db.StatusActive, env.store.reservationByID(res.ID).Status)
	assert.Equal(t, db.SpotOccupied, env.store.spotByID(1).Status)
}

func TestRunExecutesAllPasses(t *testing.T) {
	now := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.activeUser(1)
	env.standardSpot(1, 1, 1).Status = db.SpotReserved

	lapsed := env.store.addReservation(db.Reservation{
		Code: "RES-1", UserID: 1, SpotID: intPtr(1),
		StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour),
		Status: db.StatusConfirmed,
	})
	env.store.waitlist = append(env.store.waitlist, &db.WaitlistEntry{
		ID: 1, UserID: 1, QueueKey: "standard|x|y",
		Position: 1, ExpiresAt: now.Add(-time.Minute),
	})

	env.reclaimer.Run(context.Background())

	assert.Equal(t, db.StatusExpired, env.store.reservationByID(lapsed.ID).Status)
	assert.Empty(t, env.store.waitlist)
}
