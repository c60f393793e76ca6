package service

import (
	"context"
	"sort"
	"time"

	"parkhaus/internal/db"
	"parkhaus/internal/repository"
)

// fakeStore is an in-memory repository.Store. RunAtomically just runs the
// callback; rollback behavior is not simulated.
type fakeStore struct {
	reservations []*db.Reservation
	spots        []*db.Spot
	users        []*db.User
	waitlist     []*db.WaitlistEntry

	nextReservationID int
	nextWaitlistID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextReservationID: 1, nextWaitlistID: 1}
}

func (f *fakeStore) Reservations() repository.ReservationRepository { return &fakeReservationRepo{f} }
func (f *fakeStore) Spots() repository.SpotRepository               { return &fakeSpotRepo{f} }
func (f *fakeStore) Users() repository.UserRepository               { return &fakeUserRepo{f} }
func (f *fakeStore) Waitlist() repository.WaitlistRepository        { return &fakeWaitlistRepo{f} }

func (f *fakeStore) RunAtomically(ctx context.Context, fn func(repository.Store) error) error {
	return fn(f)
}

func (f *fakeStore) addUser(u db.User) *db.User {
	copied := u
	f.users = append(f.users, &copied)
	return &copied
}

func (f *fakeStore) addSpot(s db.Spot) *db.Spot {
	copied := s
	if copied.Status == "" {
		copied.Status = db.SpotAvailable
	}
	copied.IsActive = true
	f.spots = append(f.spots, &copied)
	return &copied
}

func (f *fakeStore) addReservation(r db.Reservation) *db.Reservation {
	copied := r
	copied.ID = f.nextReservationID
	f.nextReservationID++
	f.reservations = append(f.reservations, &copied)
	return &copied
}

func (f *fakeStore) reservationByID(id int) *db.Reservation {
	for _, r := range f.reservations {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (f *fakeStore) spotByID(id int) *db.Spot {
	for _, s := range f.spots {
		if s.ID == id {
			return s
		}
	}
	return nil
}

type fakeReservationRepo struct{ f *fakeStore }

func (r *fakeReservationRepo) Create(ctx context.Context, res *db.Reservation) error {
	res.ID = r.f.nextReservationID
	r.f.nextReservationID++
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = res.CreatedAt
	copied := *res
	r.f.reservations = append(r.f.reservations, &copied)
	return nil
}

func (r *fakeReservationRepo) GetByID(ctx context.Context, id int) (*db.Reservation, error) {
	if res := r.f.reservationByID(id); res != nil {
		copied := *res
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeReservationRepo) GetByCode(ctx context.Context, code string) (*db.Reservation, error) {
	for _, res := range r.f.reservations {
		if res.Code == code {
			copied := *res
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeReservationRepo) ListByUser(ctx context.Context, userID int) ([]db.Reservation, error) {
	var out []db.Reservation
	for _, res := range r.f.reservations {
		if res.UserID == userID {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r *fakeReservationRepo) FindOverlapping(ctx context.Context, spotID int, start, end time.Time, excludeID int) ([]db.Reservation, error) {
	var out []db.Reservation
	for _, res := range r.f.reservations {
		if res.SpotID == nil || *res.SpotID != spotID || res.ID == excludeID {
			continue
		}
		if !db.IsOccupyingStatus(res.Status) {
			continue
		}
		if res.StartTime.Before(end) && res.EndTime.After(start) {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeReservationRepo) UpdateStatusFrom(ctx context.Context, id int, from []string, status string) (bool, error) {
	res := r.f.reservationByID(id)
	if res == nil {
		return false, nil
	}
	for _, s := range from {
		if res.Status == s {
			res.Status = status
			res.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReservationRepo) MarkCheckedIn(ctx context.Context, id int, at time.Time) error {
	if res := r.f.reservationByID(id); res != nil {
		res.Status = db.StatusActive
		res.CheckedInAt = &at
	}
	return nil
}

func (r *fakeReservationRepo) MarkCompleted(ctx context.Context, id int, actualCost float64) error {
	if res := r.f.reservationByID(id); res != nil {
		res.Status = db.StatusCompleted
		res.ActualCost = &actualCost
	}
	return nil
}

func (r *fakeReservationRepo) FindOccupyingPastEnd(ctx context.Context, now time.Time) ([]db.Reservation, error) {
	var out []db.Reservation
	for _, res := range r.f.reservations {
		if db.IsOccupyingStatus(res.Status) && res.EndTime.Before(now) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) FindOccupyingNotCheckedInBefore(ctx context.Context, cutoff time.Time) ([]db.Reservation, error) {
	var out []db.Reservation
	for _, res := range r.f.reservations {
		if db.IsOccupyingStatus(res.Status) && res.CheckedInAt == nil && res.StartTime.Before(cutoff) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) StatusCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, res := range r.f.reservations {
		counts[res.Status]++
	}
	return counts, nil
}

func (r *fakeReservationRepo) BookedRevenue(ctx context.Context) (float64, error) {
	var revenue float64
	for _, res := range r.f.reservations {
		switch res.Status {
		case db.StatusCancelled, db.StatusExpired, db.StatusNoShow:
			continue
		}
		if res.ActualCost != nil {
			revenue += *res.ActualCost
		} else {
			revenue += res.EstimatedCost
		}
	}
	return revenue, nil
}

type fakeSpotRepo struct{ f *fakeStore }

func (r *fakeSpotRepo) GetByID(ctx context.Context, id int) (*db.Spot, error) {
	if s := r.f.spotByID(id); s != nil {
		copied := *s
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSpotRepo) FindAvailableByType(ctx context.Context, spotType string) ([]db.Spot, error) {
	var out []db.Spot
	for _, s := range r.f.spots {
		if s.SpotType == spotType && s.Status == db.SpotAvailable && s.IsActive {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		return out[i].SpotNumber < out[j].SpotNumber
	})
	return out, nil
}

func (r *fakeSpotRepo) List(ctx context.Context) ([]db.Spot, error) {
	var out []db.Spot
	for _, s := range r.f.spots {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		return out[i].SpotNumber < out[j].SpotNumber
	})
	return out, nil
}

func (r *fakeSpotRepo) SetStatus(ctx context.Context, id int, status string) error {
	if s := r.f.spotByID(id); s != nil {
		s.Status = status
		return nil
	}
	return repository.ErrNotFound
}

func (r *fakeSpotRepo) StatusCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, s := range r.f.spots {
		if s.IsActive {
			counts[s.Status]++
		}
	}
	return counts, nil
}

type fakeUserRepo struct{ f *fakeStore }

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*db.User, error) {
	for _, u := range r.f.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeWaitlistRepo struct{ f *fakeStore }

func (r *fakeWaitlistRepo) Enqueue(ctx context.Context, entry *db.WaitlistEntry) error {
	maxPos := 0
	for _, e := range r.f.waitlist {
		if e.QueueKey == entry.QueueKey && e.Position > maxPos {
			maxPos = e.Position
		}
	}
	entry.ID = r.f.nextWaitlistID
	r.f.nextWaitlistID++
	entry.Position = maxPos + 1
	entry.CreatedAt = time.Now().UTC()
	copied := *entry
	r.f.waitlist = append(r.f.waitlist, &copied)
	return nil
}

func (r *fakeWaitlistRepo) PeekHead(ctx context.Context, queueKey string, now time.Time) (*db.WaitlistEntry, error) {
	var head *db.WaitlistEntry
	for _, e := range r.f.waitlist {
		if e.QueueKey != queueKey || !e.ExpiresAt.After(now) {
			continue
		}
		if head == nil || e.Position < head.Position {
			head = e
		}
	}
	if head == nil {
		return nil, repository.ErrNotFound
	}
	copied := *head
	return &copied, nil
}

func (r *fakeWaitlistRepo) IncrementNotified(ctx context.Context, id int) error {
	for _, e := range r.f.waitlist {
		if e.ID == id {
			e.NotifiedCount++
		}
	}
	return nil
}

func (r *fakeWaitlistRepo) Remove(ctx context.Context, id int) error {
	for i, e := range r.f.waitlist {
		if e.ID == id {
			r.f.waitlist = append(r.f.waitlist[:i], r.f.waitlist[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeWaitlistRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var kept []*db.WaitlistEntry
	var purged int64
	for _, e := range r.f.waitlist {
		if e.ExpiresAt.After(now) {
			kept = append(kept, e)
		} else {
			purged++
		}
	}
	r.f.waitlist = kept
	return purged, nil
}

// fakeClock pins "now" for deterministic deadline and sweep behavior.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeNotifier records notification calls.
type fakeNotifier struct {
	cancelled  []string // reservation codes
	spotsFreed []int    // waitlist entry user ids
}

func (n *fakeNotifier) ReservationCancelled(user *db.User, res *db.Reservation, refundAmount float64) {
	n.cancelled = append(n.cancelled, res.Code)
}

func (n *fakeNotifier) SpotFreed(user *db.User, entry *db.WaitlistEntry) {
	n.spotsFreed = append(n.spotsFreed, entry.UserID)
}
