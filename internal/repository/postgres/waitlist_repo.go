package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"parkhaus/internal/db"
	"parkhaus/internal/repository"
)

type waitlistRepo struct {
	q queryer
}

func (r *waitlistRepo) Enqueue(ctx context.Context, entry *db.WaitlistEntry) error {
	// Position is a per-key monotonic sequence, assigned in the same
	// statement as the insert.
	query := `
		INSERT INTO waitlist_entries
		(user_id, spot_type, features, window_start, window_end, queue_key, position, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM waitlist_entries WHERE queue_key = $6),
			$7, NOW())
		RETURNING id, position, created_at`
	err := r.q.QueryRowContext(ctx, query,
		entry.UserID,
		entry.SpotType,
		pq.Array(entry.Features),
		entry.WindowStart,
		entry.WindowEnd,
		entry.QueueKey,
		entry.ExpiresAt,
	).Scan(&entry.ID, &entry.Position, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("error enqueueing waitlist entry: %w", err)
	}
	return nil
}

func (r *waitlistRepo) PeekHead(ctx context.Context, queueKey string, now time.Time) (*db.WaitlistEntry, error) {
	var e db.WaitlistEntry
	query := `
		SELECT id, user_id, spot_type, features, window_start, window_end, queue_key, position, expires_at, notified_count, created_at
		FROM waitlist_entries
		WHERE queue_key = $1 AND expires_at > $2
		ORDER BY position
		LIMIT 1`
	err := r.q.QueryRowContext(ctx, query, queueKey, now).Scan(
		&e.ID, &e.UserID, &e.SpotType, pq.Array(&e.Features),
		&e.WindowStart, &e.WindowEnd, &e.QueueKey, &e.Position,
		&e.ExpiresAt, &e.NotifiedCount, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("error querying waitlist head: %w", err)
	}
	return &e, nil
}

func (r *waitlistRepo) IncrementNotified(ctx context.Context, id int) error {
	query := `UPDATE waitlist_entries SET notified_count = notified_count + 1 WHERE id = $1`
	if _, err := r.q.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("error incrementing notified count: %w", err)
	}
	return nil
}

func (r *waitlistRepo) Remove(ctx context.Context, id int) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM waitlist_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("error removing waitlist entry %d: %w", id, err)
	}
	return nil
}

func (r *waitlistRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM waitlist_entries WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("error purging expired waitlist entries: %w", err)
	}
	return result.RowsAffected()
}
