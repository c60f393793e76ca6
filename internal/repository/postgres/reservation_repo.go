package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"context"

	"github.com/lib/pq"

	"parkhaus/internal/db"
	"parkhaus/internal/repository"
)

type reservationRepo struct {
	q queryer
}

const reservationColumns = `id, code, user_id, spot_id, license_plate, vehicle_make, vehicle_model, vehicle_color,
	start_time, end_time, checked_in_at, cancellation_deadline, estimated_cost, actual_cost, status, notes,
	created_at, updated_at`

func (r *reservationRepo) Create(ctx context.Context, res *db.Reservation) error {
	query := `
		INSERT INTO reservations
		(code, user_id, spot_id, license_plate, vehicle_make, vehicle_model, vehicle_color,
		 start_time, end_time, cancellation_deadline, estimated_cost, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query,
		res.Code,
		res.UserID,
		res.SpotID,
		res.LicensePlate,
		res.VehicleMake,
		res.VehicleModel,
		res.VehicleColor,
		res.StartTime,
		res.EndTime,
		res.CancellationDeadline,
		res.EstimatedCost,
		res.Status,
		res.Notes,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23P01": // exclusion_violation
				return repository.ErrConflictConstraint
			case "23505": // unique_violation
				return repository.ErrDuplicateEntry
			}
		}
		return fmt.Errorf("error creating reservation: %w", err)
	}
	return nil
}

func scanReservation(row interface{ Scan(dest ...any) error }) (*db.Reservation, error) {
	var res db.Reservation
	err := row.Scan(
		&res.ID, &res.Code, &res.UserID, &res.SpotID, &res.LicensePlate,
		&res.VehicleMake, &res.VehicleModel, &res.VehicleColor,
		&res.StartTime, &res.EndTime, &res.CheckedInAt, &res.CancellationDeadline,
		&res.EstimatedCost, &res.ActualCost, &res.Status, &res.Notes,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepo) GetByID(ctx context.Context, id int) (*db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	res, err := scanReservation(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("error querying reservation %d: %w", id, err)
	}
	return res, nil
}

func (r *reservationRepo) GetByCode(ctx context.Context, code string) (*db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE code = $1`
	res, err := scanReservation(r.q.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("error querying reservation '%s': %w", code, err)
	}
	return res, nil
}

func (r *reservationRepo) ListByUser(ctx context.Context, userID int) ([]db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY start_time DESC`
	return r.queryReservations(ctx, query, userID)
}

func (r *reservationRepo) FindOverlapping(ctx context.Context, spotID int, start, end time.Time, excludeID int) ([]db.Reservation, error) {
	// Half-open interval overlap: other.start < end AND other.end > start.
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE spot_id = $1
		  AND status = ANY($2)
		  AND start_time < $3
		  AND end_time > $4
		  AND id <> $5
		ORDER BY start_time`
	return r.queryReservations(ctx, query, spotID, pq.Array(db.OccupyingStatuses), end, start, excludeID)
}

func (r *reservationRepo) UpdateStatusFrom(ctx context.Context, id int, from []string, status string) (bool, error) {
	query := `UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2 AND status = ANY($3)`
	result, err := r.q.ExecContext(ctx, query, status, id, pq.Array(from))
	if err != nil {
		return false, fmt.Errorf("error updating reservation %d status: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *reservationRepo) MarkCheckedIn(ctx context.Context, id int, at time.Time) error {
	query := `UPDATE reservations SET status = $1, checked_in_at = $2, updated_at = NOW() WHERE id = $3`
	if _, err := r.q.ExecContext(ctx, query, db.StatusActive, at, id); err != nil {
		return fmt.Errorf("error marking reservation %d checked in: %w", id, err)
	}
	return nil
}

func (r *reservationRepo) MarkCompleted(ctx context.Context, id int, actualCost float64) error {
	query := `UPDATE reservations SET status = $1, actual_cost = $2, updated_at = NOW() WHERE id = $3`
	if _, err := r.q.ExecContext(ctx, query, db.StatusCompleted, actualCost, id); err != nil {
		return fmt.Errorf("error completing reservation %d: %w", id, err)
	}
	return nil
}

func (r *reservationRepo) FindOccupyingPastEnd(ctx context.Context, now time.Time) ([]db.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = ANY($1) AND end_time < $2
		ORDER BY end_time`
	return r.queryReservations(ctx, query, pq.Array(db.OccupyingStatuses), now)
}

func (r *reservationRepo) FindOccupyingNotCheckedInBefore(ctx context.Context, cutoff time.Time) ([]db.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = ANY($1) AND checked_in_at IS NULL AND start_time < $2
		ORDER BY start_time`
	return r.queryReservations(ctx, query, pq.Array(db.OccupyingStatuses), cutoff)
}

func (r *reservationRepo) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT status, COUNT(*) FROM reservations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("error counting reservations: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("error scanning status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *reservationRepo) BookedRevenue(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(SUM(COALESCE(actual_cost, estimated_cost)), 0)
		FROM reservations
		WHERE status NOT IN ($1, $2, $3)`
	var revenue float64
	err := r.q.QueryRowContext(ctx, query, db.StatusCancelled, db.StatusExpired, db.StatusNoShow).Scan(&revenue)
	if err != nil {
		return 0, fmt.Errorf("error summing revenue: %w", err)
	}
	return revenue, nil
}

func (r *reservationRepo) queryReservations(ctx context.Context, query string, args ...any) ([]db.Reservation, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying reservations: %w", err)
	}
	defer rows.Close()

	var out []db.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating reservations: %w", err)
	}
	return out, nil
}
