package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"parkhaus/internal/db"
	"parkhaus/internal/repository"
)

type spotRepo struct {
	q queryer
}

const spotColumns = `id, label, floor, spot_number, spot_type, features, status, is_active`

func scanSpot(row interface{ Scan(dest ...any) error }) (*db.Spot, error) {
	var s db.Spot
	err := row.Scan(&s.ID, &s.Label, &s.Floor, &s.SpotNumber, &s.SpotType,
		pq.Array(&s.Features), &s.Status, &s.IsActive)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *spotRepo) GetByID(ctx context.Context, id int) (*db.Spot, error) {
	query := `SELECT ` + spotColumns + ` FROM spots WHERE id = $1`
	spot, err := scanSpot(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("error querying spot %d: %w", id, err)
	}
	return spot, nil
}

func (r *spotRepo) FindAvailableByType(ctx context.Context, spotType string) ([]db.Spot, error) {
	// Floor then spot number is the allocation tie-break; keep it stable.
	query := `
		SELECT ` + spotColumns + `
		FROM spots
		WHERE spot_type = $1 AND status = $2 AND is_active
		ORDER BY floor, spot_number`
	rows, err := r.q.QueryContext(ctx, query, spotType, db.SpotAvailable)
	if err != nil {
		return nil, fmt.Errorf("error querying available spots: %w", err)
	}
	defer rows.Close()

	var spots []db.Spot
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning spot: %w", err)
		}
		spots = append(spots, *spot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating spots: %w", err)
	}
	return spots, nil
}

func (r *spotRepo) List(ctx context.Context) ([]db.Spot, error) {
	query := `SELECT ` + spotColumns + ` FROM spots ORDER BY floor, spot_number`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing spots: %w", err)
	}
	defer rows.Close()

	var spots []db.Spot
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning spot: %w", err)
		}
		spots = append(spots, *spot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating spots: %w", err)
	}
	return spots, nil
}

func (r *spotRepo) SetStatus(ctx context.Context, id int, status string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE spots SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("error updating spot %d status: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *spotRepo) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT status, COUNT(*) FROM spots WHERE is_active GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("error counting spots: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("error scanning spot count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
