package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"parkhaus/internal/repository"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so the same repository
// code runs inside and outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLStore struct {
	db *sql.DB // nil when this store wraps a transaction
	q  queryer
}

func NewStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, q: db}
}

func (s *SQLStore) Reservations() repository.ReservationRepository {
	return &reservationRepo{q: s.q}
}

func (s *SQLStore) Spots() repository.SpotRepository {
	return &spotRepo{q: s.q}
}

func (s *SQLStore) Users() repository.UserRepository {
	return &userRepo{q: s.q}
}

func (s *SQLStore) Waitlist() repository.WaitlistRepository {
	return &waitlistRepo{q: s.q}
}

// RunAtomically runs fn against a store bound to a single transaction.
// Any error from fn rolls everything back. Nested calls reuse the
// surrounding transaction.
func (s *SQLStore) RunAtomically(ctx context.Context, fn func(repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	txStore := &SQLStore{q: tx}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
