package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parkhaus/internal/db"
	"parkhaus/internal/repository"
)

type userRepo struct {
	q queryer
}

func (r *userRepo) GetByID(ctx context.Context, id int) (*db.User, error) {
	var u db.User
	query := `SELECT id, name, email, phone, is_active FROM users WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("error querying user %d: %w", id, err)
	}
	return &u, nil
}
