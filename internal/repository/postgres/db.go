package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

func NewDB(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the schema. Statements are idempotent so it can run on
// every boot.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		migrationBtreeGist,
		migrationCreateUsers,
		migrationCreateSpots,
		migrationCreateReservations,
		migrationReservationOverlapGuard,
		migrationCreateWaitlist,
	}
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const migrationBtreeGist = `CREATE EXTENSION IF NOT EXISTS btree_gist`

const migrationCreateUsers = `
CREATE TABLE IF NOT EXISTS users (
	id        SERIAL PRIMARY KEY,
	name      TEXT NOT NULL,
	email     TEXT NOT NULL UNIQUE,
	phone     TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE
)`

const migrationCreateSpots = `
CREATE TABLE IF NOT EXISTS spots (
	id          SERIAL PRIMARY KEY,
	label       TEXT NOT NULL UNIQUE,
	floor       INT NOT NULL,
	spot_number INT NOT NULL,
	spot_type   TEXT NOT NULL,
	features    TEXT[] NOT NULL DEFAULT '{}',
	status      TEXT NOT NULL DEFAULT 'available',
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	UNIQUE (floor, spot_number)
)`

const migrationCreateReservations = `
CREATE TABLE IF NOT EXISTS reservations (
	id                    SERIAL PRIMARY KEY,
	code                  TEXT NOT NULL UNIQUE,
	user_id               INT NOT NULL REFERENCES users(id),
	spot_id               INT REFERENCES spots(id),
	license_plate         TEXT NOT NULL,
	vehicle_make          TEXT NOT NULL DEFAULT '',
	vehicle_model         TEXT NOT NULL DEFAULT '',
	vehicle_color         TEXT NOT NULL DEFAULT '',
	start_time            TIMESTAMPTZ NOT NULL,
	end_time              TIMESTAMPTZ NOT NULL,
	checked_in_at         TIMESTAMPTZ,
	cancellation_deadline TIMESTAMPTZ NOT NULL,
	estimated_cost        NUMERIC(10,2) NOT NULL,
	actual_cost           NUMERIC(10,2),
	status                TEXT NOT NULL,
	notes                 TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (end_time > start_time)
)`

// Second line of defense behind the in-transaction conflict re-check: the
// database itself refuses two occupying reservations with overlapping
// intervals on one spot.
const migrationReservationOverlapGuard = `
DO $$ BEGIN
	ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
		EXCLUDE USING gist (spot_id WITH =, tstzrange(start_time, end_time) WITH &&)
		WHERE (status IN ('confirmed', 'active'));
EXCEPTION WHEN duplicate_object THEN NULL;
END $$`

const migrationCreateWaitlist = `
CREATE TABLE IF NOT EXISTS waitlist_entries (
	id             SERIAL PRIMARY KEY,
	user_id        INT NOT NULL REFERENCES users(id),
	spot_type      TEXT NOT NULL,
	features       TEXT[] NOT NULL DEFAULT '{}',
	window_start   TIMESTAMPTZ NOT NULL,
	window_end     TIMESTAMPTZ NOT NULL,
	queue_key      TEXT NOT NULL,
	position       INT NOT NULL,
	expires_at     TIMESTAMPTZ NOT NULL,
	notified_count INT NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
