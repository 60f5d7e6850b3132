package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgQuerier es lo mínimo que usa PgKVStore; lo cumplen *pgxpool.Pool y pgxmock.
type PgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgKVStore persiste las claves de cada perfil en la tabla client_state.
type PgKVStore struct {
	pool    PgQuerier
	profile string
}

func NewPgKVStore(pool PgQuerier, profile string) *PgKVStore {
	return &PgKVStore{pool: pool, profile: profile}
}

// EnsureSchema crea la tabla si no existe.
func (r *PgKVStore) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS client_state (
			profile    TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (profile, key)
		)
	`
	_, err := r.pool.Exec(ctx, query)
	return err
}

func (r *PgKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `
		SELECT value
		FROM client_state
		WHERE profile = $1 AND key = $2
	`
	var value string
	err := r.pool.QueryRow(ctx, query, r.profile, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *PgKVStore) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO client_state (profile, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (profile, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()
	`
	_, err := r.pool.Exec(ctx, query, r.profile, key, value)
	return err
}

func (r *PgKVStore) Remove(ctx context.Context, key string) error {
	const query = `
		DELETE FROM client_state
		WHERE profile = $1 AND key = $2
	`
	_, err := r.pool.Exec(ctx, query, r.profile, key)
	return err
}
