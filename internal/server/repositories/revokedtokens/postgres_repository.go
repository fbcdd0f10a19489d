package revokedtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/catalogauth/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Revoke(ctx context.Context, token string, expiresAt time.Time) error {

	query :=
		`INSERT INTO revoked_tokens (token_hash, expires_at)
         VALUES ($1, $2)
		 ON CONFLICT (token_hash) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, Digest(token), expiresAt.UTC()); err != nil {
		return unavailable("revoke", err)
	}

	return nil
}

func (r *PostgresRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_hash = $1)
		 `

	var revoked bool
	if err := r.db.QueryRowContext(ctx, query, Digest(token)).Scan(&revoked); err != nil {
		return false, unavailable("is revoked", err)
	}

	return revoked, nil
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	query :=
		`DELETE FROM revoked_tokens WHERE expires_at < $1
		 `

	res, err := r.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, unavailable("purge expired", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("purge expired", err)
	}

	return n, nil
}
