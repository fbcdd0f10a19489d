package revokedtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/catalogauth/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	revokeQuery = `(?s)^INSERT\s+INTO\s+revoked_tokens\s*\(token_hash,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s*\(token_hash\)\s*DO\s+NOTHING\s*$`
	existsQuery = `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+revoked_tokens\s+WHERE\s+token_hash\s*=\s*\$1\)\s*$`
	purgeQuery  = `(?s)^DELETE\s+FROM\s+revoked_tokens\s+WHERE\s+expires_at\s*<\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestDigest(t *testing.T) {
	d := Digest("abc")
	assert.Len(t, d, 64)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", d)
	assert.NotEqual(t, d, Digest("abd"))
}

func TestPostgresRevoke(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(revokeQuery).
		WithArgs(Digest("tok"), exp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(revokeQuery).
		WithArgs(Digest("tok"), exp).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Revoke(context.Background(), "tok", exp))
	require.NoError(t, repo.Revoke(context.Background(), "tok", exp), "second revoke is a no-op")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRevoke_Error(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(revokeQuery).WillReturnError(errors.New("conn reset"))

	err := repo.Revoke(context.Background(), "tok", time.Now())
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "conn reset")
}

func TestPostgresIsRevoked(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(existsQuery).
		WithArgs(Digest("a")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(existsQuery).
		WithArgs(Digest("b")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	revoked, err := repo.IsRevoked(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.IsRevoked(context.Background(), "b")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestPostgresIsRevoked_Error(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(existsQuery).WillReturnError(errors.New("timeout"))

	revoked, err := repo.IsRevoked(context.Background(), "a")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.False(t, revoked)
}

func TestPostgresPurgeExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(purgeQuery).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.PurgeExpired(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestPostgresPurgeExpired_KeepsRetryableCause(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(purgeQuery).WillReturnError(retryableErr{})

	_, err := repo.PurgeExpired(context.Background(), time.Now())
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.True(t, pgconn.SafeToRetry(err))
}

type retryableErr struct{}

func (retryableErr) Error() string     { return "connection reset before send" }
func (retryableErr) SafeToRetry() bool { return true }
