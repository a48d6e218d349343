package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/todo-list-api/internal/models"
)

func newTokenMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTokenRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newTokenMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnResult(sqlmock.NewResult(0, 1))

	token := &models.RefreshToken{
		UserID:    4,
		Token:     "opaque",
		ExpiresAt: time.Now().Add(21 * 24 * time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), token))
	assert.NotEmpty(t, token.ID)
	assert.False(t, token.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryFind(t *testing.T) {
	db, mock, cleanup := newTokenMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at", "revoked", "revoked_at"}).
		AddRow("rt-1", 4, "opaque", time.Now().Add(time.Hour), time.Now(), false, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at FROM refresh_tokens WHERE token = $1 AND user_id = $2 LIMIT 1")).
		WithArgs("opaque", int64(4)).
		WillReturnRows(rows)

	rt, err := repo.Find(context.Background(), "opaque", 4)
	require.NoError(t, err)
	assert.Equal(t, "rt-1", rt.ID)
	assert.True(t, rt.Usable(time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryFindMissing(t *testing.T) {
	db, mock, cleanup := newTokenMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectQuery("SELECT .* FROM refresh_tokens WHERE token").
		WithArgs("ghost", int64(4)).
		WillReturnError(sql.ErrNoRows)

	rt, err := repo.Find(context.Background(), "ghost", 4)
	assert.Nil(t, rt)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryRotate(t *testing.T) {
	db, mock, cleanup := newTokenMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE refresh_tokens SET revoked = TRUE").
		WithArgs("rt-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	replacement := &models.RefreshToken{
		UserID:    4,
		Token:     "next",
		ExpiresAt: time.Now().Add(21 * 24 * time.Hour),
	}
	require.NoError(t, repo.Rotate(context.Background(), "rt-1", replacement))
	assert.NotEmpty(t, replacement.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A token consumed by a concurrent refresh updates zero rows; the rotation
// must fail and leave no replacement behind.
func TestTokenRepositoryRotateAlreadyRevoked(t *testing.T) {
	db, mock, cleanup := newTokenMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE refresh_tokens SET revoked = TRUE").
		WithArgs("rt-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	replacement := &models.RefreshToken{UserID: 4, Token: "next", ExpiresAt: time.Now().Add(time.Hour)}
	err := repo.Rotate(context.Background(), "rt-1", replacement)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newTokenMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec("DELETE FROM refresh_tokens WHERE token").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "ghost"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryDeleteExpired(t *testing.T) {
	db, mock, cleanup := newTokenMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec("DELETE FROM refresh_tokens WHERE expires_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 5))

	removed, err := repo.DeleteExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(5), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
