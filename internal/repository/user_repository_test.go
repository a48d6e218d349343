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

func newUserMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "first_name", "last_name", "email", "phone", "password_hash", "role", "created_at"})
}

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, first_name, last_name, email, phone, password_hash, role, created_at FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("alice").
		WillReturnRows(userRows().AddRow(1, "alice", "Alice", "Doe", "alice@example.com", "123", "hash", models.RoleUser, time.Now()))

	user, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByUsernameMissing(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT .* FROM users WHERE username").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.FindByUsername(context.Background(), "ghost")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "Alice", "Doe", "alice@example.com", "123", "hash", models.RoleUser, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	user := &models.User{
		Username:     "alice",
		FirstName:    "Alice",
		LastName:     "Doe",
		Email:        "alice@example.com",
		Phone:        "123",
		PasswordHash: "hash",
		Role:         models.RoleUser,
	}
	id, err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, int64(7), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryList(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := userRows().
		AddRow(1, "alice", "Alice", "Doe", "alice@example.com", "123", "hash", models.RoleSuperAdmin, time.Now()).
		AddRow(2, "bob", "Bob", "Roe", "bob@example.com", "456", "hash", models.RoleUser, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, first_name, last_name, email, phone, password_hash, role, created_at FROM users ORDER BY created_at ASC")).
		WillReturnRows(rows)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateRole(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $2 WHERE id = $1")).
		WithArgs(int64(2), models.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateRole(context.Background(), 2, models.RoleAdmin)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateRoleMissing(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET role").
		WithArgs(int64(99), models.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRole(context.Background(), 99, models.RoleAdmin)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("DELETE FROM users").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 99), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
