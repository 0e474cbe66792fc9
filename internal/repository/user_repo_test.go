package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-api/internal/model"
)

var userRowColumns = []string{"id", "display_name", "email", "password_hash", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	return NewUserRepository(mock), mock
}

func TestFindByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow("u1", "Ann", "ann@example.com", "hash", now, now))

	u, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, model.User{
		ID:           "u1",
		DisplayName:  "Ann",
		Email:        "ann@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}, u)
}

func TestFindByIDNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestFindByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM users WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("ann@example.com").
		WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow("u1", "Ann", "ann@example.com", "hash", now, now))

	u, err := repo.FindByEmail(context.Background(), "  ann@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestFindByEmailErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM users WHERE lower\(email\)`).
			WithArgs("nobody@example.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
		require.ErrorIs(t, err, model.ErrUserNotFound)
	})

	t.Run("driver failure is wrapped", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM users WHERE lower\(email\)`).
			WithArgs("ann@example.com").
			WillReturnError(errors.New("conn reset"))

		_, err := repo.FindByEmail(context.Background(), "ann@example.com")
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrUserNotFound)
		assert.Contains(t, err.Error(), "find user by email: conn reset")
	})
}

func TestExistsByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE lower\(email\) = lower\(\$1\)\)`).
		WithArgs("ann@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreate(t *testing.T) {
	now := time.Now().UTC()
	user := model.User{
		ID:           "0b5cf3a4-7d8e-4c61-9c55-0f3f1f7f2a10",
		DisplayName:  "Ann",
		Email:        "ann@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	t.Run("inserts", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`INSERT INTO users \(id, display_name, email, password_hash, created_at, updated_at\)`).
			WithArgs(user.ID, user.DisplayName, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Create(context.Background(), user))
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_key"})

		err := repo.Create(context.Background(), user)
		require.ErrorIs(t, err, model.ErrUserAlreadyExists)
	})

	t.Run("other failure", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("disk full"))

		err := repo.Create(context.Background(), user)
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrUserAlreadyExists)
	})
}
