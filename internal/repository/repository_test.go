package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlonjr14/pokemon-api/internal/models"
)

func newRepoWithMock(t *testing.T) (*Repository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock, db
}

func q(s string) string {
	return regexp.QuoteMeta(s)
}

func TestEnsureUsersTable(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureUsersTable(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("INSERT INTO users (username, password)")).
			WithArgs("alice", "hash").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))

		u := &models.User{Username: "alice", PasswordHash: "hash"}
		require.NoError(t, repo.CreateUser(context.Background(), u))
		assert.Equal(t, int64(7), u.ID)
		assert.Equal(t, created, u.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("INSERT INTO users")).
			WithArgs("alice", "hash").
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

		err := repo.CreateUser(context.Background(), &models.User{Username: "alice", PasswordHash: "hash"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("INSERT INTO users")).WillReturnError(errors.New("db down"))

		err := repo.CreateUser(context.Background(), &models.User{Username: "alice", PasswordHash: "hash"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrDuplicate)
		assert.Contains(t, err.Error(), "failed to create user: db down")
	})
}

func TestFindUserByUsername(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("FROM users")).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "created_at"}).
				AddRow(int64(1), "alice", "hash", time.Now()))

		u, err := repo.FindUserByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
		assert.Equal(t, "hash", u.PasswordHash)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("FROM users")).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		_, err := repo.FindUserByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListPokemon(t *testing.T) {
	cols := []string{"id", "name", "base_experience", "height", "weight"}

	t.Run("no filter", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("SELECT id, name, base_experience, height, weight FROM pokemon ORDER BY id")).
			WithoutArgs().
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(int64(1), "Bulbasaur", 64.0, 0.7, 6.9).
				AddRow(int64(4), "Charmander", 62.0, 0.6, 8.5))

		got, err := repo.ListPokemon(context.Background(), "   ")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Bulbasaur", got[0].Name)
		assert.Equal(t, int64(4), got[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("trimmed filter", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("FROM pokemon WHERE name LIKE $1 ORDER BY id")).
			WithArgs("%saur%").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(int64(1), "Bulbasaur", 64.0, 0.7, 6.9).
				AddRow(int64(2), "Ivysaur", 142.0, 1.0, 13.0))

		got, err := repo.ListPokemon(context.Background(), "  saur ")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Less(t, got[0].ID, got[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result is not nil", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("FROM pokemon")).WillReturnRows(sqlmock.NewRows(cols))

		got, err := repo.ListPokemon(context.Background(), "")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("FROM pokemon")).WillReturnError(errors.New("boom"))

		_, err := repo.ListPokemon(context.Background(), "")
		assert.ErrorContains(t, err, "failed to list pokemon: boom")
	})
}

func TestGetPokemon(t *testing.T) {
	cols := []string{"id", "name", "base_experience", "height", "weight"}

	t.Run("found", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("FROM pokemon WHERE id = $1")).
			WithArgs(int64(25)).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(25), "Pikachu", 112.0, 0.4, 6.0))

		p, err := repo.GetPokemon(context.Background(), 25)
		require.NoError(t, err)
		assert.Equal(t, models.Pokemon{ID: 25, Name: "Pikachu", BaseExperience: 112, Height: 0.4, Weight: 6.0}, *p)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("FROM pokemon WHERE id = $1")).WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetPokemon(context.Background(), 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCreatePokemon(t *testing.T) {
	cols := []string{"id", "name", "base_experience", "height", "weight"}

	t.Run("assigns id", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("INSERT INTO pokemon (name, base_experience, height, weight)")).
			WithArgs("Bulbasaur", 64.0, 0.7, 6.9).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(12), "Bulbasaur", 64.0, 0.7, 6.9))

		p := &models.Pokemon{Name: "Bulbasaur", BaseExperience: 64, Height: 0.7, Weight: 6.9}
		require.NoError(t, repo.CreatePokemon(context.Background(), p))
		assert.Equal(t, int64(12), p.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns stored row", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(q("RETURNING id, name, base_experience, height, weight")).
			WithArgs("Oddish", 64.5, 0.125, 5.4).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(43), "Oddish", 64.5, 0.13, 5.4))

		p := &models.Pokemon{Name: "Oddish", BaseExperience: 64.5, Height: 0.125, Weight: 5.4}
		require.NoError(t, repo.CreatePokemon(context.Background(), p))
		assert.Equal(t, models.Pokemon{ID: 43, Name: "Oddish", BaseExperience: 64.5, Height: 0.13, Weight: 5.4}, *p)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdatePokemon(t *testing.T) {
	name := "X"
	height := 1.5

	t.Run("only supplied fields", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(q("UPDATE pokemon SET name = $1, height = $2 WHERE id = $3")).
			WithArgs("X", 1.5, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdatePokemon(context.Background(), 3, models.PokemonFields{Name: &name, Height: &height})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(q("UPDATE pokemon SET name = $1 WHERE id = $2")).
			WithArgs("X", int64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePokemon(context.Background(), 404, models.PokemonFields{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty patch never reaches the database", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)

		err := repo.UpdatePokemon(context.Background(), 3, models.PokemonFields{})
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeletePokemon(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(q("DELETE FROM pokemon WHERE id = $1")).
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DeletePokemon(context.Background(), 3))
	})

	t.Run("missing id", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(q("DELETE FROM pokemon WHERE id = $1")).
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.DeletePokemon(context.Background(), 3), ErrNotFound)
	})
}

func TestStoreUnavailable(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	mock.ExpectClose()
	require.NoError(t, db.Close())

	_, err := repo.GetPokemon(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = repo.DeletePokemon(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
