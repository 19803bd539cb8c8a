package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/essay-evaluator/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/essay-evaluator/internal/domain"
)

func TestFriendRepoAdd(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 2")}
	repo := postgres.NewFriendRepo(pool)

	err := repo.Add(context.Background(), "user-1", "user-2")
	require.NoError(t, err)
	assert.Equal(t, []any{"user-1", "user-2"}, pool.execArgs)
}

func TestFriendRepoAdd_UnknownUser(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execErr: &pgconn.PgError{Code: "23503"}}
	repo := postgres.NewFriendRepo(pool)

	err := repo.Add(context.Background(), "user-1", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFriendRepoAdd_OtherError(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execErr: errors.New("connection reset")}
	repo := postgres.NewFriendRepo(pool)

	err := repo.Add(context.Background(), "user-1", "user-2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestFriendRepoRemove(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("DELETE 2")}
	repo := postgres.NewFriendRepo(pool)
	require.NoError(t, repo.Remove(context.Background(), "user-1", "user-2"))

	pool = &poolStub{execTag: pgconn.NewCommandTag("DELETE 0")}
	repo = postgres.NewFriendRepo(pool)
	assert.ErrorIs(t, repo.Remove(context.Background(), "user-1", "user-2"), domain.ErrNotFound)
}

func TestFriendRepoList(t *testing.T) {
	t.Parallel()
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	friendRow := func(id, username string) func(dest ...any) error {
		return func(dest ...any) error {
			set(dest[0], id)
			set(dest[1], username)
			set(dest[2], username+"@example.com")
			set(dest[3], domain.RoleUser)
			set(dest[4], created)
			return nil
		}
	}
	pool := &poolStub{rows: &rowsStub{rows: []func(dest ...any) error{
		friendRow("user-2", "bob"),
		friendRow("user-3", "carol"),
	}}}
	repo := postgres.NewFriendRepo(pool)

	friends, err := repo.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, friends, 2)
	assert.Equal(t, "bob", friends[0].Username)
	assert.Equal(t, "carol", friends[1].Username)
	assert.Empty(t, friends[0].PasswordHash)
	assert.Equal(t, created, friends[1].CreatedAt)
}

func TestFriendRepoList_QueryError(t *testing.T) {
	t.Parallel()
	pool := &poolStub{queryErr: errors.New("boom")}
	repo := postgres.NewFriendRepo(pool)

	_, err := repo.List(context.Background(), "user-1")
	require.Error(t, err)
}
