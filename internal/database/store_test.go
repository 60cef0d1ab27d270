package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateUserTableTwice(t *testing.T) {
	store := newTestStore(t)

	err := store.CreateUserTable(context.Background())
	require.ErrorIs(t, err, ErrTableExists)
}

func TestTruncateUserTable(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.AddUser(ctx, "alice", "secret")
	require.NoError(t, err)
	_, err = store.AddUser(ctx, "bob", "secret")
	require.NoError(t, err)

	_, err = store.TruncateUserTable(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, countRows(t, store))

	_, err = store.AddUser(ctx, "carol", "secret")
	require.NoError(t, err)
	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, int64(1), users[0].ID, "identity restarts after truncate")
}

func TestDropUserTable(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testConn, "dropped_users")
	require.NoError(t, store.CreateUserTable(ctx))

	_, err := store.DropUserTable(ctx)
	require.NoError(t, err)

	_, err = store.DropUserTable(ctx)
	require.ErrorIs(t, err, ErrTableNotFound)

	_, err = store.ListUsers(ctx)
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestCreateUserTableRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testConn, "rollback_users")

	_, err := testConn.Exec(ctx, `CREATE TABLE rollback_side (id INT)`)
	require.NoError(t, err)
	_, err = testConn.Exec(ctx, `CREATE INDEX rollback_users_password_idx ON rollback_side (id)`)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = testConn.Exec(ctx, `DROP TABLE IF EXISTS rollback_side`)
	})

	err = store.CreateUserTable(ctx)
	require.ErrorIs(t, err, ErrIndexExists)
	require.NotErrorIs(t, err, ErrTableExists)
	require.ErrorContains(t, err, "rollback_users_password_idx")

	exists, err := store.UserExists(ctx, "anyone")
	require.ErrorIs(t, err, ErrTableNotFound, "table creation must be rolled back with the index")
	require.False(t, exists)
}

func TestQuotedTableName(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testConn, `odd "name"; DROP TABLE x`)
	require.NoError(t, store.CreateUserTable(ctx))
	t.Cleanup(func() { _, _ = store.DropUserTable(ctx) })

	_, err := store.AddUser(ctx, "alice", "secret")
	require.NoError(t, err)

	exists, err := store.UserExists(ctx, "alice")
	require.NoError(t, err)
	require.True(t, exists)
}
