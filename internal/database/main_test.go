package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testConn *pgx.Conn

var tableSeq atomic.Int64

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:14-alpine",
		postgres.WithDatabase("trojan_db"),
		postgres.WithUsername("trojan"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		log.Fatalf("failed to start postgres container: %s", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("failed to terminate postgres container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("failed to get connection string: %s", err)
	}

	testConn, err = pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("failed to connect to test database: %s", err)
	}
	defer testConn.Close(ctx)

	return m.Run()
}

// newTestStore returns a store bound to a freshly created table that is
// dropped when the test ends.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	store := NewStore(testConn, fmt.Sprintf("users_%d", tableSeq.Add(1)))
	require.NoError(t, store.CreateUserTable(context.Background()))
	t.Cleanup(func() {
		_, _ = store.DropUserTable(context.Background())
	})
	return store
}

func countRows(t *testing.T, s *Store) int {
	t.Helper()

	var n int
	err := testConn.QueryRow(context.Background(), "SELECT count(*) FROM "+s.table).Scan(&n)
	require.NoError(t, err)
	return n
}
