package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Store owns the single connection the manager uses for its lifetime.
type Store struct {
	conn *pgx.Conn
	*Queries
}

func NewStore(conn *pgx.Conn, table string) *Store {
	return &Store{
		conn:    conn,
		Queries: New(conn, table),
	}
}

// Open connects to dsn and verifies the connection with a ping.
func Open(ctx context.Context, dsn, table string) (*Store, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	return NewStore(conn, table), nil
}

func (s *Store) ExecTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	q := s.Queries.WithTx(tx)
	err = fn(q)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

// CreateUserTable creates the table and its password index atomically.
func (s *Store) CreateUserTable(ctx context.Context) error {
	return s.ExecTx(ctx, func(q *Queries) error {
		return q.createUserTable(ctx)
	})
}

func (s *Store) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}
