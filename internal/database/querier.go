package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const maxUsernameLength = 64

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUsernameTooLong   = fmt.Errorf("username longer than %d characters", maxUsernameLength)
	ErrTableExists       = errors.New("user table already exists")
	ErrTableNotFound     = errors.New("user table does not exist")
	ErrIndexExists       = errors.New("index name already in use")
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Queries runs every statement against one configurable table. Operator
// supplied values are always bound as parameters; the table name is quoted
// as an identifier.
type Queries struct {
	db    DBTX
	table string
	name  string
}

func New(db DBTX, table string) *Queries {
	parts := strings.Split(table, ".")
	return &Queries{
		db:    db,
		table: pgx.Identifier(parts).Sanitize(),
		name:  parts[len(parts)-1],
	}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx, table: q.table, name: q.name}
}

func (q *Queries) createUserTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE %s (
			id       BIGSERIAL PRIMARY KEY,
			username VARCHAR(64) NOT NULL,
			password CHAR(56)    NOT NULL,
			quota    BIGINT      NOT NULL DEFAULT 0,
			download BIGINT      NOT NULL DEFAULT 0 CHECK (download >= 0),
			upload   BIGINT      NOT NULL DEFAULT 0 CHECK (upload >= 0),
			CONSTRAINT %s UNIQUE (username)
		)
	`, q.table, pgx.Identifier{q.name + "_username_key"}.Sanitize())
	if _, err := q.db.Exec(ctx, query); err != nil {
		return tableError(err)
	}

	indexName := q.name + "_password_idx"
	index := fmt.Sprintf(`CREATE INDEX %s ON %s (password)`,
		pgx.Identifier{indexName}.Sanitize(), q.table)
	if _, err := q.db.Exec(ctx, index); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42P07" {
			return fmt.Errorf("%w: %s", ErrIndexExists, indexName)
		}
		return err
	}
	return nil
}

func (q *Queries) TruncateUserTable(ctx context.Context) (int64, error) {
	res, err := q.db.Exec(ctx, fmt.Sprintf(`TRUNCATE %s RESTART IDENTITY`, q.table))
	if err != nil {
		return 0, tableError(err)
	}
	return res.RowsAffected(), nil
}

func (q *Queries) DropUserTable(ctx context.Context) (int64, error) {
	res, err := q.db.Exec(ctx, fmt.Sprintf(`DROP TABLE %s`, q.table))
	if err != nil {
		return 0, tableError(err)
	}
	return res.RowsAffected(), nil
}

func tableError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P07":
			return ErrTableExists
		case "42P01":
			return ErrTableNotFound
		}
	}
	return err
}
