package database

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"trojan-manager/internal/credential"
	"trojan-manager/internal/models"
	"trojan-manager/internal/units"

	"github.com/jackc/pgx/v5/pgconn"
)

func (q *Queries) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE username = $1)`, q.table)
	err := q.db.QueryRow(ctx, query, username).Scan(&exists)
	if err != nil {
		return false, tableError(err)
	}
	return exists, nil
}

// AddUser inserts username with the digest of username:password. The
// lookup catches the common duplicate case; the unique constraint catches
// a concurrent insert that slips past it.
func (q *Queries) AddUser(ctx context.Context, username, password string) (int64, error) {
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return 0, ErrUsernameTooLong
	}

	exists, err := q.UserExists(ctx, username)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrUserAlreadyExists
	}

	query := fmt.Sprintf(`INSERT INTO %s (username, password) VALUES ($1, $2)`, q.table)
	res, err := q.db.Exec(ctx, query, username, credential.Hash(username, password))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrUserAlreadyExists
		}
		return 0, tableError(err)
	}

	return res.RowsAffected(), nil
}

func (q *Queries) DelUser(ctx context.Context, username string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE username = $1`, q.table)
	res, err := q.db.Exec(ctx, query, username)
	if err != nil {
		return 0, tableError(err)
	}
	return res.RowsAffected(), nil
}

func (q *Queries) ListUsers(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, password, quota, download, upload
		FROM %s
		ORDER BY id
	`, q.table)
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, tableError(err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Password,
			&user.Quota,
			&user.Download,
			&user.Upload,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, tableError(err)
	}

	if users == nil {
		return []models.User{}, nil
	}

	return users, nil
}

// SetQuota replaces the quota of username with the converted quotaText.
// Nothing is written when quotaText does not convert.
func (q *Queries) SetQuota(ctx context.Context, username, quotaText string) (int64, error) {
	quota, err := units.Convert(quotaText)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`UPDATE %s SET quota = $1 WHERE username = $2`, q.table)
	res, err := q.db.Exec(ctx, query, quota, username)
	if err != nil {
		return 0, tableError(err)
	}
	return res.RowsAffected(), nil
}

func (q *Queries) AddQuota(ctx context.Context, username, deltaText string) (int64, error) {
	delta, err := units.Convert(deltaText)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`UPDATE %s SET quota = quota + $1 WHERE username = $2`, q.table)
	res, err := q.db.Exec(ctx, query, delta, username)
	if err != nil {
		return 0, tableError(err)
	}
	return res.RowsAffected(), nil
}

// ClearUsage zeroes download and upload for username, or for every row
// when username is nil.
func (q *Queries) ClearUsage(ctx context.Context, username *string) (int64, error) {
	var res pgconn.CommandTag
	var err error

	if username == nil {
		query := fmt.Sprintf(`UPDATE %s SET download = 0, upload = 0`, q.table)
		res, err = q.db.Exec(ctx, query)
	} else {
		query := fmt.Sprintf(`UPDATE %s SET download = 0, upload = 0 WHERE username = $1`, q.table)
		res, err = q.db.Exec(ctx, query, *username)
	}

	if err != nil {
		return 0, tableError(err)
	}
	return res.RowsAffected(), nil
}

// Verify reports whether hash equals a stored password digest exactly.
func (q *Queries) Verify(ctx context.Context, hash string) (bool, error) {
	// password is CHAR(56), which ignores trailing blanks when compared.
	if len(hash) != credential.Size {
		return false, nil
	}

	var valid bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE password = $1)`, q.table)
	err := q.db.QueryRow(ctx, query, hash).Scan(&valid)
	if err != nil {
		return false, tableError(err)
	}
	return valid, nil
}
