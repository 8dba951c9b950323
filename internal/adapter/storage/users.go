package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/niksmo/storefront/internal/core/domain"
)

// UserRecord is a user row with its password hash.
type UserRecord struct {
	domain.User
	PasswordHash []byte
}

type UsersRepository struct {
	sqldb sqldb
}

func NewUsersRepository(sqldb sqldb) UsersRepository {
	return UsersRepository{sqldb}
}

// CreateUser inserts u. A second user with the same email, compared
// case-insensitively, fails with [domain.ErrEmailTaken].
func (r UsersRepository) CreateUser(ctx context.Context, u UserRecord) error {
	const op = "UsersRepository.CreateUser"

	query := `
		INSERT INTO users (uid, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4);`

	_, err := r.sqldb.ExecContext(ctx, query,
		u.UID, strings.ToLower(u.Email), u.DisplayName, u.PasswordHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, domain.ErrEmailTaken)
		}
		return fmt.Errorf("%s: failed to insert: %w", op, err)
	}
	return nil
}

func (r UsersRepository) UserByEmail(ctx context.Context, email string) (UserRecord, error) {
	const op = "UsersRepository.UserByEmail"

	query := `
		SELECT uid, email, display_name, password_hash
		FROM users
		WHERE email = $1;`

	var u UserRecord
	err := r.sqldb.QueryRowContext(ctx, query, strings.ToLower(email)).Scan(
		&u.UID, &u.Email, &u.DisplayName, &u.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UserRecord{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return UserRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
