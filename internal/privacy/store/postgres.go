package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"deskvault/pkg/sentinel"
)

// PostgresStore reads and writes the privacy passphrase hash column on the
// users table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetPassphraseHash(ctx context.Context, userID int64) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT privacy_passphrase_hash FROM users WHERE id = $1`,
		userID,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: user %d", sentinel.ErrNotFound, userID)
	}
	if err != nil {
		return "", fmt.Errorf("get passphrase hash: %w", err)
	}
	return hash.String, nil
}

func (s *PostgresStore) SetPassphraseHash(ctx context.Context, userID int64, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET privacy_passphrase_hash = $2 WHERE id = $1`,
		userID, hash,
	)
	if err != nil {
		return fmt.Errorf("set passphrase hash: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set passphrase hash: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %d", sentinel.ErrNotFound, userID)
	}
	return nil
}
