package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteStore persists sessions in a local SQLite file. It is the lightweight
// alternative to Postgres for single-instance deployments.
type sqliteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	user_id INTEGER PRIMARY KEY,
	state TEXT NOT NULL,
	fields TEXT NOT NULL DEFAULT '{}',
	preserved TEXT NOT NULL DEFAULT '{}',
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// NewSQLiteStore opens (creating if needed) the SQLite session database.
func NewSQLiteStore(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open sqlite: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: init sqlite schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(ctx context.Context, userID int64) (*Data, error) {
	var (
		state             string
		fields, preserved []byte
		updatedAt         time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT state, fields, preserved, updated_at FROM sessions WHERE user_id = ?`, userID).
		Scan(&state, &fields, &preserved, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: get: %w", err)
	}
	return rowToData(state, fields, preserved, updatedAt)
}

func (s *sqliteStore) Put(ctx context.Context, userID int64, data *Data) error {
	fields, preserved, err := encodeMaps(data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, state, fields, preserved, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			state = excluded.state,
			fields = excluded.fields,
			preserved = excluded.preserved,
			updated_at = CURRENT_TIMESTAMP
	`, userID, string(data.State), string(fields), string(preserved))
	if err != nil {
		return fmt.Errorf("session: put: %w", err)
	}
	return nil
}

func (s *sqliteStore) Clear(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}
