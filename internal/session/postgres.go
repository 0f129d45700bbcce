package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// postgresStore persists sessions in Postgres via sqlx. Field maps are stored
// as JSONB so the schema is independent of the wizard field sets.
type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs a Store over an already connected database.
// The sessions table is created by migrations (see migrations/).
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

type sessionRow struct {
	State     string    `db:"state"`
	Fields    []byte    `db:"fields"`
	Preserved []byte    `db:"preserved"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *postgresStore) Get(ctx context.Context, userID int64) (*Data, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row,
		`SELECT state, fields, preserved, updated_at FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: get: %w", err)
	}
	return rowToData(row.State, row.Fields, row.Preserved, row.UpdatedAt)
}

func (s *postgresStore) Put(ctx context.Context, userID int64, data *Data) error {
	fields, preserved, err := encodeMaps(data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, state, fields, preserved, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			state = EXCLUDED.state,
			fields = EXCLUDED.fields,
			preserved = EXCLUDED.preserved,
			updated_at = now()
	`, userID, string(data.State), fields, preserved)
	if err != nil {
		return fmt.Errorf("session: put: %w", err)
	}
	return nil
}

func (s *postgresStore) Clear(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

func encodeMaps(data *Data) ([]byte, []byte, error) {
	fields, err := json.Marshal(data.Fields)
	if err != nil {
		return nil, nil, fmt.Errorf("session: encode fields: %w", err)
	}
	preserved, err := json.Marshal(data.Preserved)
	if err != nil {
		return nil, nil, fmt.Errorf("session: encode preserved: %w", err)
	}
	return fields, preserved, nil
}

func rowToData(state string, fields, preserved []byte, updatedAt time.Time) (*Data, error) {
	data := NewData()
	data.State = State(state)
	data.UpdatedAt = updatedAt
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &data.Fields); err != nil {
			return nil, fmt.Errorf("session: decode fields: %w", err)
		}
	}
	if len(preserved) > 0 {
		if err := json.Unmarshal(preserved, &data.Preserved); err != nil {
			return nil, fmt.Errorf("session: decode preserved: %w", err)
		}
	}
	return data, nil
}
