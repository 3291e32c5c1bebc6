package readings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	libdb "airmonitor/backend/libs/db"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS readings (
		device_id     TEXT        NOT NULL,
		recorded_at   BIGINT      NOT NULL,
		sensor_values JSONB       NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (device_id, recorded_at)
	)`,
	`CREATE INDEX IF NOT EXISTS readings_recorded_at_idx ON readings (recorded_at DESC)`,
}

const upsertReading = `
	INSERT INTO readings (device_id, recorded_at, sensor_values)
	VALUES ($1, $2, $3)
	ON CONFLICT (device_id, recorded_at) DO UPDATE SET sensor_values = EXCLUDED.sensor_values
`

// PostgresStore keeps readings in a single table keyed by device and timestamp.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the readings table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return libdb.ApplySchema(ctx, s.db, postgresSchema...)
}

// Put inserts or replaces a reading.
func (s *PostgresStore) Put(ctx context.Context, r Reading) error {
	values, err := json.Marshal(r.Values)
	if err != nil {
		return fmt.Errorf("readings: encode values: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, upsertReading, r.DeviceID, r.Timestamp, string(values)); err != nil {
		return fmt.Errorf("readings: insert: %w", err)
	}
	return nil
}

// PutBatch writes all readings in one transaction.
func (s *PostgresStore) PutBatch(ctx context.Context, rs []Reading) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("readings: begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertReading)
	if err != nil {
		return fmt.Errorf("readings: prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, r := range rs {
		values, err := json.Marshal(r.Values)
		if err != nil {
			return fmt.Errorf("readings: encode values: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.DeviceID, r.Timestamp, string(values)); err != nil {
			return fmt.Errorf("readings: batch insert: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns readings newest first.
func (s *PostgresStore) Recent(ctx context.Context, q Query) ([]Reading, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if q.DeviceID != "" {
		const query = `
			SELECT device_id, recorded_at, sensor_values
			FROM readings
			WHERE device_id = $1 AND recorded_at >= $2
			ORDER BY recorded_at DESC
			LIMIT $3
		`
		rows, err = s.db.QueryContext(ctx, query, q.DeviceID, q.Since, q.limit())
	} else {
		const query = `
			SELECT device_id, recorded_at, sensor_values
			FROM readings
			WHERE recorded_at >= $1
			ORDER BY recorded_at DESC, device_id
			LIMIT $2
		`
		rows, err = s.db.QueryContext(ctx, query, q.Since, q.limit())
	}
	if err != nil {
		return nil, fmt.Errorf("readings: query: %w", err)
	}
	defer rows.Close()

	var result []Reading
	for rows.Next() {
		var (
			r   Reading
			raw []byte
		)
		if err := rows.Scan(&r.DeviceID, &r.Timestamp, &raw); err != nil {
			return nil, fmt.Errorf("readings: scan: %w", err)
		}
		if err := json.Unmarshal(raw, &r.Values); err != nil {
			return nil, fmt.Errorf("readings: decode values: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// DeviceIDs lists distinct device IDs in order.
func (s *PostgresStore) DeviceIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT device_id FROM readings ORDER BY device_id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("readings: list devices: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
