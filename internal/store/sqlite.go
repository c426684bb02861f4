// Package store persists saved analyses in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lvonguyen/ppc-analyzer/internal/analysis"
	"github.com/lvonguyen/ppc-analyzer/internal/normalizer"
)

// ErrNotFound is returned for an id the owner has no analysis under
var ErrNotFound = errors.New("analysis not found")

const schema = `
CREATE TABLE IF NOT EXISTS saved_analyses (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	name        TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	target_acos REAL NOT NULL,
	rows_json   TEXT NOT NULL,
	result_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_saved_analyses_owner ON saved_analyses (owner_id, created_at);
`

// Record is one saved analysis
type Record struct {
	ID         string           `json:"id"`
	OwnerID    string           `json:"ownerId"`
	Name       string           `json:"name"`
	CreatedAt  time.Time        `json:"createdAt"`
	TargetACoS float64          `json:"targetAcos"`
	Rows       []normalizer.Row `json:"rows,omitempty"`
	Result     *analysis.Result `json:"result"`
}

// SQLite stores analyses in a single SQLite database file
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path
func Open(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Save stores rows and their result and returns the new id
func (s *SQLite) Save(ctx context.Context, ownerID, name string, rows []normalizer.Row, result *analysis.Result, targetACoS float64) (string, error) {
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode rows: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_analyses (id, owner_id, name, created_at, target_acos, rows_json, result_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, name, s.now().UTC().UnixNano(), targetACoS, string(rowsJSON), string(resultJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save analysis: %w", err)
	}
	return id, nil
}

// List returns the owner's analyses newest first, without their rows
func (s *SQLite) List(ctx context.Context, ownerID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, name, created_at, target_acos, result_json
		 FROM saved_analyses WHERE owner_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			rec        Record
			createdAt  int64
			resultJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Name, &createdAt, &rec.TargetACoS, &resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to decode result %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return records, nil
}

// Get loads one analysis including its rows
func (s *SQLite) Get(ctx context.Context, ownerID, id string) (*Record, error) {
	var (
		rec        Record
		createdAt  int64
		rowsJSON   string
		resultJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at, target_acos, rows_json, result_json
		 FROM saved_analyses WHERE owner_id = ? AND id = ?`,
		ownerID, id,
	).Scan(&rec.ID, &rec.OwnerID, &rec.Name, &createdAt, &rec.TargetACoS, &rowsJSON, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis %s: %w", id, err)
	}

	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := json.Unmarshal([]byte(rowsJSON), &rec.Rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return nil, fmt.Errorf("failed to decode result %s: %w", id, err)
	}
	return &rec, nil
}

// Delete removes one analysis
func (s *SQLite) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_analyses WHERE owner_id = ? AND id = ?`,
		ownerID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete analysis %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete analysis %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
