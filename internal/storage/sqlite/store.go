// Package sqlite stores save games in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cory-johannsen/cardstack/internal/game/state"
)

//go:embed schema.sql
var schemaSQL string

// Store is a state.Repository backed by one SQLite file. A single
// connection serializes writers.
type Store struct {
	db *sql.DB
}

var _ state.Repository = (*Store)(nil)

// Open creates or opens the database at path and applies the schema.
//
// Precondition: path names a writable file, or ":memory:".
// Postcondition: Returns an open Store or a non-nil error; the schema is
// idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening save database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to save database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying save schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put implements state.Repository.
func (s *Store) Put(ctx context.Context, rec state.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saves (slot, id, description, thumbnail, auto_save, payload, checksum, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		   id = excluded.id,
		   description = excluded.description,
		   thumbnail = excluded.thumbnail,
		   auto_save = excluded.auto_save,
		   payload = excluded.payload,
		   checksum = excluded.checksum,
		   saved_at = excluded.saved_at`,
		rec.Slot, rec.ID.String(), rec.Description, rec.Thumbnail, rec.AutoSave,
		rec.Payload, rec.Checksum, rec.SavedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("storing slot %d: %w", rec.Slot, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, withPayload bool) (state.Record, error) {
	var (
		rec     state.Record
		id      string
		savedAt int64
	)
	dest := []any{&rec.Slot, &id, &rec.Description, &rec.Thumbnail, &rec.AutoSave, &rec.Checksum, &savedAt}
	if withPayload {
		dest = append(dest, &rec.Payload)
	}
	if err := row.Scan(dest...); err != nil {
		return state.Record{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return state.Record{}, fmt.Errorf("slot %d: invalid id %q: %w", rec.Slot, id, err)
	}
	rec.ID = parsed
	rec.SavedAt = time.Unix(0, savedAt).UTC()
	return rec, nil
}

// Get implements state.Repository.
func (s *Store) Get(ctx context.Context, slot int) (state.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT slot, id, description, thumbnail, auto_save, checksum, saved_at, payload
		 FROM saves WHERE slot = ?`,
		slot,
	)
	rec, err := scanRecord(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return state.Record{}, fmt.Errorf("slot %d: %w", slot, state.ErrSaveNotFound)
	}
	if err != nil {
		return state.Record{}, fmt.Errorf("reading slot %d: %w", slot, err)
	}
	return rec, nil
}

// List implements state.Repository.
func (s *Store) List(ctx context.Context) ([]state.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, id, description, thumbnail, auto_save, checksum, saved_at
		 FROM saves ORDER BY slot`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	var out []state.Record
	for rows.Next() {
		rec, err := scanRecord(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scanning save: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete implements state.Repository.
func (s *Store) Delete(ctx context.Context, slot int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("deleting slot %d: %w", slot, err)
	}
	return nil
}
