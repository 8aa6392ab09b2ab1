package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/cardstack/internal/game/state"
)

// SaveRepository persists save slots in the saves table.
type SaveRepository struct {
	db *pgxpool.Pool
}

var _ state.Repository = (*SaveRepository)(nil)

// NewSaveRepository creates a SaveRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the saves
// migration applied.
func NewSaveRepository(db *pgxpool.Pool) *SaveRepository {
	return &SaveRepository{db: db}
}

// Put stores rec, replacing the slot's previous record.
func (r *SaveRepository) Put(ctx context.Context, rec state.Record) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO saves (slot, id, description, thumbnail, auto_save, payload, checksum, saved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (slot) DO UPDATE SET
		   id = EXCLUDED.id,
		   description = EXCLUDED.description,
		   thumbnail = EXCLUDED.thumbnail,
		   auto_save = EXCLUDED.auto_save,
		   payload = EXCLUDED.payload,
		   checksum = EXCLUDED.checksum,
		   saved_at = EXCLUDED.saved_at`,
		rec.Slot, rec.ID, rec.Description, rec.Thumbnail, rec.AutoSave,
		rec.Payload, rec.Checksum, rec.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting save slot %d: %w", rec.Slot, err)
	}
	return nil
}

// Get returns the record stored in slot.
//
// Postcondition: Returns an error wrapping state.ErrSaveNotFound when the
// slot is empty.
func (r *SaveRepository) Get(ctx context.Context, slot int) (state.Record, error) {
	var rec state.Record
	err := r.db.QueryRow(ctx,
		`SELECT slot, id, description, thumbnail, auto_save, payload, checksum, saved_at
		 FROM saves WHERE slot = $1`,
		slot,
	).Scan(&rec.Slot, &rec.ID, &rec.Description, &rec.Thumbnail, &rec.AutoSave,
		&rec.Payload, &rec.Checksum, &rec.SavedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return state.Record{}, fmt.Errorf("slot %d: %w", slot, state.ErrSaveNotFound)
		}
		return state.Record{}, fmt.Errorf("querying save slot %d: %w", slot, err)
	}
	rec.SavedAt = rec.SavedAt.UTC()
	return rec, nil
}

// List returns every record ordered by slot, without payloads.
func (r *SaveRepository) List(ctx context.Context) ([]state.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT slot, id, description, thumbnail, auto_save, checksum, saved_at
		 FROM saves ORDER BY slot`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	var out []state.Record
	for rows.Next() {
		var rec state.Record
		if err := rows.Scan(&rec.Slot, &rec.ID, &rec.Description, &rec.Thumbnail,
			&rec.AutoSave, &rec.Checksum, &rec.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning save: %w", err)
		}
		rec.SavedAt = rec.SavedAt.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes slot. Deleting an empty slot is not an error.
func (r *SaveRepository) Delete(ctx context.Context, slot int) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM saves WHERE slot = $1`, slot); err != nil {
		return fmt.Errorf("deleting save slot %d: %w", slot, err)
	}
	return nil
}
