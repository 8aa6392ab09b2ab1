package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/cardstack/internal/game/state"
)

// SampleRecord returns a complete record for slot. SavedAt has whole-second
// precision so every store round-trips it exactly.
func SampleRecord(slot int, description string, autoSave bool) state.Record {
	return state.Record{
		ID:          uuid.New(),
		Slot:        slot,
		Description: description,
		Thumbnail:   []byte("image 1 (0,0)-(544,333)"),
		AutoSave:    autoSave,
		Payload:     []byte{0x83, 0xa7, 'v', 'e', 'r', 's', 'i', 'o', 'n', 0x01},
		Checksum:    []byte{0xde, 0xad, 0xbe, 0xef},
		SavedAt:     time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
	}
}

// RepositoryContract checks the behavior every state.Repository must share.
//
// Precondition: repo must be empty.
func RepositoryContract(t *testing.T, repo state.Repository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Get(ctx, 1)
	require.ErrorIs(t, err, state.ErrSaveNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	first := SampleRecord(2, "Save 2", false)
	require.NoError(t, repo.Put(ctx, first))
	got, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	replaced := SampleRecord(2, "before the tower", false)
	replaced.Thumbnail = nil
	require.NoError(t, repo.Put(ctx, replaced))
	got, err = repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, replaced.ID, got.ID)
	assert.Equal(t, "before the tower", got.Description)
	assert.Empty(t, got.Thumbnail)

	auto := SampleRecord(state.AutoSaveSlot, "Autosave", true)
	require.NoError(t, repo.Put(ctx, auto))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, state.AutoSaveSlot, list[0].Slot)
	assert.True(t, list[0].AutoSave)
	assert.Equal(t, 2, list[1].Slot)
	for _, rec := range list {
		assert.Empty(t, rec.Payload, "List must omit payloads")
		assert.NotEmpty(t, rec.Checksum)
	}

	require.NoError(t, repo.Delete(ctx, 2))
	require.NoError(t, repo.Delete(ctx, 2))
	_, err = repo.Get(ctx, 2)
	assert.ErrorIs(t, err, state.ErrSaveNotFound)
}
