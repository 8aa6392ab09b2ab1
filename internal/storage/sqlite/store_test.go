package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/cardstack/internal/game/state"
	"github.com/cory-johannsen/cardstack/internal/storage/sqlite"
	"github.com/cory-johannsen/cardstack/internal/testutil"
)

func openStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "saves.db")
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestStore_RepositoryContract(t *testing.T) {
	s, _ := openStore(t)
	testutil.RepositoryContract(t, s)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	s, path := openStore(t)
	rec := testutil.SampleRecord(3, "Save 3", false)
	require.NoError(t, s.Put(context.Background(), rec))
	require.NoError(t, s.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestStore_BacksStateManager(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	st := state.NewGameState(false, true)
	st.Vars.Set(41, 1)
	st.Globals.HeldPage = state.RedLibraryPage
	mgr := state.NewManager(s, st, zaptest.NewLogger(t))

	loc := state.Location{Stack: 7, Card: 4134}
	require.True(t, mgr.Save(ctx, 4, "library", nil, false, loc))
	assert.True(t, mgr.IsAutoSaveAllowed(ctx))

	st.Reset()
	assert.Equal(t, uint16(0), st.Vars.Get(41))

	got, ok := mgr.Load(ctx, 4)
	require.True(t, ok)
	assert.Equal(t, loc, got)
	assert.Equal(t, uint16(1), st.Vars.Get(41))
	assert.Equal(t, state.RedLibraryPage, st.Globals.HeldPage)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := sqlite.Open(filepath.Join(t.TempDir(), "missing", "dir", "saves.db"))
	assert.Error(t, err)
}
