package state

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AutoSaveSlot is reserved for autosaves.
const AutoSaveSlot = 0

// Manager saves and restores the GameState through a Repository.
type Manager struct {
	repo   Repository
	state  *GameState
	logger *zap.Logger
	now    func() time.Time
}

// NewManager creates a Manager over st.
//
// Precondition: repo, st and logger must be non-nil.
// Postcondition: Returns a non-nil Manager.
func NewManager(repo Repository, st *GameState, logger *zap.Logger) *Manager {
	if repo == nil || st == nil || logger == nil {
		panic("state.NewManager: nil dependency")
	}
	return &Manager{repo: repo, state: st, logger: logger, now: time.Now}
}

// State returns the managed state.
func (m *Manager) State() *GameState { return m.state }

// Repository returns the backing repository.
func (m *Manager) Repository() Repository { return m.repo }

// Save writes the current state at loc into slot.
//
// Postcondition: Returns true when the record was stored; failures are logged.
func (m *Manager) Save(ctx context.Context, slot int, description string, thumbnail []byte, autoSave bool, loc Location) bool {
	payload, checksum, err := EncodeSnapshot(Capture(m.state, loc))
	if err != nil {
		m.logger.Error("encoding save", zap.Int("slot", slot), zap.Error(err))
		return false
	}
	rec := Record{
		ID:          uuid.New(),
		Slot:        slot,
		Description: description,
		Thumbnail:   thumbnail,
		AutoSave:    autoSave,
		Payload:     payload,
		Checksum:    checksum,
		SavedAt:     m.now().UTC(),
	}
	if err := m.repo.Put(ctx, rec); err != nil {
		m.logger.Error("storing save", zap.Int("slot", slot), zap.Error(err))
		return false
	}
	m.logger.Info("game saved",
		zap.Int("slot", slot),
		zap.String("id", rec.ID.String()),
		zap.Bool("autosave", autoSave),
	)
	return true
}

// Load restores the state stored in slot and returns the saved location.
//
// Postcondition: On false the managed state is unchanged.
func (m *Manager) Load(ctx context.Context, slot int) (Location, bool) {
	rec, err := m.repo.Get(ctx, slot)
	if err != nil {
		m.logger.Warn("loading save", zap.Int("slot", slot), zap.Error(err))
		return Location{}, false
	}
	snap, err := DecodeSnapshot(rec.Payload, rec.Checksum)
	if err != nil {
		m.logger.Error("decoding save", zap.Int("slot", slot), zap.Error(err))
		return Location{}, false
	}
	snap.RestoreInto(m.state)
	return snap.Location, true
}

// IsAutoSaveAllowed reports whether the autosave slot is empty or holds an
// autosave. A manual save in the reserved slot is never overwritten.
func (m *Manager) IsAutoSaveAllowed(ctx context.Context) bool {
	rec, err := m.repo.Get(ctx, AutoSaveSlot)
	if errors.Is(err, ErrSaveNotFound) {
		return true
	}
	if err != nil {
		m.logger.Warn("checking autosave slot", zap.Error(err))
		return false
	}
	return rec.AutoSave
}
