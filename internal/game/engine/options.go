package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/stack"
	"github.com/cory-johannsen/cardstack/internal/game/stacks"
	"github.com/cory-johannsen/cardstack/internal/game/state"
)

const (
	demoMenuCard uint16 = 2002
	creditsCard  uint16 = 10000
)

func (e *Engine) hasSaveSupport() bool {
	return !e.cfg.Features.Demo && !e.cfg.Features.MakingOf
}

func (e *Engine) inMenuOverlay() bool {
	return e.stackID == stack.Menu && e.prev != nil
}

func (e *Engine) canLoad() bool {
	if e.stackID != stack.Menu {
		if !e.isInteractive() || e.card.IsDragging() {
			return false
		}
	}
	return e.hasSaveSupport()
}

func (e *Engine) canSave() bool {
	if !e.canLoad() {
		return false
	}
	return (e.desc != nil && e.desc.Saveable) || (e.cfg.Features.Menu && e.inMenuOverlay())
}

// saveLocation is the location written to saves. While the menu is shown
// it is the location the menu was opened from.
func (e *Engine) saveLocation() state.Location {
	if e.prev != nil {
		loc := state.Location{Stack: uint16(e.prev.id)}
		if e.prev.card != nil {
			loc.Card = e.prev.card.ID
		}
		return loc
	}
	loc := state.Location{Stack: uint16(e.stackID)}
	if e.card != nil {
		loc.Card = e.card.ID
	}
	return loc
}

func (e *Engine) shouldAutoSave() bool {
	period := e.cfg.AutosavePeriodMS
	return period > 0 && e.m.Clock.Millis()-e.lastSave >= period
}

// tryAutoSaving writes the autosave slot when saving is possible and the
// slot does not hold a manual save.
func (e *Engine) tryAutoSaving() {
	if !e.canSave() {
		return
	}
	e.lastSave = e.m.Clock.Millis()
	if !e.saves.IsAutoSaveAllowed(e.ctx) {
		return
	}
	var thumb []byte
	if e.stackID == stack.Menu {
		thumb = e.m.Graphics.Thumbnail()
	}
	if !e.saves.Save(e.ctx, state.AutoSaveSlot, "Autosave", thumb, true, e.saveLocation()) {
		e.logger.Warn("autosave failed")
	}
}

// LoadGame restores slot and moves to the saved location.
//
// Postcondition: Returns false when the slot could not be read, and an error
// when the saved location could not be entered.
func (e *Engine) LoadGame(slot int) (bool, error) {
	e.tryAutoSaving()
	loc, ok := e.saves.Load(e.ctx, slot)
	if !ok {
		return false, nil
	}
	if err := e.ChangeToStack(loc.Stack, loc.Card, 0, 0); err != nil {
		return true, fmt.Errorf("entering saved location %d/%d: %w", loc.Stack, loc.Card, err)
	}
	e.SetMainCursor(e.st.Globals.HeldPage.Cursor())
	return true, nil
}

// SaveGame writes the current state into slot.
func (e *Engine) SaveGame(slot int, description string) bool {
	ok := e.saves.Save(e.ctx, slot, description, e.m.Graphics.Thumbnail(), false, e.saveLocation())
	if ok {
		e.lastSave = e.m.Clock.Millis()
	}
	return ok
}

// RunLoadDialog lets the player pick a slot to load.
func (e *Engine) RunLoadDialog() error {
	e.m.Video.PauseVideos()
	slot := e.m.Dialogs.ChooseLoadSlot()
	e.resumeAfterModal()
	if slot < 0 {
		return nil
	}
	_, err := e.LoadGame(slot)
	return err
}

// RunSaveDialog lets the player pick a slot and description to save to.
func (e *Engine) RunSaveDialog() error {
	e.m.Video.PauseVideos()
	slot, desc := e.m.Dialogs.ChooseSaveSlot()
	e.resumeAfterModal()
	if slot < 0 {
		return nil
	}
	if desc == "" {
		desc = fmt.Sprintf("Save %d", slot)
	}
	e.SaveGame(slot, desc)
	return nil
}

// mapper returns the interpreter able to show the map of the game's
// current stack, skipping the menu overlay.
func (e *Engine) mapper() (stacks.Mapper, bool) {
	i := e.interp
	if e.inMenuOverlay() {
		i = e.prev.interp
	}
	m, ok := i.(stacks.Mapper)
	if !ok || !m.HasMap() {
		return nil, false
	}
	return m, true
}

func (e *Engine) runOptionsDialog() error {
	inMenu := e.inMenuOverlay()
	interactive := e.isInteractive()
	g := &e.st.Globals

	opts := media.OptionsState{ZipMode: g.ZipMode, Transitions: g.Transitions}
	if inMenu || interactive {
		target := e.stackID
		if inMenu {
			target = e.prev.id
		}
		_, hasMap := e.mapper()
		opts.CanDropPage = g.HeldPage != state.NoPage
		opts.CanShowMap = hasMap
		opts.CanReturnToMenu = target != stack.Demo
	}

	e.m.Video.PauseVideos()
	res := e.m.Dialogs.RunOptions(opts)
	e.resumeAfterModal()
	e.logger.Debug("options dialog closed", zap.Int("action", int(res.Action)))

	resume := func() error {
		if inMenu {
			return e.ResumeFromMainMenu()
		}
		return nil
	}

	switch res.Action {
	case media.OptionsDropPage:
		if err := resume(); err != nil {
			return err
		}
		e.DropPage()
	case media.OptionsShowMap:
		if err := resume(); err != nil {
			return err
		}
		if m, ok := e.mapper(); ok {
			return m.ShowMap()
		}
	case media.OptionsGoToMenu:
		if err := resume(); err != nil {
			return err
		}
		return e.ChangeToStack(uint16(stack.Demo), demoMenuCard, 0, 0)
	case media.OptionsShowCredits:
		if e.isInteractive() && !e.cfg.Features.MakingOf {
			e.m.Cursor.Hide()
			return e.ChangeToStack(uint16(stack.Credits), creditsCard, 0, 0)
		}
		e.Quit()
	case media.OptionsSaveSettings:
		e.applySettings(res.ZipMode, res.Transitions)
	default:
		if res.LoadSlot >= 0 {
			if _, err := e.LoadGame(res.LoadSlot); err != nil {
				return err
			}
		}
		if res.SaveSlot >= 0 {
			desc := res.SaveDescription
			if desc == "" {
				desc = fmt.Sprintf("Save %d", res.SaveSlot)
			}
			e.SaveGame(res.SaveSlot, desc)
		}
	}
	return nil
}

// applySettings updates the runtime settings. Before a game is started they
// are also persisted as the defaults of new games.
func (e *Engine) applySettings(zipMode, transitions bool) {
	g := &e.st.Globals
	g.ZipMode, g.Transitions = zipMode, transitions
	if e.IsGameStarted() || e.settings == nil {
		return
	}
	if err := e.settings.SaveRuntimeSettings(zipMode, transitions); err != nil {
		e.logger.Warn("saving runtime settings", zap.Error(err))
	}
}
