package engine

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/stack"
)

// DoFrame runs one tick of the loop: movies advance, the persistent script
// runs, pending input is handled and dispatched to the card, then the screen
// is presented.
//
// Postcondition: Returns the first fatal error raised by a script, a card
// or a transition.
func (e *Engine) DoFrame() error {
	e.m.Video.UpdateMovies()
	if e.isInteractive() {
		e.blocking = true
		err := e.interp.RunPersistent()
		e.blocking = false
		if err != nil {
			return err
		}
	}

	if e.shouldAutoSave() {
		e.tryAutoSaving()
	}

	e.drainCommands()
	if e.fatal != nil {
		return e.fatal
	}

	for {
		ev, ok := e.m.Input.Poll()
		if !ok {
			break
		}
		if err := e.handleEvent(ev); err != nil {
			return err
		}
	}

	if e.isInteractive() {
		pos := e.m.Input.MousePos()
		c := e.card
		c.UpdateActiveResource(pos, e)
		if err := c.UpdateResourcesForInput(pos, e.mouseClicked, e.mouseMoved, e); err != nil {
			return err
		}
		e.refreshCursor()
		e.mouseMoved = false
	}

	e.m.Graphics.UpdateScreen()
	e.m.Clock.Sleep(e.cfg.FrameDelayMS)
	e.frames++
	return nil
}

func (e *Engine) handleEvent(ev media.Event) error {
	switch ev.Type {
	case media.EventMouseMove:
		e.mouseMoved = true
	case media.EventMouseUp:
		e.mouseClicked = false
	case media.EventMouseDown:
		e.mouseClicked = true
	case media.EventKeyDown:
		return e.handleKeyDown(ev)
	case media.EventKeyUp:
		if ev.Key == media.KeyEscape {
			e.escapePressed = false
		}
	case media.EventQuit, media.EventReturnToLauncher:
		e.tryAutoSaving()
		e.m.Input.RequestQuit()
	}
	return nil
}

func (e *Engine) handleKeyDown(ev media.Event) error {
	switch ev.Key {
	case media.KeyD:
		if ev.Ctrl {
			e.logger.Info("debug console requested", zap.Any("status", e.Status()))
		}
	case media.KeySpace:
		e.pause()
	case media.KeyF5:
		return e.runOptionsDialog()
	case media.KeyEscape:
		switch {
		case e.stackID == stack.Credits:
			// The credits cannot be left for the menu.
		case !e.isInteractive():
			e.escapePressed = true
		case e.stackID == stack.Menu:
			if e.prev != nil {
				return e.ResumeFromMainMenu()
			}
		case e.cfg.Features.Menu:
			return e.GoToMainMenu()
		}
	case media.KeyO:
		if ev.Ctrl && e.canLoad() {
			return e.RunLoadDialog()
		}
	case media.KeyS:
		if ev.Ctrl && e.canSave() {
			return e.RunSaveDialog()
		}
	}
	return nil
}

func (e *Engine) pause() {
	e.m.Video.PauseVideos()
	e.m.Dialogs.Pause()
	e.resumeAfterModal()
}

// resumeAfterModal restarts movies and resyncs the button state, which may
// have changed while a modal dialog owned the input.
func (e *Engine) resumeAfterModal() {
	e.m.Video.ResumeVideos()
	e.mouseClicked = e.m.Input.ButtonDown()
}

func (e *Engine) refreshCursor() {
	cursor := e.card.ActiveCursor(e)
	if cursor == -1 {
		cursor = int32(e.mainCursor)
	}
	if uint16(cursor) != e.currentCursor {
		e.currentCursor = uint16(cursor)
		e.m.Cursor.SetCursor(e.currentCursor)
	}
}
