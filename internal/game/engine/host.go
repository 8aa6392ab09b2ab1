package engine

import (
	"image"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/card"
	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/sound"
	"github.com/cory-johannsen/cardstack/internal/resource"
)

var (
	_ script.MenuHost = (*Engine)(nil)
	_ card.Env        = (*Engine)(nil)
)

// Interpreter returns the interpreter of the current stack.
func (e *Engine) Interpreter() script.Interpreter { return e.interp }

// Preload warms the resource cache.
func (e *Engine) Preload(tag resource.Tag, id uint16) { e.res.Preload(tag, id) }

// DrawImage draws image id on the back buffer.
func (e *Engine) DrawImage(id uint16, src, dst image.Rectangle) {
	e.m.Graphics.DrawImage(id, src, dst)
}

// ApplySoundBlock applies b to the background channel.
func (e *Engine) ApplySoundBlock(b sound.Block) error {
	return sound.Apply(b, e.interp, e.m.Audio, e.logger)
}

// ZipMode reports whether zip navigation is enabled.
func (e *Engine) ZipMode() bool { return e.st.Globals.ZipMode }

// IsZipDest reports whether card of the current stack was visited as a zip
// destination.
func (e *Engine) IsZipDest(card uint16) bool {
	return e.st.Zip.Has(uint16(e.stackID), card)
}

// AddZipDest records card of the current stack as a zip destination.
func (e *Engine) AddZipDest(card uint16) {
	e.st.Zip.Add(uint16(e.stackID), card)
}

func (e *Engine) CurrentCardID() uint16 {
	if e.card == nil {
		return 0
	}
	return e.card.ID
}

func (e *Engine) CurrentStackID() uint16 { return uint16(e.stackID) }

func (e *Engine) PlayEffect(id uint16) { e.m.Audio.PlayEffect(id) }

func (e *Engine) StopEffect() { e.m.Audio.StopEffect() }

func (e *Engine) StopBackground() { e.m.Audio.StopBackground() }

// RedrawArea redraws the areas switched by v and presents the viewport.
func (e *Engine) RedrawArea(v uint16) {
	if e.card == nil {
		return
	}
	e.card.RedrawArea(v, e)
	e.m.Graphics.CopyBackBufferToScreen(media.ScreenRect)
}

// RedrawCard redraws the background and every area, then presents the
// viewport.
func (e *Engine) RedrawCard() {
	if e.card == nil {
		return
	}
	e.card.DrawBackground(e)
	e.card.RedrawAll(e)
	e.m.Graphics.CopyBackBufferToScreen(media.ScreenRect)
}

func (e *Engine) SetAreaEnabled(index int, enabled bool) bool {
	if e.card == nil {
		return false
	}
	return e.card.SetAreaEnabled(index, enabled)
}

func (e *Engine) AreaEnabled(index int) (enabled, ok bool) {
	if e.card == nil {
		return false, false
	}
	return e.card.AreaEnabled(index)
}

// SetMainCursor changes the cursor shown outside areas and applies it.
func (e *Engine) SetMainCursor(cursor uint16) {
	e.mainCursor = cursor
	e.currentCursor = cursor
	e.m.Cursor.SetCursor(cursor)
}

func (e *Engine) MainCursor() uint16 { return e.mainCursor }

// Millis returns the play clock.
func (e *Engine) Millis() uint32 { return e.m.Clock.Millis() }

// Quit ends the frame loop after the current frame.
func (e *Engine) Quit() { e.m.Input.RequestQuit() }

func (e *Engine) Logger() *zap.Logger { return e.logger }
