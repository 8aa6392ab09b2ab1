package engine

import (
	"github.com/cory-johannsen/cardstack/internal/game/msgbox"
)

// DisplayMessage shows msg in a box near the mouse until the player clicks,
// the reading time elapses or the game quits, then redraws the card.
func (e *Engine) DisplayMessage(msg string) error {
	box := msgbox.Layout(e.cfg.MessageBox, e.m.Text, msg, e.m.Input.MousePos())
	e.m.Text.DrawText(msg, box.Text)
	e.m.Graphics.UpdateScreen()

	restore := e.block()
	end := e.m.Clock.Millis() + e.cfg.MessageBox.TimeoutMillis(msg)
	for !e.mouseClicked && e.m.Clock.Millis() < end && !e.m.Input.ShouldQuit() {
		if err := e.DoFrame(); err != nil {
			restore()
			return err
		}
	}
	restore()

	e.mouseClicked = false
	e.RedrawCard()
	return nil
}
