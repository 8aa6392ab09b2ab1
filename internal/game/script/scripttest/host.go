// Package scripttest provides a recording script.Host for interpreter tests.
package scripttest

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/sound"
)

// Host records every call it receives. Card and stack changes update
// CardID and StackID; Err, when set, is returned by every fallible call.
type Host struct {
	Log     *zap.Logger
	CardID  uint16
	StackID uint16
	Cursor  uint16
	Now     uint32
	Areas   []bool
	Err     error

	Calls    []string
	Quitting bool
	Effects  []uint16
	Redrawn  []uint16
	Blocks   []sound.Block
	Messages []string
}

// NewHost creates a Host with n enabled areas.
func NewHost(logger *zap.Logger, n int) *Host {
	areas := make([]bool, n)
	for i := range areas {
		areas[i] = true
	}
	return &Host{Log: logger, Areas: areas}
}

func (h *Host) record(format string, args ...any) {
	h.Calls = append(h.Calls, fmt.Sprintf(format, args...))
}

// ChangeToCard implements script.Host.
func (h *Host) ChangeToCard(card uint16, t media.Transition) error {
	h.record("card %d %s", card, t)
	h.CardID = card
	return h.Err
}

// ChangeToStack implements script.Host.
func (h *Host) ChangeToStack(stack, card, src, dst uint16) error {
	h.record("stack %d %d %d %d", stack, card, src, dst)
	h.StackID, h.CardID = stack, card
	return h.Err
}

// CurrentCardID implements script.Host.
func (h *Host) CurrentCardID() uint16 { return h.CardID }

// CurrentStackID implements script.Host.
func (h *Host) CurrentStackID() uint16 { return h.StackID }

// PlayEffect implements script.Host.
func (h *Host) PlayEffect(id uint16) {
	h.record("effect %d", id)
	h.Effects = append(h.Effects, id)
}

// StopEffect implements script.Host.
func (h *Host) StopEffect() { h.record("stop effect") }

// WaitEffect implements script.Host.
func (h *Host) WaitEffect() error {
	h.record("wait effect")
	return h.Err
}

// PlaySoundBlocking implements script.Host.
func (h *Host) PlaySoundBlocking(id uint16) error {
	h.record("effect blocking %d", id)
	return h.Err
}

// ApplySoundBlock implements script.Host.
func (h *Host) ApplySoundBlock(b sound.Block) error {
	h.record("sound block %d", b.Sound)
	h.Blocks = append(h.Blocks, b)
	return h.Err
}

// StopBackground implements script.Host.
func (h *Host) StopBackground() { h.record("stop background") }

// PlayMovieBlocking implements script.Host.
func (h *Host) PlayMovieBlocking(name string, x, y int) error {
	h.record("movie %s %d %d", name, x, y)
	return h.Err
}

// PlayAreaVideo implements script.Host.
func (h *Host) PlayAreaVideo(index int) error {
	h.record("area video %d", index)
	return h.Err
}

// Wait implements script.Host. It advances Now by ms and is never skipped.
func (h *Host) Wait(ms uint32, skippable bool) (bool, error) {
	h.record("wait %d %v", ms, skippable)
	h.Now += ms
	return false, h.Err
}

// RedrawArea implements script.Host.
func (h *Host) RedrawArea(v uint16) { h.Redrawn = append(h.Redrawn, v) }

// RedrawCard implements script.Host.
func (h *Host) RedrawCard() { h.record("redraw card") }

// SetAreaEnabled implements script.Host.
func (h *Host) SetAreaEnabled(index int, enabled bool) bool {
	if index < 0 || index >= len(h.Areas) {
		return false
	}
	h.Areas[index] = enabled
	return true
}

// AreaEnabled implements script.Host.
func (h *Host) AreaEnabled(index int) (bool, bool) {
	if index < 0 || index >= len(h.Areas) {
		return false, false
	}
	return h.Areas[index], true
}

// SetMainCursor implements script.Host.
func (h *Host) SetMainCursor(cursor uint16) { h.Cursor = cursor }

// MainCursor implements script.Host.
func (h *Host) MainCursor() uint16 { return h.Cursor }

// Millis implements script.Host.
func (h *Host) Millis() uint32 { return h.Now }

// Quit implements script.Host.
func (h *Host) Quit() {
	h.record("quit")
	h.Quitting = true
}

// DisplayMessage implements script.Host.
func (h *Host) DisplayMessage(msg string) error {
	h.Messages = append(h.Messages, msg)
	return h.Err
}

// Logger implements script.Host.
func (h *Host) Logger() *zap.Logger { return h.Log }

// MenuHost extends Host with the menu overlay operations.
type MenuHost struct {
	*Host
}

// ResumeFromMainMenu implements script.MenuHost.
func (m MenuHost) ResumeFromMainMenu() error {
	m.record("resume")
	return m.Err
}

// RunLoadDialog implements script.MenuHost.
func (m MenuHost) RunLoadDialog() error {
	m.record("load dialog")
	return m.Err
}

// RunSaveDialog implements script.MenuHost.
func (m MenuHost) RunSaveDialog() error {
	m.record("save dialog")
	return m.Err
}

var (
	_ script.Host     = (*Host)(nil)
	_ script.MenuHost = MenuHost{}
)
