package headless

import (
	"fmt"
	"image"
	"strings"

	"github.com/cory-johannsen/cardstack/internal/game/media"
)

// Graphics records drawing operations instead of rendering them.
type Graphics struct {
	ops     []string
	updates int
	saved   bool
}

// NewGraphics creates an empty recorder.
func NewGraphics() *Graphics { return &Graphics{} }

func (g *Graphics) record(format string, args ...any) {
	g.ops = append(g.ops, fmt.Sprintf(format, args...))
}

func (g *Graphics) ClearScreen() { g.record("clear") }

func (g *Graphics) DrawImage(id uint16, src, dst image.Rectangle) {
	g.record("image %d %v", id, dst)
}

func (g *Graphics) RunTransition(t media.Transition, rect image.Rectangle, steps, delay int) {
	g.record("transition %s", t)
}

func (g *Graphics) CopyBackBufferToScreen(rect image.Rectangle) { g.record("copy %v", rect) }

func (g *Graphics) ClearCache() { g.record("clear cache") }

func (g *Graphics) SaveStateForMainMenu() {
	g.saved = true
	g.record("save state")
}

func (g *Graphics) RestoreStateForMainMenu() {
	if !g.saved {
		g.record("restore without saved state")
		return
	}
	g.saved = false
	g.record("restore state")
}

// Thumbnail describes the last drawn images; the recorder has no pixels.
func (g *Graphics) Thumbnail() []byte {
	var drawn []string
	for _, op := range g.ops {
		if strings.HasPrefix(op, "image ") {
			drawn = append(drawn, op)
		}
	}
	if len(drawn) == 0 {
		return nil
	}
	return []byte(drawn[len(drawn)-1])
}

func (g *Graphics) UpdateScreen() { g.updates++ }

// Ops returns the recorded operations.
func (g *Graphics) Ops() []string { return append([]string(nil), g.ops...) }

// Updates returns how many times the screen was presented.
func (g *Graphics) Updates() int { return g.updates }

// Reset forgets the recorded operations.
func (g *Graphics) Reset() { g.ops = nil }

// Cursor tracks the cursor image and visibility.
type Cursor struct {
	Current uint16
	Visible bool
	history []uint16
}

// NewCursor creates a visible cursor showing id.
func NewCursor(id uint16) *Cursor { return &Cursor{Current: id, Visible: true} }

func (c *Cursor) SetCursor(id uint16) {
	c.Current = id
	c.history = append(c.history, id)
}

func (c *Cursor) Show() { c.Visible = true }

func (c *Cursor) Hide() { c.Visible = false }

// History returns every cursor set, in order.
func (c *Cursor) History() []uint16 { return append([]uint16(nil), c.history...) }
