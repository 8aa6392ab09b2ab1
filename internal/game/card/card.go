// Package card models a card: a scene holding a background, a sound block and
// an ordered list of interactive areas, and dispatches pointer input to them.
package card

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/sound"
	"github.com/cory-johannsen/cardstack/internal/resource"
)

// Resources is the resource lookup a card loads from.
type Resources interface {
	Get(tag resource.Tag, id uint16) ([]byte, error)
}

// Env is the engine surface a card acts on while entered.
type Env interface {
	Interpreter() script.Interpreter
	Preload(tag resource.Tag, id uint16)
	DrawImage(id uint16, src, dst image.Rectangle)
	ApplySoundBlock(b sound.Block) error
	ZipMode() bool
	IsZipDest(card uint16) bool
	AddZipDest(card uint16)
	ChangeToCard(card uint16, t media.Transition) error
	PlayAreaVideo(index int) error
	PlayEffect(id uint16)
	MainCursor() uint16
	Logger() *zap.Logger
}

// Card is one loaded scene. A Card is owned by the engine's control flow and
// is not safe for concurrent use.
type Card struct {
	ID    uint16
	View  View
	Hints []Hint
	Init  script.Script
	Exit  script.Script

	// arena holds every area; top lists the top-level ones in record order.
	arena []Area
	top   []int

	active  int
	clicked int
	hovered int
	dragPos image.Point
}

// New builds a card from decoded parts.
//
// Postcondition: Returns a card with no active, clicked or hovered area.
func New(id uint16, view View, arena []Area, hints []Hint) *Card {
	c := &Card{ID: id, View: view, Hints: hints, arena: arena, active: -1, clicked: -1, hovered: -1}
	for i := range arena {
		if arena[i].Parent < 0 {
			c.top = append(c.top, i)
		}
	}
	return c
}

// Load reads and decodes card id from res.
//
// Precondition: res must be non-nil.
// Postcondition: Returns the card, or an error wrapping resource.ErrNotFound
// when a referenced record is missing.
func Load(res Resources, id uint16) (*Card, error) {
	data, err := res.Get(resource.TagView, id)
	if err != nil {
		return nil, fmt.Errorf("loading card %d: %w", id, err)
	}
	view, err := ParseView(data)
	if err != nil {
		return nil, fmt.Errorf("loading card %d: %w", id, err)
	}
	var arena []Area
	if view.RLST != 0 {
		data, err := res.Get(resource.TagRLST, view.RLST)
		if err != nil {
			return nil, fmt.Errorf("loading card %d areas: %w", id, err)
		}
		if arena, err = ParseAreas(data); err != nil {
			return nil, fmt.Errorf("loading card %d areas: %w", id, err)
		}
	}
	var hints []Hint
	if view.Hint != 0 {
		data, err := res.Get(resource.TagHint, view.Hint)
		if err != nil {
			return nil, fmt.Errorf("loading card %d hints: %w", id, err)
		}
		if hints, err = ParseHints(data); err != nil {
			return nil, fmt.Errorf("loading card %d hints: %w", id, err)
		}
	}
	c := New(id, view, arena, hints)
	if c.Init, err = loadScript(res, resource.TagInit, view.Init); err != nil {
		return nil, fmt.Errorf("loading card %d init script: %w", id, err)
	}
	if c.Exit, err = loadScript(res, resource.TagExit, view.Exit); err != nil {
		return nil, fmt.Errorf("loading card %d exit script: %w", id, err)
	}
	return c, nil
}

func loadScript(res Resources, tag resource.Tag, id uint16) (script.Script, error) {
	if id == 0 {
		return nil, nil
	}
	data, err := res.Get(tag, id)
	if err != nil {
		return nil, err
	}
	return script.DecodeBytes(data)
}

// Areas returns the area arena.
func (c *Card) Areas() []Area { return c.arena }

// TopLevel returns the number of top-level areas.
func (c *Card) TopLevel() int { return len(c.top) }

// Area returns the top-level area at index.
func (c *Card) Area(index int) (*Area, bool) {
	if index < 0 || index >= len(c.top) {
		return nil, false
	}
	return &c.arena[c.top[index]], true
}

// topIndex returns the top-level position of the area at arena index idx or
// of its top-level ancestor.
func (c *Card) topIndex(idx int) int {
	for c.arena[idx].Parent >= 0 {
		idx = c.arena[idx].Parent
	}
	for i, t := range c.top {
		if t == idx {
			return i
		}
	}
	return -1
}

// HitTest returns the top-level position of the first listed area that can
// become active and contains pt, or -1.
func (c *Card) HitTest(pt image.Point, env Env) int {
	for i, idx := range c.top {
		a := &c.arena[idx]
		if a.Contains(pt) && c.canBecomeActive(a, env) {
			return i
		}
	}
	return -1
}

func (c *Card) canBecomeActive(a *Area, env Env) bool {
	return !c.unreachableZipDest(a, env) && a.Enabled()
}

func (c *Card) unreachableZipDest(a *Area, env Env) bool {
	if a.Flags&FlagZipMode == 0 {
		return false
	}
	return !env.ZipMode() || !env.IsZipDest(a.Dest)
}

// Enter shows the card: preloads its resources, draws the background,
// applies the sound block, records a zip destination, runs INIT, redraws
// image switches and starts card change videos.
//
// Postcondition: Returns the first fatal error raised by the sound block,
// the interpreter or a video.
func (c *Card) Enter(env Env) error {
	for _, p := range c.View.Preload {
		env.Preload(p.Tag, p.ID)
	}
	c.DrawBackground(env)
	if err := env.ApplySoundBlock(c.View.Sound); err != nil {
		return fmt.Errorf("entering card %d: %w", c.ID, err)
	}
	if c.View.Flags&CardFlagZipDest != 0 {
		env.AddZipDest(c.ID)
	}
	if err := env.Interpreter().OnEnter(c.ID, c.Init); err != nil {
		return err
	}
	c.RedrawAll(env)
	for i, idx := range c.top {
		sel := c.resolve(idx, env)
		if sel < 0 {
			continue
		}
		if v, ok := c.arena[sel].Payload.(*VideoPayload); ok && v.Movie.PlayOnCardChange {
			if err := env.PlayAreaVideo(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// Leave runs the EXIT script and forgets pointer state.
func (c *Card) Leave(env Env) error {
	c.active, c.clicked, c.hovered = -1, -1, -1
	return env.Interpreter().OnExit(c.ID, c.Exit)
}

// Background returns the image drawn behind the areas given the current
// variable values. The last conditional image whose variable is in range
// wins; a card without conditional images uses its main image.
func (c *Card) Background(vars sound.VarReader) uint16 {
	if len(c.View.CondImages) == 0 {
		return c.View.MainImage
	}
	var img uint16
	for _, ci := range c.View.CondImages {
		if v := vars.Var(ci.Var); int(v) < len(ci.Images) {
			img = ci.Images[v]
		}
	}
	return img
}

// DrawBackground draws the card's background image into the viewport.
func (c *Card) DrawBackground(env Env) {
	env.DrawImage(c.Background(env.Interpreter()), image.Rectangle{}, media.ScreenRect)
}

// RedrawAll redraws every image switch.
func (c *Card) RedrawAll(env Env) {
	for _, idx := range c.top {
		c.redraw(idx, env)
	}
}

// RedrawArea redraws the image switches bound to variable v.
func (c *Card) RedrawArea(v uint16, env Env) {
	for _, idx := range c.top {
		if is, ok := imageSwitch(c.arena[idx].Payload); ok && is.Var == v {
			c.redraw(idx, env)
		}
	}
}

func (c *Card) redraw(idx int, env Env) {
	a := &c.arena[idx]
	is, ok := imageSwitch(a.Payload)
	if !ok {
		return
	}
	value := env.Interpreter().Var(is.Var)
	if int(value) >= len(is.States) {
		env.Logger().Debug("image switch value without state",
			zap.Uint16("card", c.ID),
			zap.Uint16("var", is.Var),
			zap.Uint16("value", value),
		)
		return
	}
	s := is.States[value]
	if s.Image == 0 {
		return
	}
	src := s.Rect
	if src.Min.X < 0 {
		src = image.Rectangle{}
	}
	env.DrawImage(s.Image, src, a.Rect)
}

// SetAreaEnabled enables or disables the top-level area at index.
func (c *Card) SetAreaEnabled(index int, enabled bool) bool {
	a, ok := c.Area(index)
	if !ok {
		return false
	}
	a.SetEnabled(enabled)
	return true
}

// AreaEnabled reports whether the top-level area at index is enabled; ok is
// false for an unknown index.
func (c *Card) AreaEnabled(index int) (enabled, ok bool) {
	a, ok := c.Area(index)
	if !ok {
		return false, false
	}
	return a.Enabled(), true
}

// Video returns the movie of the video area at top-level index, following
// action switches to their selected child.
func (c *Card) Video(index int, env Env) (Movie, bool) {
	if index < 0 || index >= len(c.top) {
		return Movie{}, false
	}
	sel := c.resolve(c.top[index], env)
	if sel < 0 {
		return Movie{}, false
	}
	v, ok := c.arena[sel].Payload.(*VideoPayload)
	if !ok {
		return Movie{}, false
	}
	return v.Movie, true
}

// resolve follows action switches from idx to the area that receives events,
// or -1 when a switch selects nothing.
func (c *Card) resolve(idx int, env Env) int {
	for {
		sw, ok := c.arena[idx].Payload.(*SwitchPayload)
		if !ok {
			return idx
		}
		children := c.arena[idx].Children
		if sw.Var == NoVar {
			if len(children) != 1 {
				env.Logger().Warn("unconditional switch without a single child",
					zap.Uint16("card", c.ID),
					zap.Int("children", len(children)),
				)
				return -1
			}
			idx = children[0]
			continue
		}
		value := env.Interpreter().Var(sw.Var)
		switch {
		case len(children) == 1 && value != 0:
			idx = children[0]
		case int(value) < len(children):
			idx = children[value]
		default:
			env.Logger().Warn("switch value outside children",
				zap.Uint16("card", c.ID),
				zap.Uint16("var", sw.Var),
				zap.Uint16("value", value),
			)
			return -1
		}
	}
}

// UpdateActiveResource makes the area under pt active.
func (c *Card) UpdateActiveResource(pt image.Point, env Env) {
	if i := c.HitTest(pt, env); i >= 0 {
		c.active = c.top[i]
	} else {
		c.active = -1
	}
}

// Active returns the top-level position of the active area, or -1.
func (c *Card) Active() int {
	if c.active < 0 {
		return -1
	}
	return c.topIndex(c.active)
}

// IsDragging reports whether an area holds the mouse button.
func (c *Card) IsDragging() bool { return c.clicked >= 0 }

// UpdateResourcesForInput dispatches pointer state: hover enter and leave,
// then mouse up, drag or down to the clicked or active area.
//
// Postcondition: Returns the first fatal error raised by a dispatched script.
func (c *Card) UpdateResourcesForInput(pt image.Point, clicked, moved bool, env Env) error {
	if c.hovered >= 0 && !c.arena[c.hovered].Contains(pt) {
		idx := c.hovered
		c.hovered = -1
		if err := c.hover(idx, false, env); err != nil {
			return err
		}
	}
	for _, idx := range c.top {
		a := &c.arena[idx]
		if a.Kind == KindHover && idx != c.hovered && a.Contains(pt) {
			c.hovered = idx
			if err := c.hover(idx, true, env); err != nil {
				return err
			}
		}
	}

	switch {
	case !clicked && c.clicked >= 0:
		idx := c.clicked
		c.clicked = -1
		if c.arena[idx].Enabled() {
			return c.mouseUp(idx, pt, env)
		}
	case moved && c.clicked >= 0:
		if c.arena[c.clicked].Enabled() {
			return c.mouseDrag(c.clicked, pt, env)
		}
	case clicked && c.clicked < 0:
		if c.active >= 0 && c.arena[c.active].Enabled() {
			c.clicked = c.active
			return c.mouseDown(c.clicked, pt, env)
		}
	}
	return nil
}

func (c *Card) caller(idx int) *script.Caller {
	a := &c.arena[idx]
	cl := &script.Caller{Index: c.topIndex(idx), Kind: uint16(a.Kind), Dest: a.Dest}
	if is, ok := imageSwitch(a.Payload); ok {
		cl.Var, cl.HasVar = is.Var, true
	}
	return cl
}

func (c *Card) hover(idx int, enter bool, env Env) error {
	h, ok := c.arena[idx].Payload.(*HoverPayload)
	if !ok {
		return nil
	}
	op := h.Leave
	if enter {
		op = h.Enter
	}
	return env.Interpreter().RunOpcode(script.Op{Opcode: op}, c.caller(idx))
}

func (c *Card) mouseDown(idx int, pt image.Point, env Env) error {
	sel := c.resolve(idx, env)
	if sel < 0 {
		return nil
	}
	if d, ok := drag(c.arena[sel].Payload); ok {
		c.updatePosition(d, pt, env)
		return c.runDragOp(sel, d, d.MouseDown, env)
	}
	return nil
}

func (c *Card) mouseDrag(idx int, pt image.Point, env Env) error {
	sel := c.resolve(idx, env)
	if sel < 0 {
		return nil
	}
	if d, ok := drag(c.arena[sel].Payload); ok {
		c.updatePosition(d, pt, env)
		return c.runDragOp(sel, d, d.MouseDrag, env)
	}
	return nil
}

func (c *Card) mouseUp(idx int, pt image.Point, env Env) error {
	sel := c.resolve(idx, env)
	if sel < 0 {
		return nil
	}
	a := &c.arena[sel]
	switch p := a.Payload.(type) {
	case nil:
		if a.Kind > KindUp {
			return nil
		}
		if a.Dest == 0 {
			env.Logger().Warn("navigation area without destination",
				zap.Uint16("card", c.ID),
				zap.Int("area", c.topIndex(sel)),
			)
			return nil
		}
		return env.ChangeToCard(a.Dest, NavigationTransition(a.Kind))
	case *ActionPayload:
		return env.Interpreter().OnActivate(p.Script, c.caller(sel))
	case *VideoPayload:
		return env.Interpreter().OnActivate(p.Script, c.caller(sel))
	case *SliderPayload:
		c.updatePosition(&p.DragPayload, pt, env)
		if p.DragSound != 0 {
			env.PlayEffect(p.DragSound)
		}
		return c.runDragOp(sel, &p.DragPayload, p.MouseUp, env)
	case *DragPayload:
		return c.runDragOp(sel, p, p.MouseUp, env)
	case *VideoInfoPayload:
		return c.runDragOp(sel, &p.DragPayload, p.MouseUp, env)
	}
	return nil
}

func (c *Card) runDragOp(idx int, d *DragPayload, opcode uint16, env Env) error {
	return env.Interpreter().RunOpcode(script.Op{Opcode: opcode, Var: d.Var}, c.caller(idx))
}

// updatePosition clamps pt to the drag range and stores the stepped values
// in the drag variables.
func (c *Card) updatePosition(d *DragPayload, pt image.Point, env Env) {
	c.dragPos = pt
	interp := env.Interpreter()
	if d.VarH != NoVar {
		interp.SetVar(d.VarH, step(pt.X, d.MinH, d.MaxH, d.StepsH))
	}
	if d.VarV != NoVar {
		interp.SetVar(d.VarV, step(pt.Y, d.MinV, d.MaxV, d.StepsV))
	}
}

// DragPosition returns the last pointer position seen by a drag area.
func (c *Card) DragPosition() image.Point { return c.dragPos }

// step maps coord within [lo, hi] onto 0..steps-1, rounding to the nearest
// step.
func step(coord int, lo, hi int16, steps uint16) uint16 {
	if steps < 2 || hi <= lo {
		return 0
	}
	coord = max(int(lo), min(int(hi), coord))
	span := int(hi) - int(lo)
	return uint16(((coord-int(lo))*int(steps-1) + span/2) / span)
}

// ActiveCursor returns the cursor for the current pointer state: the clicked
// drag area's cursor, a hint cursor, the active area's cursor, or -1 to use
// the main cursor.
func (c *Card) ActiveCursor(env Env) int32 {
	if c.clicked >= 0 {
		if _, ok := drag(c.arena[c.clicked].Payload); ok {
			return int32(c.arena[c.clicked].Cursor)
		}
	}
	if c.active < 0 {
		return -1
	}
	a := &c.arena[c.active]
	if !a.Enabled() {
		return -1
	}
	top := c.topIndex(c.active)
	for _, h := range c.Hints {
		if int(h.Area) != top {
			continue
		}
		cursor, err := c.hintCursor(h, env)
		if err != nil {
			env.Logger().Warn("hint cursor unavailable",
				zap.Uint16("card", c.ID),
				zap.Int("area", top),
				zap.Error(err),
			)
			return -1
		}
		return cursor
	}
	if a.Cursor == 0 {
		return -1
	}
	return int32(a.Cursor)
}

var errHintRange = errors.New("hint variable outside cursor list")

func (c *Card) hintCursor(h Hint, env Env) (int32, error) {
	cursor := int32(h.Cursor)
	if h.Cursor == -1 {
		v := env.Interpreter().Var(h.Var)
		if int(v) >= len(h.Cursors) {
			return 0, fmt.Errorf("%w: var %d value %d", errHintRange, h.Var, v)
		}
		cursor = int32(h.Cursors[v])
	}
	if cursor == 0 {
		return int32(env.MainCursor()), nil
	}
	return cursor, nil
}
