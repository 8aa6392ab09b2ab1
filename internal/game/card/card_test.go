package card_test

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/cardstack/internal/game/card"
	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/script/scripttest"
	"github.com/cory-johannsen/cardstack/internal/game/sound"
	"github.com/cory-johannsen/cardstack/internal/game/state"
	"github.com/cory-johannsen/cardstack/internal/resource"
)

// env drives a card against a recording host and a real parser.
type env struct {
	*scripttest.Host
	parser  *script.Parser
	st      *state.GameState
	zipMode bool
	zip     map[uint16]bool
}

func newEnv(t *testing.T) (*env, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	h := scripttest.NewHost(zap.New(core), 0)
	h.Cursor = state.DefaultCursor
	st := state.NewGameState(false, true)
	return &env{Host: h, parser: script.NewParser(h, st), st: st, zip: map[uint16]bool{}}, logs
}

func (e *env) Interpreter() script.Interpreter { return e.parser }

func (e *env) Preload(tag resource.Tag, id uint16) {
	e.Calls = append(e.Calls, fmt.Sprintf("preload %s %d", tag, id))
}

func (e *env) DrawImage(id uint16, _, _ image.Rectangle) {
	e.Calls = append(e.Calls, fmt.Sprintf("draw %d", id))
}

func (e *env) ZipMode() bool { return e.zipMode }

func (e *env) IsZipDest(card uint16) bool { return e.zip[card] }

func (e *env) AddZipDest(card uint16) { e.zip[card] = true }

var _ card.Env = (*env)(nil)

func area(kind card.Kind, r image.Rectangle, p card.Payload) card.Area {
	return card.Area{Kind: kind, Flags: card.FlagHotspotEnabled, Rect: r, Parent: -1, Payload: p}
}

// slider spans x 0..200 in five steps stored in var 12 and draws var 9.
func slider(states []card.ImageState) *card.SliderPayload {
	p := &card.SliderPayload{DragSound: 8}
	p.Var = 9
	p.States = states
	p.MaxH = 200
	p.StepsH = 5
	p.VarH, p.VarV = 12, card.NoVar
	p.MouseDown, p.MouseDrag, p.MouseUp = 101, 102, 103
	return p
}

func click(t *testing.T, c *card.Card, e *env, pt image.Point) {
	t.Helper()
	c.UpdateActiveResource(pt, e)
	require.NoError(t, c.UpdateResourcesForInput(pt, true, false, e))
	require.NoError(t, c.UpdateResourcesForInput(pt, false, false, e))
}

func TestParseAreas_RoundTrip(t *testing.T) {
	arena := []card.Area{
		{Kind: card.KindForward, Flags: 1, Rect: image.Rect(0, 0, 10, 10), Parent: -1, Cursor: 3000, Dest: 4},
		{Kind: card.KindActionSwitch, Flags: 1, Rect: image.Rect(5, 5, 50, 50), Parent: -1, Children: []int{2, 3}, Payload: &card.SwitchPayload{Var: 7}},
		{Kind: card.KindAction, Flags: 1, Rect: image.Rect(5, 5, 50, 50), Parent: 1, Payload: &card.ActionPayload{Script: script.Script{{Opcode: script.OpSetVar, Var: 2, Args: []uint16{1}}}}},
		{Kind: card.KindVideo, Rect: image.Rect(5, 5, 50, 50), Parent: 1, Payload: &card.VideoPayload{
			Script: script.Script{{Opcode: script.OpTriggerMovie, Args: []uint16{}}},
			Movie:  card.Movie{Name: "dome", X: 10, Y: -4, Loop: true, PlayOnCardChange: true},
		}},
		{Kind: card.KindSlider, Flags: 1, Rect: image.Rect(0, 100, 200, 120), Parent: -1, Payload: slider([]card.ImageState{{Image: 40, Rect: image.Rect(-1, 0, 0, 0)}})},
		{Kind: card.KindHover, Flags: 1, Rect: image.Rect(1, 2, 3, 4), Parent: -1, Payload: &card.HoverPayload{Enter: 110, Leave: 111}},
	}
	got, err := card.ParseAreas(card.EncodeAreas(arena))
	require.NoError(t, err)
	assert.Equal(t, arena, got)
}

func TestParseAreas_InvertedRectIsEmpty(t *testing.T) {
	e, _ := newEnv(t)
	inverted := image.Rectangle{Min: image.Pt(100, 0), Max: image.Pt(0, 100)}
	arena, err := card.ParseAreas(card.EncodeAreas([]card.Area{area(card.KindForward, inverted, nil)}))
	require.NoError(t, err)
	require.Len(t, arena, 1)
	assert.Equal(t, inverted, arena[0].Rect)
	assert.True(t, arena[0].Rect.Empty())

	c := card.New(1, card.View{}, arena, nil)
	assert.Equal(t, -1, c.HitTest(image.Pt(50, 50), e))
}

func TestParseView_RoundTrip(t *testing.T) {
	v := card.View{
		Flags:      card.CardFlagZipDest,
		CondImages: []card.CondImage{{Var: 3, Images: []uint16{10, 11}}},
		Sound:      sound.Block{Sound: 5, Volume: 80},
		Preload:    []card.PreloadRef{{Tag: resource.TagWDIB, ID: 10}, {Tag: resource.TagMSND, ID: 5}},
		RLST:       1,
		Hint:       2,
		Init:       3,
		Exit:       4,
	}
	got, err := card.ParseView(card.EncodeView(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestParseView_UnknownSoundAction(t *testing.T) {
	data := card.EncodeView(card.View{MainImage: 1, Sound: sound.Block{Sound: -9}})
	_, err := card.ParseView(data)
	assert.ErrorIs(t, err, sound.ErrUnknownAction)
}

func TestParseHints_RoundTrip(t *testing.T) {
	hints := []card.Hint{
		{Area: 0, Cursor: 2002},
		{Area: 3, Cursor: -1, Var: 8, Cursors: []uint16{0, 2003}},
	}
	got, err := card.ParseHints(card.EncodeHints(hints))
	require.NoError(t, err)
	assert.Equal(t, hints, got)
}

type resources map[resource.Key][]byte

func (r resources) Get(tag resource.Tag, id uint16) ([]byte, error) {
	if data, ok := r[resource.Key{Tag: tag, ID: id}]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", resource.ErrNotFound, resource.Key{Tag: tag, ID: id})
}

func TestLoad(t *testing.T) {
	res := resources{
		{Tag: resource.TagView, ID: 4134}: card.EncodeView(card.View{MainImage: 4134, Sound: sound.Block{Sound: sound.ActionContinue}, RLST: 9, Init: 9}),
		{Tag: resource.TagRLST, ID: 9}:    card.EncodeAreas([]card.Area{area(card.KindLeft, image.Rect(0, 0, 5, 5), nil)}),
		{Tag: resource.TagInit, ID: 9}:    script.Encode(script.Script{{Opcode: script.OpPlaySound, Args: []uint16{3}}}),
	}
	c, err := card.Load(res, 4134)
	require.NoError(t, err)
	assert.Equal(t, 1, c.TopLevel())
	assert.Len(t, c.Init, 1)
	assert.Empty(t, c.Exit)

	_, err = card.Load(res, 1)
	assert.ErrorIs(t, err, resource.ErrNotFound)
}

func TestHitTest_EarlierAreaWins(t *testing.T) {
	e, _ := newEnv(t)
	c := card.New(1, card.View{}, []card.Area{
		area(card.KindForward, image.Rect(0, 0, 100, 100), nil),
		area(card.KindLeft, image.Rect(50, 50, 150, 150), nil),
	}, nil)
	assert.Equal(t, 0, c.HitTest(image.Pt(60, 60), e))
	assert.Equal(t, 1, c.HitTest(image.Pt(120, 120), e))
	assert.Equal(t, -1, c.HitTest(image.Pt(200, 200), e))

	require.True(t, c.SetAreaEnabled(0, false))
	assert.Equal(t, 1, c.HitTest(image.Pt(60, 60), e))
}

func TestProperty_HitTestReturnsFirstContainingArea(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e, _ := newEnv(t)
		n := rapid.IntRange(1, 8).Draw(rt, "areas")
		arena := make([]card.Area, n)
		for i := range arena {
			x, y := rapid.IntRange(0, 400).Draw(rt, "x"), rapid.IntRange(0, 200).Draw(rt, "y")
			w, h := rapid.IntRange(1, 200).Draw(rt, "w"), rapid.IntRange(1, 200).Draw(rt, "h")
			arena[i] = area(card.KindForward, image.Rect(x, y, x+w, y+h), nil)
			arena[i].SetEnabled(rapid.Bool().Draw(rt, "enabled"))
		}
		c := card.New(1, card.View{}, arena, nil)
		pt := image.Pt(rapid.IntRange(0, 544).Draw(rt, "px"), rapid.IntRange(0, 333).Draw(rt, "py"))
		want := -1
		for i := range arena {
			if arena[i].Enabled() && pt.In(arena[i].Rect) {
				want = i
				break
			}
		}
		if got := c.HitTest(pt, e); got != want {
			rt.Fatalf("hit test at %v: got %d, want %d", pt, got, want)
		}
	})
}

func TestHitTest_ZipModeGating(t *testing.T) {
	e, _ := newEnv(t)
	zipArea := area(card.KindForward, image.Rect(0, 0, 10, 10), nil)
	zipArea.Flags |= card.FlagZipMode
	zipArea.Dest = 77
	c := card.New(1, card.View{}, []card.Area{zipArea}, nil)

	assert.Equal(t, -1, c.HitTest(image.Pt(5, 5), e))
	e.zipMode = true
	assert.Equal(t, -1, c.HitTest(image.Pt(5, 5), e))
	e.zip[77] = true
	assert.Equal(t, 0, c.HitTest(image.Pt(5, 5), e))
}

func TestNavigation_ChangesCardWithKindTransition(t *testing.T) {
	e, logs := newEnv(t)
	nav := area(card.KindLeft, image.Rect(0, 0, 10, 10), nil)
	nav.Dest = 12
	broken := area(card.KindUp, image.Rect(20, 0, 30, 10), nil)
	c := card.New(1, card.View{}, []card.Area{nav, broken}, nil)

	click(t, c, e, image.Pt(5, 5))
	assert.Equal(t, []string{"card 12 right-to-left"}, e.Calls)

	click(t, c, e, image.Pt(25, 5))
	assert.Equal(t, 1, logs.FilterMessage("navigation area without destination").Len())
}

func TestAction_RunsScriptOnMouseUp(t *testing.T) {
	e, _ := newEnv(t)
	c := card.New(1, card.View{}, []card.Area{
		area(card.KindAction, image.Rect(0, 0, 10, 10), &card.ActionPayload{Script: script.Script{
			{Opcode: script.OpSetVar, Var: 5, Args: []uint16{1}},
		}}),
	}, nil)

	c.UpdateActiveResource(image.Pt(1, 1), e)
	require.NoError(t, c.UpdateResourcesForInput(image.Pt(1, 1), true, false, e))
	assert.Equal(t, uint16(0), e.st.Vars.Get(5))
	assert.True(t, c.IsDragging())

	require.NoError(t, c.UpdateResourcesForInput(image.Pt(1, 1), false, false, e))
	assert.Equal(t, uint16(1), e.st.Vars.Get(5))
	assert.False(t, c.IsDragging())
}

func TestActionSwitch_SelectsChildByVariable(t *testing.T) {
	e, logs := newEnv(t)
	r := image.Rect(0, 0, 10, 10)
	arena := []card.Area{
		{Kind: card.KindActionSwitch, Flags: card.FlagHotspotEnabled, Rect: r, Parent: -1, Children: []int{1, 2}, Payload: &card.SwitchPayload{Var: 3}},
		{Kind: card.KindAction, Flags: card.FlagHotspotEnabled, Rect: r, Parent: 0, Payload: &card.ActionPayload{Script: script.Script{{Opcode: script.OpPlaySound, Args: []uint16{40}}}}},
		{Kind: card.KindAction, Flags: card.FlagHotspotEnabled, Rect: r, Parent: 0, Payload: &card.ActionPayload{Script: script.Script{{Opcode: script.OpPlaySound, Args: []uint16{41}}}}},
	}
	c := card.New(1, card.View{}, arena, nil)
	assert.Equal(t, 1, c.TopLevel())

	click(t, c, e, image.Pt(1, 1))
	e.st.Vars.Set(3, 1)
	click(t, c, e, image.Pt(1, 1))
	e.st.Vars.Set(3, 5)
	click(t, c, e, image.Pt(1, 1))

	assert.Equal(t, []uint16{40, 41}, e.Effects)
	// mouse down and mouse up each resolve the switch
	assert.Equal(t, 2, logs.FilterMessage("switch value outside children").Len())
}

func TestHover_EnterAndLeave(t *testing.T) {
	e, _ := newEnv(t)
	var ops []uint16
	e.parser.Extension = func(op script.Op, _ *script.Caller) (bool, error) {
		ops = append(ops, op.Opcode)
		return true, nil
	}
	c := card.New(1, card.View{}, []card.Area{
		area(card.KindHover, image.Rect(0, 0, 10, 10), &card.HoverPayload{Enter: 120, Leave: 121}),
	}, nil)

	require.NoError(t, c.UpdateResourcesForInput(image.Pt(5, 5), false, true, e))
	require.NoError(t, c.UpdateResourcesForInput(image.Pt(6, 6), false, true, e))
	require.NoError(t, c.UpdateResourcesForInput(image.Pt(50, 50), false, true, e))
	assert.Equal(t, []uint16{120, 121}, ops)
}

func TestSlider_StepsVariableAndRunsOpcodes(t *testing.T) {
	e, _ := newEnv(t)
	type call struct {
		opcode, v uint16
		index     int
	}
	var calls []call
	e.parser.Extension = func(op script.Op, caller *script.Caller) (bool, error) {
		calls = append(calls, call{op.Opcode, op.Var, caller.Index})
		return true, nil
	}
	c := card.New(1, card.View{}, []card.Area{
		area(card.KindForward, image.Rect(0, 0, 1, 1), nil),
		area(card.KindSlider, image.Rect(0, 100, 200, 120), slider(nil)),
	}, nil)

	c.UpdateActiveResource(image.Pt(100, 110), e)
	require.NoError(t, c.UpdateResourcesForInput(image.Pt(100, 110), true, false, e))
	assert.Equal(t, uint16(2), e.st.Vars.Get(12))

	require.NoError(t, c.UpdateResourcesForInput(image.Pt(400, 110), true, true, e))
	assert.Equal(t, uint16(4), e.st.Vars.Get(12))

	require.NoError(t, c.UpdateResourcesForInput(image.Pt(-20, 110), false, true, e))
	assert.Equal(t, uint16(0), e.st.Vars.Get(12))

	assert.Equal(t, []call{{101, 9, 1}, {102, 9, 1}, {103, 9, 1}}, calls)
	assert.Equal(t, []uint16{8}, e.Effects)
}

func TestEnter_Order(t *testing.T) {
	e, _ := newEnv(t)
	view := card.View{
		Flags:   card.CardFlagZipDest,
		Preload: []card.PreloadRef{{Tag: resource.TagWDIB, ID: 7}},
		CondImages: []card.CondImage{
			{Var: 1, Images: []uint16{100, 101}},
			{Var: 2, Images: []uint16{200}},
		},
		Sound: sound.Block{Sound: 30, Volume: 100},
	}
	arena := []card.Area{
		area(card.KindImageSwitch, image.Rect(0, 0, 10, 10), &card.ImageSwitchPayload{Var: 1, States: []card.ImageState{{Image: 55}, {Image: 56}}}),
		area(card.KindVideo, image.Rect(0, 0, 10, 10), &card.VideoPayload{Movie: card.Movie{Name: "water", PlayOnCardChange: true}}),
	}
	c := card.New(4, view, arena, nil)
	c.Init = script.Script{{Opcode: script.OpPlaySound, Args: []uint16{9}}}

	require.NoError(t, c.Enter(e))
	assert.Equal(t, []string{
		"preload WDIB 7",
		"draw 200",
		"sound block 30",
		"effect 9",
		"draw 55",
		"area video 1",
	}, e.Calls)
	assert.True(t, e.zip[4])

	movie, ok := c.Video(1, e)
	require.True(t, ok)
	assert.Equal(t, "water", movie.Name)
	_, ok = c.Video(0, e)
	assert.False(t, ok)
}

func TestRedrawArea_OnlyMatchingVariable(t *testing.T) {
	e, logs := newEnv(t)
	c := card.New(1, card.View{}, []card.Area{
		area(card.KindImageSwitch, image.Rect(0, 0, 10, 10), &card.ImageSwitchPayload{Var: 1, States: []card.ImageState{{Image: 10}}}),
		area(card.KindImageSwitch, image.Rect(0, 0, 10, 10), &card.ImageSwitchPayload{Var: 2, States: []card.ImageState{{Image: 20}}}),
	}, nil)
	c.RedrawArea(2, e)
	assert.Equal(t, []string{"draw 20"}, e.Calls)

	e.st.Vars.Set(2, 3)
	c.RedrawArea(2, e)
	assert.Len(t, e.Calls, 1)
	assert.Equal(t, 1, logs.FilterMessage("image switch value without state").Len())
}

func TestActiveCursor(t *testing.T) {
	e, logs := newEnv(t)
	plain := area(card.KindForward, image.Rect(0, 0, 10, 10), nil)
	plain.Cursor = 2000
	hinted := area(card.KindAction, image.Rect(20, 0, 30, 10), &card.ActionPayload{})
	none := area(card.KindAction, image.Rect(40, 0, 50, 10), &card.ActionPayload{})
	c := card.New(1, card.View{}, []card.Area{plain, hinted, none}, []card.Hint{
		{Area: 1, Cursor: -1, Var: 6, Cursors: []uint16{0, 2003}},
	})

	c.UpdateActiveResource(image.Pt(5, 5), e)
	assert.Equal(t, int32(2000), c.ActiveCursor(e))

	c.UpdateActiveResource(image.Pt(25, 5), e)
	assert.Equal(t, int32(state.DefaultCursor), c.ActiveCursor(e))
	e.st.Vars.Set(6, 1)
	assert.Equal(t, int32(2003), c.ActiveCursor(e))
	e.st.Vars.Set(6, 2)
	assert.Equal(t, int32(-1), c.ActiveCursor(e))
	assert.Equal(t, 1, logs.FilterMessage("hint cursor unavailable").Len())

	c.UpdateActiveResource(image.Pt(45, 5), e)
	assert.Equal(t, int32(-1), c.ActiveCursor(e))

	c.UpdateActiveResource(image.Pt(500, 5), e)
	assert.Equal(t, int32(-1), c.ActiveCursor(e))
}

func TestNavigationTransition(t *testing.T) {
	assert.Equal(t, "dissolve", card.NavigationTransition(card.KindForward).String())
	assert.Equal(t, "left-to-right", card.NavigationTransition(card.KindRight).String())
	assert.Equal(t, "top-to-bottom", card.NavigationTransition(card.KindUp).String())
	assert.Equal(t, "bottom-to-top", card.NavigationTransition(card.KindDown).String())
	assert.Equal(t, "copy", card.NavigationTransition(card.KindAction).String())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "action_switch", card.KindActionSwitch.String())
	assert.Equal(t, "hover", card.KindHover.String())
	assert.Equal(t, "kind(9)", card.Kind(9).String())
}
