package headless_test

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/headless"
)

const replayYAML = `
quit_after_ms: 5000
events:
  - at_ms: 200
    type: mouse_down
    x: 10
    y: 20
  - at_ms: 100
    type: mouse_move
    x: 5
    y: 6
  - at_ms: 200
    type: mouse_up
    x: 10
    y: 20
  - at_ms: 300
    type: key_down
    key: s
    ctrl: true
dialogs:
  options:
    - action: save_settings
      zip_mode: true
  load_slots: [3]
  save_slots:
    - slot: 2
      description: before the tower
`

func TestParseReplay_OrdersEventsStably(t *testing.T) {
	r, err := headless.ParseReplay([]byte(replayYAML))
	require.NoError(t, err)

	tl, err := r.Timeline()
	require.NoError(t, err)
	require.Len(t, tl, 4)
	assert.Equal(t, media.EventMouseMove, tl[0].Event.Type)
	assert.Equal(t, media.EventMouseDown, tl[1].Event.Type)
	assert.Equal(t, media.EventMouseUp, tl[2].Event.Type)
	assert.Equal(t, media.Event{Type: media.EventKeyDown, Key: media.KeyS, Ctrl: true, Pos: image.Pt(0, 0)}, tl[3].Event)
	assert.Equal(t, uint32(5000), r.QuitAfterMS)
}

func TestParseReplay_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown type":   "events:\n  - type: wiggle\n",
		"unknown key":    "events:\n  - type: key_down\n    key: f13\n",
		"unknown action": "dialogs:\n  options:\n    - action: dance\n",
		"bad yaml":       "events: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := headless.ParseReplay([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte(replayYAML), 0o644))
	r, err := headless.LoadReplay(path)
	require.NoError(t, err)
	assert.Len(t, r.Events, 4)

	_, err = headless.LoadReplay(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInput_DeliversDueEvents(t *testing.T) {
	r, err := headless.ParseReplay([]byte(replayYAML))
	require.NoError(t, err)
	tl, err := r.Timeline()
	require.NoError(t, err)

	clock := headless.NewClock(0)
	in := headless.NewInput(clock, tl, r.QuitAfterMS)

	_, ok := in.Poll()
	assert.False(t, ok, "nothing is due at 0ms")

	clock.Advance(200)
	ev, ok := in.Poll()
	require.True(t, ok)
	assert.Equal(t, media.EventMouseMove, ev.Type)
	assert.Equal(t, image.Pt(5, 6), in.MousePos())

	_, ok = in.Poll()
	require.True(t, ok)
	assert.True(t, in.ButtonDown())
	_, ok = in.Poll()
	require.True(t, ok)
	assert.False(t, in.ButtonDown())
	_, ok = in.Poll()
	assert.False(t, ok)
	assert.False(t, in.Exhausted())

	in.Push(media.Event{Type: media.EventKeyDown, Key: media.KeyEscape})
	ev, ok = in.Poll()
	require.True(t, ok)
	assert.Equal(t, media.KeyEscape, ev.Key)

	assert.False(t, in.ShouldQuit())
	clock.Advance(4800)
	assert.True(t, in.ShouldQuit())
}

func TestInput_RequestQuit(t *testing.T) {
	in := headless.NewInput(headless.NewClock(0), nil, 0)
	assert.False(t, in.ShouldQuit())
	assert.True(t, in.Exhausted())
	in.RequestQuit()
	assert.True(t, in.ShouldQuit())
}

func TestVideo_PlaysForDuration(t *testing.T) {
	clock := headless.NewClock(0)
	v := headless.NewVideo(clock, 1000, zap.NewNop())
	v.SetDuration("qtw/short.mov", 100)

	h, err := v.PlayMovie("qtw/short.mov")
	require.NoError(t, err)
	assert.False(t, h.EndOfVideo())

	clock.Advance(50)
	v.PauseVideos()
	clock.Advance(500)
	v.UpdateMovies()
	assert.False(t, h.EndOfVideo(), "paused time does not count")

	v.ResumeVideos()
	clock.Advance(50)
	v.UpdateMovies()
	assert.True(t, h.EndOfVideo())

	found, ok := v.FindVideo("qtw/short.mov")
	require.True(t, ok)
	assert.Same(t, h, found)

	v.RemoveEntry(h)
	_, ok = v.FindVideo("qtw/short.mov")
	assert.False(t, ok)
	assert.Equal(t, []string{"qtw/short.mov"}, v.Started())
}

func TestVideo_LoopingNeverEnds(t *testing.T) {
	clock := headless.NewClock(0)
	v := headless.NewVideo(clock, 10, zap.NewNop())
	h, err := v.PlayMovie("qtw/loop.mov")
	require.NoError(t, err)
	h.SetLooping(true)
	clock.Advance(1000)
	v.UpdateMovies()
	assert.False(t, h.EndOfVideo())
	assert.True(t, h.IsLooping())

	v.StopVideos()
	assert.Zero(t, v.Playing())
}

func TestVideo_Missing(t *testing.T) {
	v := headless.NewVideo(headless.NewClock(0), 10, zap.NewNop())
	v.SetMissing("qtw/gone.mov")
	_, err := v.PlayMovie("qtw/gone.mov")
	assert.ErrorIs(t, err, headless.ErrNoMovie)
}

func TestAudio_EffectDuration(t *testing.T) {
	clock := headless.NewClock(0)
	a := headless.NewAudio(clock, 300, zap.NewNop())
	assert.False(t, a.IsEffectPlaying())

	a.PlayEffect(800)
	assert.True(t, a.IsEffectPlaying())
	clock.Advance(300)
	assert.False(t, a.IsEffectPlaying())

	a.PlayEffect(801)
	a.StopEffect()
	assert.False(t, a.IsEffectPlaying())
	assert.Equal(t, []uint16{800, 801}, a.Effects())

	a.PlayBackground(5, 100)
	a.ChangeBackgroundVolume(50)
	id, vol := a.Background()
	assert.Equal(t, uint16(5), id)
	assert.Equal(t, uint16(50), vol)
	a.StopBackground()
	id, _ = a.Background()
	assert.Zero(t, id)
}

func TestGraphics_Records(t *testing.T) {
	g := headless.NewGraphics()
	assert.Nil(t, g.Thumbnail())

	g.DrawImage(7, image.Rectangle{}, media.ScreenRect)
	g.RunTransition(media.TransitionDissolve, media.ScreenRect, 10, 0)
	g.RestoreStateForMainMenu()
	g.SaveStateForMainMenu()
	g.RestoreStateForMainMenu()
	g.UpdateScreen()

	assert.Equal(t, []string{
		"image 7 (0,0)-(544,333)",
		"transition dissolve",
		"restore without saved state",
		"save state",
		"restore state",
	}, g.Ops())
	assert.Equal(t, []byte("image 7 (0,0)-(544,333)"), g.Thumbnail())
	assert.Equal(t, 1, g.Updates())
}

func TestDialogs_AnswersInOrder(t *testing.T) {
	r, err := headless.ParseReplay([]byte(replayYAML))
	require.NoError(t, err)
	d := headless.NewDialogs(r.Dialogs)

	res := d.RunOptions(media.OptionsState{Transitions: true})
	assert.Equal(t, media.OptionsSaveSettings, res.Action)
	assert.True(t, res.ZipMode)
	assert.True(t, res.Transitions)
	assert.Equal(t, -1, res.LoadSlot)

	res = d.RunOptions(media.OptionsState{})
	assert.Equal(t, media.OptionsNone, res.Action)
	assert.Equal(t, -1, res.SaveSlot)
	assert.Len(t, d.Opened(), 2)

	assert.Equal(t, 3, d.ChooseLoadSlot())
	assert.Equal(t, -1, d.ChooseLoadSlot())

	slot, desc := d.ChooseSaveSlot()
	assert.Equal(t, 2, slot)
	assert.Equal(t, "before the tower", desc)
	slot, _ = d.ChooseSaveSlot()
	assert.Equal(t, -1, slot)
}

func TestText_LineCount(t *testing.T) {
	txt := headless.NewText(8, 14)
	assert.Equal(t, 14, txt.LineHeight())
	assert.Equal(t, 1, txt.LineCount("hello", 100))
	assert.Equal(t, 2, txt.LineCount("hello world", 80))
	assert.Equal(t, 1, txt.LineCount("hello world", 88))
	assert.Equal(t, 2, txt.LineCount("abcdefghijkl", 80))
	assert.Equal(t, 0, txt.LineCount("hello", 7))
}

func TestText_LineCountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		txt := headless.NewText(8, 14)
		msg := rapid.StringMatching(`[a-z]{1,12}( [a-z]{1,12}){0,10}`).Draw(t, "msg")
		width := rapid.IntRange(8, 400).Draw(t, "width")
		n := txt.LineCount(msg, width)
		if n < 1 || n > len(msg) {
			t.Fatalf("%q at width %d wrapped to %d lines", msg, width, n)
		}
		if one := txt.LineCount(msg, 8*len(msg)); one != 1 {
			t.Fatalf("%q does not fit one line of its own length: %d", msg, one)
		}
	})
}

func TestDirFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fr", "qtw"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fr", "qtw", "intro.mov"), nil, 0o644))
	files := headless.DirFiles(dir)
	assert.True(t, files.HasFile("fr/qtw/intro.mov"))
	assert.False(t, files.HasFile("de/qtw/intro.mov"))
}

func TestNewPlatform(t *testing.T) {
	p, err := headless.NewPlatform(headless.DefaultConfig(), nil, zap.NewNop())
	require.NoError(t, err)
	m := p.Media()
	assert.Nil(t, m.Files)
	assert.Same(t, p.Clock, m.Clock)

	cfg := headless.DefaultConfig()
	cfg.DataDir = t.TempDir()
	p, err = headless.NewPlatform(cfg, &headless.Replay{}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, p.Media().Files)

	_, err = headless.NewPlatform(cfg, &headless.Replay{Events: []headless.ReplayEvent{{Type: "nope"}}}, zap.NewNop())
	assert.Error(t, err)
}
