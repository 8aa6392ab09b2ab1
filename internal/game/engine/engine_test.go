package engine_test

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/cardstack/internal/console"
	"github.com/cory-johannsen/cardstack/internal/game/card"
	"github.com/cory-johannsen/cardstack/internal/game/engine"
	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/sound"
	"github.com/cory-johannsen/cardstack/internal/game/stack"
	"github.com/cory-johannsen/cardstack/internal/game/stacks"
	"github.com/cory-johannsen/cardstack/internal/game/state"
	"github.com/cory-johannsen/cardstack/internal/headless"
	"github.com/cory-johannsen/cardstack/internal/resource"
)

var hotspot = image.Rect(0, 0, 100, 100)

type setup struct {
	cfg      engine.Config
	replay   *headless.Replay
	dataDir  string
	settings engine.SettingsStore
	failPuts bool
}

type fixture struct {
	eng    *engine.Engine
	p      *headless.Platform
	res    *resource.Set
	opener *resource.MemOpener
	intro  *resource.MemArchive
	myst   *resource.MemArchive
	repo   *state.MemoryRepository
	st     *state.GameState
	logs   *observer.ObservedLogs
}

type settingsStore struct {
	zipMode, transitions bool
	saved                int
}

func (s *settingsStore) RuntimeSettings() (bool, bool) { return s.zipMode, s.transitions }

func (s *settingsStore) SaveRuntimeSettings(zipMode, transitions bool) error {
	s.zipMode, s.transitions = zipMode, transitions
	s.saved++
	return nil
}

// failingRepository rejects every write.
type failingRepository struct {
	*state.MemoryRepository
}

func (failingRepository) Put(context.Context, state.Record) error {
	return errors.New("disk full")
}

func putCard(a *resource.MemArchive, id uint16, areas []card.Area, init script.Script) {
	putCardScripts(a, id, areas, init, nil)
}

func putCardScripts(a *resource.MemArchive, id uint16, areas []card.Area, init, exit script.Script) {
	v := card.View{MainImage: id, Sound: sound.Block{Sound: sound.ActionContinue}}
	if len(exit) > 0 {
		v.Exit = id
		a.Put(resource.TagExit, id, script.Encode(exit))
	}
	if len(areas) > 0 {
		v.RLST = id
		a.Put(resource.TagRLST, id, card.EncodeAreas(areas))
	}
	if len(init) > 0 {
		v.Init = id
		a.Put(resource.TagInit, id, script.Encode(init))
	}
	a.Put(resource.TagView, id, card.EncodeView(v))
}

func action(ops script.Script) card.Area {
	return card.Area{
		Kind:    card.KindAction,
		Flags:   card.FlagHotspotEnabled,
		Rect:    hotspot,
		Parent:  -1,
		Payload: &card.ActionPayload{Script: ops},
	}
}

func newFixture(t *testing.T, s setup) *fixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	intro := resource.NewMemArchive("intro.dat")
	putCard(intro, 1, []card.Area{action(script.Script{
		{Opcode: script.OpChangeStack, Args: []uint16{uint16(stack.Myst), 2000}},
	})}, nil)
	putCard(intro, 2, nil, nil)
	putCard(intro, 3, []card.Area{{
		Kind:   card.KindVideo,
		Flags:  card.FlagHotspotEnabled,
		Rect:   hotspot,
		Parent: -1,
		Payload: &card.VideoPayload{
			Movie: card.Movie{Name: "fountain", X: 40, Y: 50, Loop: true, PlayOnCardChange: true},
		},
	}}, nil)

	myst := resource.NewMemArchive("myst.dat")
	for _, id := range []uint16{1, 2000, 4134} {
		putCard(myst, id, nil, nil)
	}
	menu := resource.NewMemArchive("menu.dat")
	putCard(menu, 1, nil, nil)
	putCard(menu, 1000, nil, nil)

	opener := resource.NewMemOpener(map[string]*resource.MemArchive{
		"intro.dat": intro,
		"myst.dat":  myst,
		"menu.dat":  menu,
		"help.dat":  resource.NewMemArchive("help.dat"),
	})
	res := resource.NewSet(opener, resource.NewCache(true), logger)

	hcfg := headless.DefaultConfig()
	hcfg.DataDir = s.dataDir
	p, err := headless.NewPlatform(hcfg, s.replay, logger)
	require.NoError(t, err)

	st := state.NewGameState(false, true)
	repo := state.NewMemoryRepository()
	var saves state.Repository = repo
	if s.failPuts {
		saves = failingRepository{repo}
	}
	cfg := s.cfg
	if cfg.FrameDelayMS == 0 {
		cfg = engine.DefaultConfig()
		cfg.Features = s.cfg.Features
		cfg.Language = s.cfg.Language
		cfg.PlayMystFlyby = s.cfg.PlayMystFlyby
		cfg.Start = s.cfg.Start
		cfg.AutosavePeriodMS = s.cfg.AutosavePeriodMS
	}
	eng, err := engine.New(cfg, engine.Deps{
		Media:     p.Media(),
		Resources: res,
		Catalog:   stack.Default(),
		Registry:  stacks.NewRegistry(),
		Saves:     state.NewManager(saves, st, logger),
		Settings:  s.settings,
		Logger:    logger,
	})
	require.NoError(t, err)
	return &fixture{eng: eng, p: p, res: res, opener: opener, intro: intro, myst: myst, repo: repo, st: st, logs: logs}
}

func (f *fixture) enter(t *testing.T, id stack.ID, cardID uint16) {
	t.Helper()
	require.NoError(t, f.eng.ChangeToStack(uint16(id), cardID, 0, 0))
}

func (f *fixture) key(k media.Key, ctrl bool) {
	f.p.Input.Push(media.Event{Type: media.EventKeyDown, Key: k, Ctrl: ctrl})
}

func (f *fixture) frame(t *testing.T) {
	t.Helper()
	require.NoError(t, f.eng.DoFrame())
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := engine.New(engine.DefaultConfig(), engine.Deps{Logger: zap.NewNop()})
	assert.Error(t, err)

	f := newFixture(t, setup{})
	assert.False(t, f.eng.IsGameStarted())
	assert.Nil(t, f.eng.Card())
}

func TestRun_ClickChangesStack(t *testing.T) {
	f := newFixture(t, setup{replay: &headless.Replay{
		QuitAfterMS: 300,
		Events: []headless.ReplayEvent{
			{AtMS: 20, Type: "mouse_move", X: 10, Y: 10},
			{AtMS: 40, Type: "mouse_down", X: 10, Y: 10},
			{AtMS: 60, Type: "mouse_up", X: 10, Y: 10},
		},
	}})
	putCardScripts(f.intro, 1, []card.Area{action(script.Script{
		{Opcode: script.OpChangeStack, Args: []uint16{uint16(stack.Myst), 2000}},
	})}, nil, script.Script{{Opcode: script.OpPlaySound, Args: []uint16{77}}})
	putCard(f.myst, 2000, nil, script.Script{{Opcode: script.OpPlaySound, Args: []uint16{88}}})

	require.NoError(t, f.eng.Run(context.Background()))

	assert.Equal(t, []uint16{77, 88}, f.p.Audio.Effects(), "exit of card 1 then init of card 2000, once each")
	assert.True(t, f.intro.Closed())
	_, cached := f.res.Cache().Search(resource.TagRLST, 1)
	assert.False(t, cached, "intro resources are flushed")
	_, cached = f.res.Cache().Search(resource.TagView, 2000)
	assert.True(t, cached)

	s := f.eng.Status()
	assert.Equal(t, stack.Myst, s.Stack)
	assert.Equal(t, "myst", s.StackName)
	assert.Equal(t, uint16(2000), s.Card)
	assert.Equal(t, state.AgeMystLibrary, f.st.Globals.CurrentAge)
	assert.Equal(t, []string{"intro.dat", "myst.dat"}, f.opener.Opened())
	assert.GreaterOrEqual(t, f.p.Clock.Millis(), uint32(300))
	assert.True(t, f.eng.IsGameStarted())
}

func TestRun_ContextCancelStops(t *testing.T) {
	f := newFixture(t, setup{})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.eng.Submit(cancel))

	require.NoError(t, f.eng.Run(ctx))
	assert.True(t, f.p.Input.ShouldQuit())
}

func TestRun_StartFailureIsFatal(t *testing.T) {
	start := state.Location{Stack: uint16(stack.Dni), Card: 1}
	f := newFixture(t, setup{cfg: engine.Config{Start: &start}})
	err := f.eng.Run(context.Background())
	assert.ErrorIs(t, err, resource.ErrArchiveOpen)
}

func TestChangeToStack_Errors(t *testing.T) {
	f := newFixture(t, setup{})
	assert.ErrorIs(t, f.eng.ChangeToStack(99, 1, 0, 0), stack.ErrUnknownStack)
	assert.ErrorIs(t, f.eng.ChangeToStack(uint16(stack.Intro), 77, 0, 0), resource.ErrNotFound)
}

func TestChangeToStack_LinkSoundsAndArchiveOrder(t *testing.T) {
	f := newFixture(t, setup{cfg: engine.Config{Features: engine.Features{ME: true, Menu: true}}})
	require.NoError(t, f.eng.ChangeToStack(uint16(stack.Intro), 1, 5, 6))

	assert.Equal(t, []uint16{5, 6}, f.p.Audio.Effects())
	assert.Equal(t, []string{"intro.dat", "help.dat", "menu.dat"}, f.opener.Opened())
	assert.False(t, f.p.Audio.IsEffectPlaying(), "link sounds are waited for")
}

func TestChangeToCard_FlushesCaches(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 1)
	assert.Equal(t, 2, f.res.Cache().Len(), "view and area list of card 1")

	f.p.Graphics.Reset()
	require.NoError(t, f.eng.ChangeToCard(2, media.TransitionDissolve))
	assert.Equal(t, 1, f.res.Cache().Len(), "only the view of card 2")
	assert.Contains(t, f.p.Graphics.Ops(), "clear cache")
	assert.Contains(t, f.p.Graphics.Ops(), "transition dissolve")
}

func TestChangeToCard_Transitions(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 1)

	f.st.Globals.Transitions = false
	f.p.Graphics.Reset()
	require.NoError(t, f.eng.ChangeToCard(2, media.TransitionDissolve))
	assert.NotContains(t, f.p.Graphics.Ops(), "transition dissolve")
	assert.Contains(t, f.p.Graphics.Ops(), "copy (0,0)-(544,333)")

	f.p.Graphics.Reset()
	require.NoError(t, f.eng.ChangeToCard(1, media.NoTransition))
	assert.NotContains(t, f.p.Graphics.Ops(), "copy (0,0)-(544,333)")
}

func TestWait_SkippableConsumesEscape(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 1)

	f.key(media.KeyEscape, false)
	start := f.p.Clock.Millis()
	skipped, err := f.eng.Wait(1000, true)
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Less(t, f.p.Clock.Millis()-start, uint32(1000))
}

func TestWait_NonSkippableIgnoresEscape(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 1)

	f.key(media.KeyEscape, false)
	start := f.p.Clock.Millis()
	skipped, err := f.eng.Wait(100, false)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.GreaterOrEqual(t, f.p.Clock.Millis()-start, uint32(100))
}

func TestWait_QuitEndsWait(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 1)
	f.p.Input.RequestQuit()

	start := f.p.Clock.Millis()
	_, err := f.eng.Wait(5000, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), f.p.Clock.Millis()-start)
}

func TestPlayMovieBlocking(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 2)

	start := f.p.Clock.Millis()
	require.NoError(t, f.eng.PlayMovieBlocking("logo", 10, 20))
	assert.Equal(t, []string{"qtw/intro/logo.mov"}, f.p.Video.Started())
	assert.GreaterOrEqual(t, f.p.Clock.Millis()-start, uint32(2000))
	assert.Zero(t, f.p.Video.Playing())

	f.key(media.KeyEscape, false)
	start = f.p.Clock.Millis()
	require.NoError(t, f.eng.PlayMovieBlocking("logo", 10, 20))
	assert.Less(t, f.p.Clock.Millis()-start, uint32(2000))
}

func TestPlayMovie_Errors(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 2)

	f.p.Video.SetMissing("qtw/intro/gone.mov")
	assert.ErrorIs(t, f.eng.PlayMovieBlocking("gone", 0, 0), engine.ErrMovieOpen)

	h, err := f.eng.PlayMovie("loop")
	require.NoError(t, err)
	h.SetLooping(true)
	assert.ErrorIs(t, f.eng.WaitUntilMovieEnds(h), engine.ErrLoopingWait)
}

func TestPlayMovie_PrefersLocalizedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fr", "qtw", "intro"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fr", "qtw", "intro", "logo.mov"), nil, 0o644))

	f := newFixture(t, setup{cfg: engine.Config{Language: "fr"}, dataDir: dir})
	f.enter(t, stack.Intro, 2)

	_, err := f.eng.PlayMovie("logo")
	require.NoError(t, err)
	_, err = f.eng.PlayMovie("credits")
	require.NoError(t, err)
	assert.Equal(t, []string{"fr/qtw/intro/logo.mov", "qtw/intro/credits.mov"}, f.p.Video.Started())
}

func TestPlayAreaVideo_StartsOnce(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 3)
	require.Equal(t, []string{"qtw/intro/fountain.mov"}, f.p.Video.Started())

	h, ok := f.p.Video.FindVideo("qtw/intro/fountain.mov")
	require.True(t, ok)
	assert.True(t, h.IsLooping())

	require.NoError(t, f.eng.PlayAreaVideo(0))
	assert.Len(t, f.p.Video.Started(), 1, "a playing movie is not restarted")

	require.NoError(t, f.eng.PlayAreaVideo(5))
	assert.Equal(t, 1, f.logs.FilterMessage("no video area").Len())
}

func TestFlyby(t *testing.T) {
	cases := []struct {
		name   string
		flyby  bool
		movies []string
	}{
		{"enabled", true, []string{"qtw/myst flyby.mov"}},
		{"disabled", false, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, setup{cfg: engine.Config{
				Features:      engine.Features{ME: true},
				PlayMystFlyby: tc.flyby,
			}})
			f.enter(t, stack.Intro, 1)
			f.enter(t, stack.Myst, 4134)
			assert.Equal(t, tc.movies, f.p.Video.Started())
		})
	}
}

func TestMenuOverlay_SaveAndResume(t *testing.T) {
	f := newFixture(t, setup{
		cfg: engine.Config{Features: engine.Features{Menu: true}},
		replay: &headless.Replay{Dialogs: headless.DialogScript{
			SaveSlots: []headless.SaveChoice{{Slot: 2}},
		}},
	})
	f.enter(t, stack.Intro, 1)

	f.key(media.KeyEscape, false)
	f.frame(t)
	s := f.eng.Status()
	assert.Equal(t, stack.Menu, s.Stack)
	assert.Equal(t, uint16(1000), s.Card)
	assert.True(t, s.InMenu)
	assert.True(t, f.eng.IsGameStarted())
	assert.Contains(t, f.p.Graphics.Ops(), "save state")

	f.key(media.KeyS, true)
	f.frame(t)
	rec, err := f.repo.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Save 2", rec.Description)
	snap, err := state.DecodeSnapshot(rec.Payload, rec.Checksum)
	require.NoError(t, err)
	assert.Equal(t, state.Location{Stack: uint16(stack.Intro), Card: 1}, snap.Location)

	f.key(media.KeyEscape, false)
	f.frame(t)
	s = f.eng.Status()
	assert.Equal(t, stack.Intro, s.Stack)
	assert.Equal(t, uint16(1), s.Card)
	assert.False(t, s.InMenu)
	assert.Contains(t, f.p.Graphics.Ops(), "restore state")
}

func TestEscape_WithoutMenuFeatureDoesNothing(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 1)
	f.key(media.KeyEscape, false)
	f.frame(t)
	assert.Equal(t, stack.Intro, f.eng.Status().Stack)
}

func TestDropPage(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 1)
	f.st.Globals.HeldPage = state.BlueLibraryPage
	f.eng.SetMainCursor(state.BluePageCursor)

	f.eng.DropPage()
	assert.Equal(t, state.NoPage, f.st.Globals.HeldPage)
	assert.Equal(t, []uint16{800}, f.p.Audio.Effects())
	assert.Equal(t, state.DefaultCursor, f.eng.MainCursor())
	assert.Equal(t, state.DefaultCursor, f.p.Cursor.Current)
}

func TestOptionsDialog_DropPage(t *testing.T) {
	f := newFixture(t, setup{replay: &headless.Replay{Dialogs: headless.DialogScript{
		Options: []headless.OptionsChoice{{Action: "drop_page"}},
	}}})
	f.enter(t, stack.Intro, 1)
	f.st.Globals.HeldPage = state.RedLibraryPage

	f.key(media.KeyF5, false)
	f.frame(t)
	opened := f.p.Dialogs.Opened()
	require.Len(t, opened, 1)
	assert.True(t, opened[0].CanDropPage)
	assert.True(t, opened[0].CanReturnToMenu)
	assert.False(t, opened[0].CanShowMap)
	assert.Equal(t, state.NoPage, f.st.Globals.HeldPage)
}

func TestOptionsDialog_SettingsBeforeGameStart(t *testing.T) {
	store := &settingsStore{}
	zip := true
	f := newFixture(t, setup{
		cfg: engine.Config{Features: engine.Features{Menu: true}},
		replay: &headless.Replay{Dialogs: headless.DialogScript{
			Options: []headless.OptionsChoice{{Action: "save_settings", ZipMode: &zip}},
		}},
		settings: store,
	})
	f.enter(t, stack.Menu, 1)
	require.False(t, f.eng.IsGameStarted())

	f.key(media.KeyF5, false)
	f.frame(t)
	assert.Equal(t, 1, store.saved)
	assert.True(t, store.zipMode)
	assert.True(t, store.transitions)
	assert.True(t, f.st.Globals.ZipMode)
}

func TestAutosave(t *testing.T) {
	f := newFixture(t, setup{cfg: engine.Config{AutosavePeriodMS: 50}})
	f.enter(t, stack.Myst, 1)
	for i := 0; i < 10; i++ {
		f.frame(t)
	}
	rec, err := f.repo.Get(context.Background(), state.AutoSaveSlot)
	require.NoError(t, err)
	assert.True(t, rec.AutoSave)
	assert.Equal(t, "Autosave", rec.Description)
}

func TestAutosave_KeepsManualSave(t *testing.T) {
	f := newFixture(t, setup{cfg: engine.Config{AutosavePeriodMS: 50}})
	ctx := context.Background()
	require.NoError(t, f.repo.Put(ctx, state.Record{Slot: state.AutoSaveSlot, Description: "manual"}))
	f.enter(t, stack.Myst, 1)
	for i := 0; i < 10; i++ {
		f.frame(t)
	}
	rec, err := f.repo.Get(ctx, state.AutoSaveSlot)
	require.NoError(t, err)
	assert.Equal(t, "manual", rec.Description)
}

func TestAutosave_SkippedOnUnsaveableStack(t *testing.T) {
	f := newFixture(t, setup{cfg: engine.Config{AutosavePeriodMS: 50}})
	f.enter(t, stack.Intro, 2)
	for i := 0; i < 10; i++ {
		f.frame(t)
	}
	_, err := f.repo.Get(context.Background(), state.AutoSaveSlot)
	assert.ErrorIs(t, err, state.ErrSaveNotFound)
}

func TestSaveAndLoadGame(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Myst, 1)
	f.st.Vars.Set(5, 9)
	f.st.Globals.HeldPage = state.BlueLibraryPage
	require.True(t, f.eng.SaveGame(3, "tower"))

	f.st.Vars.Set(5, 0)
	f.st.Globals.HeldPage = state.NoPage
	f.enter(t, stack.Intro, 2)

	ok, err := f.eng.LoadGame(3)
	require.NoError(t, err)
	require.True(t, ok)
	s := f.eng.Status()
	assert.Equal(t, stack.Myst, s.Stack)
	assert.Equal(t, uint16(1), s.Card)
	assert.Equal(t, uint16(9), f.st.Vars.Get(5))
	assert.Equal(t, state.BluePageCursor, f.eng.MainCursor())

	ok, err = f.eng.LoadGame(9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCtrlO_LoadsChosenSlot(t *testing.T) {
	f := newFixture(t, setup{replay: &headless.Replay{Dialogs: headless.DialogScript{LoadSlots: []int{4}}}})
	f.enter(t, stack.Myst, 2000)
	require.True(t, f.eng.SaveGame(4, "garden"))
	f.enter(t, stack.Myst, 1)

	f.key(media.KeyO, true)
	f.frame(t)
	assert.Equal(t, uint16(2000), f.eng.Status().Card)
}

func TestDisplayMessage(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 2)

	start := f.p.Clock.Millis()
	require.NoError(t, f.eng.DisplayMessage("hello"))
	assert.GreaterOrEqual(t, f.p.Clock.Millis()-start, uint32(250))
	drawn := f.p.Text.Drawn()
	require.Len(t, drawn, 1)
	assert.Equal(t, "hello", drawn[0].Msg)

	f.p.Input.Push(media.Event{Type: media.EventMouseDown})
	start = f.p.Clock.Millis()
	require.NoError(t, f.eng.DisplayMessage("hello"))
	assert.Equal(t, uint32(10), f.p.Clock.Millis()-start)
}

func TestSubmit(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.QueueSize = 1
	f := newFixture(t, setup{cfg: cfg})

	ran := 0
	require.NoError(t, f.eng.Submit(func() { ran++ }))
	assert.ErrorIs(t, f.eng.Submit(func() { ran++ }), engine.ErrQueueFull)
	f.frame(t)
	assert.Equal(t, 1, ran)
}

func TestQuitEvent_RequestsQuit(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 1)
	f.p.Input.Push(media.Event{Type: media.EventQuit})
	f.frame(t)
	assert.True(t, f.p.Input.ShouldQuit())
}

func TestChangeToCard_UnknownCardKeepsCurrent(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 1)

	err := f.eng.ChangeToCard(77, media.TransitionCopy)
	assert.ErrorIs(t, err, engine.ErrUnknownCard)
	assert.ErrorIs(t, err, resource.ErrNotFound)

	require.NotNil(t, f.eng.Card())
	assert.Equal(t, uint16(1), f.eng.Card().ID)
	f.frame(t)
	assert.True(t, f.eng.Status().Interactive)
}

func TestDoFrame_FailedConsoleStackChangeIsFatal(t *testing.T) {
	f := newFixture(t, setup{})
	f.enter(t, stack.Intro, 1)
	f.frame(t)

	cmd, err := console.Parse("stack 7 77")
	require.NoError(t, err)
	var cmdErr error
	require.NoError(t, f.eng.Submit(func() { _, cmdErr = cmd.Run(f.eng) }))

	err = f.eng.DoFrame()
	assert.ErrorIs(t, err, resource.ErrNotFound)
	assert.ErrorIs(t, cmdErr, resource.ErrNotFound)
	assert.ErrorIs(t, f.eng.DoFrame(), resource.ErrNotFound, "the session stays failed")
}

func TestRun_FailedSubmittedTransitionEndsSession(t *testing.T) {
	f := newFixture(t, setup{replay: &headless.Replay{QuitAfterMS: 5000}})
	require.NoError(t, f.eng.Submit(func() {
		_ = f.eng.ChangeToStack(uint16(stack.Myst), 77, 0, 0)
	}))

	err := f.eng.Run(context.Background())
	assert.ErrorIs(t, err, resource.ErrNotFound)
	assert.Less(t, f.p.Clock.Millis(), uint32(5000))
}

func TestAutosave_StoreFailureIsRecoverable(t *testing.T) {
	f := newFixture(t, setup{cfg: engine.Config{AutosavePeriodMS: 50}, failPuts: true})
	f.enter(t, stack.Myst, 1)
	for i := 0; i < 10; i++ {
		f.frame(t)
	}

	failures := f.logs.FilterMessage("autosave failed").All()
	require.NotEmpty(t, failures)
	assert.Equal(t, zap.WarnLevel, failures[0].Level)
	assert.True(t, f.eng.Status().Interactive)
	_, err := f.repo.Get(context.Background(), state.AutoSaveSlot)
	assert.ErrorIs(t, err, state.ErrSaveNotFound)
}

func TestAutosave_SkippedWhileDragging(t *testing.T) {
	f := newFixture(t, setup{cfg: engine.Config{AutosavePeriodMS: 50}})
	putCard(f.myst, 3000, []card.Area{{
		Kind:   card.KindDrag,
		Flags:  card.FlagHotspotEnabled,
		Rect:   hotspot,
		Parent: -1,
		Payload: &card.DragPayload{
			ImageSwitchPayload: card.ImageSwitchPayload{Var: 20},
			MaxH:               100,
			StepsH:             4,
			VarH:               21,
			VarV:               card.NoVar,
			MouseDown:          script.OpRedrawCard,
			MouseDrag:          script.OpRedrawCard,
			MouseUp:            script.OpRedrawCard,
		},
	}}, nil)
	f.enter(t, stack.Myst, 3000)
	ctx := context.Background()

	f.p.Input.Push(media.Event{Type: media.EventMouseDown, Pos: image.Pt(10, 10)})
	for i := 0; i < 10; i++ {
		f.frame(t)
	}
	require.True(t, f.eng.Card().IsDragging())
	_, err := f.repo.Get(ctx, state.AutoSaveSlot)
	assert.ErrorIs(t, err, state.ErrSaveNotFound)

	f.p.Input.Push(media.Event{Type: media.EventMouseUp, Pos: image.Pt(10, 10)})
	for i := 0; i < 10; i++ {
		f.frame(t)
	}
	assert.False(t, f.eng.Card().IsDragging())
	_, err = f.repo.Get(ctx, state.AutoSaveSlot)
	assert.NoError(t, err)
}
