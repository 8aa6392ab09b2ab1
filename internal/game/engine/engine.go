// Package engine runs a game: the cooperative frame loop interleaving input,
// scripts, movies and sound, and the stack and card transitions scripts
// request. Engine is the session context scripts and cards act on.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/card"
	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/msgbox"
	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/stack"
	"github.com/cory-johannsen/cardstack/internal/game/stacks"
	"github.com/cory-johannsen/cardstack/internal/game/state"
	"github.com/cory-johannsen/cardstack/internal/resource"
	"github.com/cory-johannsen/cardstack/internal/scripting"
)

var (
	// ErrMovieOpen is returned when a required movie cannot be started.
	ErrMovieOpen = errors.New("failed to open movie")
	// ErrLoopingWait is returned when a blocking wait targets a looping movie.
	ErrLoopingWait = errors.New("waiting on a looping movie")
	// ErrQueueFull is returned by Submit when the command queue is saturated.
	ErrQueueFull = errors.New("engine command queue full")
	// ErrUnknownCard is returned by ChangeToCard for cards without a view.
	ErrUnknownCard = errors.New("unknown card")
)

// Features are the edition flags of the game data.
type Features struct {
	// ME is the Masterpiece edition: help archives, flyby movies and
	// redirected sounds.
	ME bool
	// Menu is the 25th anniversary main menu.
	Menu     bool
	Demo     bool
	MakingOf bool
}

// Config tunes the engine.
type Config struct {
	Features Features
	// Language selects localized archives and movies; empty disables them.
	Language string
	// FrameDelayMS is slept at the end of every frame.
	FrameDelayMS uint32
	// AutosavePeriodMS is the minimum time between autosaves; zero disables
	// them.
	AutosavePeriodMS uint32
	PlayMystFlyby    bool
	// Start overrides the first location; nil picks it from Features.
	Start *state.Location
	// LoadSlot, when non-negative, starts from that save slot.
	LoadSlot   int
	MessageBox msgbox.Params
	// QueueSize bounds the number of pending Submit commands.
	QueueSize int
}

// DefaultConfig returns the settings of the original engine.
func DefaultConfig() Config {
	return Config{
		FrameDelayMS:     10,
		AutosavePeriodMS: 5 * 60 * 1000,
		LoadSlot:         -1,
		MessageBox:       msgbox.DefaultParams,
		QueueSize:        64,
	}
}

// Media bundles the platform collaborators.
type Media struct {
	Video    media.Video
	Audio    media.Audio
	Graphics media.Graphics
	Cursor   media.Cursor
	Input    media.Input
	Clock    media.Clock
	// Files may be nil; localized movies are then never selected.
	Files   media.FileProber
	Dialogs media.Dialogs
	Text    media.TextRenderer
}

func (m Media) validate() error {
	if m.Video == nil || m.Audio == nil || m.Graphics == nil || m.Cursor == nil ||
		m.Input == nil || m.Clock == nil || m.Dialogs == nil || m.Text == nil {
		return errors.New("engine: incomplete media collaborators")
	}
	return nil
}

// SettingsStore persists the runtime settings changed from the options
// dialog before a game is started.
type SettingsStore interface {
	RuntimeSettings() (zipMode, transitions bool)
	SaveRuntimeSettings(zipMode, transitions bool) error
}

// Deps are the engine's collaborators.
type Deps struct {
	Media     Media
	Resources *resource.Set
	Catalog   *stack.Catalog
	Registry  *stacks.Registry
	Saves     *state.Manager
	// Scripts may be nil when no stack uses Lua scripts.
	Scripts  *scripting.Manager
	Settings SettingsStore
	Logger   *zap.Logger
}

// overlay is the location saved while the main menu is shown.
type overlay struct {
	id     stack.ID
	desc   *stack.Descriptor
	interp script.Interpreter
	card   *card.Card
}

// Engine is the running game.
//
// Engine is driven by a single control flow; Submit is the only method
// safe to call from other goroutines.
type Engine struct {
	cfg      Config
	m        Media
	res      *resource.Set
	catalog  *stack.Catalog
	registry *stacks.Registry
	saves    *state.Manager
	st       *state.GameState
	scripts  *scripting.Manager
	settings SettingsStore
	logger   *zap.Logger
	ctx      context.Context

	stackID stack.ID
	desc    *stack.Descriptor
	interp  script.Interpreter
	card    *card.Card
	prev    *overlay

	mainCursor    uint16
	currentCursor uint16
	mouseClicked  bool
	mouseMoved    bool
	escapePressed bool
	blocking      bool
	lastSave      uint32
	frames        uint64
	fatal         error

	commands chan func()
}

// New creates an engine.
//
// Precondition: every Deps field except Scripts and Settings must be set.
// Postcondition: Returns an engine with no stack loaded, or an error naming
// the missing collaborator.
func New(cfg Config, deps Deps) (*Engine, error) {
	if err := deps.Media.validate(); err != nil {
		return nil, err
	}
	if deps.Resources == nil || deps.Catalog == nil || deps.Registry == nil || deps.Saves == nil || deps.Logger == nil {
		return nil, errors.New("engine: missing dependency")
	}
	if err := cfg.MessageBox.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	deps.Resources.SetSoundRedirect(cfg.Features.ME)
	return &Engine{
		cfg:        cfg,
		m:          deps.Media,
		res:        deps.Resources,
		catalog:    deps.Catalog,
		registry:   deps.Registry,
		saves:      deps.Saves,
		st:         deps.Saves.State(),
		scripts:    deps.Scripts,
		settings:   deps.Settings,
		logger:     deps.Logger,
		ctx:        context.Background(),
		mainCursor: state.DefaultCursor,
		commands:   make(chan func(), cfg.QueueSize),
	}, nil
}

// Run starts the game and drives frames until the player quits or a fatal
// error occurs.
//
// Postcondition: Returns nil on a regular quit, or the fatal error after a
// last autosave attempt. The interpreters are closed in both cases.
func (e *Engine) Run(ctx context.Context) error {
	e.ctx = ctx
	defer e.shutdown()

	if err := e.start(); err != nil {
		e.tryAutoSaving()
		return err
	}
	for !e.m.Input.ShouldQuit() {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping", zap.Error(ctx.Err()))
			e.tryAutoSaving()
			e.m.Input.RequestQuit()
			return nil
		default:
		}
		if err := e.DoFrame(); err != nil {
			e.tryAutoSaving()
			return err
		}
	}
	return nil
}

func (e *Engine) start() error {
	if e.cfg.LoadSlot >= 0 && e.hasSaveSupport() {
		ok, err := e.LoadGame(e.cfg.LoadSlot)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("loading save slot %d", e.cfg.LoadSlot)
		}
		return nil
	}
	loc := e.startLocation()
	return e.ChangeToStack(loc.Stack, loc.Card, 0, 0)
}

func (e *Engine) startLocation() state.Location {
	f := e.cfg.Features
	switch {
	case e.cfg.Start != nil:
		return *e.cfg.Start
	case f.MakingOf:
		return state.Location{Stack: uint16(stack.MakingOf), Card: 1}
	case f.Demo:
		return state.Location{Stack: uint16(stack.Demo), Card: 2000}
	case f.Menu:
		return state.Location{Stack: uint16(stack.Menu), Card: 1}
	default:
		return state.Location{Stack: uint16(stack.Intro), Card: 1}
	}
}

func (e *Engine) shutdown() {
	if e.prev != nil {
		e.closeInterpreter(e.prev.interp)
		e.prev = nil
	}
	e.closeInterpreter(e.interp)
	e.interp = nil
	e.res.Reset()
}

func (e *Engine) closeInterpreter(i script.Interpreter) {
	if i == nil {
		return
	}
	if err := i.Close(); err != nil {
		e.logger.Warn("closing interpreter", zap.Error(err))
	}
}

// Submit queues fn to run on the frame loop at the start of the next
// frame's input handling.
//
// Postcondition: Returns ErrQueueFull without queuing when the queue is
// saturated.
func (e *Engine) Submit(fn func()) error {
	select {
	case e.commands <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

func (e *Engine) drainCommands() {
	for {
		select {
		case fn := <-e.commands:
			fn()
		default:
			return
		}
	}
}

// Status is a snapshot of the engine for diagnostics.
type Status struct {
	Stack       stack.ID
	StackName   string
	Card        uint16
	InMenu      bool
	Interactive bool
	Frames      uint64
	Age         state.Age
	HeldPage    state.HeldPage
	MainCursor  uint16
	Millis      uint32
}

// Status returns the current status. Call it from the frame loop.
func (e *Engine) Status() Status {
	s := Status{
		Stack:       e.stackID,
		InMenu:      e.prev != nil,
		Interactive: e.isInteractive(),
		Frames:      e.frames,
		Age:         e.st.Globals.CurrentAge,
		HeldPage:    e.st.Globals.HeldPage,
		MainCursor:  e.mainCursor,
		Millis:      e.m.Clock.Millis(),
	}
	if e.desc != nil {
		s.StackName = e.desc.Name
	}
	if e.card != nil {
		s.Card = e.card.ID
	}
	return s
}

// State returns the game state.
func (e *Engine) State() *state.GameState { return e.st }

// Card returns the current card, or nil before the first card change.
func (e *Engine) Card() *card.Card { return e.card }

// IsGameStarted reports whether the player left the initial menu.
func (e *Engine) IsGameStarted() bool {
	return e.prev != nil || (e.desc != nil && e.stackID != stack.Menu)
}

func (e *Engine) isInteractive() bool {
	return e.interp != nil && e.card != nil && !e.interp.IsScriptRunning() && !e.blocking
}

func (e *Engine) stackDeps() stacks.Deps {
	return stacks.Deps{
		Host:    e,
		State:   e.st,
		Scripts: e.scripts,
		HasMenu: e.cfg.Features.Menu,
		Logger:  e.logger,
	}
}
