package script

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/sound"
)

// Caller describes the area whose activation runs a script. Scripts run from
// card INIT/EXIT or persistent hooks have no caller.
type Caller struct {
	// Index is the position of the area, or of the top-level switch holding
	// it, in the card's top-level area list.
	Index int
	Kind  uint16
	Dest  uint16
	// Var is the area's switch variable, valid when HasVar is set.
	Var    uint16
	HasVar bool
}

// Host is the session context through which scripts act on the engine.
// Methods returning an error may pump frames or change cards, and propagate
// fatal conditions.
type Host interface {
	ChangeToCard(card uint16, t media.Transition) error
	ChangeToStack(stack, card, linkSrcSound, linkDstSound uint16) error
	CurrentCardID() uint16
	CurrentStackID() uint16

	PlayEffect(id uint16)
	StopEffect()
	WaitEffect() error
	PlaySoundBlocking(id uint16) error
	ApplySoundBlock(b sound.Block) error
	StopBackground()

	// PlayMovieBlocking plays name from the current stack's movie folder at
	// (x, y) and waits for it to end or be skipped.
	PlayMovieBlocking(name string, x, y int) error
	// PlayAreaVideo starts the movie attached to the video area at index.
	PlayAreaVideo(index int) error
	// Wait pumps frames for ms milliseconds and reports whether escape
	// skipped it. Non-skippable waits ignore escape.
	Wait(ms uint32, skippable bool) (bool, error)

	RedrawArea(v uint16)
	RedrawCard()
	// SetAreaEnabled toggles the hotspot flag of the area at index and
	// reports whether the index was valid.
	SetAreaEnabled(index int, enabled bool) bool
	AreaEnabled(index int) (enabled, ok bool)

	SetMainCursor(cursor uint16)
	MainCursor() uint16

	Millis() uint32
	Quit()
	DisplayMessage(msg string) error
	Logger() *zap.Logger
}

// MenuHost is implemented by hosts supporting the menu overlay.
type MenuHost interface {
	Host
	ResumeFromMainMenu() error
	RunLoadDialog() error
	RunSaveDialog() error
}

// Interpreter is the per-stack script interpreter.
type Interpreter interface {
	// RunPersistent runs the stack's per-frame logic. Called only while the
	// engine is interactive.
	RunPersistent() error
	OnEnter(card uint16, ops Script) error
	OnExit(card uint16, ops Script) error
	// OnActivate runs the script of an activated area.
	OnActivate(ops Script, caller *Caller) error
	// RunOpcode runs a single instruction issued by an area handler.
	RunOpcode(op Op, caller *Caller) error
	Var(idx uint16) uint16
	SetVar(idx, value uint16) bool
	ToggleVar(idx uint16)
	IsScriptRunning() bool
	DisablePersistent()
	Close() error
}
