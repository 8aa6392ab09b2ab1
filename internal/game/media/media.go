// Package media declares the contracts of the collaborators the engine drives:
// video, audio, graphics, cursor, input, clock, dialogs and text rendering.
// Implementations live outside the engine core; internal/headless provides
// simulated ones.
package media

import "image"

// ScreenRect is the card viewport.
var ScreenRect = image.Rect(0, 0, 544, 333)

// Transition selects the effect used to present a freshly drawn card.
type Transition uint16

// Transition values as stored in card scripts.
const (
	TransitionLeftToRight   Transition = 0
	TransitionRightToLeft   Transition = 1
	TransitionSlideToLeft   Transition = 2
	TransitionSlideToRight  Transition = 3
	TransitionSlideToTop    Transition = 4
	TransitionSlideToBottom Transition = 5
	TransitionTopToBottom   Transition = 6
	TransitionBottomToTop   Transition = 7
	TransitionDissolve      Transition = 8
	TransitionPartToRight   Transition = 9
	TransitionPartToLeft    Transition = 10
	TransitionCopy          Transition = 11
	NoTransition            Transition = 999
)

var transitionNames = map[Transition]string{
	TransitionLeftToRight:   "left-to-right",
	TransitionRightToLeft:   "right-to-left",
	TransitionSlideToLeft:   "slide-to-left",
	TransitionSlideToRight:  "slide-to-right",
	TransitionSlideToTop:    "slide-to-top",
	TransitionSlideToBottom: "slide-to-bottom",
	TransitionTopToBottom:   "top-to-bottom",
	TransitionBottomToTop:   "bottom-to-top",
	TransitionDissolve:      "dissolve",
	TransitionPartToRight:   "part-to-right",
	TransitionPartToLeft:    "part-to-left",
	TransitionCopy:          "copy",
	NoTransition:            "none",
}

// String returns the transition's name.
func (t Transition) String() string {
	if s, ok := transitionNames[t]; ok {
		return s
	}
	return "unknown"
}

// VideoHandle is one playing movie.
type VideoHandle interface {
	Name() string
	EndOfVideo() bool
	IsLooping() bool
	SetLooping(loop bool)
	Center()
	MoveTo(x, y int)
}

// Video manages movie playback.
type Video interface {
	// PlayMovie starts filename and returns its handle.
	// Postcondition: Returns a non-nil handle or a non-nil error.
	PlayMovie(filename string) (VideoHandle, error)
	FindVideo(filename string) (VideoHandle, bool)
	RemoveEntry(h VideoHandle)
	UpdateMovies()
	StopVideos()
	PauseVideos()
	ResumeVideos()
}

// Audio drives the effect and background channels.
type Audio interface {
	PlayEffect(id uint16)
	IsEffectPlaying() bool
	StopEffect()
	PlayBackground(id, volume uint16)
	ChangeBackgroundVolume(volume uint16)
	StopBackground()
}

// Graphics owns the back buffer and the screen.
type Graphics interface {
	ClearScreen()
	// DrawImage copies image id into dst on the back buffer. A zero src
	// means the whole image.
	DrawImage(id uint16, src, dst image.Rectangle)
	RunTransition(t Transition, rect image.Rectangle, steps, delay int)
	CopyBackBufferToScreen(rect image.Rectangle)
	ClearCache()
	SaveStateForMainMenu()
	// RestoreStateForMainMenu puts back the screen saved by
	// SaveStateForMainMenu.
	RestoreStateForMainMenu()
	// Thumbnail returns an encoded screenshot for save records, or nil.
	Thumbnail() []byte
	UpdateScreen()
}

// Cursor controls the mouse cursor image.
type Cursor interface {
	SetCursor(id uint16)
	Show()
	Hide()
}

// EventType enumerates input events.
type EventType int

const (
	EventMouseMove EventType = iota
	EventMouseDown
	EventMouseUp
	EventKeyDown
	EventKeyUp
	EventQuit
	EventReturnToLauncher
)

// Key enumerates the keys the engine reacts to.
type Key int

const (
	KeyOther Key = iota
	KeyEscape
	KeySpace
	KeyF5
	KeyO
	KeyS
	KeyD
)

// Event is one polled input event.
type Event struct {
	Type EventType
	Key  Key
	Ctrl bool
	Pos  image.Point
}

// Input polls platform events.
type Input interface {
	// Poll returns the next pending event, or false when the queue is empty.
	Poll() (Event, bool)
	MousePos() image.Point
	ButtonDown() bool
	ShouldQuit() bool
	RequestQuit()
}

// Clock measures play time in milliseconds and yields the CPU.
type Clock interface {
	Millis() uint32
	Sleep(ms uint32)
}

// FileProber reports whether a data file exists; used to pick localized movies.
type FileProber interface {
	HasFile(path string) bool
}

// OptionsAction is the action chosen in the options dialog.
type OptionsAction int

const (
	OptionsNone OptionsAction = iota
	OptionsDropPage
	OptionsShowMap
	OptionsGoToMenu
	OptionsShowCredits
	OptionsSaveSettings
)

// OptionsState is the input of the options dialog.
type OptionsState struct {
	ZipMode         bool
	Transitions     bool
	CanDropPage     bool
	CanShowMap      bool
	CanReturnToMenu bool
}

// OptionsResult is the outcome of the options dialog.
type OptionsResult struct {
	Action          OptionsAction
	ZipMode         bool
	Transitions     bool
	LoadSlot        int
	SaveSlot        int
	SaveDescription string
}

// Dialogs runs modal UI owned by the platform layer.
type Dialogs interface {
	RunOptions(state OptionsState) OptionsResult
	// ChooseLoadSlot returns the chosen slot or -1.
	ChooseLoadSlot() int
	// ChooseSaveSlot returns the chosen slot or -1, and the entered description.
	ChooseSaveSlot() (int, string)
	Pause()
}

// TextRenderer measures and draws wrapped text.
type TextRenderer interface {
	LineCount(msg string, width int) int
	LineHeight() int
	DrawText(msg string, rect image.Rectangle)
}
