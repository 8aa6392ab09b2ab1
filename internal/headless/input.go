package headless

import (
	"image"

	"github.com/cory-johannsen/cardstack/internal/game/media"
)

// Input delivers a timeline of events as the virtual clock reaches them.
type Input struct {
	clock     *Clock
	timeline  []TimedEvent
	next      int
	pending   []media.Event
	pos       image.Point
	button    bool
	quit      bool
	quitAfter uint32
}

// NewInput creates an input source replaying timeline. quitAfterMS, when
// non-zero, makes ShouldQuit true from that virtual time on.
func NewInput(clock *Clock, timeline []TimedEvent, quitAfterMS uint32) *Input {
	return &Input{clock: clock, timeline: timeline, quitAfter: quitAfterMS}
}

// Push queues ev for the next Poll regardless of the clock.
func (in *Input) Push(ev media.Event) { in.pending = append(in.pending, ev) }

// Poll returns the next due event and tracks the pointer it carries.
func (in *Input) Poll() (media.Event, bool) {
	var ev media.Event
	switch {
	case len(in.pending) > 0:
		ev = in.pending[0]
		in.pending = in.pending[1:]
	case in.next < len(in.timeline) && in.timeline[in.next].At <= in.clock.Millis():
		ev = in.timeline[in.next].Event
		in.next++
	default:
		return media.Event{}, false
	}
	switch ev.Type {
	case media.EventMouseMove:
		in.pos = ev.Pos
	case media.EventMouseDown:
		in.pos, in.button = ev.Pos, true
	case media.EventMouseUp:
		in.pos, in.button = ev.Pos, false
	}
	return ev, true
}

func (in *Input) MousePos() image.Point { return in.pos }

func (in *Input) ButtonDown() bool { return in.button }

// ShouldQuit reports whether a quit was requested or the session time ran
// out.
func (in *Input) ShouldQuit() bool {
	return in.quit || (in.quitAfter > 0 && in.clock.Millis() >= in.quitAfter)
}

func (in *Input) RequestQuit() { in.quit = true }

// Exhausted reports whether every timeline event was delivered.
func (in *Input) Exhausted() bool { return in.next >= len(in.timeline) && len(in.pending) == 0 }
