package engine

import (
	"fmt"

	"github.com/cory-johannsen/cardstack/internal/game/media"
)

// block marks a blocking operation in progress and returns the function
// restoring the previous state.
func (e *Engine) block() func() {
	outer := e.blocking
	e.blocking = true
	return func() { e.blocking = outer }
}

// Wait pumps frames for ms milliseconds.
//
// Postcondition: Returns true when escape skipped a skippable wait; escape
// is consumed in that case. Non-skippable waits ignore escape and end early
// only when the player quits.
func (e *Engine) Wait(ms uint32, skippable bool) (bool, error) {
	defer e.block()()
	end := e.m.Clock.Millis() + ms
	for {
		if err := e.DoFrame(); err != nil {
			return false, err
		}
		if e.escapePressed && skippable {
			e.escapePressed = false
			return true, nil
		}
		if e.m.Clock.Millis() >= end || e.m.Input.ShouldQuit() {
			return false, nil
		}
	}
}

// WaitUntilMovieEnds pumps frames until h ends, escape is pressed or the
// player quits, then removes the movie.
//
// Precondition: h must not be looping.
// Postcondition: Returns an error wrapping ErrLoopingWait for looping movies.
func (e *Engine) WaitUntilMovieEnds(h media.VideoHandle) error {
	if h == nil {
		return nil
	}
	if h.IsLooping() {
		return fmt.Errorf("%w %q", ErrLoopingWait, h.Name())
	}
	defer e.block()()
	defer e.m.Video.RemoveEntry(h)
	for !h.EndOfVideo() && !e.m.Input.ShouldQuit() {
		if err := e.DoFrame(); err != nil {
			return err
		}
		if e.escapePressed {
			e.escapePressed = false
			break
		}
	}
	return nil
}

// PlaySoundBlocking plays effect id and pumps frames until it ends.
func (e *Engine) PlaySoundBlocking(id uint16) error {
	e.m.Audio.PlayEffect(id)
	return e.WaitEffect()
}

// WaitEffect pumps frames until the current effect ends.
func (e *Engine) WaitEffect() error {
	defer e.block()()
	for e.m.Audio.IsEffectPlaying() && !e.m.Input.ShouldQuit() {
		if err := e.DoFrame(); err != nil {
			return err
		}
	}
	return nil
}
