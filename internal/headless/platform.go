package headless

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/engine"
	"github.com/cory-johannsen/cardstack/internal/game/state"
)

// Config tunes the simulated media.
type Config struct {
	MovieDurationMS  uint32
	EffectDurationMS uint32
	CharWidth        int
	LineHeight       int
	// DataDir, when set, is probed for localized movies.
	DataDir string
}

// DefaultConfig returns durations short enough for quick sessions.
func DefaultConfig() Config {
	return Config{
		MovieDurationMS:  2000,
		EffectDurationMS: 500,
		CharWidth:        8,
		LineHeight:       14,
	}
}

// Platform is a complete set of headless collaborators sharing one clock.
type Platform struct {
	Clock    *Clock
	Video    *Video
	Audio    *Audio
	Graphics *Graphics
	Cursor   *Cursor
	Input    *Input
	Dialogs  *Dialogs
	Text     *Text
	Files    DirFiles
}

// NewPlatform builds the collaborators for replay. A nil replay yields a
// session without input that never quits on its own.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns an error only when the replay timeline is invalid.
func NewPlatform(cfg Config, replay *Replay, logger *zap.Logger) (*Platform, error) {
	if replay == nil {
		replay = &Replay{}
	}
	timeline, err := replay.Timeline()
	if err != nil {
		return nil, err
	}
	clock := NewClock(0)
	return &Platform{
		Clock:    clock,
		Video:    NewVideo(clock, cfg.MovieDurationMS, logger),
		Audio:    NewAudio(clock, cfg.EffectDurationMS, logger),
		Graphics: NewGraphics(),
		Cursor:   NewCursor(state.DefaultCursor),
		Input:    NewInput(clock, timeline, replay.QuitAfterMS),
		Dialogs:  NewDialogs(replay.Dialogs),
		Text:     NewText(cfg.CharWidth, cfg.LineHeight),
		Files:    DirFiles(cfg.DataDir),
	}, nil
}

// Media returns the collaborators in the shape the engine expects.
func (p *Platform) Media() engine.Media {
	m := engine.Media{
		Video:    p.Video,
		Audio:    p.Audio,
		Graphics: p.Graphics,
		Cursor:   p.Cursor,
		Input:    p.Input,
		Clock:    p.Clock,
		Dialogs:  p.Dialogs,
		Text:     p.Text,
	}
	if p.Files != "" {
		m.Files = p.Files
	}
	return m
}
