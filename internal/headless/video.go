package headless

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/media"
)

// ErrNoMovie is returned when a movie is marked missing.
var ErrNoMovie = errors.New("movie not found")

type movie struct {
	name     string
	duration uint32
	elapsed  uint32
	looping  bool
	centered bool
	x, y     int
}

func (m *movie) Name() string         { return m.name }
func (m *movie) IsLooping() bool      { return m.looping }
func (m *movie) SetLooping(loop bool) { m.looping = loop }
func (m *movie) Center()              { m.centered = true }

func (m *movie) MoveTo(x, y int) {
	m.x, m.y = x, y
	m.centered = false
}

// EndOfVideo reports whether a non-looping movie played for its duration.
func (m *movie) EndOfVideo() bool { return !m.looping && m.elapsed >= m.duration }

// Position returns where the movie is drawn and whether it is centered.
func (m *movie) Position() (x, y int, centered bool) { return m.x, m.y, m.centered }

// Video plays movies for a configured duration of virtual time.
type Video struct {
	clock     *Clock
	logger    *zap.Logger
	durations map[string]uint32
	missing   map[string]bool
	fallback  uint32

	playing    []*movie
	lastUpdate uint32
	paused     bool
	started    []string
}

// NewVideo creates a video sink whose movies last defaultMS unless given a
// duration with SetDuration.
func NewVideo(clock *Clock, defaultMS uint32, logger *zap.Logger) *Video {
	return &Video{
		clock:      clock,
		logger:     logger,
		durations:  make(map[string]uint32),
		missing:    make(map[string]bool),
		fallback:   defaultMS,
		lastUpdate: clock.Millis(),
	}
}

// SetDuration sets the duration of filename.
func (v *Video) SetDuration(filename string, ms uint32) { v.durations[filename] = ms }

// SetMissing makes PlayMovie fail for filename.
func (v *Video) SetMissing(filename string) { v.missing[filename] = true }

// Started returns the filenames passed to PlayMovie, in order.
func (v *Video) Started() []string { return append([]string(nil), v.started...) }

// Playing returns the number of movies not removed or stopped.
func (v *Video) Playing() int { return len(v.playing) }

func (v *Video) PlayMovie(filename string) (media.VideoHandle, error) {
	if v.missing[filename] {
		return nil, fmt.Errorf("%w: %s", ErrNoMovie, filename)
	}
	d, ok := v.durations[filename]
	if !ok {
		d = v.fallback
	}
	// Bring the playing movies up to date so the new one starts at zero.
	v.UpdateMovies()
	m := &movie{name: filename, duration: d}
	v.playing = append(v.playing, m)
	v.started = append(v.started, filename)
	v.logger.Debug("movie started", zap.String("movie", filename), zap.Uint32("duration_ms", d))
	return m, nil
}

func (v *Video) FindVideo(filename string) (media.VideoHandle, bool) {
	for _, m := range v.playing {
		if m.name == filename {
			return m, true
		}
	}
	return nil, false
}

func (v *Video) RemoveEntry(h media.VideoHandle) {
	for i, m := range v.playing {
		if media.VideoHandle(m) == h {
			v.playing = append(v.playing[:i], v.playing[i+1:]...)
			return
		}
	}
}

// UpdateMovies advances every movie by the virtual time elapsed since the
// previous update, unless playback is paused.
func (v *Video) UpdateMovies() {
	now := v.clock.Millis()
	delta := now - v.lastUpdate
	v.lastUpdate = now
	if v.paused {
		return
	}
	for _, m := range v.playing {
		m.elapsed += delta
	}
}

func (v *Video) StopVideos() { v.playing = nil }

func (v *Video) PauseVideos() {
	v.UpdateMovies()
	v.paused = true
}

func (v *Video) ResumeVideos() {
	v.UpdateMovies()
	v.paused = false
}
