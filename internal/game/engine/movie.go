package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/media"
)

// movieFilename returns the path of movie name in the current stack,
// preferring a localized copy when one exists.
func (e *Engine) movieFilename(name string) string {
	path := e.catalog.MovieFilename(name, e.stackID)
	if e.cfg.Language != "" && e.m.Files != nil {
		localized := e.cfg.Language + "/" + path
		if e.m.Files.HasFile(localized) {
			return localized
		}
	}
	return path
}

// PlayMovie starts movie name of the current stack.
//
// Postcondition: Returns a non-nil handle, or an error wrapping ErrMovieOpen.
func (e *Engine) PlayMovie(name string) (media.VideoHandle, error) {
	filename := e.movieFilename(name)
	h, err := e.m.Video.PlayMovie(filename)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrMovieOpen, filename, err)
	}
	return h, nil
}

// PlayMovieBlocking plays name at (x, y) and waits for it to end or be
// skipped.
func (e *Engine) PlayMovieBlocking(name string, x, y int) error {
	h, err := e.PlayMovie(name)
	if err != nil {
		return err
	}
	h.MoveTo(x, y)
	return e.WaitUntilMovieEnds(h)
}

// PlayAreaVideo starts the movie of the video area at index unless it is
// already playing. Blocking movies are waited for when started.
func (e *Engine) PlayAreaVideo(index int) error {
	if e.card == nil {
		return nil
	}
	mv, ok := e.card.Video(index, e)
	if !ok {
		e.logger.Warn("no video area", zap.Int("index", index), zap.Uint16("card", e.card.ID))
		return nil
	}
	if h, found := e.m.Video.FindVideo(e.movieFilename(mv.Name)); found && !h.EndOfVideo() {
		return nil
	}
	h, err := e.PlayMovie(mv.Name)
	if err != nil {
		return err
	}
	h.MoveTo(int(mv.X), int(mv.Y))
	h.SetLooping(mv.Loop)
	if mv.Blocking {
		return e.WaitUntilMovieEnds(h)
	}
	return nil
}
