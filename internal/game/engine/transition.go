package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/card"
	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/stack"
	"github.com/cory-johannsen/cardstack/internal/game/stacks"
	"github.com/cory-johannsen/cardstack/internal/game/state"
	"github.com/cory-johannsen/cardstack/internal/resource"
)

const (
	mystLibraryCard uint16 = 4134
	menuCard        uint16 = 1000
	dropPageSound   uint16 = 800
)

// ChangeToStack leaves the current stack and shows card of stack id.
// linkSrc and linkDst, when non-zero, are link sounds played before leaving
// and after arriving.
//
// Postcondition: Returns an error wrapping stack.ErrUnknownStack for ids
// missing from the catalog, or the first fatal error of the transition.
func (e *Engine) ChangeToStack(id, cardID, linkSrc, linkDst uint16) error {
	target := stack.ID(id)
	desc, err := e.catalog.Get(target)
	if err != nil {
		return err
	}
	return e.fail(e.changeToStack(target, desc, cardID, linkSrc, linkDst))
}

func (e *Engine) changeToStack(target stack.ID, desc *stack.Descriptor, cardID, linkSrc, linkDst uint16) error {
	e.logger.Debug("changing stack",
		zap.String("stack", desc.Name),
		zap.Uint16("card", cardID),
	)

	e.m.Cursor.SetCursor(0)
	e.currentCursor = 0
	e.m.Audio.StopEffect()
	e.m.Video.StopVideos()

	leavingMyst := e.desc != nil && e.stackID == stack.Myst
	if e.cfg.Features.ME && (leavingMyst || (target == stack.Myst && cardID == mystLibraryCard)) {
		if err := e.playFlyby(target); err != nil {
			return err
		}
	}

	e.m.Audio.StopBackground()
	e.m.Graphics.ClearScreen()

	if linkSrc != 0 {
		if err := e.PlaySoundBlocking(linkSrc); err != nil {
			return err
		}
	}

	if e.card != nil {
		c := e.card
		e.card = nil
		if err := c.Leave(e); err != nil {
			return err
		}
	}

	if desc.HasAge {
		e.st.Globals.CurrentAge = desc.Age
	}
	interp, err := e.registry.New(desc, e.stackDeps())
	if err != nil {
		return fmt.Errorf("changing to stack %q: %w", desc.Name, err)
	}
	old := e.interp
	e.interp, e.stackID, e.desc = interp, target, desc
	e.closeInterpreter(old)
	if e.prev != nil {
		e.closeInterpreter(e.prev.interp)
		e.prev = nil
	}

	if err := e.loadStackArchives(desc); err != nil {
		return err
	}
	e.clearCaches()

	if err := e.changeToCard(cardID, media.TransitionCopy); err != nil {
		return err
	}
	if linkDst != 0 {
		return e.PlaySoundBlocking(linkDst)
	}
	return nil
}

// loadStackArchives replaces the archive set with the archives of desc:
// the localized and plain stack archive, the help archives of the
// Masterpiece edition and the menu archive.
func (e *Engine) loadStackArchives(desc *stack.Descriptor) error {
	e.res.Reset()
	lang := e.cfg.Language
	if lang != "" {
		if err := e.res.Open(desc.Archive, lang, false); err != nil {
			return err
		}
	}
	if err := e.res.Open(desc.Archive, "", true); err != nil {
		return err
	}
	if e.cfg.Features.ME {
		if lang != "" {
			if err := e.res.Open("help", lang, false); err != nil {
				return err
			}
		}
		if err := e.res.Open("help", "", true); err != nil {
			return err
		}
	}
	if e.cfg.Features.Menu {
		return e.res.Open("menu", "", true)
	}
	return nil
}

// fail records err as the session's fatal error. DoFrame returns it once
// the commands of the frame have run.
func (e *Engine) fail(err error) error {
	if err != nil && e.fatal == nil {
		e.fatal = err
	}
	return err
}

func (e *Engine) clearCaches() {
	e.res.Cache().Clear()
	e.m.Graphics.ClearCache()
}

func (e *Engine) playFlyby(target stack.ID) error {
	if target == stack.Myst && !e.cfg.PlayMystFlyby {
		return nil
	}
	filename := e.catalog.FlybyFilename(target)
	if filename == "" {
		return nil
	}
	e.m.Graphics.ClearScreen()
	h, err := e.m.Video.PlayMovie(filename)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrMovieOpen, filename, err)
	}
	h.Center()
	return e.WaitUntilMovieEnds(h)
}

// ChangeToCard leaves the current card and enters cardID of the current
// stack, presenting it with t.
//
// Precondition: a stack is loaded.
// Postcondition: Returns an error wrapping ErrUnknownCard and
// resource.ErrNotFound, leaving the current card in place, when cardID has
// no view. Otherwise returns the
// first fatal error raised while leaving or entering, which also ends the
// frame loop.
func (e *Engine) ChangeToCard(cardID uint16, t media.Transition) error {
	if !e.res.Has(resource.TagView, cardID) {
		return fmt.Errorf("stack %q: %w %d: %w", e.desc.Name, ErrUnknownCard, cardID, resource.ErrNotFound)
	}
	return e.fail(e.changeToCard(cardID, t))
}

func (e *Engine) changeToCard(cardID uint16, t media.Transition) error {
	e.logger.Debug("changing card",
		zap.Uint16("card", cardID),
		zap.Stringer("transition", t),
	)
	e.interp.DisablePersistent()
	e.m.Video.StopVideos()
	e.clearCaches()
	e.mouseClicked, e.mouseMoved, e.escapePressed = false, false, false

	if e.card != nil {
		if err := e.card.Leave(e); err != nil {
			return err
		}
	}
	c, err := card.Load(e.res, cardID)
	if err != nil {
		return fmt.Errorf("stack %q: %w", e.desc.Name, err)
	}
	e.card = c
	if err := c.Enter(e); err != nil {
		return err
	}

	if e.cfg.Features.Demo && e.st.Globals.CurrentAge != state.AgeMystLibrary {
		e.m.Cursor.SetCursor(state.DefaultCursor)
		e.currentCursor = state.DefaultCursor
	}

	if t != media.NoTransition {
		if e.st.Globals.Transitions {
			e.m.Graphics.RunTransition(t, media.ScreenRect, 10, 0)
		} else {
			e.m.Graphics.CopyBackBufferToScreen(media.ScreenRect)
		}
	}
	return nil
}

// GoToMainMenu keeps the current stack and card aside and shows the main
// menu card.
//
// Postcondition: ResumeFromMainMenu restores the saved location.
func (e *Engine) GoToMainMenu() error {
	e.blocking = false
	canSave := e.canSave()

	desc, err := e.catalog.Get(stack.Menu)
	if err != nil {
		return err
	}
	interp, err := e.registry.New(desc, e.stackDeps())
	if err != nil {
		return fmt.Errorf("opening main menu: %w", err)
	}
	if mc, ok := interp.(stacks.MenuController); ok {
		mc.SetGameState(true, canSave)
	}

	e.prev = &overlay{id: e.stackID, desc: e.desc, interp: e.interp, card: e.card}
	e.m.Graphics.SaveStateForMainMenu()
	e.interp, e.stackID, e.desc, e.card = interp, stack.Menu, desc, nil
	e.clearCaches()

	c, err := card.Load(e.res, menuCard)
	if err != nil {
		return fmt.Errorf("opening main menu: %w", err)
	}
	e.card = c
	if err := c.Enter(e); err != nil {
		return err
	}
	e.m.Graphics.CopyBackBufferToScreen(media.ScreenRect)
	return nil
}

// ResumeFromMainMenu leaves the menu and restores the location saved by
// GoToMainMenu.
func (e *Engine) ResumeFromMainMenu() error {
	if e.prev == nil {
		e.logger.Warn("resume requested without a saved location")
		return nil
	}
	if e.card != nil {
		if err := e.card.Leave(e); err != nil {
			return err
		}
	}
	menu := e.interp
	p := e.prev
	e.prev = nil
	e.interp, e.stackID, e.desc, e.card = p.interp, p.id, p.desc, p.card
	e.closeInterpreter(menu)

	e.clearCaches()
	e.mouseClicked, e.mouseMoved, e.escapePressed = false, false, false
	e.m.Graphics.RestoreStateForMainMenu()
	return nil
}

// DropPage drops the held page, redrawing the area showing where it
// belongs.
func (e *Engine) DropPage() {
	g := &e.st.Globals
	page, age := g.HeldPage, g.CurrentAge

	e.m.Audio.PlayEffect(dropPageSound)
	g.HeldPage = state.NoPage

	switch {
	case page == state.WhitePage:
		if age == state.AgeMystLibrary {
			e.interp.ToggleVar(41)
			e.RedrawArea(41)
		}
	case page.IsBlue():
		if page != state.BlueFireplacePage {
			e.RedrawArea(103)
		} else if age == state.AgeMystLibrary {
			e.RedrawArea(24)
		}
	case page.IsRed():
		switch {
		case page == state.RedFireplacePage:
			if age == state.AgeMystLibrary {
				e.RedrawArea(25)
			}
		case page == state.RedStoneshipPage:
			if age == state.AgeStoneship {
				e.RedrawArea(35)
			}
		default:
			e.RedrawArea(102)
		}
	}

	e.SetMainCursor(state.DefaultCursor)
	if e.card != nil {
		e.refreshCursor()
	}
}
