package stacks

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/stack"
)

// OpCreditsRun starts the slideshow.
const OpCreditsRun uint16 = 100

// Credits variables.
const (
	VarCreditsImage uint16 = 0
	VarCreditsMusic uint16 = 1
)

// Credits shows the credit images one after the other, then returns to the
// menu or quits the game.
type Credits struct {
	*script.Parser
	logger   *zap.Logger
	images   uint16
	interval uint32
	hasMenu  bool
	// endingVar, when set, names the variable holding the ending; the good
	// music plays unless it equals badEnding.
	endingVar    uint16
	hasEnding    bool
	badEnding    uint16
	running      bool
	current      uint16
	shownAtMilli uint32
}

// NewCredits creates the credits interpreter from the params images,
// interval_ms, ending_var and bad_ending.
//
// Postcondition: Returns an error when a param is not a number.
func NewCredits(d *stack.Descriptor, deps Deps) (*Credits, error) {
	c := &Credits{
		Parser:  script.NewParser(deps.Host, deps.State),
		logger:  deps.logger().With(zap.String("stack", d.Name)),
		hasMenu: deps.HasMenu,
	}
	var err error
	if c.images, err = paramU16(d, "images", 6); err != nil {
		return nil, err
	}
	interval, err := paramU16(d, "interval_ms", 7067)
	if err != nil {
		return nil, err
	}
	c.interval = uint32(interval)
	if d.Param("ending_var", "") != "" {
		if c.endingVar, err = paramU16(d, "ending_var", 0); err != nil {
			return nil, err
		}
		if c.badEnding, err = paramU16(d, "bad_ending", 0); err != nil {
			return nil, err
		}
		c.hasEnding = true
	}
	c.Parser.Extension = c.extension
	return c, nil
}

// Var implements script.Interpreter.
func (c *Credits) Var(idx uint16) uint16 {
	switch idx {
	case VarCreditsImage:
		return c.current
	case VarCreditsMusic:
		if c.hasEnding && c.Parser.Var(c.endingVar) == c.badEnding {
			return 0
		}
		return 1
	}
	return c.Parser.Var(idx)
}

// Running reports whether the slideshow is in progress.
func (c *Credits) Running() bool { return c.running }

// RunPersistent implements script.Interpreter. It advances to the next
// image once the interval elapsed; past the last image it leaves the
// credits.
func (c *Credits) RunPersistent() error {
	if !c.running {
		return nil
	}
	h := c.Host()
	if h.Millis()-c.shownAtMilli < c.interval {
		return nil
	}
	c.current++
	if c.current > c.images {
		c.running = false
		if c.hasMenu {
			return h.ChangeToStack(uint16(stack.Menu), 1000, 0, 0)
		}
		h.Quit()
		return nil
	}
	h.RedrawCard()
	c.shownAtMilli = h.Millis()
	return nil
}

func (c *Credits) extension(op script.Op, _ *script.Caller) (bool, error) {
	if op.Opcode != OpCreditsRun {
		return false, nil
	}
	c.running = true
	c.current = 0
	c.shownAtMilli = c.Host().Millis()
	c.logger.Debug("credits started", zap.Uint16("images", c.images))
	return true, nil
}
