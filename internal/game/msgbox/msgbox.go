// Package msgbox computes where a message box is drawn: a rectangle grown
// around an anchor point until the wrapped text fits, kept inside the
// screen margins.
package msgbox

import (
	"errors"
	"image"
)

// Screen geometry the layout clamps to.
const (
	marginLeft   = 10
	marginTop    = 10
	marginRight  = 630
	marginBottom = 470
	screenBottom = 479

	// Anchor nudges only apply on the far side of these lines.
	centerX      = 320
	centerTop    = 240
	centerBottom = 235

	nudge = 10

	// textPadding is the inset of the text block inside the box.
	textPadding = 6
)

// Params are the sizing parameters of one kind of message box.
type Params struct {
	InitialWidth    int
	InitialHeight   int
	IncrementWidth  int
	IncrementHeight int
	// TimeoutPerChar scales how long the box stays up, in units of 10ms
	// per character.
	TimeoutPerChar int
}

// DefaultParams are used by stacks that show script messages.
var DefaultParams = Params{
	InitialWidth:    100,
	InitialHeight:   80,
	IncrementWidth:  20,
	IncrementHeight: 10,
	TimeoutPerChar:  5,
}

// Validate reports whether the box is guaranteed to stop growing.
func (p Params) Validate() error {
	if p.IncrementWidth <= 0 || p.IncrementHeight <= 0 {
		return errors.New("msgbox: increments must be positive")
	}
	return nil
}

// Measurer wraps text into lines.
type Measurer interface {
	LineCount(msg string, width int) int
	LineHeight() int
}

// Box is a computed layout.
type Box struct {
	// Rect is the translucent box.
	Rect image.Rectangle
	// Text is the block the message is drawn into.
	Text  image.Rectangle
	Lines int
	// Anchor is the anchor point after the edge nudges.
	Anchor image.Point
}

// center mirrors a rectangle of w by h centered on (x, y); odd sizes put
// the extra pixel on the right and bottom.
func center(x, y, w, h int) image.Rectangle {
	return image.Rect(x-w/2, y-h/2, x+(w+1)/2, y+(h+1)/2)
}

// Layout grows a box around anchor until msg fits or the box covers the
// whole area inside the margins.
//
// The top clamp fires on the margin itself while the other edges must cross
// it, and the bottom nudge uses a lower threshold than the top one.
//
// Precondition: p.Validate() returns nil.
// Postcondition: Box.Rect lies within the screen; Box.Lines is the line
// count of the final width.
func Layout(p Params, m Measurer, msg string, anchor image.Point) Box {
	width, height := p.InitialWidth, p.InitialHeight
	pt := anchor
	var rct image.Rectangle
	lines := 0
	for {
		width += p.IncrementWidth
		height += p.IncrementHeight
		rct = center(pt.X, pt.Y, width, height)
		if rct.Min.X < marginLeft {
			rct.Min.X = marginLeft
			if pt.X < centerX {
				pt.X += nudge
			}
		}
		if rct.Max.X >= marginRight {
			rct.Max.X = marginRight
			if pt.X > centerX {
				pt.X -= nudge
			}
		}
		if rct.Min.Y <= marginTop {
			rct.Min.Y = marginTop
			if pt.Y < centerTop {
				pt.Y += nudge
			}
		}
		if rct.Max.Y >= marginBottom {
			rct.Max.Y = marginBottom
			if pt.Y > centerBottom {
				pt.Y -= nudge
			}
		}
		tooLarge := rct == image.Rect(marginLeft, marginTop, marginRight, marginBottom)

		lines = m.LineCount(msg, rct.Dx()-2*textPadding)
		if lines > 0 && lines*m.LineHeight()+3*textPadding < rct.Dy() {
			break
		}
		if tooLarge {
			break
		}
	}

	rct.Max.Y = rct.Min.Y + lines*m.LineHeight() + 2*textPadding
	if rct.Max.Y > screenBottom {
		rct.Max.Y = screenBottom
	}
	return Box{
		Rect:   rct,
		Text:   rct.Inset(textPadding),
		Lines:  lines,
		Anchor: pt,
	}
}

// TimeoutMillis returns how long msg stays on screen.
func (p Params) TimeoutMillis(msg string) uint32 {
	return uint32(len(msg) * p.TimeoutPerChar * 10)
}
