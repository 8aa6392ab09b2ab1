package headless

import (
	"image"
	"os"
	"path/filepath"
	"strings"
)

// Text measures text in a fixed-width font and records what it draws.
type Text struct {
	charWidth  int
	lineHeight int
	drawn      []DrawnText
}

// DrawnText is one DrawText call.
type DrawnText struct {
	Msg  string
	Rect image.Rectangle
}

// NewText creates a renderer with the given glyph width and line height.
func NewText(charWidth, lineHeight int) *Text {
	return &Text{charWidth: charWidth, lineHeight: lineHeight}
}

// LineCount returns the number of lines msg wraps to at width pixels,
// breaking on spaces. Words longer than a line are split. Returns 0 when
// not a single glyph fits.
func (t *Text) LineCount(msg string, width int) int {
	if t.charWidth <= 0 {
		return 0
	}
	perLine := width / t.charWidth
	if perLine <= 0 {
		return 0
	}
	lines, used := 1, 0
	for _, word := range strings.Fields(msg) {
		n := len(word)
		switch {
		case used == 0:
		case used+1+n <= perLine:
			used += 1 + n
			continue
		default:
			lines++
		}
		for n > perLine {
			lines++
			n -= perLine
		}
		used = n
	}
	return lines
}

func (t *Text) LineHeight() int { return t.lineHeight }

func (t *Text) DrawText(msg string, rect image.Rectangle) {
	t.drawn = append(t.drawn, DrawnText{Msg: msg, Rect: rect})
}

// Drawn returns every DrawText call.
func (t *Text) Drawn() []DrawnText { return append([]DrawnText(nil), t.drawn...) }

// DirFiles probes for data files under a directory.
type DirFiles string

// HasFile reports whether path exists under the directory.
func (d DirFiles) HasFile(path string) bool {
	_, err := os.Stat(filepath.Join(string(d), filepath.FromSlash(path)))
	return err == nil
}
