package card

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/sound"
	"github.com/cory-johannsen/cardstack/internal/resource"
)

// CardFlagZipDest marks a card as a zip mode destination.
const CardFlagZipDest uint16 = 1 << 1

// CondImage selects a background image by the value of Var.
type CondImage struct {
	Var    uint16
	Images []uint16
}

// PreloadRef is a resource warmed into the cache when the card is entered.
type PreloadRef struct {
	Tag resource.Tag
	ID  uint16
}

// View is the decoded VIEW record of a card.
type View struct {
	Flags      uint16
	CondImages []CondImage
	MainImage  uint16
	Sound      sound.Block
	Preload    []PreloadRef
	RLST       uint16
	Hint       uint16
	Init       uint16
	Exit       uint16
}

// Hint overrides the cursor shown over a top-level area.
type Hint struct {
	Area   uint16
	Cursor int16
	// Var and Cursors select the cursor by variable value when Cursor is -1.
	Var     uint16
	Cursors []uint16
}

// reader decodes little endian fields and keeps the first error.
type reader struct {
	r   *bytes.Reader
	err error
}

func newReader(data []byte) *reader { return &reader{r: bytes.NewReader(data)} }

func (r *reader) u16() uint16 {
	var v uint16
	if r.err == nil {
		r.err = binary.Read(r.r, binary.LittleEndian, &v)
	}
	return v
}

func (r *reader) s16() int16 { return int16(r.u16()) }

// rect keeps the corners as stored. An inverted rectangle is empty.
func (r *reader) rect() image.Rectangle {
	l, t, rt, b := r.s16(), r.s16(), r.s16(), r.s16()
	return image.Rectangle{Min: image.Pt(int(l), int(t)), Max: image.Pt(int(rt), int(b))}
}

func (r *reader) str() string {
	n := r.u16()
	if r.err != nil {
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		r.err = err
		return ""
	}
	return string(buf)
}

func (r *reader) u16s(n uint16) []uint16 {
	out := make([]uint16, n)
	for i := range out {
		out[i] = r.u16()
	}
	return out
}

// ParseView decodes a VIEW record.
//
// Postcondition: Returns the view, or an error for truncated data or an
// invalid sound block (wrapping sound.ErrUnknownAction).
func ParseView(data []byte) (View, error) {
	r := newReader(data)
	var v View
	v.Flags = r.u16()
	n := r.u16()
	for i := uint16(0); i < n && r.err == nil; i++ {
		ci := CondImage{Var: r.u16()}
		ci.Images = r.u16s(r.u16())
		v.CondImages = append(v.CondImages, ci)
	}
	if n == 0 {
		v.MainImage = r.u16()
	}
	if r.err != nil {
		return View{}, fmt.Errorf("reading view images: %w", r.err)
	}
	b, err := sound.Decode(r.r)
	if err != nil {
		return View{}, fmt.Errorf("reading view sound block: %w", err)
	}
	v.Sound = b
	n = r.u16()
	for i := uint16(0); i < n && r.err == nil; i++ {
		kind, id := r.u16(), r.u16()
		switch kind {
		case 0:
			v.Preload = append(v.Preload, PreloadRef{Tag: resource.TagWDIB, ID: id})
		case 1:
			v.Preload = append(v.Preload, PreloadRef{Tag: resource.TagMSND, ID: id})
		default:
			return View{}, fmt.Errorf("unknown preload kind %d", kind)
		}
	}
	v.RLST = r.u16()
	v.Hint = r.u16()
	v.Init = r.u16()
	v.Exit = r.u16()
	if r.err != nil {
		return View{}, fmt.Errorf("reading view: %w", r.err)
	}
	return v, nil
}

// ParseAreas decodes an RLST record into an area arena.
//
// Postcondition: Top-level areas appear in record order; children follow
// their parent and point back to it through Parent.
func ParseAreas(data []byte) ([]Area, error) {
	r := newReader(data)
	n := r.u16()
	var arena []Area
	for i := uint16(0); i < n; i++ {
		if err := loadArea(r, &arena, -1); err != nil {
			return nil, fmt.Errorf("area %d: %w", i, err)
		}
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading areas: %w", r.err)
	}
	return arena, nil
}

// loadArea decodes one record, selecting the variant by its kind; unknown
// kinds become plain areas.
func loadArea(r *reader, arena *[]Area, parent int) error {
	a := Area{Parent: parent}
	a.Kind = Kind(r.u16())
	a.Flags = r.u16()
	a.Rect = r.rect()
	a.Cursor = r.u16()
	a.Dest = r.u16()
	if r.err != nil {
		return r.err
	}
	idx := len(*arena)
	*arena = append(*arena, a)

	var p Payload
	switch a.Kind {
	case KindAction:
		s, err := script.Decode(r.r)
		if err != nil {
			return err
		}
		p = &ActionPayload{Script: s}
	case KindVideo:
		s, err := script.Decode(r.r)
		if err != nil {
			return err
		}
		m := Movie{Name: r.str(), X: r.s16(), Y: r.s16()}
		m.Loop = r.u16() != 0
		m.Blocking = r.u16() != 0
		m.PlayOnCardChange = r.u16() != 0
		p = &VideoPayload{Script: s, Movie: m}
	case KindActionSwitch:
		v := r.u16()
		count := r.u16()
		p = &SwitchPayload{Var: v}
		for i := uint16(0); i < count && r.err == nil; i++ {
			child := len(*arena)
			if err := loadArea(r, arena, idx); err != nil {
				return fmt.Errorf("child %d: %w", i, err)
			}
			(*arena)[idx].Children = append((*arena)[idx].Children, child)
		}
	case KindImageSwitch:
		p = readImageSwitch(r)
	case KindDrag:
		p = readDrag(r)
	case KindSlider:
		d := readDrag(r)
		p = &SliderPayload{DragPayload: *d, DragSound: r.u16()}
	case KindVideoInfo:
		d := readDrag(r)
		p = &VideoInfoPayload{DragPayload: *d, Movie: r.str()}
	case KindHover:
		p = &HoverPayload{Enter: r.u16(), Leave: r.u16()}
	}
	(*arena)[idx].Payload = p
	return r.err
}

func readImageSwitch(r *reader) *ImageSwitchPayload {
	p := &ImageSwitchPayload{Var: r.u16()}
	n := r.u16()
	for i := uint16(0); i < n && r.err == nil; i++ {
		p.States = append(p.States, ImageState{Image: r.u16(), Rect: r.rect()})
	}
	return p
}

func readDrag(r *reader) *DragPayload {
	d := &DragPayload{ImageSwitchPayload: *readImageSwitch(r)}
	d.MinH, d.MaxH, d.MinV, d.MaxV = r.s16(), r.s16(), r.s16(), r.s16()
	d.StepsH, d.StepsV = r.u16(), r.u16()
	d.VarH, d.VarV = r.u16(), r.u16()
	d.MouseDown, d.MouseDrag, d.MouseUp = r.u16(), r.u16(), r.u16()
	return d
}

// ParseHints decodes a HINT record.
func ParseHints(data []byte) ([]Hint, error) {
	r := newReader(data)
	n := r.u16()
	hints := make([]Hint, 0, n)
	for i := uint16(0); i < n && r.err == nil; i++ {
		h := Hint{Area: r.u16(), Cursor: r.s16()}
		if h.Cursor == -1 {
			h.Var = r.u16()
			h.Cursors = r.u16s(r.u16())
		}
		hints = append(hints, h)
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading hints: %w", r.err)
	}
	return hints, nil
}
