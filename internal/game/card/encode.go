package card

import (
	"bytes"
	"encoding/binary"
	"image"

	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/sound"
	"github.com/cory-johannsen/cardstack/internal/resource"
)

// writer emits little endian fields in the layout the parsers read.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) u16(v uint16) { _ = binary.Write(&w.buf, binary.LittleEndian, v) }

func (w *writer) s16(v int16) { w.u16(uint16(v)) }

func (w *writer) rect(r image.Rectangle) {
	w.s16(int16(r.Min.X))
	w.s16(int16(r.Min.Y))
	w.s16(int16(r.Max.X))
	w.s16(int16(r.Max.Y))
}

func (w *writer) str(s string) {
	w.u16(uint16(len(s)))
	w.buf.WriteString(s)
}

func (w *writer) flag(b bool) {
	if b {
		w.u16(1)
	} else {
		w.u16(0)
	}
}

// EncodeView returns the VIEW record of v.
func EncodeView(v View) []byte {
	var w writer
	w.u16(v.Flags)
	w.u16(uint16(len(v.CondImages)))
	for _, ci := range v.CondImages {
		w.u16(ci.Var)
		w.u16(uint16(len(ci.Images)))
		for _, img := range ci.Images {
			w.u16(img)
		}
	}
	if len(v.CondImages) == 0 {
		w.u16(v.MainImage)
	}
	w.buf.Write(sound.Encode(v.Sound))
	w.u16(uint16(len(v.Preload)))
	for _, p := range v.Preload {
		kind := uint16(0)
		if p.Tag == resource.TagMSND {
			kind = 1
		}
		w.u16(kind)
		w.u16(p.ID)
	}
	w.u16(v.RLST)
	w.u16(v.Hint)
	w.u16(v.Init)
	w.u16(v.Exit)
	return w.buf.Bytes()
}

// EncodeAreas returns the RLST record of an arena built by ParseAreas or by
// hand. Children are written under their parent switch.
func EncodeAreas(arena []Area) []byte {
	var w writer
	var top []int
	for i := range arena {
		if arena[i].Parent < 0 {
			top = append(top, i)
		}
	}
	w.u16(uint16(len(top)))
	for _, i := range top {
		encodeArea(&w, arena, i)
	}
	return w.buf.Bytes()
}

func encodeArea(w *writer, arena []Area, idx int) {
	a := &arena[idx]
	w.u16(uint16(a.Kind))
	w.u16(a.Flags)
	w.rect(a.Rect)
	w.u16(a.Cursor)
	w.u16(a.Dest)
	switch p := a.Payload.(type) {
	case *ActionPayload:
		w.buf.Write(script.Encode(p.Script))
	case *VideoPayload:
		w.buf.Write(script.Encode(p.Script))
		w.str(p.Movie.Name)
		w.s16(p.Movie.X)
		w.s16(p.Movie.Y)
		w.flag(p.Movie.Loop)
		w.flag(p.Movie.Blocking)
		w.flag(p.Movie.PlayOnCardChange)
	case *SwitchPayload:
		w.u16(p.Var)
		w.u16(uint16(len(a.Children)))
		for _, c := range a.Children {
			encodeArea(w, arena, c)
		}
	case *ImageSwitchPayload:
		writeImageSwitch(w, p)
	case *DragPayload:
		writeDrag(w, p)
	case *SliderPayload:
		writeDrag(w, &p.DragPayload)
		w.u16(p.DragSound)
	case *VideoInfoPayload:
		writeDrag(w, &p.DragPayload)
		w.str(p.Movie)
	case *HoverPayload:
		w.u16(p.Enter)
		w.u16(p.Leave)
	}
}

func writeImageSwitch(w *writer, p *ImageSwitchPayload) {
	w.u16(p.Var)
	w.u16(uint16(len(p.States)))
	for _, s := range p.States {
		w.u16(s.Image)
		w.rect(s.Rect)
	}
}

func writeDrag(w *writer, d *DragPayload) {
	writeImageSwitch(w, &d.ImageSwitchPayload)
	for _, v := range []int16{d.MinH, d.MaxH, d.MinV, d.MaxV} {
		w.s16(v)
	}
	for _, v := range []uint16{d.StepsH, d.StepsV, d.VarH, d.VarV, d.MouseDown, d.MouseDrag, d.MouseUp} {
		w.u16(v)
	}
}

// EncodeHints returns the HINT record of hints.
func EncodeHints(hints []Hint) []byte {
	var w writer
	w.u16(uint16(len(hints)))
	for _, h := range hints {
		w.u16(h.Area)
		w.s16(h.Cursor)
		if h.Cursor == -1 {
			w.u16(h.Var)
			w.u16(uint16(len(h.Cursors)))
			for _, c := range h.Cursors {
				w.u16(c)
			}
		}
	}
	return w.buf.Bytes()
}
