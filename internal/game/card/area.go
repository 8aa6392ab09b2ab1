package card

import (
	"fmt"
	"image"

	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/script"
)

// Kind is the record type of an area.
type Kind uint16

const (
	KindForward      Kind = 0
	KindLeft         Kind = 1
	KindRight        Kind = 2
	KindDown         Kind = 3
	KindUp           Kind = 4
	KindAction       Kind = 5
	KindVideo        Kind = 6
	KindActionSwitch Kind = 7
	KindImageSwitch  Kind = 8
	KindSlider       Kind = 10
	KindDrag         Kind = 11
	KindVideoInfo    Kind = 12
	KindHover        Kind = 13
)

var kindNames = map[Kind]string{
	KindForward:      "forward",
	KindLeft:         "left",
	KindRight:        "right",
	KindDown:         "down",
	KindUp:           "up",
	KindAction:       "action",
	KindVideo:        "video",
	KindActionSwitch: "action_switch",
	KindImageSwitch:  "image_switch",
	KindSlider:       "slider",
	KindDrag:         "drag",
	KindVideoInfo:    "video_info",
	KindHover:        "hover",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}

// Area flags.
const (
	FlagHotspotEnabled uint16 = 1 << 0
	FlagZipMode        uint16 = 1 << 11
)

// NoVar marks an unused drag variable or an unconditional action switch.
const NoVar uint16 = 0xFFFF

// NavigationTransition returns the transition of a navigation area kind.
func NavigationTransition(k Kind) media.Transition {
	switch k {
	case KindForward:
		return media.TransitionDissolve
	case KindLeft:
		return media.TransitionRightToLeft
	case KindRight:
		return media.TransitionLeftToRight
	case KindUp:
		return media.TransitionTopToBottom
	case KindDown:
		return media.TransitionBottomToTop
	default:
		return media.TransitionCopy
	}
}

// Area is one interactive region. Areas live in their card's arena; Parent
// and Children are arena indices, Parent is -1 for top-level areas.
type Area struct {
	Kind     Kind
	Flags    uint16
	Rect     image.Rectangle
	Parent   int
	Children []int
	Cursor   uint16
	Dest     uint16
	// Payload is nil for plain and navigation areas.
	Payload Payload
}

// Enabled reports whether the hotspot flag is set.
func (a *Area) Enabled() bool { return a.Flags&FlagHotspotEnabled != 0 }

// SetEnabled sets or clears the hotspot flag.
func (a *Area) SetEnabled(enabled bool) {
	if enabled {
		a.Flags |= FlagHotspotEnabled
	} else {
		a.Flags &^= FlagHotspotEnabled
	}
}

// Contains reports whether pt lies inside the area.
func (a *Area) Contains(pt image.Point) bool { return pt.In(a.Rect) }

// Payload is the kind-specific data of an area. The set of payload types is
// closed.
type Payload interface {
	payload()
}

// Movie describes a card video.
type Movie struct {
	Name             string
	X, Y             int16
	Loop             bool
	Blocking         bool
	PlayOnCardChange bool
}

// ActionPayload runs a script on mouse up.
type ActionPayload struct {
	Script script.Script
}

// VideoPayload runs a script on mouse up and carries a movie.
type VideoPayload struct {
	Script script.Script
	Movie  Movie
}

// SwitchPayload delegates input to the child selected by Var.
type SwitchPayload struct {
	Var uint16
}

// ImageState is the image drawn for one value of an image switch variable.
type ImageState struct {
	Image uint16
	Rect  image.Rectangle
}

// ImageSwitchPayload draws the state selected by Var.
type ImageSwitchPayload struct {
	Var    uint16
	States []ImageState
}

// DragPayload maps the pointer position to stepped variable values and runs
// opcodes on mouse down, drag and up.
type DragPayload struct {
	ImageSwitchPayload
	MinH, MaxH, MinV, MaxV int16
	StepsH, StepsV         uint16
	VarH, VarV             uint16
	MouseDown              uint16
	MouseDrag              uint16
	MouseUp                uint16
}

// SliderPayload is a drag area playing DragSound when released.
type SliderPayload struct {
	DragPayload
	DragSound uint16
}

// VideoInfoPayload is a drag area tied to a movie.
type VideoInfoPayload struct {
	DragPayload
	Movie string
}

// HoverPayload runs opcodes when the pointer enters and leaves the area.
type HoverPayload struct {
	Enter uint16
	Leave uint16
}

func (*ActionPayload) payload()      {}
func (*VideoPayload) payload()       {}
func (*SwitchPayload) payload()      {}
func (*ImageSwitchPayload) payload() {}
func (*DragPayload) payload()        {}
func (*SliderPayload) payload()      {}
func (*VideoInfoPayload) payload()   {}
func (*HoverPayload) payload()       {}

// drag returns the drag fields of drag-like payloads.
func drag(p Payload) (*DragPayload, bool) {
	switch v := p.(type) {
	case *DragPayload:
		return v, true
	case *SliderPayload:
		return &v.DragPayload, true
	case *VideoInfoPayload:
		return &v.DragPayload, true
	}
	return nil, false
}

// imageSwitch returns the image switch fields of payloads that draw states.
func imageSwitch(p Payload) (*ImageSwitchPayload, bool) {
	if v, ok := p.(*ImageSwitchPayload); ok {
		return v, true
	}
	if d, ok := drag(p); ok {
		return &d.ImageSwitchPayload, true
	}
	return nil, false
}
