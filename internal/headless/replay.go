package headless

import (
	"fmt"
	"image"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/cardstack/internal/game/media"
)

// Replay is the YAML description of a scripted play session.
type Replay struct {
	// QuitAfterMS ends the session at that virtual time; zero never quits.
	QuitAfterMS uint32        `yaml:"quit_after_ms"`
	Events      []ReplayEvent `yaml:"events"`
	Dialogs     DialogScript  `yaml:"dialogs"`
}

// ReplayEvent is one input event delivered once the clock reaches AtMS.
type ReplayEvent struct {
	AtMS uint32 `yaml:"at_ms"`
	Type string `yaml:"type"`
	Key  string `yaml:"key"`
	Ctrl bool   `yaml:"ctrl"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
}

// DialogScript holds the answers given to modal dialogs, consumed in order.
type DialogScript struct {
	Options   []OptionsChoice `yaml:"options"`
	LoadSlots []int           `yaml:"load_slots"`
	SaveSlots []SaveChoice    `yaml:"save_slots"`
}

// OptionsChoice answers one options dialog. Unset settings keep the
// values the dialog was opened with.
type OptionsChoice struct {
	Action      string `yaml:"action"`
	ZipMode     *bool  `yaml:"zip_mode"`
	Transitions *bool  `yaml:"transitions"`
	LoadSlot    *int   `yaml:"load_slot"`
	SaveSlot    *int   `yaml:"save_slot"`
	Description string `yaml:"description"`
}

// SaveChoice answers one save dialog.
type SaveChoice struct {
	Slot        int    `yaml:"slot"`
	Description string `yaml:"description"`
}

// TimedEvent is an event scheduled at a virtual time.
type TimedEvent struct {
	At    uint32
	Event media.Event
}

var eventTypes = map[string]media.EventType{
	"mouse_move":         media.EventMouseMove,
	"mouse_down":         media.EventMouseDown,
	"mouse_up":           media.EventMouseUp,
	"key_down":           media.EventKeyDown,
	"key_up":             media.EventKeyUp,
	"quit":               media.EventQuit,
	"return_to_launcher": media.EventReturnToLauncher,
}

var keys = map[string]media.Key{
	"":       media.KeyOther,
	"other":  media.KeyOther,
	"escape": media.KeyEscape,
	"space":  media.KeySpace,
	"f5":     media.KeyF5,
	"o":      media.KeyO,
	"s":      media.KeyS,
	"d":      media.KeyD,
}

var optionActions = map[string]media.OptionsAction{
	"":              media.OptionsNone,
	"none":          media.OptionsNone,
	"drop_page":     media.OptionsDropPage,
	"show_map":      media.OptionsShowMap,
	"go_to_menu":    media.OptionsGoToMenu,
	"show_credits":  media.OptionsShowCredits,
	"save_settings": media.OptionsSaveSettings,
}

// LoadReplay reads and validates a replay file.
//
// Postcondition: Returns a replay whose events and dialog answers are all
// known, or an error naming the first invalid entry.
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading replay %q: %w", path, err)
	}
	r, err := ParseReplay(data)
	if err != nil {
		return nil, fmt.Errorf("replay %q: %w", path, err)
	}
	return r, nil
}

// ParseReplay decodes and validates replay YAML.
func ParseReplay(data []byte) (*Replay, error) {
	var r Replay
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing replay: %w", err)
	}
	if _, err := r.Timeline(); err != nil {
		return nil, err
	}
	for i, o := range r.Dialogs.Options {
		if _, ok := optionActions[o.Action]; !ok {
			return nil, fmt.Errorf("options answer %d: unknown action %q", i, o.Action)
		}
	}
	return &r, nil
}

// Timeline converts the events, ordered by time. Events sharing a time
// keep their file order.
func (r *Replay) Timeline() ([]TimedEvent, error) {
	out := make([]TimedEvent, 0, len(r.Events))
	for i, ev := range r.Events {
		t, ok := eventTypes[ev.Type]
		if !ok {
			return nil, fmt.Errorf("event %d: unknown type %q", i, ev.Type)
		}
		k, ok := keys[ev.Key]
		if !ok {
			return nil, fmt.Errorf("event %d: unknown key %q", i, ev.Key)
		}
		out = append(out, TimedEvent{
			At: ev.AtMS,
			Event: media.Event{
				Type: t,
				Key:  k,
				Ctrl: ev.Ctrl,
				Pos:  image.Pt(ev.X, ev.Y),
			},
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At < out[j].At })
	return out, nil
}
