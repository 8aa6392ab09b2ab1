package headless

import (
	"github.com/cory-johannsen/cardstack/internal/game/media"
)

// Dialogs answers modal dialogs from a script. Once a list of answers is
// exhausted the dialog is cancelled.
type Dialogs struct {
	script DialogScript
	opened []media.OptionsState
	pauses int
}

// NewDialogs creates dialogs answering from script.
func NewDialogs(script DialogScript) *Dialogs { return &Dialogs{script: script} }

func (d *Dialogs) RunOptions(st media.OptionsState) media.OptionsResult {
	d.opened = append(d.opened, st)
	res := media.OptionsResult{
		ZipMode:     st.ZipMode,
		Transitions: st.Transitions,
		LoadSlot:    -1,
		SaveSlot:    -1,
	}
	if len(d.script.Options) == 0 {
		return res
	}
	o := d.script.Options[0]
	d.script.Options = d.script.Options[1:]
	res.Action = optionActions[o.Action]
	if o.ZipMode != nil {
		res.ZipMode = *o.ZipMode
	}
	if o.Transitions != nil {
		res.Transitions = *o.Transitions
	}
	if o.LoadSlot != nil {
		res.LoadSlot = *o.LoadSlot
	}
	if o.SaveSlot != nil {
		res.SaveSlot = *o.SaveSlot
	}
	res.SaveDescription = o.Description
	return res
}

func (d *Dialogs) ChooseLoadSlot() int {
	if len(d.script.LoadSlots) == 0 {
		return -1
	}
	slot := d.script.LoadSlots[0]
	d.script.LoadSlots = d.script.LoadSlots[1:]
	return slot
}

func (d *Dialogs) ChooseSaveSlot() (int, string) {
	if len(d.script.SaveSlots) == 0 {
		return -1, ""
	}
	c := d.script.SaveSlots[0]
	d.script.SaveSlots = d.script.SaveSlots[1:]
	return c.Slot, c.Description
}

func (d *Dialogs) Pause() { d.pauses++ }

// Opened returns the state every options dialog was opened with.
func (d *Dialogs) Opened() []media.OptionsState { return append([]media.OptionsState(nil), d.opened...) }

// Pauses returns how many times the pause dialog was shown.
func (d *Dialogs) Pauses() int { return d.pauses }
