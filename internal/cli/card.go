package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/cardstack/internal/game/card"
	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/sound"
	"github.com/cory-johannsen/cardstack/internal/resource"
)

// AreaReport describes one area of a card.
type AreaReport struct {
	Index   int      `json:"index"`
	Parent  int      `json:"parent"`
	Summary string   `json:"summary"`
	Script  []string `json:"script,omitempty"`
}

// CardReport is the output of the card command.
type CardReport struct {
	ID      uint16       `json:"id"`
	Flags   uint16       `json:"flags"`
	Image   string       `json:"image"`
	Sound   string       `json:"sound"`
	Preload []string     `json:"preload"`
	Areas   []AreaReport `json:"areas"`
	Hints   []string     `json:"hints"`
	Init    []string     `json:"init"`
	Exit    []string     `json:"exit"`
}

// archiveResources adapts a single archive to card.Resources.
type archiveResources struct {
	archive resource.Archive
}

func (r archiveResources) Get(tag resource.Tag, id uint16) ([]byte, error) {
	return r.archive.GetResource(tag, id)
}

// NewCardCommand creates the card command.
func NewCardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "card <file.dat> <id>",
		Short: "Decode a card",
		Long: `Decode the VIEW record of a card together with its areas, hints
and INIT/EXIT scripts.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[1], 10, 16)
			if err != nil {
				return fmt.Errorf("invalid card id %q: %w", args[1], err)
			}
			a, err := resource.OpenZip(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := card.Load(archiveResources{archive: a}, uint16(id))
			if err != nil {
				return err
			}
			report := describeCard(c)
			return emit(cmd.OutOrStdout(), opts, report, func(w io.Writer) { writeCardReport(w, report) })
		},
	}
}

func describeCard(c *card.Card) CardReport {
	v := c.View
	report := CardReport{
		ID:      c.ID,
		Flags:   v.Flags,
		Image:   describeImage(v),
		Sound:   describeSound(v.Sound),
		Preload: []string{},
		Areas:   []AreaReport{},
		Hints:   []string{},
		Init:    describeScript(c.Init),
		Exit:    describeScript(c.Exit),
	}
	for _, p := range v.Preload {
		report.Preload = append(report.Preload, fmt.Sprintf("%s %d", p.Tag, p.ID))
	}
	for i := range c.Areas() {
		report.Areas = append(report.Areas, describeArea(i, &c.Areas()[i]))
	}
	for _, h := range c.Hints {
		if h.Cursor == -1 {
			report.Hints = append(report.Hints, fmt.Sprintf("area %d var %d cursors %v", h.Area, h.Var, h.Cursors))
			continue
		}
		report.Hints = append(report.Hints, fmt.Sprintf("area %d cursor %d", h.Area, h.Cursor))
	}
	return report
}

func describeImage(v card.View) string {
	if len(v.CondImages) == 0 {
		return strconv.Itoa(int(v.MainImage))
	}
	parts := make([]string, len(v.CondImages))
	for i, ci := range v.CondImages {
		parts[i] = fmt.Sprintf("var %d selects %v", ci.Var, ci.Images)
	}
	return strings.Join(parts, "; ")
}

func describeSound(b sound.Block) string {
	switch {
	case b.Sound == sound.ActionContinue:
		return "continue"
	case b.Sound == sound.ActionStop:
		return "stop"
	case b.Sound == sound.ActionChangeVolume:
		return fmt.Sprintf("volume %d", b.Volume)
	case b.Sound == sound.ActionConditional:
		items := make([]string, len(b.Items))
		for i, it := range b.Items {
			items[i] = describeSound(sound.Block{Sound: it.Action, Volume: it.Volume})
		}
		return fmt.Sprintf("var %d selects [%s]", b.Var, strings.Join(items, ", "))
	case b.Sound > 0:
		return fmt.Sprintf("play %d volume %d", b.Sound, b.Volume)
	}
	return fmt.Sprintf("action(%d)", b.Sound)
}

func describeScript(s script.Script) []string {
	out := make([]string, len(s))
	for i, op := range s {
		out[i] = op.String()
	}
	return out
}

func describeDrag(d *card.DragPayload) string {
	return fmt.Sprintf(" var=%d states=%d h=%d..%d/%d v=%d..%d/%d",
		d.Var, len(d.States), d.MinH, d.MaxH, d.StepsH, d.MinV, d.MaxV, d.StepsV)
}

func describeArea(index int, a *card.Area) AreaReport {
	r := AreaReport{Index: index, Parent: a.Parent}
	var b strings.Builder
	fmt.Fprintf(&b, "%s flags=0x%04x rect=%v cursor=%d dest=%d", a.Kind, a.Flags, a.Rect, a.Cursor, a.Dest)
	switch p := a.Payload.(type) {
	case *card.ActionPayload:
		r.Script = describeScript(p.Script)
	case *card.VideoPayload:
		fmt.Fprintf(&b, " movie=%q at=(%d,%d)", p.Movie.Name, p.Movie.X, p.Movie.Y)
		r.Script = describeScript(p.Script)
	case *card.SwitchPayload:
		fmt.Fprintf(&b, " var=%d", p.Var)
	case *card.ImageSwitchPayload:
		fmt.Fprintf(&b, " var=%d states=%d", p.Var, len(p.States))
	case *card.DragPayload:
		b.WriteString(describeDrag(p))
	case *card.SliderPayload:
		b.WriteString(describeDrag(&p.DragPayload))
		fmt.Fprintf(&b, " sound=%d", p.DragSound)
	case *card.VideoInfoPayload:
		b.WriteString(describeDrag(&p.DragPayload))
		fmt.Fprintf(&b, " movie=%q", p.Movie)
	case *card.HoverPayload:
		fmt.Fprintf(&b, " enter=%d leave=%d", p.Enter, p.Leave)
	}
	r.Summary = b.String()
	return r
}

func writeScript(w io.Writer, name string, ops []string) {
	if len(ops) == 0 {
		fmt.Fprintf(w, "%s: none\n", name)
		return
	}
	fmt.Fprintf(w, "%s:\n", name)
	for _, op := range ops {
		fmt.Fprintf(w, "  %s\n", op)
	}
}

func writeCardReport(w io.Writer, r CardReport) {
	fmt.Fprintf(w, "card %d\n", r.ID)
	fmt.Fprintf(w, "flags: 0x%04x\n", r.Flags)
	fmt.Fprintf(w, "image: %s\n", r.Image)
	fmt.Fprintf(w, "sound: %s\n", r.Sound)
	if len(r.Preload) == 0 {
		fmt.Fprintln(w, "preload: none")
	} else {
		fmt.Fprintf(w, "preload: %s\n", strings.Join(r.Preload, ", "))
	}
	fmt.Fprintf(w, "areas: %d\n", len(r.Areas))
	depth := make(map[int]int, len(r.Areas))
	for _, a := range r.Areas {
		if a.Parent >= 0 {
			depth[a.Index] = depth[a.Parent] + 1
		}
		indent := strings.Repeat("  ", depth[a.Index]+1)
		fmt.Fprintf(w, "%s[%d] %s\n", indent, a.Index, a.Summary)
		for _, op := range a.Script {
			fmt.Fprintf(w, "%s    %s\n", indent, op)
		}
	}
	for _, h := range r.Hints {
		fmt.Fprintf(w, "hint: %s\n", h)
	}
	writeScript(w, "init", r.Init)
	writeScript(w, "exit", r.Exit)
}
