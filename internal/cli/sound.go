package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/cardstack/internal/game/sound"
)

// SoundReport is the output of the sound command.
type SoundReport struct {
	Words       []uint16 `json:"words"`
	Description string   `json:"description"`
}

// NewSoundCommand creates the sound command.
func NewSoundCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sound -- <word>...",
		Short: "Decode a sound block given as script arguments",
		Long: `Decode a sound block written as 16-bit words, the way scripts pass
it as opcode arguments. Words may be decimal, hexadecimal (0x...) or
negative. Put the words after -- so negative action codes are not read as
flags.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := parseWords(args)
			if err != nil {
				return err
			}
			b, err := sound.DecodeWords(words)
			if err != nil {
				return err
			}
			report := SoundReport{Words: words, Description: describeSound(b)}
			return emit(cmd.OutOrStdout(), opts, report, func(w io.Writer) {
				fmt.Fprintln(w, report.Description)
			})
		},
	}
}

func parseWords(args []string) ([]uint16, error) {
	words := make([]uint16, len(args))
	for i, s := range args {
		v, err := strconv.ParseInt(s, 0, 32)
		if err != nil || v < -0x8000 || v > 0xFFFF {
			return nil, fmt.Errorf("invalid word %q: must fit in 16 bits", s)
		}
		words[i] = uint16(v)
	}
	return words, nil
}
