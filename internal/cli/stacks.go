package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/cardstack/internal/game/stack"
)

// StackEntry is one stack of the catalog listing.
type StackEntry struct {
	ID          uint16 `json:"id"`
	Name        string `json:"name"`
	Archive     string `json:"archive"`
	Age         string `json:"age,omitempty"`
	Interpreter string `json:"interpreter"`
	Saveable    bool   `json:"saveable"`
	MovieDir    string `json:"movie_dir,omitempty"`
}

// NewStacksCommand creates the stacks command.
func NewStacksCommand(opts *RootOptions) *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "stacks",
		Short: "List the stack catalog",
		Long: `List the stacks of the built-in catalog, merged with the overrides
of a catalog file when --catalog is given.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := stack.LoadCatalog(catalogPath)
			if err != nil {
				return err
			}
			entries := make([]StackEntry, 0, len(catalog.All()))
			for _, d := range catalog.All() {
				e := StackEntry{
					ID:          uint16(d.ID),
					Name:        d.Name,
					Archive:     d.Archive,
					Interpreter: d.Interpreter,
					Saveable:    d.Saveable,
					MovieDir:    d.MovieDir,
				}
				if d.HasAge {
					e.Age = d.Age.String()
				}
				entries = append(entries, e)
			}
			return emit(cmd.OutOrStdout(), opts, entries, func(w io.Writer) {
				fmt.Fprintf(w, "%3s %-12s %-8s %-12s %-8s %s\n", "ID", "NAME", "ARCHIVE", "AGE", "INTERP", "SAVE")
				for _, e := range entries {
					age := e.Age
					if age == "" {
						age = "-"
					}
					fmt.Fprintf(w, "%3d %-12s %-8s %-12s %-8s %t\n", e.ID, e.Name, e.Archive, age, e.Interpreter, e.Saveable)
				}
			})
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "stack catalog YAML merged over the built-in catalog")

	return cmd
}
