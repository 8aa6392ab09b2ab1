package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/cardstack/internal/storage/sqlite"
)

// SaveEntry is one slot of a save listing.
type SaveEntry struct {
	Slot        int       `json:"slot"`
	ID          string    `json:"id"`
	Description string    `json:"description"`
	AutoSave    bool      `json:"auto_save"`
	SavedAt     time.Time `json:"saved_at"`
}

// NewSavesCommand creates the saves command and its subcommands.
func NewSavesCommand(opts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "saves",
		Short: "Inspect a SQLite save store",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "saves.db", "path to the SQLite save store")

	cmd.AddCommand(&cobra.Command{
		Use:          "list",
		Short:        "List saved slots",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			entries := make([]SaveEntry, 0, len(records))
			for _, rec := range records {
				entries = append(entries, SaveEntry{
					Slot:        rec.Slot,
					ID:          rec.ID.String(),
					Description: rec.Description,
					AutoSave:    rec.AutoSave,
					SavedAt:     rec.SavedAt,
				})
			}
			return emit(cmd.OutOrStdout(), opts, entries, func(w io.Writer) {
				if len(entries) == 0 {
					fmt.Fprintln(w, "no saves")
					return
				}
				for _, e := range entries {
					kind := "manual"
					if e.AutoSave {
						kind = "auto"
					}
					fmt.Fprintf(w, "%3d %-6s %s %q\n", e.Slot, kind, e.SavedAt.Format(time.RFC3339), e.Description)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:          "delete <slot>",
		Short:        "Delete a saved slot",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := strconv.Atoi(args[0])
			if err != nil || slot < 0 {
				return fmt.Errorf("invalid slot %q", args[0])
			}
			store, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), slot); err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), opts, map[string]int{"deleted": slot}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted slot %d\n", slot)
			})
		},
	})

	return cmd
}
