package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/cardstack/internal/resource"
)

// ArchiveEntry is one resource of an archive listing.
type ArchiveEntry struct {
	Tag  string `json:"tag"`
	ID   uint16 `json:"id"`
	Size int    `json:"size"`
}

// ArchiveListing is the output of the archive command.
type ArchiveListing struct {
	Archive   string         `json:"archive"`
	Resources []ArchiveEntry `json:"resources"`
}

// NewArchiveCommand creates the archive command.
func NewArchiveCommand(opts *RootOptions) *cobra.Command {
	var tagFilter string

	cmd := &cobra.Command{
		Use:   "archive <file.dat>",
		Short: "List the resources of an archive",
		Long: `List every resource of a zip-backed archive with its tag, id and
uncompressed size, ordered by tag then id.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			listing, err := listArchive(args[0], tagFilter)
			if err != nil {
				return err
			}
			verbosef(cmd.ErrOrStderr(), opts, "read %d resources from %s", len(listing.Resources), args[0])
			return emit(cmd.OutOrStdout(), opts, listing, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %d resources\n", listing.Archive, len(listing.Resources))
				for _, e := range listing.Resources {
					fmt.Fprintf(w, "%-4s %5d %7d\n", e.Tag, e.ID, e.Size)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&tagFilter, "tag", "t", "", "only list resources with this four-character tag")

	return cmd
}

func listArchive(path, tagFilter string) (ArchiveListing, error) {
	a, err := resource.OpenZip(path)
	if err != nil {
		return ArchiveListing{}, err
	}
	defer a.Close()

	tags := a.Tags()
	if tagFilter != "" {
		tag, err := resource.ParseTag(tagFilter)
		if err != nil {
			return ArchiveListing{}, err
		}
		tags = []resource.Tag{tag}
	}

	listing := ArchiveListing{Archive: a.Name(), Resources: []ArchiveEntry{}}
	for _, tag := range tags {
		for _, id := range a.ResourceIDs(tag) {
			data, err := a.GetResource(tag, id)
			if err != nil {
				return ArchiveListing{}, err
			}
			listing.Resources = append(listing.Resources, ArchiveEntry{Tag: tag.String(), ID: id, Size: len(data)})
		}
	}
	return listing, nil
}
