package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cory-johannsen/cardstack/internal/console"
)

// NewConsoleCommand creates the console command, a client of a running
// player's debug console.
func NewConsoleCommand(opts *RootOptions) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Talk to a running player's debug console",
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "127.0.0.1:50071", "debug console address")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")

	withClient := func(cmd *cobra.Command, fn func(ctx context.Context, c *console.Client) error) error {
		conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", addr, err)
		}
		defer conn.Close()
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		verbosef(cmd.ErrOrStderr(), opts, "console %s", addr)
		return fn(ctx, console.NewClient(conn))
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "status",
		Short:        "Show the player's current stack, card and clock",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *console.Client) error {
				fields, err := c.Status(ctx)
				if err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), opts, fields, func(w io.Writer) {
					keys := make([]string, 0, len(fields))
					for k := range fields {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						fmt.Fprintf(w, "%s: %v\n", k, fields[k])
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:          "exec <command> [args...]",
		Short:        "Run a console command, for example \"var set 12 1\"",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *console.Client) error {
				reply, err := c.Exec(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), opts, map[string]string{"reply": reply}, func(w io.Writer) {
					fmt.Fprintln(w, reply)
				})
			})
		},
	})

	return cmd
}
