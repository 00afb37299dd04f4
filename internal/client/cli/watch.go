package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sharedtodo/internal/api"
	"github.com/dmitrijs2005/sharedtodo/internal/client/client"
	"github.com/spf13/cobra"
)

func newPingCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c client.Client) error {
				if err := c.Ping(ctx); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "OK")
				return err
			})
		},
	}
}

func newResetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset recurring items of the space whose reset time has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spaceID, err := app.space()
			if err != nil {
				return err
			}
			return app.run(cmd, func(ctx context.Context, c client.Client) error {
				resp, err := c.ScanAndReset(ctx, spaceID)
				if err != nil {
					return err
				}
				return app.printer.resetReport(spaceID, resp)
			})
		},
	}
}

func newWatchCommand(app *App) *cobra.Command {
	var noReset bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the space every time it changes",
		Long: `Print the space every time it changes.

Due recurring items are reset first, the same way a client does when it
comes back online. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spaceID, err := app.space()
			if err != nil {
				return err
			}
			return app.run(cmd, func(ctx context.Context, c client.Client) error {
				if !noReset {
					if _, err := c.ScanAndReset(ctx, spaceID); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "reset skipped: %v\n", err)
					}
				}
				return c.Subscribe(ctx, spaceID, func(s *api.Snapshot) error {
					return app.printer.snapshot(s)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&noReset, "no-reset", false, "do not reset due items before watching")
	return cmd
}
