package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/sharedtodo/internal/api"
	"github.com/dmitrijs2005/sharedtodo/internal/client/client"
	"github.com/spf13/cobra"
)

// recurrenceFlags collects --repeat, --every and --days.
type recurrenceFlags struct {
	kind  string
	every int
	days  []int
}

func (r *recurrenceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.kind, "repeat", "r", "once", "recurrence: once, daily, custom or weekly")
	cmd.Flags().IntVar(&r.every, "every", 1, "interval in days for --repeat custom")
	cmd.Flags().IntSliceVar(&r.days, "days", nil, "weekdays for --repeat weekly (0=Sunday .. 6=Saturday)")
}

func (r *recurrenceFlags) recurrence() *api.Recurrence {
	rec := &api.Recurrence{Type: strings.ToLower(r.kind)}
	switch rec.Type {
	case "custom":
		rec.Interval = r.every
	case "weekly":
		rec.Weekdays = r.days
	}
	return rec
}

func newAddCommand(app *App) *cobra.Command {
	rf := &recurrenceFlags{}

	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Add an item to the space",
		Example: `  sharedtodo add Water the plants --repeat custom --every 3
  sharedtodo add Take out bins --repeat weekly --days 1,4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spaceID, err := app.space()
			if err != nil {
				return err
			}
			return app.run(cmd, func(ctx context.Context, c client.Client) error {
				item, err := c.AddItem(ctx, spaceID, strings.Join(args, " "), rf.recurrence())
				if err != nil {
					return err
				}
				return app.printer.item(item)
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the items of the space, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spaceID, err := app.space()
			if err != nil {
				return err
			}
			return app.run(cmd, func(ctx context.Context, c client.Client) error {
				items, err := c.ListItems(ctx, spaceID)
				if err != nil {
					return err
				}
				return app.printer.items(items)
			})
		},
	}
}

func newShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c client.Client) error {
				item, err := c.GetItem(ctx, args[0])
				if err != nil {
					return err
				}
				return app.printer.item(item)
			})
		},
	}
}

func newDoneCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <item-id>",
		Short: "Toggle your completion vote on an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c client.Client) error {
				item, err := c.ToggleCompletion(ctx, args[0])
				if err != nil {
					return err
				}
				return app.printer.item(item)
			})
		},
	}
}

func newDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <item-id>",
		Aliases: []string{"rm"},
		Short:   "Toggle your delete vote on an item",
		Long: `Toggle your delete vote on an item.

The item is removed once two members voted, or right away when its creator
votes within three minutes of creating it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c client.Client) error {
				resp, err := c.ToggleDeletion(ctx, args[0])
				if err != nil {
					return err
				}
				return app.printer.deletion(resp)
			})
		},
	}
}

func newEditCommand(app *App) *cobra.Command {
	rf := &recurrenceFlags{}

	cmd := &cobra.Command{
		Use:   "edit <item-id> <text>...",
		Short: "Change the text of an item and optionally its recurrence",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec *api.Recurrence
			if cmd.Flags().Changed("repeat") {
				rec = rf.recurrence()
			}
			return app.run(cmd, func(ctx context.Context, c client.Client) error {
				item, err := c.EditItem(ctx, args[0], strings.Join(args[1:], " "), rec)
				if err != nil {
					return err
				}
				return app.printer.item(item)
			})
		},
	}
	rf.register(cmd)
	return cmd
}
