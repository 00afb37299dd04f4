package cli

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/client/client"
	"github.com/dmitrijs2005/sharedtodo/internal/filex"
	"github.com/dmitrijs2005/sharedtodo/internal/netx"
	"github.com/spf13/cobra"
)

// download fetches an exported report; tests replace it.
var download = netx.DownloadPresignedURL

func newGridCommand(app *App) *cobra.Command {
	var year int
	var creator string

	cmd := &cobra.Command{
		Use:   "grid <item-id>",
		Short: "Show the completion history of an item for one year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c client.Client) error {
				resp, err := c.YearGrid(ctx, args[0], year, creator)
				if err != nil {
					return err
				}
				shown := year
				if shown == 0 {
					shown = time.Now().Year()
				}
				return app.printer.grid(shown, resp)
			})
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 0, "calendar year (default current)")
	cmd.Flags().StringVar(&creator, "creator", "", "member whose votes are shown as the creator's (default item creator)")
	return cmd
}

func newExportCommand(app *App) *cobra.Command {
	var year int
	var creator, outDir string

	cmd := &cobra.Command{
		Use:   "export <item-id>",
		Short: "Export the yearly history of an item to object storage",
		Long: `Export the yearly history of an item to object storage.

Prints a download link valid for 15 minutes. With --out the report is also
downloaded into that directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c client.Client) error {
				resp, err := c.ExportHistory(ctx, args[0], year, creator)
				if err != nil {
					return err
				}

				var savedTo string
				if outDir != "" {
					savedTo, err = saveExport(ctx, outDir, resp.Key, resp.URL)
					if err != nil {
						return err
					}
				}
				return app.printer.export(resp, savedTo)
			})
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 0, "calendar year (default current)")
	cmd.Flags().StringVar(&creator, "creator", "", "member whose votes are shown as the creator's")
	cmd.Flags().StringVar(&outDir, "out", "", "directory to download the report into")
	return cmd
}

func saveExport(ctx context.Context, dir, key, url string) (string, error) {
	dir, err := filex.EnsureDir(dir)
	if err != nil {
		return "", err
	}

	f, err := filex.CreateFile(dir, path.Base(key))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := download(ctx, url, f); err != nil {
		return "", fmt.Errorf("download export: %w", err)
	}
	return f.Name(), nil
}
