package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/client/client"
	"github.com/dmitrijs2005/sharedtodo/internal/client/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatTable, FormatJSON}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Server     string
	Token      string
	Space      string
	Output     string
	Timeout    time.Duration
}

// newClient opens the backend connection; tests replace it.
var newClient = func(cfg *config.Config) (client.Client, error) {
	return client.NewSharedListClient(cfg.ServerEndpointAddr, cfg.AccessToken, cfg.RequestTimeout)
}

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// App is the state shared by the subcommands of one invocation.
type App struct {
	config  *config.Config
	printer *printer
	client  client.Client
}

// NewRootCommand creates the root command of the CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	app := &App{}

	cmd := &cobra.Command{
		Use:   "sharedtodo",
		Short: "Shared to-do lists with completion votes and recurring items",
		Long: `sharedtodo talks to a sharedtodo server.

Members vote items done, agree on deletions and keep a per-day history of
recurring items.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd, opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.close()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to a JSON config file")
	cmd.PersistentFlags().StringVarP(&opts.Server, "server", "a", "", "address and port of the server")
	cmd.PersistentFlags().StringVarP(&opts.Token, "token", "t", "", "access token")
	cmd.PersistentFlags().StringVarP(&opts.Space, "space", "s", "", "space id")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "", "output format (table|json)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 0, "per-call timeout")

	cmd.AddCommand(newPingCommand(app))
	cmd.AddCommand(newAddCommand(app))
	cmd.AddCommand(newListCommand(app))
	cmd.AddCommand(newShowCommand(app))
	cmd.AddCommand(newDoneCommand(app))
	cmd.AddCommand(newDeleteCommand(app))
	cmd.AddCommand(newEditCommand(app))
	cmd.AddCommand(newGridCommand(app))
	cmd.AddCommand(newExportCommand(app))
	cmd.AddCommand(newResetCommand(app))
	cmd.AddCommand(newWatchCommand(app))

	return cmd
}

// setup resolves configuration and output for the command about to run.
// Flags win over every other source.
func (a *App) setup(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := config.LoadConfig(opts.ConfigFile, ".env")
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerEndpointAddr = opts.Server
	}
	if flags.Changed("token") {
		cfg.AccessToken = opts.Token
	}
	if flags.Changed("space") {
		cfg.SpaceID = opts.Space
	}
	if flags.Changed("output") {
		cfg.Output = opts.Output
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = opts.Timeout
	}

	format := cfg.Output
	if format == "" {
		format = FormatJSON
		if isTerminal(cmd.OutOrStdout()) {
			format = FormatTable
		}
	}
	if !isValidFormat(format) {
		return fmt.Errorf("invalid output %q: must be one of %v", format, ValidFormats)
	}

	a.config = cfg
	a.printer = &printer{format: format, w: cmd.OutOrStdout()}
	return nil
}

// connect returns the backend client, dialing on first use.
func (a *App) connect() (client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	c, err := newClient(a.config)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", a.config.ServerEndpointAddr, err)
	}
	a.client = c
	return c, nil
}

func (a *App) close() error {
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

// space returns the space given on the command line or configured.
func (a *App) space() (string, error) {
	if a.config.SpaceID == "" {
		return "", fmt.Errorf("no space: pass --space or set %sSPACE", config.EnvPrefix)
	}
	return a.config.SpaceID, nil
}

// run connects and calls fn with the command context.
func (a *App) run(cmd *cobra.Command, fn func(ctx context.Context, c client.Client) error) error {
	c, err := a.connect()
	if err != nil {
		return err
	}
	return fn(cmd.Context(), c)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
