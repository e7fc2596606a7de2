// Package cli is the `todo` command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada-sync/internal/auth"
	"github.com/idilsaglam/tada-sync/internal/backend"
	"github.com/idilsaglam/tada-sync/internal/config"
	"github.com/idilsaglam/tada-sync/internal/logging"
	"github.com/idilsaglam/tada-sync/internal/ui"
)

// snapshotWait bounds how long one-shot commands wait for the first push.
const snapshotWait = 15 * time.Second

// usageError marks bad invocations (exit code 2).
type usageError struct{ error }

func usagef(format string, a ...any) error { return usageError{fmt.Errorf(format, a...)} }

// app is what every command shares once flags are parsed.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	logCloser io.Closer
	store     *auth.Store
	session   *auth.Session

	// client, when set, replaces the configured backend.
	client backend.Client
	closer io.Closer

	in          io.Reader
	out, errOut io.Writer
}

// Option adjusts the command tree, mostly for tests.
type Option func(*app)

// WithClient makes every command use c instead of the configured backend.
func WithClient(c backend.Client) Option { return func(a *app) { a.client = c } }

// WithOutput redirects what commands print.
func WithOutput(out, errOut io.Writer) Option {
	return func(a *app) { a.out, a.errOut = out, errOut }
}

// WithInput replaces stdin, read by `auth login`.
func WithInput(r io.Reader) Option { return func(a *app) { a.in = r } }

// WithAuthStore overrides ~/.tada as the credentials directory.
func WithAuthStore(s *auth.Store) Option { return func(a *app) { a.store = s } }

func newApp(opts []Option) *app {
	a := &app{}
	for _, o := range opts {
		o(a)
	}
	return a
}

// NewRootCmd builds the command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	return newApp(opts).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "A to-do list that stays in sync with your data service",
		Long: `todo shows your to-do list and keeps it in sync: every change made here or
anywhere else arrives as a fresh copy of the whole list.

Examples:
  todo                     interactive list
  todo add "Buy milk"
  todo ls --plain
  todo done 2
  todo rm 3
  todo auth login`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          noArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd)
		},
	}
	if a.in != nil {
		root.SetIn(a.in)
	}
	if a.out != nil {
		root.SetOut(a.out)
	}
	if a.errOut != nil {
		root.SetErr(a.errOut)
	}
	config.BindFlags(root.PersistentFlags())
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(
		a.newListCmd(),
		a.newWatchCmd(),
		a.newAddCmd(),
		a.newDoneCmd(),
		a.newRmCmd(),
		a.newExportCmd(),
		a.newAuthCmd(),
	)
	return root
}

// Run executes the command line and returns an exit code
// (0 ok, 1 error, 2 usage).
func Run(args []string, opts ...Option) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(opts)
	defer a.teardown()
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	ui.Fail(root.ErrOrStderr(), err.Error())
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(root.ErrOrStderr(), ui.Current().Muted.Render("Run `todo --help` for usage."))
		return 2
	}
	return 1
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	ui.SetTheme(cfg.Theme)
	if cfg.NoColor {
		ui.DisableColor()
	}

	l, c, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Current().Muted.Render("logging disabled: "+err.Error()))
		l = logging.Discard()
	}
	a.log, a.logCloser = l, c

	if a.store == nil {
		if a.store, err = auth.DefaultStore(); err != nil {
			return err
		}
	}
	a.session, err = auth.Load(a.store)
	return err
}

func (a *app) teardown() {
	if a.closer != nil {
		a.closer.Close()
		a.closer = nil
	}
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("unknown subcommand: %s", args[0])
	}
	return nil
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: %s", usage)
		}
		return nil
	}
}
