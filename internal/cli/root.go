package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/connectivity"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/notice"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/store/jsonstore"
	"github.com/idilsaglam/tada/internal/store/sqlitestore"
	"github.com/idilsaglam/tada/internal/syncer"
	"github.com/idilsaglam/tada/internal/todo"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

// App holds the root flags and, once opened, the single store and the
// components built on it for this process.
type App struct {
	ConfigPath string
	DataDir    string
	Backend    string
	Theme      string
	LogLevel   string
	Offline    bool

	cfg     *config.Config
	log     *log.Logger
	logFile io.Closer
	store   store.Store
	monitor *connectivity.Monitor
	manager *todo.Manager
	notices *tui.Notices // interactive only
}

// usageError marks mistakes in how a command was invoked (exit code 2).
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return Execute(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

// Execute is Run with explicit streams.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := &App{}
	cmd := NewRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	app.close()
	if err == nil {
		return 0
	}
	ui.Fail(stderr, err.Error())
	var ue usageError
	var ve todo.ValidationError
	if errors.As(err, &ue) || errors.As(err, &ve) {
		return 2
	}
	return 1
}

func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "todo - a tiny offline-first todo list",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive list
  todo

  # Scriptable commands
  todo add "Buy milk"
  todo list --group
  todo done 2
  todo rm 3
  todo sync
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, app)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{msg: err.Error()}
	})

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to config file (default: ./tada.toml or ~/.tada/config.toml)")
	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", "", "Directory holding the todo store")
	cmd.PersistentFlags().StringVar(&app.Backend, "backend", "", "Store backend (sqlite|json)")
	cmd.PersistentFlags().StringVar(&app.Theme, "theme", "", "Color theme (classic|neon|mono)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&app.Offline, "offline", false, "Treat the network as unavailable")

	cmd.AddCommand(newLsCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newDoneCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newClearCmd(app))
	cmd.AddCommand(newSyncCmd(app))
	cmd.AddCommand(newStatusCmd(app))

	return cmd
}

// loadConfig merges defaults, file, env and then the flags the user set.
func (a *App) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = a.DataDir
	}
	if flags.Changed("backend") {
		cfg.Backend = a.Backend
	}
	if flags.Changed("theme") {
		cfg.Theme = a.Theme
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.LogLevel
	}
	if flags.Changed("offline") {
		cfg.Connectivity.Offline = a.Offline
	}
	if err := cfg.Finalize(); err != nil {
		return nil, usageError{msg: err.Error()}
	}
	return cfg, nil
}

// open builds the single store and everything on top of it. interactive
// routes logs to a file and notices to the view instead of stderr.
func (a *App) open(cmd *cobra.Command, interactive bool) error {
	ctx := cmd.Context()
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	a.cfg = cfg
	ui.SetTheme(cfg.Theme)

	logOpts := logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if interactive {
		l, f, err := logging.OpenFile(cfg.Log.File, logOpts)
		if err != nil {
			return err
		}
		a.log, a.logFile = l, f
	} else {
		a.log = logging.New(cmd.ErrOrStderr(), logOpts)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	a.store = st

	a.monitor = connectivity.NewMonitor(connectivity.Detect(ctx, a.probe()))
	a.log.Debug("startup connectivity", "state", a.monitor.State())

	var sink notice.Sink
	if interactive {
		a.notices = tui.NewNotices()
		sink = a.notices
	} else {
		sink = printSink(cmd.ErrOrStderr())
	}

	sw := syncer.New(st, syncer.LogHook(a.log), sink, a.log)
	a.manager = todo.NewManager(st, a.monitor, sw, todo.Options{Notices: sink, Logger: a.log})
	a.manager.Attach(ctx, a.monitor)
	return nil
}

func (a *App) probe() connectivity.Probe {
	if a.cfg.Connectivity.Offline {
		return connectivity.StaticProbe(false)
	}
	return connectivity.DialProbe{Addr: a.cfg.Connectivity.ProbeAddr, Timeout: a.cfg.Connectivity.ProbeTimeout}
}

func (a *App) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.log != nil {
			a.log.Warn("close store", "err", err)
		}
		a.store = nil
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Backend {
	case store.BackendJSON:
		return jsonstore.Open(cfg.DataDir)
	default:
		return sqlitestore.Open(ctx, cfg.DataDir)
	}
}

// printSink shows notices from one-shot commands. Errors are skipped: the
// command returns them and Execute prints them once.
func printSink(w io.Writer) notice.Sink {
	return notice.SinkFunc(func(n notice.Notice) {
		switch n.Level {
		case notice.LevelInfo:
			fmt.Fprintln(w, ui.Current().Muted.Render(n.Text))
		case notice.LevelWarn:
			ui.Warn(w, n.Text)
		}
	})
}

func runInteractive(cmd *cobra.Command, app *App) error {
	if err := app.open(cmd, true); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var signals tui.Signals
	if !app.cfg.Connectivity.Offline {
		signals = tui.NewSignals()
		w := connectivity.Watcher{
			Probe:    app.probe(),
			Interval: app.cfg.Connectivity.ProbeInterval,
			Logger:   app.log,
		}
		go w.Run(ctx, app.monitor.State(), signals.Emit)
	}

	return tui.Run(ctx, tui.Deps{
		Store:     app.store,
		Manager:   app.manager,
		Monitor:   app.monitor,
		Notices:   app.notices,
		Signals:   signals,
		StatusTTL: app.cfg.StatusTTL,
	})
}
