package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	notifyinadapter "medtrack/internal/modules/notify/adapter/in"
	notifyoutadapter "medtrack/internal/modules/notify/adapter/out"
	notifydto "medtrack/internal/modules/notify/dto"
	notifyout "medtrack/internal/modules/notify/port/out"
	notifyservice "medtrack/internal/modules/notify/service"
	notifyusecase "medtrack/internal/modules/notify/usecase"
	scheduleinadapter "medtrack/internal/modules/schedule/adapter/in"
	scheduleoutadapter "medtrack/internal/modules/schedule/adapter/out"
	scheduleout "medtrack/internal/modules/schedule/port/out"
	scheduleservice "medtrack/internal/modules/schedule/service"
	scheduleusecase "medtrack/internal/modules/schedule/usecase"
	"medtrack/internal/platform/clock"
	"medtrack/internal/platform/config"
	"medtrack/internal/platform/id"
	"medtrack/internal/platform/logger"
	uiapp "medtrack/internal/ui/app"
	"medtrack/internal/ui/components"
)

type Mode int

const (
	ModeCLI Mode = iota
	ModeTUI
)

// Options select the collaborators that differ between the CLI and the TUI:
// confirmation, the direct notification sink and the log destination.
type Options struct {
	Mode      Mode
	AssumeYes bool
	In        io.Reader
	Out       io.Writer
	ErrOut    io.Writer
}

type App struct {
	Config      config.Config
	Logger      hclog.Logger
	ScheduleCLI scheduleinadapter.CLIHandler
	NotifyCLI   notifyinadapter.CLIHandler

	confirm       *components.ConfirmBroker
	notifications <-chan notifydto.Notification
	closers       []io.Closer
}

func New(cfg config.Config, opts Options) (*App, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	app := &App{Config: cfg}

	logOpts := logger.Options{Level: cfg.LogLevel, Format: logger.ParseFormat(cfg.LogFormat)}
	if opts.Mode == ModeTUI {
		log, closer, err := logger.NewFile(cfg.LogPath, logOpts)
		if err != nil {
			return nil, err
		}
		app.Logger = log
		app.closers = append(app.closers, closer)
	} else {
		logOpts.Output = opts.ErrOut
		app.Logger = logger.New(logOpts)
	}

	clk := clock.SystemClock{}

	var store scheduleout.DocumentStore
	switch cfg.Storage {
	case config.StorageSQLite:
		sqliteStore, err := scheduleoutadapter.NewSQLiteDocumentStore(cfg.DBPath, clk)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("new sqlite document store: %w", err)
		}
		app.closers = append(app.closers, sqliteStore)
		store = sqliteStore
	default:
		store = scheduleoutadapter.NewFileDocumentStore(cfg.DataDir)
	}

	var (
		confirmer scheduleout.Confirmer
		prompter  notifyout.Prompter
		sink      notifyout.Sink
	)
	switch {
	case opts.Mode == ModeTUI:
		broker := components.NewConfirmBroker()
		channelSink := notifyoutadapter.NewChannelSink(16)
		app.confirm = broker
		app.notifications = channelSink.Notifications()
		confirmer, prompter, sink = broker, broker, channelSink
	case opts.AssumeYes:
		auto := scheduleoutadapter.AutoConfirmer{Answer: true}
		confirmer, prompter = auto, auto
		sink = notifyoutadapter.NewTerminalSink(opts.Out)
	default:
		prompt := scheduleoutadapter.NewPromptConfirmer(opts.In, opts.Out)
		confirmer, prompter = prompt, prompt
		sink = notifyoutadapter.NewTerminalSink(opts.Out)
	}

	notifySvc := notifyservice.NewNotifyService(
		clk,
		id.UUID{},
		notifyoutadapter.NewFilePermissionStore(cfg.DataDir, clk),
		notifyoutadapter.NewFileManifestStore(cfg.DataDir),
		notifyoutadapter.NewGRPCHost(app.Logger),
		sink,
		prompter,
		app.Logger,
		notifyservice.Options{VaultPath: cfg.VaultPath, CollapseWindow: cfg.CollapseWindow},
	)
	notifyUC := notifyusecase.NewInteractor(notifySvc, sink != nil)

	engine := scheduleservice.NewEngine(
		clk,
		store,
		scheduleoutadapter.NewNotifyAdapter(notifyUC),
		confirmer,
		app.Logger,
		scheduleservice.Options{CatchUpLimit: cfg.CatchUpLimit},
	)
	scheduleUC := scheduleusecase.NewInteractor(engine, clk, scheduleoutadapter.NewVaultNoteStore(cfg.VaultPath), app.Logger)

	app.ScheduleCLI = scheduleinadapter.NewCLIHandler(scheduleUC)
	app.NotifyCLI = notifyinadapter.NewCLIHandler(notifyUC)
	return app, nil
}

// Close releases the log file and database handle, in reverse order of
// acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	if app.confirm == nil {
		return fmt.Errorf("app was not built for the terminal UI")
	}
	model := uiapp.NewModel(app.ScheduleCLI, app.NotifyCLI, uiapp.Options{
		SweepInterval: app.Config.SweepInterval,
		Confirm:       app.confirm,
		Notifications: app.notifications,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := program.Run()
	app.confirm.Close()
	flushErr := app.ScheduleCLI.Flush(context.Background())
	if flushErr != nil {
		app.Logger.Warn("final flush failed", "error", flushErr)
	}
	return errors.Join(runErr, flushErr)
}
