package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	notifyinadapter "pomotrack/internal/modules/notify/adapter/in"
	notifyoutadapter "pomotrack/internal/modules/notify/adapter/out"
	notifyservice "pomotrack/internal/modules/notify/service"
	notifyusecase "pomotrack/internal/modules/notify/usecase"
	taskinadapter "pomotrack/internal/modules/task/adapter/in"
	taskoutadapter "pomotrack/internal/modules/task/adapter/out"
	taskservice "pomotrack/internal/modules/task/service"
	taskusecase "pomotrack/internal/modules/task/usecase"
	timerinadapter "pomotrack/internal/modules/timer/adapter/in"
	timeroutadapter "pomotrack/internal/modules/timer/adapter/out"
	timerdomain "pomotrack/internal/modules/timer/domain"
	timerservice "pomotrack/internal/modules/timer/service"
	timerusecase "pomotrack/internal/modules/timer/usecase"
	"pomotrack/internal/platform/clock"
	"pomotrack/internal/platform/config"
	"pomotrack/internal/platform/id"
	"pomotrack/internal/platform/kv"
	"pomotrack/internal/platform/logging"
	uiapp "pomotrack/internal/ui/app"
)

const tuiLogFile = "pomotrack.log"

// Options select how the process presents itself.
type Options struct {
	// TUI sends logs to a file and delivers notifications in the background
	// so the screen and the update loop stay free.
	TUI bool
}

type App struct {
	TaskCLI   taskinadapter.CLIHandler
	TimerCLI  timerinadapter.CLIHandler
	TimerTUI  timerinadapter.TUIHandler
	NotifyCLI notifyinadapter.CLIHandler
	Log       hclog.Logger

	bridge  *timeroutadapter.NotifyBridge
	closers []io.Closer
}

func New(cfg config.Config, opts Options) (*App, error) {
	logPath := cfg.LogFile
	if opts.TUI && logPath == "" {
		logPath = filepath.Join(cfg.DataDir, tuiLogFile)
	}
	log, logCloser, err := logging.New("pomotrack", cfg.LogLevel, logPath)
	if err != nil {
		return nil, fmt.Errorf("new logger: %w", err)
	}

	store, err := kv.Open(cfg.Store, cfg.DataDir, cfg.DBPath)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	log.Debug("store opened", "backend", cfg.Store, "data_dir", cfg.DataDir)

	clk := clock.SystemClock{}
	ids := id.UUID{}

	taskUC := taskusecase.NewInteractor(
		taskservice.NewTaskService(clk, ids, taskoutadapter.NewKVTaskRepository(store, log.Named("task.repo"))),
		taskoutadapter.NewMarkdownExporter(cfg.DataDir),
		log.Named("task"),
	)

	notifyUC := notifyusecase.NewInteractor(notifyservice.NewNotifyService(
		notifyoutadapter.NewFileManifestStore(cfg.DataDir),
		notifyoutadapter.NewGRPCHost(log.Named("notify.host")),
		time.Duration(cfg.Notify.TimeoutMS)*time.Millisecond,
		log.Named("notify"),
	), cfg.Notify.Enabled)

	timer, err := timerdomain.NewTimer(cfg.Timer.DefaultSeconds())
	if err != nil {
		_ = store.Close()
		_ = logCloser.Close()
		return nil, fmt.Errorf("new timer: %w", err)
	}
	bridge := timeroutadapter.NewNotifyBridge(notifyUC, log.Named("timer.events"), opts.TUI)
	ledger := timeroutadapter.NewTaskLedgerAdapter(taskUC)
	timerUC := timerusecase.NewInteractor(
		timerservice.NewCoordinator(timer, clk, ledger, bridge, log.Named("timer")),
		ledger,
		timeroutadapter.NewKVStateStore(store),
		cfg.Timer.PresetSeconds(),
		log.Named("timer"),
	)

	return &App{
		TaskCLI:   taskinadapter.NewCLIHandler(taskUC, timerUC),
		TimerCLI:  timerinadapter.NewCLIHandler(timerUC),
		TimerTUI:  timerinadapter.NewTUIHandler(timerUC),
		NotifyCLI: notifyinadapter.NewCLIHandler(notifyUC),
		Log:       log,
		bridge:    bridge,
		closers:   []io.Closer{store, logCloser},
	}, nil
}

// Close waits for in-flight notifications, then releases the store and the
// log file.
func (a *App) Close() error {
	a.bridge.Wait()
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.TaskCLI, app.TimerTUI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
