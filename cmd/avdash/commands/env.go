package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raphcvrt/Anti-Virus/internal/client"
	"github.com/raphcvrt/Anti-Virus/internal/config"
	"github.com/raphcvrt/Anti-Virus/internal/dashboard"
	"github.com/raphcvrt/Anti-Virus/internal/logging"
	"github.com/raphcvrt/Anti-Virus/internal/metrics"
	"github.com/raphcvrt/Anti-Virus/internal/notify"
	"github.com/raphcvrt/Anti-Virus/internal/settings"
)

// AnnotationQuietConsole marks commands that own the terminal. Their logs go
// to LOG_FILE only.
const AnnotationQuietConsole = "avdash/quiet-console"

// Env is the state shared by every subcommand, filled in by the root
// command's PersistentPreRunE.
type Env struct {
	EnvFile  string
	APIURL   string
	LogLevel string
	LogFile  string

	Config config.Config
	Log    *zap.Logger
}

// Load reads the configuration, applies flag overrides and builds the logger
func (e *Env) Load(cmd *cobra.Command) error {
	cfg, err := config.Load(e.EnvFile)
	if err != nil {
		return err
	}
	if e.APIURL != "" {
		cfg.APIURL = e.APIURL
	}
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}
	if e.LogFile != "" {
		cfg.LogFile = e.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var console io.Writer = cmd.ErrOrStderr()
	if _, quiet := cmd.Annotations[AnnotationQuietConsole]; quiet {
		console = nil
	}
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: console})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	e.Config = cfg
	e.Log = log
	return nil
}

// Client builds the backend client
func (e *Env) Client() *client.Client {
	return client.New(client.Config{
		BaseURL:              e.Config.APIURL,
		Timeout:              e.Config.HTTPTimeout,
		QuarantineDeletePath: e.Config.QuarantineDeletePath,
	}, e.Log)
}

// Settings opens the settings file
func (e *Env) Settings() (*settings.Store, error) {
	store, err := settings.Open(e.Config.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	return store, nil
}

// Sync wires a dashboard to renderer. Notices go to the log and to notifier.
func (e *Env) Sync(renderer dashboard.Renderer, notifier notify.Notifier, rec *metrics.Recorder) (*dashboard.Sync, error) {
	store, err := e.Settings()
	if err != nil {
		return nil, err
	}

	return dashboard.New(e.Client(), dashboard.Options{
		Renderer:     renderer,
		Notifier:     notify.Multi{notify.Logger{Log: e.Log}, notifier},
		Settings:     store,
		Alerter:      notify.NewDiscord(store, e.Log),
		Metrics:      rec,
		Logger:       e.Log,
		DegradedMode: e.Config.DegradedMode,
	}), nil
}

// printer writes notices to w, for one-shot commands. Error notices are
// skipped: the command returns the error and main prints it once.
func printer(w io.Writer) notify.Notifier {
	return notify.Func(func(n notify.Notice) {
		if n.Level == notify.LevelError {
			return
		}
		fmt.Fprintln(w, n.Message)
	})
}
