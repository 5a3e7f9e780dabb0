package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Mavwarf/cleartone/internal/command"
	"github.com/Mavwarf/cleartone/internal/config"
	"github.com/Mavwarf/cleartone/internal/eventlog"
	"github.com/Mavwarf/cleartone/internal/paths"
	"github.com/Mavwarf/cleartone/internal/playback"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "cleartone",
		Usage:   "calibrated pure-tone generator for hearing tests",
		Version: version + " (" + buildDate + ")",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to cleartone-config.json",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "development logging to stderr",
			},
		},
		Commands: []*cli.Command{
			toneCommand(),
			fileCommand(),
			renderCommand(),
			levelCommand(),
			serveCommand(),
			consoleCommand(),
			historyCommand(),
			sendCommand(),
			configCommand(),
		},
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func loadConfig(c *cli.Context) (config.Config, error) {
	return config.Load(c.String("config"))
}

// newLogger picks the zap preset: development with --verbose, production
// for long-running servers, otherwise silent.
func newLogger(verbose, server bool) (*zap.Logger, error) {
	switch {
	case verbose:
		return zap.NewDevelopment()
	case server:
		return zap.NewProduction()
	}
	return zap.NewNop(), nil
}

// signalContext is cancelled on Ctrl-C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// shouldLog reports whether commands are written to the audit log.
func shouldLog(cfg config.Config, flag bool) bool {
	return cfg.Log || flag
}

func openStore(cfg config.Config) (eventlog.Store, error) {
	return eventlog.Open(paths.DataDir(), cfg.LogBackend)
}

// session bundles what every playing command needs.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	engine *playback.Engine
	store  eventlog.Store
	disp   *command.Dispatcher
}

// newSession opens the audio device and, when enabled, the audit log.
func newSession(c *cli.Context, server bool) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(c.Bool("verbose"), server)
	if err != nil {
		return nil, err
	}
	backend, err := playback.NewOtoBackend(cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	sess := &session{
		cfg:    cfg,
		logger: logger,
		engine: playback.NewEngine(backend, cfg.Calibration(), logger),
	}
	if shouldLog(cfg, c.Bool("log")) {
		store, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		if n, err := store.Clean(cfg.LogRetentionDays); err != nil {
			logger.Warn("audit log cleanup failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("audit log cleaned", zap.Int("removed", n))
		}
		sess.store = store
	}
	sess.disp = &command.Dispatcher{
		Files:         sess.engine,
		Tones:         sess.engine,
		SampleRate:    cfg.SampleRate,
		MaxDurationMs: cfg.MaxDurationMs,
		Log:           sess.store,
		Logger:        logger,
	}
	return sess, nil
}

func (s *session) Close() {
	if err := s.engine.Close(); err != nil {
		s.logger.Warn("stopping playback", zap.Error(err))
	}
	if s.store != nil {
		s.store.Close()
	}
	_ = s.logger.Sync()
}

// resultErr turns a failed Result into an error for the CLI.
func resultErr(res command.Result) error {
	if res.OK {
		return nil
	}
	return res.Error
}
