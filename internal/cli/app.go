package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/aquaplan/internal/config"
	"github.com/roach88/aquaplan/internal/engine"
	"github.com/roach88/aquaplan/internal/registry"
	"github.com/roach88/aquaplan/internal/store"
)

// app is everything a project command needs: configuration, the loaded
// model, the store and an engine over them.
type app struct {
	cfg    *config.Config
	model  *registry.Model
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// newLogger builds the stderr logger. --verbose forces debug.
func newLogger(opts *RootOptions, w io.Writer, level slog.Level) *slog.Logger {
	if opts.Verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if opts.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// loadConfig resolves layered configuration and applies --db.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	bootstrap := newLogger(opts, cmd.ErrOrStderr(), slog.LevelWarn)
	cfg, err := config.NewLoader(bootstrap, opts.loaderOpts...).Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, newLogger(opts, cmd.ErrOrStderr(), cfg.SlogLevel()), nil
}

// loadModel returns the configured registry model, or the embedded one.
func loadModel(cfg *config.Config) (*registry.Model, error) {
	if cfg.Registry != "" {
		return registry.LoadFile(cfg.Registry)
	}
	return registry.Default()
}

// openApp loads configuration, the model and the store, and builds the
// engine. Callers must Close the app.
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadConfig(opts, cmd)
	if err != nil {
		return nil, err
	}

	model, err := loadModel(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load registry", err)
	}

	policy, err := cfg.ProcessPolicy()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid policy", err)
	}
	tiers, err := cfg.Tiers()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid viability tiers", err)
	}

	logger.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	eng, err := engine.New(model, st,
		engine.WithLogger(logger),
		engine.WithPolicy(policy),
		engine.WithTiers(tiers),
		engine.WithWeightTolerance(cfg.Viability.Tolerance),
		engine.WithBalanceOptions(cfg.BalanceOptions()),
	)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to start engine", err)
	}

	return &app{cfg: cfg, model: model, store: st, engine: eng, logger: logger}, nil
}

// Close releases the database.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
}

// withApp opens the app, runs fn and closes it.
func withApp(opts *RootOptions, cmd *cobra.Command, fn func(*app) error) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		f := opts.formatter(cmd)
		if outErr := f.Error(ErrCodeGeneric, err.Error(), nil); outErr != nil {
			return outErr
		}
		return err
	}
	defer a.Close()
	return fn(a)
}

func argError(f *OutputFormatter, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if err := f.Error(ErrCodeArgument, msg, nil); err != nil {
		return err
	}
	return NewExitError(ExitCommandError, msg)
}
