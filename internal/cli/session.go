package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vats/internal/config"
	"github.com/roach88/vats/internal/engine"
	"github.com/roach88/vats/internal/store"
)

// session is one CLI invocation: configuration, logging, the loaded engine
// and the store it is saved back to.
type session struct {
	ctx    context.Context
	opts   *RootOptions
	cfg    *config.Config
	out    *OutputFormatter
	logger *slog.Logger
	store  store.Store
	engine *engine.Engine
	opID   string
}

// openSession loads config and records for cmd. Failures are reported via
// the formatter and returned as command errors (exit 2).
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	idGen := opts.IDGen
	if idGen == nil {
		idGen = UUIDv7Generator{}
	}
	opID := idGen.Generate()

	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		OpID:      opID,
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_ = out.Error("CONFIG", err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.DataFile != "" {
		cfg.DataFile = opts.DataFile
	}

	logger := newLogger(opts, cfg).With("op", opID)

	st := opts.Store
	if st == nil {
		st = store.NewFileStore(cfg.DataFile)
	}

	logger.Debug("loading records", "file", cfg.DataFile)
	devices, err := st.Load(ctx)
	if err != nil {
		_ = out.DeviceError(err)
		return nil, WrapExitError(ExitCommandError, "failed to load records", err)
	}

	eopts := []engine.Option{engine.WithLogger(logger)}
	if opts.Clock != nil {
		eopts = append(eopts, engine.WithClock(opts.Clock))
	}
	eng := engine.New(devices, cfg.Engine(), eopts...)

	if shared := engine.SharedAccounts(devices); len(shared) > 0 {
		logger.Warn("records show several in-use devices on one account", "accounts", shared)
	}
	logger.Debug("records loaded", "devices", len(devices))

	return &session{
		ctx:    ctx,
		opts:   opts,
		cfg:    cfg,
		out:    out,
		logger: logger,
		store:  st,
		engine: eng,
		opID:   opID,
	}, nil
}

func newLogger(opts *RootOptions, cfg *config.Config) *slog.Logger {
	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	if opts.LogWriter != nil {
		w = opts.LogWriter
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// save writes the whole collection back. A failed save is a command error:
// the operation was applied in memory but not persisted.
func (s *session) save() error {
	if err := s.store.Save(s.ctx, s.engine.Devices()); err != nil {
		_ = s.out.DeviceError(err)
		return WrapExitError(ExitCommandError, "failed to save records", err)
	}
	s.logger.Debug("records saved", "devices", len(s.engine.Devices()))
	return nil
}

// reject reports a domain error and returns exit code 1.
func (s *session) reject(op string, err error) error {
	s.logger.Info("operation rejected", "cmd", op, "error", err)
	_ = s.out.DeviceError(err)
	return WrapExitError(ExitFailure, fmt.Sprintf("%s rejected", op), err)
}
