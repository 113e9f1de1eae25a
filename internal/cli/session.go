package cli

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Thomvis/Construct-sub002/internal/compendium"
	"github.com/Thomvis/Construct-sub002/internal/config"
	"github.com/Thomvis/Construct-sub002/internal/entities"
	"github.com/Thomvis/Construct-sub002/internal/metrics"
	"github.com/Thomvis/Construct-sub002/internal/store"
)

// session is an open database plus the settings it was opened with.
type session struct {
	cfg      *config.Config
	store    *store.Store
	logger   *slog.Logger
	registry *prometheus.Registry
	out      *OutputFormatter
}

// openSession resolves the configuration, installs the logger and opens
// the database.
func openSession(cmd *cobra.Command, opts *RootOptions, extra ...store.Option) (*session, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, WrapExitError(ExitCommandError, "no database", err)
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	logger := cfg.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	logger.Debug("opening database", "path", cfg.Database, "driver", cfg.Driver)
	storeOpts := append([]store.Option{
		store.WithDriver(cfg.Driver),
		store.WithRegistry(entities.DefaultRegistry()),
		store.WithLogger(logger),
		store.WithMetrics(metrics.New(reg)),
		store.WithMaxReaders(cfg.MaxReaders),
	}, extra...)
	st, err := store.Open(cfg.Database, storeOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return &session{
		cfg:      cfg,
		store:    st,
		logger:   logger,
		registry: reg,
		out:      newFormatter(cmd, opts),
	}, nil
}

// compendium returns the compendium over the session's store, creating the
// default realms and documents if they are missing.
func (s *session) compendium(ctx context.Context) (*compendium.Compendium, error) {
	c := compendium.New(s.store)
	if err := c.EnsureDefaults(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *session) Close() {
	s.logMetrics()
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// withSession opens a session for the duration of run. extra is appended to
// the store options.
func withSession(opts *RootOptions, run func(cmd *cobra.Command, s *session, args []string) error, extra ...store.Option) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, opts, extra...)
		if err != nil {
			return err
		}
		defer s.Close()
		return run(cmd, s, args)
	}
}

// logMetrics writes the non-zero counters collected during the command at
// debug level.
func (s *session) logMetrics() {
	if !s.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	families, err := s.registry.Gather()
	if err != nil {
		s.logger.Debug("gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			c := m.GetCounter()
			if c == nil || c.GetValue() == 0 {
				continue
			}
			attrs := []any{"metric", mf.GetName(), "value", c.GetValue()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			s.logger.Debug("metric", attrs...)
		}
	}
}
