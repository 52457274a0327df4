package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"fpstab/internal/cache"
	"fpstab/internal/config"
	fperrors "fpstab/internal/errors"
	"fpstab/internal/metrics"
	"fpstab/internal/paths"
	"fpstab/internal/pipeline"
	"fpstab/internal/slogutil"
	"fpstab/internal/solver"
)

// app holds everything a command needs once flags and config are resolved.
type app struct {
	root    string
	runID   string
	cfg     *config.Config
	logger  *slog.Logger
	closer  io.Closer
	store   *cache.SQLiteStore
	metrics *metrics.Metrics
	stab    *pipeline.Stabilizer
}

// newApp resolves the root directory, loads and validates the config, and
// wires logging, the cache, the solver and the pipeline.
func newApp(cmd *cobra.Command) (*app, error) {
	root, err := paths.ResolveRoot(rootFlag)
	if err != nil {
		return nil, fperrors.New(fperrors.InternalError, "Failed to resolve fpstab root", err)
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, fperrors.New(fperrors.ConfigInvalid, "Failed to load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fperrors.New(fperrors.ConfigInvalid, "Invalid configuration", err)
	}

	runID := uuid.NewString()
	opts := slogutil.Options{
		Console:      cmd.ErrOrStderr(),
		ConsoleLevel: slogutil.LevelFromVerbosity(verbosityFlag, quietFlag),
		FileLevel:    slogutil.LevelFromString(cfg.Logging.Level),
		MaxSize:      cfg.Logging.MaxSize,
		MaxBackups:   cfg.Logging.MaxBackups,
		RunID:        runID,
	}
	if cfg.Logging.File != "" {
		opts.FilePath = paths.LogPath(root, cfg.Logging.File)
	}
	// A log file that cannot be opened is already reported by Setup.
	logger, closer, _ := slogutil.Setup(opts)

	cacheRoot, err := cfg.ResolveCacheRoot(root)
	if err != nil {
		_ = closer.Close()
		return nil, fperrors.New(fperrors.ConfigInvalid, "Invalid cacheRoot", err)
	}

	m := metrics.New()
	store := cache.NewSQLiteStore(cacheRoot, logger)
	invoker := solver.New(solver.Options{
		Binary:    cfg.Solver.Binary,
		Seed:      cfg.Solver.Seed,
		Timeout:   time.Duration(cfg.Solver.TimeoutMs) * time.Millisecond,
		ExtraArgs: cfg.Solver.ExtraArgs,
	}, nil, logger.With("component", "solver"))

	return &app{
		root:    root,
		runID:   runID,
		cfg:     cfg,
		logger:  logger,
		closer:  closer,
		store:   store,
		metrics: m,
		stab:    pipeline.New(store, invoker, logger, m),
	}, nil
}

// Close writes the metrics textfile when --metrics-out is set and closes
// the log file.
func (a *app) Close() {
	if metricsOutFlag != "" {
		if err := a.metrics.WriteTextfile(metricsOutFlag); err != nil {
			a.logger.Warn("Failed to write metrics textfile", "path", metricsOutFlag, "error", err.Error())
		}
	}
	if err := a.closer.Close(); err != nil {
		a.logger.Warn("Failed to close log file", "error", err.Error())
	}
}
