package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/randalmurphal/agentry/internal/config"
	"github.com/randalmurphal/agentry/internal/db"
	"github.com/randalmurphal/agentry/internal/db/driver"
	"github.com/randalmurphal/agentry/internal/index"
	"github.com/randalmurphal/agentry/internal/loader"
	"github.com/randalmurphal/agentry/internal/registry"
	"github.com/randalmurphal/agentry/internal/store"
)

// runtime bundles everything the commands need after startup.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *db.DB
	index   *index.Index
	service *registry.Service
}

func (rt *runtime) Close() error {
	return rt.db.Close()
}

// loadConfig resolves the effective configuration from file, environment,
// and flags.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else if used := viper.ConfigFileUsed(); used != "" {
		cfg, err = config.LoadFrom(used)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if dir, _ := rootCmd.PersistentFlags().GetString("agents-dir"); dir != "" {
		cfg.Store.Dir = dir
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs always go to stderr so the
// stdio transport keeps stdout for protocol frames.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// startRegistry opens the index database, scans the store, and wires the
// registry service. The returned runtime owns the database handle.
func startRegistry(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	dialect, err := driver.ParseDialect(cfg.Database.Dialect)
	if err != nil {
		return nil, err
	}
	database, err := db.OpenWithDialect(cfg.Database.DSN, dialect)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	if err := database.Migrate("index"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrate index database: %w", err)
	}

	st := store.NewFSStore(cfg.Store.Dir, store.Options{
		Include:        cfg.Store.Include,
		Exclude:        cfg.Store.Exclude,
		ReadTimeout:    cfg.Store.ReadTimeout,
		ValidateSchema: cfg.Store.ValidateSchema,
		Logger:         logger,
	})

	ix := index.New(database, st, index.Options{
		DefaultLimit: cfg.Listing.DefaultLimit,
		MaxLimit:     cfg.Listing.MaxLimit,
		Logger:       logger,
	})
	if err := ix.Build(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}

	ld := loader.New(ix, st, loader.Options{
		Capacity: cfg.Cache.Capacity,
		Logger:   logger,
	})

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		db:      database,
		index:   ix,
		service: registry.NewService(ix, ld),
	}, nil
}
