package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/petabencana/sitioss-server/internal/config"
	"github.com/petabencana/sitioss-server/internal/observability"
	"github.com/petabencana/sitioss-server/internal/repo"
	"github.com/petabencana/sitioss-server/internal/sysutil"
)

func buildVersion() string {
	return sysutil.FirstNonEmpty(version, os.Getenv("SITIOSS_VERSION"), "dev")
}

// setupLogging configures the global zerolog logger from cfg.
func setupLogging(cfg config.Config) {
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    sysutil.IsTruthy(os.Getenv("NO_COLOR")),
		})
	}
	log.Logger = log.With().Str("service", cfg.OTEL.ServiceName).Str("version", buildVersion()).Logger()
}

func build(cfg config.Config) observability.Build {
	return observability.Build{Version: buildVersion(), Environment: cfg.Sentry.Environment}
}

// tablesFor maps the configured names onto the driver.
func tablesFor(cfg config.Config) repo.Tables {
	t := repo.Tables(cfg.Tables)
	if cfg.DB.Driver == "sqlite" {
		return repo.Flatten(t)
	}
	return t
}

// openDB connects to the configured driver and returns the store over it.
// migrate forces AutoMigrate regardless of AUTO_MIGRATE.
func openDB(cfg config.Config, migrate bool) (*gorm.DB, *repo.Store, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DB.Driver {
	case "sqlite":
		db, err = repo.OpenSQLite(cfg.DB.Path)
	default:
		db, err = repo.OpenPostgres(cfg.DB.URL)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.DB.Driver, err)
	}

	tables := tablesFor(cfg)
	if migrate || cfg.DB.AutoMigrate {
		if err := repo.AutoMigrate(db, tables); err != nil {
			closeDB(db)
			return nil, nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	store := repo.NewStore(tables, cfg.DB.Timeout)
	if cfg.DB.Driver == "sqlite" {
		// push_to_all_reports only exists in the PostGIS schema.
		store.NotifyPayload = nil
	}
	return db, store, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	setupLogging(cfg)
	return cfg, nil
}

func shutdownCtx(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}
