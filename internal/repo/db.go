package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/petabencana/sitioss-server/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs. It
// backs local development and tests.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, instrument(db)
}

// OpenPostgres connects to the production PostGIS database through pgx.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return db, instrument(db)
}

// instrument attaches OpenTelemetry spans to every SQL statement.
func instrument(db *gorm.DB) error {
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return fmt.Errorf("gorm tracing: %w", err)
	}
	return nil
}

// AutoMigrate creates or updates every table named in t. On PostgreSQL the
// schemas and the postgis extension are created first.
func AutoMigrate(db *gorm.DB, t Tables) error {
	models := []struct {
		table string
		model any
	}{
		{t.Cards, &domain.Card{}},
		{t.Log, &domain.GraspLog{}},
		{t.Reports, &domain.Report{}},
		{t.LocalAreas, &domain.LocalArea{}},
		{t.RemStatus, &domain.RemStatus{}},
		{t.RemStatusLog, &domain.RemStatusLog{}},
		{t.Partners, &domain.Partner{}},
		{t.AllReports, &domain.AggregateReport{}},
		{t.PointsLog, &domain.ReportPointsLog{}},
		{t.Idempotency, &domain.Idempotency{}},
	}

	if isPostgres(db) {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS postgis").Error; err != nil {
			return fmt.Errorf("postgis: %w", err)
		}
		seen := map[string]bool{}
		for _, m := range models {
			if i := strings.IndexByte(m.table, '.'); i > 0 {
				seen[m.table[:i]] = true
			}
		}
		schemas := make([]string, 0, len(seen))
		for s := range seen {
			schemas = append(schemas, s)
		}
		sort.Strings(schemas)
		for _, s := range schemas {
			if err := db.Exec(`CREATE SCHEMA IF NOT EXISTS "` + s + `"`).Error; err != nil {
				return fmt.Errorf("schema %s: %w", s, err)
			}
		}
	}

	for _, m := range models {
		if err := db.Table(m.table).AutoMigrate(m.model); err != nil {
			return fmt.Errorf("migrate %s: %w", m.table, err)
		}
	}
	return nil
}
