// Package repo implements the persistence gateway for cards, reports, REM
// area states and the aggregated report table, backed by GORM.
//
// Every method takes a context and a *gorm.DB handle so callers can run it
// inside a transaction or a connection scope. Each call is bounded by
// Store.Timeout. Table names come from Tables so the same code runs against
// the schema-qualified production tables and flat test tables.
//
// Error semantics:
//   - ErrNotFound (gorm.ErrRecordNotFound) when a referenced row is missing.
//   - ErrConflict when a card was already received, or a concurrent writer
//     won the received flip.
//   - ErrImageExists when the report already carries an image.
//   - ErrTimeout when the deadline expired or PostgreSQL cancelled the
//     statement.
//   - ErrStorage wrapping any other driver failure.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across layers.
var ErrNotFound = gorm.ErrRecordNotFound

var (
	// ErrConflict: the card already holds a report.
	ErrConflict = errors.New("card already received")
	// ErrNotReceived: an image was attached to a card without a report.
	ErrNotReceived = errors.New("card not received")
	// ErrImageExists: the report already has an image.
	ErrImageExists = errors.New("image already attached")
	// ErrTimeout: the store did not answer within the configured bound.
	ErrTimeout = errors.New("store timeout")
	// ErrStorage wraps any other store failure.
	ErrStorage = errors.New("store failure")
)

// DefaultTimeout bounds a store call when Store.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// pgQueryCanceled is SQLSTATE 57014 (statement_timeout or cancel).
const pgQueryCanceled = "57014"

// Tables names every table the store touches.
type Tables struct {
	Cards        string
	Log          string
	Reports      string
	RemStatus    string
	RemStatusLog string
	LocalAreas   string
	AllReports   string
	PointsLog    string
	Partners     string
	Idempotency  string
}

// DefaultTables returns the production schema-qualified names.
func DefaultTables() Tables {
	return Tables{
		Cards:        "grasp.cards",
		Log:          "grasp.log",
		Reports:      "grasp.reports",
		RemStatus:    "cognicity.rem_status",
		RemStatusLog: "cognicity.rem_status_log",
		LocalAreas:   "cognicity.local_areas",
		AllReports:   "cognicity.all_reports",
		PointsLog:    "cognicity.reports_points_log",
		Partners:     "cognicity.partners",
		Idempotency:  "grasp.idempotency_keys",
	}
}

// FlatTables returns DefaultTables flattened for SQLite.
func FlatTables() Tables { return Flatten(DefaultTables()) }

// Flatten drops schema qualifiers by joining them with an underscore
// ("grasp.cards" becomes "grasp_cards"). SQLite has no schemas.
func Flatten(t Tables) Tables {
	flat := func(s string) string { return strings.ReplaceAll(s, ".", "_") }
	return Tables{
		Cards:        flat(t.Cards),
		Log:          flat(t.Log),
		Reports:      flat(t.Reports),
		RemStatus:    flat(t.RemStatus),
		RemStatusLog: flat(t.RemStatusLog),
		LocalAreas:   flat(t.LocalAreas),
		AllReports:   flat(t.AllReports),
		PointsLog:    flat(t.PointsLog),
		Partners:     flat(t.Partners),
		Idempotency:  flat(t.Idempotency),
	}
}

// NotifyPayloadFunc produces the notification payload for a freshly
// received card. It runs inside the submission transaction.
type NotifyPayloadFunc func(tx *gorm.DB, cardID string) ([]byte, error)

// Store is the persistence gateway. The zero value is not usable; build it
// with NewStore.
type Store struct {
	Tables        Tables
	Timeout       time.Duration
	NotifyPayload NotifyPayloadFunc
}

// NewStore returns a Store using the given tables and timeout. On
// PostgreSQL, notify payloads come from the push_to_all_reports procedure.
func NewStore(t Tables, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{Tables: t, Timeout: timeout, NotifyPayload: PushToAllReports}
}

// PushToAllReports calls the store-side procedure that copies a received
// card into the aggregate table and returns its notification JSON.
func PushToAllReports(tx *gorm.DB, cardID string) ([]byte, error) {
	var row struct{ Notify string }
	if err := tx.Raw("SELECT grasp.push_to_all_reports(?) AS notify", cardID).Scan(&row).Error; err != nil {
		return nil, err
	}
	return []byte(row.Notify), nil
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	t := s.Timeout
	if t <= 0 {
		t = DefaultTimeout
	}
	return context.WithTimeout(ctx, t)
}

// classify maps driver errors onto the package sentinels. Business
// sentinels pass through unchanged.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrNotReceived),
		errors.Is(err, ErrImageExists),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgQueryCanceled {
		return fmt.Errorf("%w: %s", ErrTimeout, pgErr.Message)
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

func isPostgres(db *gorm.DB) bool { return db.Dialector.Name() == "postgres" }

// geomSelect returns the column expression that reads the_geom as WKT.
func geomSelect(db *gorm.DB, qualifier string) string {
	col := "the_geom"
	if qualifier != "" {
		col = qualifier + ".the_geom"
	}
	if isPostgres(db) {
		return "ST_AsText(" + col + ") AS the_geom"
	}
	return col + " AS the_geom"
}
