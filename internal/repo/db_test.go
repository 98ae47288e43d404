package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/petabencana/sitioss-server/internal/domain"
)

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "does-not-exist", "sitioss.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}
	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpenSQLite_PragmasPoolAndAutoMigrate(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "sitioss.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var journalMode string
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}
	var busyMS int
	if err := db.Raw("PRAGMA busy_timeout;").Row().Scan(&busyMS); err != nil || busyMS != 5000 {
		t.Fatalf("expected busy_timeout=5000, got %d (err=%v)", busyMS, err)
	}
	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}

	tables := FlatTables()
	if err := AutoMigrate(db, tables); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	m := db.Migrator()
	for _, name := range []string{
		tables.Cards, tables.Log, tables.Reports, tables.RemStatus, tables.RemStatusLog,
		tables.LocalAreas, tables.AllReports, tables.PointsLog, tables.Partners, tables.Idempotency,
	} {
		if !m.HasTable(name) {
			t.Fatalf("expected table %s to exist", name)
		}
	}
	// Second run is a no-op.
	if err := AutoMigrate(db, tables); err != nil {
		t.Fatalf("AutoMigrate rerun: %v", err)
	}

	card := domain.Card{CardID: "c1", Username: "u", Network: "website", Language: "en"}
	if err := db.Table(tables.Cards).Create(&card).Error; err != nil {
		t.Fatalf("insert card: %v", err)
	}
	var got domain.Card
	if err := db.Table(tables.Cards).First(&got, "card_id = ?", "c1").Error; err != nil || got.Received {
		t.Fatalf("readback card failed: err=%v got=%+v", err, got)
	}
}

func TestTables_DefaultAndFlat(t *testing.T) {
	d, f := DefaultTables(), FlatTables()
	if d.Cards != "grasp.cards" || d.RemStatus != "cognicity.rem_status" {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if f.Cards != "grasp_cards" || f.PointsLog != "cognicity_reports_points_log" {
		t.Fatalf("unexpected flat names: %+v", f)
	}
}

func TestFlatten_CustomNames(t *testing.T) {
	in := DefaultTables()
	in.Cards = "intake.cards"
	in.Idempotency = "plain_keys"
	in.Log = "a.b.log"

	got := Flatten(in)
	if got.Cards != "intake_cards" || got.Idempotency != "plain_keys" || got.Log != "a_b_log" {
		t.Fatalf("unexpected flattened names: %+v", got)
	}
	if got.Reports != "grasp_reports" || got.Partners != "cognicity_partners" {
		t.Fatalf("untouched names must still flatten: %+v", got)
	}
	if in.Cards != "intake.cards" {
		t.Fatalf("Flatten must not modify its input")
	}
}

// Compile-time guard to ensure signature stability.
var _ func(string) (*gorm.DB, error) = OpenSQLite
