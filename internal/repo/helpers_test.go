package repo

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/petabencana/sitioss-server/internal/domain"
)

// newTestDB opens a private in-memory database. With migrate=true every
// table in FlatTables is created.
func newTestDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if migrate {
		if err := AutoMigrate(db, FlatTables()); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// newTestStore returns a Store over flat tables whose notify payload is a
// small JSON document naming the card.
func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db := newTestDB(t, true)
	s := NewStore(FlatTables(), time.Second)
	s.NotifyPayload = func(_ *gorm.DB, cardID string) ([]byte, error) {
		return []byte(`{"card_id":"` + cardID + `"}`), nil
	}
	return s, db
}

func ptr[T any](v T) *T { return &v }

func floodSubmission(created time.Time) domain.ReportSubmission {
	return domain.ReportSubmission{
		DisasterType:  "flood",
		SubSubmission: ptr(false),
		CardData:      &domain.CardData{ReportType: "flood", FloodDepth: ptr(40)},
		Text:          "water rising",
		CreatedAt:     &created,
		Location:      &domain.Coordinates{Lat: ptr(-6.2), Lng: ptr(106.8)},
	}
}

func seedArea(t *testing.T, db *gorm.DB, s *Store, id int64, region, parent string) {
	t.Helper()
	a := domain.LocalArea{
		PKey: id, GeomID: fmt.Sprintf("g%d", id), AreaName: fmt.Sprintf("RW %d", id),
		ParentName: parent, CityName: "Jakarta", InstanceRegionCode: region,
		Attributes: datatypes.JSONMap{"rw": id},
	}
	if err := db.Table(s.Tables.LocalAreas).Create(&a).Error; err != nil {
		t.Fatalf("seed area: %v", err)
	}
}

func seedReport(t *testing.T, db *gorm.DB, s *Store, r domain.AggregateReport) int64 {
	t.Helper()
	if err := db.Table(s.Tables.AllReports).Create(&r).Error; err != nil {
		t.Fatalf("seed report: %v", err)
	}
	return r.PKey
}

func countRows(t *testing.T, db *gorm.DB, table, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
