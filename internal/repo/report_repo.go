package repo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/petabencana/sitioss-server/internal/domain"
)

// ReportQuery selects aggregated reports inside per-type sliding windows.
type ReportQuery struct {
	Windows  Windows
	Now      time.Time
	Admin    string // instance_region_code, optional
	Disaster string // disaster_type, optional
	Limit    int    // 0 = unlimited
}

var reportColumns = []string{
	"pkey", "created_at", "source", "status", "url", "image_url", "disaster_type",
	"report_data", "tags", "title", "text", "partner_code",
}

func (s *Store) reportSelect(db *gorm.DB, qualifier string) []string {
	cols := make([]string, 0, len(reportColumns)+1)
	for _, c := range reportColumns {
		if qualifier != "" {
			c = qualifier + "." + c
		}
		cols = append(cols, c)
	}
	return append(cols, geomSelect(db, qualifier))
}

// ListReports returns the reports whose created_at falls inside the window
// of their disaster type, newest first.
func (s *Store) ListReports(ctx context.Context, db *gorm.DB, q ReportQuery) ([]domain.AggregateReport, error) {
	return s.windowed(ctx, db, q, WindowPredicate(q.Windows, q.Now, "created_at"))
}

// ExpiredReports returns the reports that fell out of their window in the
// last ExpiredSlack, newest first.
func (s *Store) ExpiredReports(ctx context.Context, db *gorm.DB, q ReportQuery) ([]domain.AggregateReport, error) {
	return s.windowed(ctx, db, q, ExpiredPredicate(q.Windows, q.Now, "created_at"))
}

func (s *Store) windowed(ctx context.Context, db *gorm.DB, q ReportQuery, window sq.Sqlizer) ([]domain.AggregateReport, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	pred := sq.And{window}
	if q.Disaster != "" {
		pred = append(pred, sq.Eq{"disaster_type": q.Disaster})
	}
	if q.Admin != "" {
		pred = append(pred, sq.Expr("tags->>'instance_region_code' = ?", q.Admin))
	}
	where, args, err := pred.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: build window query: %v", ErrStorage, err)
	}

	tx := db.WithContext(ctx).Table(s.Tables.AllReports).
		Select(s.reportSelect(db, "")).
		Where(where, args...).
		Order("created_at DESC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	out := []domain.AggregateReport{}
	if err := tx.Find(&out).Error; err != nil {
		return nil, classify(ctx, err)
	}
	return out, nil
}

// ReportByID returns one aggregated report.
func (s *Store) ReportByID(ctx context.Context, db *gorm.DB, id int64) (*domain.AggregateReport, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var r domain.AggregateReport
	err := db.WithContext(ctx).Table(s.Tables.AllReports).
		Select(s.reportSelect(db, "")).
		Where("pkey = ?", id).
		First(&r).Error
	if err != nil {
		return nil, classify(ctx, err)
	}
	return &r, nil
}

// ArchivedReports returns reports created in [start, end] with their
// partner icon, newest first.
func (s *Store) ArchivedReports(ctx context.Context, db *gorm.DB, start, end time.Time, admin string, limit int) ([]domain.ArchivedReport, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tx := db.WithContext(ctx).
		Table(s.Tables.AllReports+" AS r").
		Select(append(s.reportSelect(db, "r"), "p.partner_icon")).
		Joins("LEFT JOIN "+s.Tables.Partners+" AS p ON p.partner_code = r.partner_code").
		Where("r.created_at >= ? AND r.created_at <= ?", start.UTC(), end.UTC())
	if admin != "" {
		tx = tx.Where("r.tags->>'instance_region_code' = ?", admin)
	}
	tx = tx.Order("r.created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	out := []domain.ArchivedReport{}
	if err := tx.Scan(&out).Error; err != nil {
		return nil, classify(ctx, err)
	}
	return out, nil
}

// AddPoint adds delta to report_data.points and appends a points-log row.
// It returns the new total.
func (s *Store) AddPoint(ctx context.Context, db *gorm.DB, id int64, delta int) (int, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var total int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		data, err := s.reportData(tx, id)
		if err != nil {
			return err
		}
		total = intOf(data["points"]) + delta
		data["points"] = total
		if err := s.saveReportData(tx, id, data); err != nil {
			return err
		}
		return tx.Table(s.Tables.PointsLog).Create(&domain.ReportPointsLog{
			ReportID:  id,
			Value:     delta,
			CreatedAt: time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return 0, classify(ctx, err)
	}
	return total, nil
}

// SetFlag sets report_data.flag.
func (s *Store) SetFlag(ctx context.Context, db *gorm.DB, id int64, flag bool) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		data, err := s.reportData(tx, id)
		if err != nil {
			return err
		}
		data["flag"] = flag
		return s.saveReportData(tx, id, data)
	})
	return classify(ctx, err)
}

func (s *Store) reportData(tx *gorm.DB, id int64) (datatypes.JSONMap, error) {
	var row struct{ ReportData datatypes.JSONMap }
	q := tx.Table(s.Tables.AllReports).Select("report_data").Where("pkey = ?", id)
	if isPostgres(tx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Take(&row).Error; err != nil {
		return nil, err
	}
	if row.ReportData == nil {
		row.ReportData = datatypes.JSONMap{}
	}
	return row.ReportData, nil
}

func (s *Store) saveReportData(tx *gorm.DB, id int64, data datatypes.JSONMap) error {
	return tx.Table(s.Tables.AllReports).Where("pkey = ?", id).Update("report_data", data).Error
}

// intOf reads a JSON number decoded as float64 (or an int written in the
// same process).
func intOf(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}
