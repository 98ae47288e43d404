package services

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/petabencana/sitioss-server/internal/domain"
	"github.com/petabencana/sitioss-server/internal/repo"
	"github.com/petabencana/sitioss-server/internal/validation"
)

// ReportFilter narrows a windowed listing. Zero values mean "no filter";
// a zero Timeperiod keeps the per-type windows.
type ReportFilter struct {
	Admin      string
	Disaster   string
	Timeperiod time.Duration
}

// ReportService reads time-windowed aggregates of citizen reports and records
// votes and flags on them.
type ReportService struct {
	DB    *gorm.DB
	Store ReportStore

	Windows       repo.Windows
	WindowMax     time.Duration
	Limit         int
	Regions       []string
	DisasterTypes []string

	Now func() time.Time
}

// NewReportService constructs a ReportService with the default windows.
func NewReportService(db *gorm.DB, store ReportStore) *ReportService {
	return &ReportService{
		DB:        db,
		Store:     store,
		Windows:   repo.DefaultWindows(),
		WindowMax: 18748800 * time.Second,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns the reports inside their sliding window, newest first.
func (s *ReportService) List(ctx context.Context, f ReportFilter) ([]domain.AggregateReport, error) {
	ctx, span := otel.Tracer("services/ReportService").Start(ctx, "List", filterAttrs(f))
	defer span.End()

	q, err := s.query(f)
	if err != nil {
		return nil, err
	}
	return s.Store.ListReports(ctx, s.DB, q)
}

// Expired returns the reports that left their window during the last half
// hour, newest first.
func (s *ReportService) Expired(ctx context.Context, f ReportFilter) ([]domain.AggregateReport, error) {
	ctx, span := otel.Tracer("services/ReportService").Start(ctx, "Expired", filterAttrs(f))
	defer span.End()

	q, err := s.query(f)
	if err != nil {
		return nil, err
	}
	return s.Store.ExpiredReports(ctx, s.DB, q)
}

// Get returns one aggregated report.
func (s *ReportService) Get(ctx context.Context, id int64) (*domain.AggregateReport, error) {
	r, err := s.Store.ReportByID(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	return r, err
}

// Archive returns the reports created in [start, end]. The range may span
// at most WindowMax.
func (s *ReportService) Archive(ctx context.Context, start, end time.Time, admin string) ([]domain.ArchivedReport, error) {
	ctx, span := otel.Tracer("services/ReportService").Start(ctx, "Archive",
		trace.WithAttributes(
			attribute.String("region", admin),
			attribute.String("range.start", start.Format(time.RFC3339)),
			attribute.String("range.end", end.Format(time.RFC3339)),
		),
	)
	defer span.End()

	if end.Before(start) {
		return nil, validation.Fail("end", "must not be before start")
	}
	if s.WindowMax > 0 && end.Sub(start) > s.WindowMax {
		return nil, validation.Fail("end", "range exceeds the maximum archive window")
	}
	if err := checkRegion(s.Regions, admin); err != nil {
		return nil, err
	}
	return s.Store.ArchivedReports(ctx, s.DB, start, end, admin, s.Limit)
}

// Vote adds delta (-1 or 1) to the report's points and returns the new total.
func (s *ReportService) Vote(ctx context.Context, id int64, delta int) (int, error) {
	if delta != 1 && delta != -1 {
		return 0, validation.Fail("points", "must be -1 or 1")
	}
	total, err := s.Store.AddPoint(ctx, s.DB, id, delta)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, ErrReportNotFound
	}
	return total, err
}

// Flag sets or clears the report's flag.
func (s *ReportService) Flag(ctx context.Context, id int64, flag bool) error {
	err := s.Store.SetFlag(ctx, s.DB, id, flag)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrReportNotFound
	}
	return err
}

func (s *ReportService) query(f ReportFilter) (repo.ReportQuery, error) {
	if err := checkRegion(s.Regions, f.Admin); err != nil {
		return repo.ReportQuery{}, err
	}
	if f.Disaster != "" && len(s.DisasterTypes) > 0 && !slices.Contains(s.DisasterTypes, f.Disaster) {
		return repo.ReportQuery{}, validation.Fail("disaster", "is not a known disaster type")
	}
	if f.Timeperiod < 0 || (s.WindowMax > 0 && f.Timeperiod > s.WindowMax) {
		return repo.ReportQuery{}, validation.Fail("timeperiod", "must be a positive number of seconds up to the maximum window")
	}
	return repo.ReportQuery{
		Windows:  s.Windows.Override(f.Timeperiod),
		Now:      s.Now(),
		Admin:    f.Admin,
		Disaster: f.Disaster,
		Limit:    s.Limit,
	}, nil
}

func filterAttrs(f ReportFilter) trace.SpanStartEventOption {
	return trace.WithAttributes(
		attribute.String("region", f.Admin),
		attribute.String("report.disaster_type", f.Disaster),
		attribute.Int64("report.timeperiod_s", int64(f.Timeperiod/time.Second)),
	)
}

// checkRegion accepts an empty admin or one listed in regions.
func checkRegion(regions []string, admin string) error {
	if admin == "" || len(regions) == 0 || slices.Contains(regions, admin) {
		return nil
	}
	return validation.Fail("admin", "is not a known region code")
}
