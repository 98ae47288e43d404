package services

import (
	"context"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/petabencana/sitioss-server/internal/domain"
	"github.com/petabencana/sitioss-server/internal/notify"
	"github.com/petabencana/sitioss-server/internal/repo"
)

// CardStore is the persistence contract required by IntakeService.
// *repo.Store satisfies it.
type CardStore interface {
	CreateCard(ctx context.Context, db *gorm.DB, in domain.NewCard) (*domain.Card, error)
	CardExists(ctx context.Context, db *gorm.DB, id string) (bool, error)
	CardByID(ctx context.Context, db *gorm.DB, id string) (*domain.CardView, error)
	SubmitReport(ctx context.Context, db *gorm.DB, cardID string, in domain.ReportSubmission, claim *repo.IdempotencyClaim) (*domain.Submission, error)
	AttachImage(ctx context.Context, db *gorm.DB, cardID, imageURL string) error
	ExpiredCards(ctx context.Context, db *gorm.DB, start, end time.Time) ([]domain.CardView, error)

	GetIdempotency(ctx context.Context, db *gorm.DB, principal, cardID, key string, now time.Time) (*domain.Idempotency, error)
	PurgeIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}

// AreaStore is the persistence contract required by AreaService.
type AreaStore interface {
	SetAreaState(ctx context.Context, db *gorm.DB, areaID int64, state int, username string, now time.Time) (*domain.AreaState, error)
	ClearAreaState(ctx context.Context, db *gorm.DB, areaID int64, username string, now time.Time) error
	ListAreaStates(ctx context.Context, db *gorm.DB, admin string, minState int) ([]domain.AreaState, error)
	ListAreas(ctx context.Context, db *gorm.DB, q repo.AreaQuery) ([]domain.AreaWithState, error)
	ListPlaces(ctx context.Context, db *gorm.DB, admin string) ([]domain.LocalArea, error)
	RemStats(ctx context.Context, db *gorm.DB, admin string) (int64, *time.Time, error)
	RemLog(ctx context.Context, db *gorm.DB, areaID int64) ([]domain.RemStatusLog, error)
}

// ReportStore is the persistence contract required by ReportService.
type ReportStore interface {
	ListReports(ctx context.Context, db *gorm.DB, q repo.ReportQuery) ([]domain.AggregateReport, error)
	ExpiredReports(ctx context.Context, db *gorm.DB, q repo.ReportQuery) ([]domain.AggregateReport, error)
	ReportByID(ctx context.Context, db *gorm.DB, id int64) (*domain.AggregateReport, error)
	ArchivedReports(ctx context.Context, db *gorm.DB, start, end time.Time, admin string, limit int) ([]domain.ArchivedReport, error)
	AddPoint(ctx context.Context, db *gorm.DB, id int64, delta int) (int, error)
	SetFlag(ctx context.Context, db *gorm.DB, id int64, flag bool) error
}

// Notifier accepts report-received notifications without blocking.
// *notify.Dispatcher satisfies it.
type Notifier interface {
	Enqueue(m notify.Message) bool
}

// Invalidator drops cached responses of a group. *cache.Cache satisfies it.
type Invalidator interface {
	Invalidate(group string)
}

// ImageSigner issues upload URLs for card images. *storage.S3Images
// satisfies it.
type ImageSigner interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	PublicURL(key string) string
}

// GeoFormatter renders a list of records in an output format such as
// GeoJSON, TopoJSON or CAP. The service returns plain JSON projections; a
// formatter is applied by the transport when one is registered for the
// requested format.
type GeoFormatter interface {
	// Format names the output format handled, e.g. "geojson".
	Format() string
	// Write renders v to w.
	Write(w io.Writer, v any) error
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(string) {}
