// Package handlers exposes the REST endpoints for cards, flood states and
// reports.
//
// Handlers are transport-thin: they bind and check input, call the
// application services, and translate results into HTTP responses.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/petabencana/sitioss-server/internal/domain"
	"github.com/petabencana/sitioss-server/internal/repo"
	"github.com/petabencana/sitioss-server/internal/services"
)

//
// Service contracts (context-aware)
//

// IntakeService drives the card lifecycle. *services.IntakeService
// satisfies it.
type IntakeService interface {
	CreateCard(ctx context.Context, in domain.NewCard) (*domain.Card, error)
	Card(ctx context.Context, id string) (*domain.CardView, error)
	CardExists(ctx context.Context, id string) (bool, error)
	SubmitReport(ctx context.Context, principal, cardID, key string, in domain.ReportSubmission) (*services.SubmitResult, error)
	AttachImage(ctx context.Context, cardID, name string) error
	ImageUpload(ctx context.Context, cardID, contentType string) (*services.ImageUpload, error)
	ExpiredCards(ctx context.Context) ([]domain.CardView, error)
}

// AreaService manages per-area flood state. *services.AreaService
// satisfies it.
type AreaService interface {
	SetState(ctx context.Context, areaID int64, state int, username string) (*domain.AreaState, error)
	ClearState(ctx context.Context, areaID int64, username string) error
	States(ctx context.Context, admin string, minState int) ([]domain.AreaState, error)
	Areas(ctx context.Context, q repo.AreaQuery) ([]domain.AreaWithState, error)
	Places(ctx context.Context, admin string) ([]domain.LocalArea, error)
	History(ctx context.Context, areaID int64) ([]domain.RemStatusLog, error)
	StatesVersion(ctx context.Context, admin string) (string, error)
}

// ReportService reads windowed report aggregates and records votes and
// flags. *services.ReportService satisfies it.
type ReportService interface {
	List(ctx context.Context, f services.ReportFilter) ([]domain.AggregateReport, error)
	Expired(ctx context.Context, f services.ReportFilter) ([]domain.AggregateReport, error)
	Get(ctx context.Context, id int64) (*domain.AggregateReport, error)
	Archive(ctx context.Context, start, end time.Time, admin string) ([]domain.ArchivedReport, error)
	Vote(ctx context.Context, id int64, delta int) (int, error)
	Flag(ctx context.Context, id int64, flag bool) error
}

//
// Handler wiring
//

// DefaultFormat is used when a listing request names no format.
const DefaultFormat = "json"

// Handlers groups the HTTP endpoints.
type Handlers struct {
	intake  IntakeService
	areas   AreaService
	reports ReportService

	formats map[string]services.GeoFormatter
}

// New constructs Handlers bound to the given services. Listings render as
// plain JSON; more output formats can be added with RegisterFormat.
func New(intake IntakeService, areas AreaService, reports ReportService) *Handlers {
	useJSONFieldNames()
	h := &Handlers{
		intake:  intake,
		areas:   areas,
		reports: reports,
		formats: map[string]services.GeoFormatter{},
	}
	h.RegisterFormat(jsonFormatter{})
	return h
}

// RegisterFormat makes f selectable with ?format=<f.Format()>.
func (h *Handlers) RegisterFormat(f services.GeoFormatter) {
	h.formats[f.Format()] = f
}

// render writes a listing in the format requested by ?format.
func (h *Handlers) render(c *gin.Context, v any) {
	name := c.DefaultQuery("format", DefaultFormat)
	f, found := h.formats[name]
	if !found {
		fail(c, http.StatusBadRequest, ErrCodeUnsupportedFormat, "unsupported format '"+name+"'")
		return
	}
	var buf bytes.Buffer
	if err := f.Write(&buf, v); err != nil {
		respondError(c, err)
		return
	}
	ct := "application/json; charset=utf-8"
	if typed, ok := f.(interface{ ContentType() string }); ok {
		ct = typed.ContentType()
	}
	c.Data(http.StatusOK, ct, buf.Bytes())
}

// jsonFormatter renders the {statusCode, result} envelope.
type jsonFormatter struct{}

func (jsonFormatter) Format() string { return DefaultFormat }

func (jsonFormatter) Write(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(Result{StatusCode: http.StatusOK, Result: v})
}
