package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/petabencana/sitioss-server/internal/domain"
	"github.com/petabencana/sitioss-server/internal/http/middleware"
	"github.com/petabencana/sitioss-server/internal/repo"
	"github.com/petabencana/sitioss-server/internal/services"
	"github.com/petabencana/sitioss-server/internal/validation"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// env is a router over real services and an in-memory database.
type env struct {
	r       *gin.Engine
	db      *gorm.DB
	store   *repo.Store
	intake  *services.IntakeService
	areas   *services.AreaService
	reports *services.ReportService
	signer  *fakeSigner
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db, repo.FlatTables()); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	store := repo.NewStore(repo.FlatTables(), time.Second)
	store.NotifyPayload = func(_ *gorm.DB, cardID string) ([]byte, error) {
		return []byte(`{"card_id":"` + cardID + `"}`), nil
	}

	e := &env{db: db, store: store, signer: &fakeSigner{}}
	e.intake = services.NewIntakeService(db, store, validation.DefaultPolicy())
	e.intake.ImagesHost = "images.petabencana.id"
	e.intake.Images = e.signer
	e.areas = services.NewAreaService(db, store, []string{"ID-JK", "ID-JB"})
	e.reports = services.NewReportService(db, store)
	e.reports.Regions = []string{"ID-JK", "ID-JB"}
	e.reports.Now = func() time.Time { return testNow }

	lookup := func(ctx context.Context, principal, cardID, key string, now time.Time) (bool, error) {
		_, err := store.GetIdempotency(ctx, db, principal, cardID, key, now)
		return err == nil, nil
	}

	h := New(e.intake, e.areas, e.reports)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup))

	cards := r.Group("/cards")
	cards.POST("", h.CreateCard)
	cards.GET("/expiredcards", h.ExpiredCards)
	cards.HEAD("/:cardId", h.CardExists)
	cards.GET("/:cardId", h.GetCard)
	cards.PUT("/:cardId", h.SubmitReport)
	cards.PATCH("/:cardId", h.AttachImage)
	cards.GET("/:cardId/images", h.ImageUpload)

	floods := r.Group("/floods")
	floods.GET("", h.ListFloods)
	floods.GET("/states", h.ListStates)
	floods.GET("/places", h.ListPlaces)
	floods.PUT("/:localAreaId", h.SetState)
	floods.DELETE("/:localAreaId", h.ClearState)
	floods.GET("/:localAreaId/log", h.StateLog)

	reports := r.Group("/reports")
	reports.GET("", h.ListReports)
	reports.GET("/expired", h.ExpiredReports)
	reports.GET("/archive", h.ArchiveReports)
	reports.GET("/:id", h.GetReport)
	reports.PATCH("/:id", h.VoteReport)
	reports.PATCH("/:id/flag", h.FlagReport)

	e.r = r
	return e
}

// do sends a request; a non-nil body that is not a string is JSON-encoded.
func (e *env) do(t *testing.T, method, target string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// result decodes the {statusCode, result} envelope.
func result[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		StatusCode int `json:"statusCode"`
		Result     T   `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	if env.StatusCode != http.StatusOK {
		t.Fatalf("statusCode = %d", env.StatusCode)
	}
	return env.Result
}

func (e *env) newCard(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/cards", map[string]any{"username": "citizen", "network": "website", "language": "en"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("create card: %d %s", w.Code, w.Body.String())
	}
	return decode[CardCreatedResponse](t, w).CardID
}

func (e *env) seedArea(t *testing.T, id int64, region string) {
	t.Helper()
	a := domain.LocalArea{PKey: id, AreaName: fmt.Sprintf("RW %d", id), ParentName: "Menteng", InstanceRegionCode: region}
	if err := e.db.Table(e.store.Tables.LocalAreas).Create(&a).Error; err != nil {
		t.Fatalf("seed area: %v", err)
	}
}

func (e *env) seedReport(t *testing.T, disaster, region string, ago time.Duration) int64 {
	t.Helper()
	r := domain.AggregateReport{
		CreatedAt:    testNow.Add(-ago),
		Source:       "grasp",
		DisasterType: disaster,
		Tags:         map[string]any{"instance_region_code": region},
		ReportData:   map[string]any{"report_type": disaster},
	}
	if err := e.db.Table(e.store.Tables.AllReports).Create(&r).Error; err != nil {
		t.Fatalf("seed report: %v", err)
	}
	return r.PKey
}

func floodBody(subSubmission bool) map[string]any {
	return map[string]any{
		"disaster_type":  "flood",
		"sub_submission": subSubmission,
		"card_data":      map[string]any{"report_type": "flood", "flood_depth": 40},
		"text":           "water rising",
		"created_at":     "2024-05-01T10:00:00Z",
		"location":       map[string]any{"lat": -6.2, "lng": 106.8},
	}
}

func violationFields(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	resp := decode[ErrorResponse](t, w)
	if resp.Code != ErrCodeValidation {
		t.Fatalf("code = %q, body %s", resp.Code, w.Body.String())
	}
	out := make([]string, 0, len(resp.Violations))
	for _, v := range resp.Violations {
		out = append(out, v.Field)
	}
	return out
}

type fakeSigner struct{ key string }

func (s *fakeSigner) PresignPut(_ context.Context, key, _ string) (string, error) {
	s.key = key
	return "https://signed.example/" + key, nil
}

func (s *fakeSigner) PublicURL(key string) string {
	return "https://s3.ap-southeast-1.amazonaws.com/bucket/" + key
}
