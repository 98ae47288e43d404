package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/petabencana/sitioss-server/internal/repo"
	"github.com/petabencana/sitioss-server/internal/services"
	"github.com/petabencana/sitioss-server/internal/validation"
)

func Test_fail_500_LogsAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-500" || resp.Code != ErrCodeInternal || resp.Message != "kaboom" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func Test_respondError_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{validation.Fail("state", "must be between 1 and 4"), http.StatusBadRequest, ErrCodeValidation},
		{services.ErrCardNotFound, http.StatusNotFound, ErrCodeNotFound},
		{fmt.Errorf("lookup: %w", services.ErrAreaNotFound), http.StatusNotFound, ErrCodeNotFound},
		{services.ErrReportNotFound, http.StatusNotFound, ErrCodeNotFound},
		{repo.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrReportExists, http.StatusConflict, ErrCodeConflict},
		{services.ErrImageForbidden, http.StatusForbidden, ErrCodeForbidden},
		{services.ErrUnsupportedImage, http.StatusBadRequest, ErrCodeUnsupportedImage},
		{fmt.Errorf("%w: statement timeout", repo.ErrTimeout), http.StatusGatewayTimeout, ErrCodeTimeout},
		{fmt.Errorf("%w: connection refused", repo.ErrStorage), http.StatusInternalServerError, ErrCodeInternal},
		{errors.New("anything else"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) { respondError(c, tc.err) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		var resp ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%v: json: %v", tc.err, err)
		}
		if w.Code != tc.status || resp.Code != tc.code {
			t.Fatalf("%v: got %d %q, want %d %q", tc.err, w.Code, resp.Code, tc.status, tc.code)
		}
		if tc.status >= 500 && strings.Contains(resp.Message, "connection refused") {
			t.Fatalf("internal detail leaked: %q", resp.Message)
		}
	}
}

func Test_respondError_CarriesViolations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		respondError(c, &validation.Error{Violations: []validation.Violation{
			{Field: "location.lat", Message: "is required"},
			{Field: "card_data.flood_depth", Message: "must be between 0 and 200"},
		}})
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Violations) != 2 || resp.Violations[1].Field != "card_data.flood_depth" {
		t.Fatalf("violations = %+v", resp.Violations)
	}
}

// csvFormatter is a formatter with its own content type.
type csvFormatter struct{}

func (csvFormatter) Format() string      { return "csv" }
func (csvFormatter) ContentType() string { return "text/csv" }
func (csvFormatter) Write(w io.Writer, v any) error {
	for _, s := range v.([]string) {
		if _, err := io.WriteString(w, s+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func Test_render_Formats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(nil, nil, nil)
	h.RegisterFormat(csvFormatter{})

	r := gin.New()
	r.GET("/x", func(c *gin.Context) { h.render(c, []string{"a", "b"}) })
	get := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	w := get("/x")
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("default: %d %v", w.Code, w.Header())
	}
	var env Result
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || env.StatusCode != 200 {
		t.Fatalf("envelope: %s (%v)", w.Body.String(), err)
	}

	w = get("/x?format=csv")
	if w.Header().Get("Content-Type") != "text/csv" || w.Body.String() != "a\nb\n" {
		t.Fatalf("csv: %v %q", w.Header(), w.Body.String())
	}

	if w = get("/x?format=topojson"); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown format: %d", w.Code)
	}
}

func Test_respondError_TimeoutLogsCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/slow", func(c *gin.Context) {
		respondError(c, fmt.Errorf("%w: canceling statement due to statement timeout", repo.ErrTimeout))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(buf.String(), "canceling statement due to statement timeout") {
		t.Fatalf("timeout cause not logged: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"message":"request timed out"`) {
		t.Fatalf("expected timeout log, got: %s", buf.String())
	}
}
