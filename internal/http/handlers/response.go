// Package handlers provides the HTTP handlers of the public API.
//
// This file holds the response helpers shared by every endpoint: the error
// envelope, the success envelope of the read endpoints, and the mapping
// from service errors to HTTP statuses.
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "card not found"
//	}
//
//	HTTP/1.1 200 OK
//	{ "statusCode": 200, "result": [ ... ] }
package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/petabencana/sitioss-server/internal/http/middleware"
	"github.com/petabencana/sitioss-server/internal/observability"
	"github.com/petabencana/sitioss-server/internal/repo"
	"github.com/petabencana/sitioss-server/internal/services"
	"github.com/petabencana/sitioss-server/internal/validation"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"card not found"`
	// Field-level failures of a rejected payload
	Violations []validation.Violation `json:"violations,omitempty"`
}

// Result is the success envelope of the read endpoints.
type Result struct {
	StatusCode int `json:"statusCode" example:"200"`
	Result     any `json:"result"`
}

// fail aborts the request with a structured error. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	abort(c, status, ErrorResponse{Code: code, Message: msg})
}

func abort(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = c.Writer.Header().Get("X-Request-ID")
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallback handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// respondError maps a service error onto the envelope. Unknown errors are
// reported to Sentry and answered with a generic message.
func respondError(c *gin.Context, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		abort(c, http.StatusBadRequest, ErrorResponse{
			Code:       ErrCodeValidation,
			Message:    "request failed validation",
			Violations: verr.Violations,
		})
	case errors.Is(err, services.ErrCardNotFound),
		errors.Is(err, services.ErrAreaNotFound),
		errors.Is(err, services.ErrReportNotFound),
		errors.Is(err, repo.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrReportExists):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrImageForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrUnsupportedImage):
		fail(c, http.StatusBadRequest, ErrCodeUnsupportedImage, err.Error())
	case errors.Is(err, repo.ErrTimeout):
		capture(c, err)
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Msg("request timed out")
		fail(c, http.StatusGatewayTimeout, ErrCodeTimeout, "the database did not answer in time")
	default:
		capture(c, err)
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Msg("request failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

func capture(c *gin.Context, err error) {
	observability.CaptureError(err, map[string]string{
		"request_id": middleware.RequestIDFrom(c),
		"route":      c.FullPath(),
	})
}

// bindError answers a request whose body did not bind. Validator failures
// become violations keyed by JSON field name; anything else is a malformed
// body.
func bindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed JSON body")
		return
	}
	out := make([]validation.Violation, 0, len(ve))
	for _, fe := range ve {
		msg := "is invalid"
		if fe.Tag() == "required" {
			msg = "is required"
		}
		out = append(out, validation.Violation{Field: fe.Field(), Message: msg})
	}
	respondError(c, &validation.Error{Violations: out})
}

var tagNameOnce sync.Once

// useJSONFieldNames makes the binding validator report JSON names.
func useJSONFieldNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}
