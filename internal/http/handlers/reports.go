// Report HTTP handlers.
//
//   - GET   /reports             (reports inside their window)
//   - GET   /reports/expired     (reports that just left their window)
//   - GET   /reports/archive     (reports created in [start, end])
//   - GET   /reports/{id}        (one report)
//   - PATCH /reports/{id}        (vote)
//   - PATCH /reports/{id}/flag   (flag)
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/petabencana/sitioss-server/internal/services"
	"github.com/petabencana/sitioss-server/internal/utils"
	"github.com/petabencana/sitioss-server/internal/validation"
)

// VoteRequest is the body of PATCH /reports/{id}.
type VoteRequest struct {
	Points int `json:"points" binding:"required" example:"1"`
}

// VoteResponse carries the report's new point total.
type VoteResponse struct {
	StatusCode int   `json:"statusCode" example:"200"`
	ID         int64 `json:"id"         example:"42"`
	Points     int   `json:"points"     example:"3"`
}

// FlagRequest is the body of PATCH /reports/{id}/flag.
type FlagRequest struct {
	Flag *bool `json:"flag" binding:"required" example:"true"`
}

// FlagResponse echoes the stored flag.
type FlagResponse struct {
	StatusCode int   `json:"statusCode" example:"200"`
	ID         int64 `json:"id"         example:"42"`
	Flag       bool  `json:"flag"       example:"true"`
}

func reportID(c *gin.Context) (int64, bool) {
	id, err := utils.PositiveID(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func reportFilter(c *gin.Context) (services.ReportFilter, bool) {
	period, err := utils.Seconds(c.Query("timeperiod"))
	if err != nil {
		respondError(c, validation.Fail("timeperiod", "must be a positive number of seconds"))
		return services.ReportFilter{}, false
	}
	return services.ReportFilter{
		Admin:      c.Query("admin"),
		Disaster:   strings.TrimSpace(c.Query("disaster")),
		Timeperiod: period,
	}, true
}

// ListReports godoc
// @ID          listReports
// @Summary     Reports inside their time window
// @Description Each disaster type has its own window; timeperiod replaces all of them.
// @Tags        Reports
// @Produce     json
//
// @Param       admin       query  string  false  "Region code"  example(ID-JK)
// @Param       disaster    query  string  false  "Disaster type"  example(flood)
// @Param       timeperiod  query  int     false  "Window in seconds"  minimum(1)
// @Param       format      query  string  false  "Output format"  default(json)
//
// @Success     200  {object}  handlers.Result{result=[]domain.AggregateReport}
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Router      /reports [get]
func (h *Handlers) ListReports(c *gin.Context) {
	f, valid := reportFilter(c)
	if !valid {
		return
	}
	rows, err := h.reports.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	h.render(c, rows)
}

// ExpiredReports godoc
// @ID          expiredReports
// @Summary     Reports that left their window in the last half hour
// @Tags        Reports
// @Produce     json
//
// @Param       admin       query  string  false  "Region code"  example(ID-JK)
// @Param       disaster    query  string  false  "Disaster type"  example(flood)
// @Param       timeperiod  query  int     false  "Window in seconds"  minimum(1)
// @Param       format      query  string  false  "Output format"  default(json)
//
// @Success     200  {object}  handlers.Result{result=[]domain.AggregateReport}
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Router      /reports/expired [get]
func (h *Handlers) ExpiredReports(c *gin.Context) {
	f, valid := reportFilter(c)
	if !valid {
		return
	}
	rows, err := h.reports.Expired(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	h.render(c, rows)
}

// ArchiveReports godoc
// @ID          archiveReports
// @Summary     Reports created between two instants
// @Tags        Reports
// @Produce     json
//
// @Param       start   query  string  true   "Range start (RFC 3339)"  example(2026-01-01T00:00:00+07:00)
// @Param       end     query  string  true   "Range end (RFC 3339)"    example(2026-01-02T00:00:00+07:00)
// @Param       admin   query  string  false  "Region code"  example(ID-JK)
// @Param       format  query  string  false  "Output format"  default(json)
//
// @Success     200  {object}  handlers.Result{result=[]domain.ArchivedReport}
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Router      /reports/archive [get]
func (h *Handlers) ArchiveReports(c *gin.Context) {
	var violations []validation.Violation
	parse := func(name string) time.Time {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			violations = append(violations, validation.Violation{Field: name, Message: "is required"})
			return time.Time{}
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			violations = append(violations, validation.Violation{Field: name, Message: "must be an RFC 3339 timestamp"})
		}
		return t
	}
	start, end := parse("start"), parse("end")
	if len(violations) > 0 {
		respondError(c, &validation.Error{Violations: violations})
		return
	}

	rows, err := h.reports.Archive(c.Request.Context(), start, end, c.Query("admin"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.render(c, rows)
}

// GetReport godoc
// @ID          getReport
// @Summary     Get one report
// @Tags        Reports
// @Produce     json
//
// @Param       id  path  int  true  "Report id"
//
// @Success     200  {object}  handlers.Result{result=domain.AggregateReport}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /reports/{id} [get]
func (h *Handlers) GetReport(c *gin.Context) {
	id, valid := reportID(c)
	if !valid {
		return
	}
	r, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, Result{StatusCode: http.StatusOK, Result: r})
}

// VoteReport godoc
// @ID          voteReport
// @Summary     Add or remove a point on a report
// @Tags        Reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  int                   true  "Report id"
// @Param       body  body  handlers.VoteRequest  true  "points is -1 or 1"
//
// @Success     200  {object}  handlers.VoteResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /reports/{id} [patch]
func (h *Handlers) VoteReport(c *gin.Context) {
	id, valid := reportID(c)
	if !valid {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	total, err := h.reports.Vote(c.Request.Context(), id, req.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, VoteResponse{StatusCode: http.StatusOK, ID: id, Points: total})
}

// FlagReport godoc
// @ID          flagReport
// @Summary     Flag or unflag a report
// @Tags        Reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  int                   true  "Report id"
// @Param       body  body  handlers.FlagRequest  true  "Flag value"
//
// @Success     200  {object}  handlers.FlagResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /reports/{id}/flag [patch]
func (h *Handlers) FlagReport(c *gin.Context) {
	id, valid := reportID(c)
	if !valid {
		return
	}
	var req FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.reports.Flag(c.Request.Context(), id, *req.Flag); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, FlagResponse{StatusCode: http.StatusOK, ID: id, Flag: *req.Flag})
}
