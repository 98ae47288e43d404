// Flood-state (REM) HTTP handlers.
//
//   - GET    /floods                     (areas joined with state)
//   - GET    /floods/states              (state rows only, ETag aware)
//   - GET    /floods/places              (areas without state)
//   - PUT    /floods/{localAreaId}       (set state)
//   - DELETE /floods/{localAreaId}       (clear state)
//   - GET    /floods/{localAreaId}/log   (audit trail)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/petabencana/sitioss-server/internal/domain"
	"github.com/petabencana/sitioss-server/internal/repo"
	"github.com/petabencana/sitioss-server/internal/utils"
	"github.com/petabencana/sitioss-server/internal/validation"
)

// SetStateRequest is the body of PUT /floods/{localAreaId}.
type SetStateRequest struct {
	State int `json:"state" binding:"required" example:"2"`
}

// AreaStateResponse answers a REM write. State is null after a clear.
type AreaStateResponse struct {
	LocalAreaID int64 `json:"localAreaId" example:"5"`
	State       *int  `json:"state"       example:"2"`
	Updated     bool  `json:"updated"     example:"true"`
}

// FloodArea is one row of GET /floods: the area, its state, and the
// description of that state when one is set.
type FloodArea struct {
	domain.AreaWithState
	*domain.RemState
}

func areaID(c *gin.Context) (int64, bool) {
	id, err := utils.PositiveID(c.Param("localAreaId"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "localAreaId must be a positive integer")
		return 0, false
	}
	return id, true
}

func minimumState(c *gin.Context) (int, bool) {
	n, err := utils.OptionalInt(c.Query("minimum_state"), 0)
	if err != nil {
		respondError(c, validation.Fail("minimum_state", "must be an integer"))
		return 0, false
	}
	return n, true
}

// username is the REM actor recorded in the audit log.
func username(c *gin.Context) (string, bool) {
	u := strings.TrimSpace(c.Query("username"))
	if u == "" {
		respondError(c, validation.Fail("username", "is required"))
		return "", false
	}
	return u, true
}

// ListFloods godoc
// @ID          listFloods
// @Summary     Areas with their flood state
// @Description Left join of local areas and REM state; minimum_state keeps only areas at or above that state.
// @Tags        Floods
// @Produce     json
//
// @Param       admin          query  string  false  "Region code"  example(ID-JK)
// @Param       parent         query  string  false  "Parent area name"
// @Param       minimum_state  query  int     false  "Lowest state to include"  minimum(1) maximum(4)
// @Param       format         query  string  false  "Output format"  default(json)
//
// @Success     200  {object}  handlers.Result{result=[]handlers.FloodArea}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /floods [get]
func (h *Handlers) ListFloods(c *gin.Context) {
	minState, valid := minimumState(c)
	if !valid {
		return
	}
	rows, err := h.areas.Areas(c.Request.Context(), repo.AreaQuery{
		Admin:    c.Query("admin"),
		Parent:   strings.TrimSpace(c.Query("parent")),
		MinState: minState,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]FloodArea, 0, len(rows))
	for _, a := range rows {
		out = append(out, FloodArea{AreaWithState: a, RemState: a.Describe()})
	}
	h.render(c, out)
}

// ListStates godoc
// @ID          listFloodStates
// @Summary     Current flood states
// @Description Returns only the state rows. Supports a weak ETag via If-None-Match and may return 304.
// @Tags        Floods
// @Produce     json
//
// @Param       admin          query   string  false  "Region code"  example(ID-JK)
// @Param       minimum_state  query   int     false  "Lowest state to include"  minimum(1) maximum(4)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.Result{result=[]domain.AreaState}
// @Header      200  {string}  ETag  "Weak ETag of the state table"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /floods/states [get]
func (h *Handlers) ListStates(c *gin.Context) {
	ctx := c.Request.Context()
	minState, valid := minimumState(c)
	if !valid {
		return
	}
	admin := c.Query("admin")

	// A failed version lookup only costs the conditional response.
	if etag, err := h.areas.StatesVersion(ctx, admin); err == nil {
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	states, err := h.areas.States(ctx, admin, minState)
	if err != nil {
		respondError(c, err)
		return
	}
	h.render(c, states)
}

// ListPlaces godoc
// @ID          listPlaces
// @Summary     Local areas without state
// @Tags        Floods
// @Produce     json
//
// @Param       admin  query  string  false  "Region code"  example(ID-JK)
//
// @Success     200  {object}  handlers.Result{result=[]domain.LocalArea}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /floods/places [get]
func (h *Handlers) ListPlaces(c *gin.Context) {
	places, err := h.areas.Places(c.Request.Context(), c.Query("admin"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.render(c, places)
}

// SetState godoc
// @ID          setFloodState
// @Summary     Set the flood state of an area
// @Description The last writer wins; every change is written to the audit log.
// @Tags        Floods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       localAreaId  path   int                       true  "Area id"
// @Param       username     query  string                    true  "Operator recorded in the log"
// @Param       body         body   handlers.SetStateRequest  true  "New state (1-4)"
//
// @Success     200  {object}  handlers.AreaStateResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown area"
// @Router      /floods/{localAreaId} [put]
func (h *Handlers) SetState(c *gin.Context) {
	id, valid := areaID(c)
	if !valid {
		return
	}
	user, valid := username(c)
	if !valid {
		return
	}
	var req SetStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	st, err := h.areas.SetState(c.Request.Context(), id, req.State, user)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, AreaStateResponse{LocalAreaID: st.AreaID, State: &st.State, Updated: true})
}

// ClearState godoc
// @ID          clearFloodState
// @Summary     Clear the flood state of an area
// @Description Clearing an area without state is not an error; the clear is still logged.
// @Tags        Floods
// @Produce     json
// @Security    BearerAuth
//
// @Param       localAreaId  path   int     true  "Area id"
// @Param       username     query  string  true  "Operator recorded in the log"
//
// @Success     200  {object}  handlers.AreaStateResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown area"
// @Router      /floods/{localAreaId} [delete]
func (h *Handlers) ClearState(c *gin.Context) {
	id, valid := areaID(c)
	if !valid {
		return
	}
	user, valid := username(c)
	if !valid {
		return
	}
	if err := h.areas.ClearState(c.Request.Context(), id, user); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, AreaStateResponse{LocalAreaID: id, Updated: true})
}

// StateLog godoc
// @ID          floodStateLog
// @Summary     Audit trail of an area's flood state
// @Tags        Floods
// @Produce     json
// @Security    BearerAuth
//
// @Param       localAreaId  path   int     true   "Area id"
// @Param       format       query  string  false  "Output format"  default(json)
//
// @Success     200  {object}  handlers.Result{result=[]domain.RemStatusLog}
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /floods/{localAreaId}/log [get]
func (h *Handlers) StateLog(c *gin.Context) {
	id, valid := areaID(c)
	if !valid {
		return
	}
	rows, err := h.areas.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.render(c, rows)
}
