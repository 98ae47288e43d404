// Card HTTP handlers.
//
//   - POST  /cards                  (open a card)
//   - HEAD  /cards/{cardId}         (existence check)
//   - GET   /cards/{cardId}         (card with nested report)
//   - PUT   /cards/{cardId}         (submit report, Idempotency-Key aware)
//   - PATCH /cards/{cardId}         (attach image)
//   - GET   /cards/{cardId}/images  (presigned upload URL)
//   - GET   /cards/expiredcards     (cards whose report just left the window)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petabencana/sitioss-server/internal/domain"
	"github.com/petabencana/sitioss-server/internal/http/middleware"
)

// HeaderReplayed marks a response that replays an earlier submission.
const HeaderReplayed = "Idempotent-Replayed"

//
// DTOs
//

// CardCreatedResponse answers POST /cards.
type CardCreatedResponse struct {
	CardID  string `json:"cardId"  example:"3f1c1a52-8f6e-4b43-9c0e-7d8e6f0a1b2c"`
	Created bool   `json:"created" example:"true"`
}

// ReportSubmittedResponse answers PUT /cards/{cardId}. CardID is the card
// holding the report, which is a fresh card for an earthquake
// sub-submission.
type ReportSubmittedResponse struct {
	StatusCode int    `json:"statusCode" example:"200"`
	CardID     string `json:"cardId"     example:"3f1c1a52-8f6e-4b43-9c0e-7d8e6f0a1b2c"`
	Created    bool   `json:"created"    example:"true"`
}

// AttachImageRequest is the body of PATCH /cards/{cardId}.
type AttachImageRequest struct {
	// ImageURL is the uploaded object name, without host or extension.
	ImageURL string `json:"image_url" binding:"required" example:"3f1c1a52-8f6e-4b43-9c0e-7d8e6f0a1b2c"`
}

// CardUpdatedResponse answers PATCH /cards/{cardId}.
type CardUpdatedResponse struct {
	StatusCode int    `json:"statusCode" example:"200"`
	CardID     string `json:"cardId"     example:"3f1c1a52-8f6e-4b43-9c0e-7d8e6f0a1b2c"`
	Updated    bool   `json:"updated"    example:"true"`
}

// cardID reads and checks the :cardId path parameter. It aborts with 400
// and returns false when the id is not a UUID.
func cardID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("cardId"))
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cardId must be a UUID")
		return "", false
	}
	return id, true
}

//
// Handlers
//

// CreateCard godoc
// @ID          createCard
// @Summary     Open a report card
// @Description Creates a card in state NEW and returns its id. The report is submitted later against this id.
// @Tags        Cards
// @Accept      json
// @Produce     json
//
// @Param       body  body  domain.NewCard  true  "Card owner"
//
// @Success     200  {object}  handlers.CardCreatedResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /cards [post]
func (h *Handlers) CreateCard(c *gin.Context) {
	var req domain.NewCard
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	card, err := h.intake.CreateCard(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, CardCreatedResponse{CardID: card.CardID, Created: true})
}

// CardExists godoc
// @ID          cardExists
// @Summary     Check that a card exists
// @Tags        Cards
//
// @Param       cardId  path  string  true  "Card id (UUID)"
//
// @Success     200  "Card exists"
// @Failure     404  "No such card"
// @Router      /cards/{cardId} [head]
func (h *Handlers) CardExists(c *gin.Context) {
	id := strings.TrimSpace(c.Param("cardId"))
	found, err := h.intake.CardExists(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}

// GetCard godoc
// @ID          getCard
// @Summary     Get a card
// @Description Returns the card and its report; report is null until one is submitted.
// @Tags        Cards
// @Produce     json
//
// @Param       cardId  path  string  true  "Card id (UUID)"
//
// @Success     200  {object}  handlers.Result{result=domain.CardView}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /cards/{cardId} [get]
func (h *Handlers) GetCard(c *gin.Context) {
	id, valid := cardID(c)
	if !valid {
		return
	}
	card, err := h.intake.Card(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, Result{StatusCode: http.StatusOK, Result: card})
}

// SubmitReport godoc
// @ID          submitReport
// @Summary     Submit the report of a card
// @Description Stores the report and marks the card received. A received card accepts only an earthquake sub-submission, which opens a new card.
// @Description A repeated Idempotency-Key replays the first result.
// @Tags        Cards
// @Accept      json
// @Produce     json
//
// @Param       cardId           path    string                   true   "Card id (UUID)"
// @Param       Idempotency-Key  header  string                   false  "Client retry key"
// @Param       body             body    domain.ReportSubmission  true   "Report"
//
// @Success     200  {object}  handlers.ReportSubmittedResponse
// @Header      200  {string}  Idempotent-Replayed  "true when the result was replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Report already received"
// @Failure     504  {object}  handlers.ErrorResponse  "Database timeout"
// @Router      /cards/{cardId} [put]
func (h *Handlers) SubmitReport(c *gin.Context) {
	id, valid := cardID(c)
	if !valid {
		return
	}
	var req domain.ReportSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	res, err := h.intake.SubmitReport(c.Request.Context(), middleware.PrincipalKey(c), id, key, req)
	if err != nil {
		respondError(c, err)
		return
	}
	if res.Replayed {
		c.Header(HeaderReplayed, "true")
	}
	ok(c, http.StatusOK, ReportSubmittedResponse{StatusCode: http.StatusOK, CardID: res.CardID, Created: true})
}

// AttachImage godoc
// @ID          attachImage
// @Summary     Attach the uploaded image to a card report
// @Description Only a received card without an image accepts one.
// @Tags        Cards
// @Accept      json
// @Produce     json
//
// @Param       cardId  path  string                         true  "Card id (UUID)"
// @Param       body    body  handlers.AttachImageRequest  true  "Uploaded image name"
//
// @Success     200  {object}  handlers.CardUpdatedResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Report not received or image exists"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /cards/{cardId} [patch]
func (h *Handlers) AttachImage(c *gin.Context) {
	id, valid := cardID(c)
	if !valid {
		return
	}
	var req AttachImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.intake.AttachImage(c.Request.Context(), id, req.ImageURL); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, CardUpdatedResponse{StatusCode: http.StatusOK, CardID: id, Updated: true})
}

// ImageUpload godoc
// @ID          imageUpload
// @Summary     Get a presigned URL for a card image
// @Description The request Content-Type names the image type to be uploaded.
// @Tags        Cards
// @Produce     json
//
// @Param       cardId        path    string  true  "Card id (UUID)"
// @Param       Content-Type  header  string  true  "Image type"  example(image/jpeg)
//
// @Success     200  {object}  services.ImageUpload
// @Failure     400  {object}  handlers.ErrorResponse  "Unsupported image type"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /cards/{cardId}/images [get]
func (h *Handlers) ImageUpload(c *gin.Context) {
	id, valid := cardID(c)
	if !valid {
		return
	}
	up, err := h.intake.ImageUpload(c.Request.Context(), id, c.GetHeader("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, up)
}

// ExpiredCards godoc
// @ID          expiredCards
// @Summary     Cards whose report just left the flood window
// @Tags        Cards
// @Produce     json
//
// @Success     200  {object}  handlers.Result{result=[]domain.CardView}
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /cards/expiredcards [get]
func (h *Handlers) ExpiredCards(c *gin.Context) {
	cards, err := h.intake.ExpiredCards(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, Result{StatusCode: http.StatusOK, Result: cards})
}
