// Package services – IntakeService
//
// IntakeService drives the card lifecycle: open a card, submit its report
// (or an earthquake follow-up on a fresh card), and attach an image. Report
// payloads are validated before any store call. After a successful write the
// /cards cache group is invalidated and, for submissions, a notification is
// queued; neither step can fail the request.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/petabencana/sitioss-server/internal/cache"
	"github.com/petabencana/sitioss-server/internal/domain"
	"github.com/petabencana/sitioss-server/internal/notify"
	"github.com/petabencana/sitioss-server/internal/observability"
	"github.com/petabencana/sitioss-server/internal/repo"
	"github.com/petabencana/sitioss-server/internal/validation"
)

// SubmitResult is what a report submission reports back to the caller.
type SubmitResult struct {
	// CardID is the card the report is stored on. It differs from the
	// requested card for an earthquake sub-submission.
	CardID string
	// NewCard is true when a fresh card was opened for the report.
	NewCard bool
	// Replayed is true when an earlier result was returned for a repeated
	// Idempotency-Key.
	Replayed bool
}

// ImageUpload is a presigned upload target for a card image.
type ImageUpload struct {
	SignedRequest string `json:"signedRequest"`
	URL           string `json:"url"`
}

// IntakeService implements the card lifecycle.
type IntakeService struct {
	DB     *gorm.DB
	Store  CardStore
	Policy validation.Policy

	Notifier Notifier
	Cache    Invalidator
	Images   ImageSigner

	// FloodWindow bounds the expired-cards sweep.
	FloodWindow time.Duration
	// ImagesHost is the CDN host used to expand attached image names.
	ImagesHost string
	// MimeTypes lists the accepted upload content types.
	MimeTypes []string
	// IdempotencyTTL is how long a submission result can be replayed.
	IdempotencyTTL time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

// NewIntakeService constructs an IntakeService with defaults matching the
// production configuration. Optional collaborators may be set afterwards.
func NewIntakeService(db *gorm.DB, store CardStore, policy validation.Policy) *IntakeService {
	return &IntakeService{
		DB:             db,
		Store:          store,
		Policy:         policy,
		Cache:          nopInvalidator{},
		FloodWindow:    repo.DefaultWindows()["flood"],
		MimeTypes:      []string{"image/png", "image/jpeg", "image/gif"},
		IdempotencyTTL: 24 * time.Hour,
		Now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *IntakeService) tracer() trace.Tracer { return otel.Tracer("services/IntakeService") }

// CreateCard opens a NEW card. The language is stored as given, trimmed.
func (s *IntakeService) CreateCard(ctx context.Context, in domain.NewCard) (*domain.Card, error) {
	ctx, span := s.tracer().Start(ctx, "CreateCard",
		trace.WithAttributes(attribute.String("card.network", in.Network)))
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Network = strings.TrimSpace(in.Network)
	if in.Username == "" {
		return nil, validation.Fail("username", "is required")
	}
	if in.Network == "" {
		return nil, validation.Fail("network", "is required")
	}
	in.Language = strings.TrimSpace(in.Language)
	if in.Language == "" {
		return nil, validation.Fail("language", "is required")
	}
	if tag, err := language.Parse(in.Language); err == nil {
		base, _ := tag.Base()
		span.SetAttributes(attribute.String("card.language_base", base.String()))
	}

	c, err := s.Store.CreateCard(ctx, s.DB, in)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("card.id", c.CardID))
	return c, nil
}

// Card returns the card with its report nested, or ErrCardNotFound.
func (s *IntakeService) Card(ctx context.Context, id string) (*domain.CardView, error) {
	ctx, span := s.tracer().Start(ctx, "Card", trace.WithAttributes(attribute.String("card.id", id)))
	defer span.End()

	v, err := s.Store.CardByID(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCardNotFound
	}
	return v, err
}

// CardExists reports whether a card exists.
func (s *IntakeService) CardExists(ctx context.Context, id string) (bool, error) {
	return s.Store.CardExists(ctx, s.DB, id)
}

// SubmitReport validates in and stores it against cardID. principal and key
// scope an optional Idempotency-Key: a repeated key replays the earlier
// result instead of writing again.
func (s *IntakeService) SubmitReport(ctx context.Context, principal, cardID, key string, in domain.ReportSubmission) (*SubmitResult, error) {
	ctx, span := s.tracer().Start(ctx, "SubmitReport",
		trace.WithAttributes(
			attribute.String("card.id", cardID),
			attribute.String("report.disaster_type", in.DisasterType),
			attribute.Bool("report.sub_submission", in.IsSubSubmission()),
		),
	)
	defer span.End()

	if err := s.Policy.CheckSubmission(in); err != nil {
		return nil, err
	}

	var claim *repo.IdempotencyClaim
	if key != "" {
		claim = &repo.IdempotencyClaim{
			Principal: principal,
			Key:       key,
			Status:    http.StatusOK,
			TTL:       s.IdempotencyTTL,
			Now:       s.Now(),
		}
	}

	sub, err := s.Store.SubmitReport(ctx, s.DB, cardID, in, claim)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil, ErrCardNotFound
	case errors.Is(err, repo.ErrConflict):
		return nil, ErrReportExists
	case err != nil:
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if sub.Replayed {
		span.SetAttributes(attribute.Bool("idempotency.replay", true))
		return &SubmitResult{CardID: sub.Card.CardID, NewCard: sub.NewCard, Replayed: true}, nil
	}

	observability.ReportsSubmitted.WithLabelValues(in.DisasterType).Inc()
	s.Cache.Invalidate(cache.GroupCards)
	s.enqueue(ctx, sub, in.TweetID)

	return &SubmitResult{CardID: sub.Card.CardID, NewCard: sub.NewCard}, nil
}

// AttachImage stores the image for a received card. name is the uploaded
// object name; it is expanded to https://<ImagesHost>/<name>.jpg.
func (s *IntakeService) AttachImage(ctx context.Context, cardID, name string) error {
	ctx, span := s.tracer().Start(ctx, "AttachImage", trace.WithAttributes(attribute.String("card.id", cardID)))
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return validation.Fail("image_url", "is required")
	}
	err := s.Store.AttachImage(ctx, s.DB, cardID, s.imageURL(name))
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrCardNotFound
	case errors.Is(err, repo.ErrNotReceived), errors.Is(err, repo.ErrImageExists):
		return ErrImageForbidden
	case err != nil:
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	s.Cache.Invalidate(cache.GroupCards)
	return nil
}

// ImageUpload presigns a PUT for the card's original image. The object key
// is originals/<cardID>.<subtype of contentType>.
func (s *IntakeService) ImageUpload(ctx context.Context, cardID, contentType string) (*ImageUpload, error) {
	ctx, span := s.tracer().Start(ctx, "ImageUpload", trace.WithAttributes(attribute.String("card.id", cardID)))
	defer span.End()

	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || !slices.Contains(s.MimeTypes, mt) {
		return nil, ErrUnsupportedImage
	}
	if s.Images == nil {
		return nil, errors.New("image uploads are not configured")
	}
	ok, err := s.Store.CardExists(ctx, s.DB, cardID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCardNotFound
	}

	key := "originals/" + cardID + "." + strings.TrimPrefix(mt, "image/")
	signed, err := s.Images.PresignPut(ctx, key, mt)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.Cache.Invalidate(cache.GroupCards)
	return &ImageUpload{SignedRequest: signed, URL: s.Images.PublicURL(key)}, nil
}

// ExpiredCards returns the cards whose report left the flood window during
// the last half hour, regardless of disaster type.
func (s *IntakeService) ExpiredCards(ctx context.Context) ([]domain.CardView, error) {
	ctx, span := s.tracer().Start(ctx, "ExpiredCards")
	defer span.End()

	start, end := repo.ExpiredBounds(s.Now(), s.FloodWindow)
	return s.Store.ExpiredCards(ctx, s.DB, start, end)
}

// PurgeIdempotency deletes replay records whose TTL has passed.
func (s *IntakeService) PurgeIdempotency(ctx context.Context) (int64, error) {
	return s.Store.PurgeIdempotency(ctx, s.DB, s.Now())
}

func (s *IntakeService) imageURL(name string) string {
	return "https://" + s.ImagesHost + "/" + name + ".jpg"
}

// enqueue builds the notification body from the procedure output and hands
// it to the dispatcher. Nothing is sent without a procedure result; a full
// queue drops the message.
func (s *IntakeService) enqueue(ctx context.Context, sub *domain.Submission, tweetID string) {
	if s.Notifier == nil || len(sub.Notify) == 0 {
		return
	}
	log := zerolog.Ctx(ctx)
	body, err := notificationBody(sub, tweetID)
	if err != nil {
		log.Error().Err(err).Str("card_id", sub.Card.CardID).Msg("notification body")
		return
	}
	if !s.Notifier.Enqueue(notify.Message{CardID: sub.Card.CardID, Body: body}) {
		log.Warn().Str("card_id", sub.Card.CardID).Msg("notification queue full; dropped")
	}
}

// notificationBody is the procedure's JSON document with tweetID and the card
// added. A non-object procedure result is kept under "notify".
func notificationBody(sub *domain.Submission, tweetID string) ([]byte, error) {
	doc := map[string]any{}
	if len(sub.Notify) > 0 {
		if err := json.Unmarshal(sub.Notify, &doc); err != nil {
			doc = map[string]any{"notify": json.RawMessage(sub.Notify)}
		}
	}
	if tweetID != "" {
		doc["tweetID"] = tweetID
	}
	doc["card"] = map[string]any{
		"card_id":      sub.Card.CardID,
		"username":     sub.Card.Username,
		"network":      sub.Card.Network,
		"language":     sub.Card.Language,
		"network_data": sub.Card.NetworkData,
	}
	return json.Marshal(doc)
}
