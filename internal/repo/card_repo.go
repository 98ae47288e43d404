package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/petabencana/sitioss-server/internal/domain"
)

// CreateCard inserts a NEW card and its "CARD CREATED" audit row in one
// transaction. The card id is a random UUID.
func (s *Store) CreateCard(ctx context.Context, db *gorm.DB, in domain.NewCard) (*domain.Card, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	c := &domain.Card{
		CardID:      uuid.NewString(),
		Username:    in.Username,
		Network:     in.Network,
		Language:    in.Language,
		NetworkData: datatypes.JSONMap(in.NetworkData),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(s.Tables.Cards).Create(c).Error; err != nil {
			return err
		}
		return s.logCard(tx, c.CardID, domain.EventCardCreated)
	})
	if err != nil {
		return nil, classify(ctx, err)
	}
	return c, nil
}

// CardExists reports whether a card with id exists.
func (s *Store) CardExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var n int64
	err := db.WithContext(ctx).Table(s.Tables.Cards).Where("card_id = ?", id).Count(&n).Error
	if err != nil {
		return false, classify(ctx, err)
	}
	return n > 0, nil
}

// CardByID returns the card with its report nested. Report is nil until the
// card is received.
func (s *Store) CardByID(ctx context.Context, db *gorm.DB, id string) (*domain.CardView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var c domain.Card
	if err := db.WithContext(ctx).Table(s.Tables.Cards).Where("card_id = ?", id).First(&c).Error; err != nil {
		return nil, classify(ctx, err)
	}
	view := &domain.CardView{
		CardID:      c.CardID,
		Username:    c.Username,
		Network:     c.Network,
		Language:    c.Language,
		NetworkData: c.NetworkData,
		Received:    c.Received,
	}
	if !c.Received {
		return view, nil
	}

	var r domain.Report
	err := db.WithContext(ctx).Table(s.Tables.Reports).
		Select("card_id", "disaster_type", "card_data", "text", "image_url", "created_at", "status").
		Where("card_id = ?", id).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, classify(ctx, err)
	}
	view.Report = &domain.ReportView{
		CreatedAt:    r.CreatedAt,
		DisasterType: r.DisasterType,
		Text:         r.Text,
		CardData:     r.CardData.Data(),
		ImageURL:     r.ImageURL,
		Status:       r.Status,
	}
	return view, nil
}

// SubmitReport stores a report against cardID and flips the card to
// received, all in one transaction:
//
//  1. load the card (FOR UPDATE on PostgreSQL); missing -> ErrNotFound
//  2. apply domain.Submit; Conflict -> ErrConflict, NewCard -> open a
//     fresh card for the same citizen and target it instead
//  3. insert the report, compare-and-set received=false->true, append
//     "REPORT SUBMITTED", and produce the notify payload
//
// A lost compare-and-set (a concurrent submitter won) is ErrConflict.
//
// With a non-nil claim, a live record for (principal, cardID, key) replays
// its result with Replayed set and nothing is written. Otherwise the claim
// is recorded inside the same transaction; a concurrent request that
// recorded it first also yields a replay.
func (s *Store) SubmitReport(ctx context.Context, db *gorm.DB, cardID string, in domain.ReportSubmission, claim *IdempotencyClaim) (*domain.Submission, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var out domain.Submission
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Table(s.Tables.Cards).Where("card_id = ?", cardID)
		if isPostgres(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var card domain.Card
		if err := q.First(&card).Error; err != nil {
			return err
		}

		if claim != nil {
			prior, err := s.claimedResult(tx, cardID, claim)
			if err != nil {
				return err
			}
			if prior != nil {
				out = replayed(cardID, prior)
				return nil
			}
		}

		tr := domain.Submit(card.State(), in.DisasterType, in.IsSubSubmission())
		switch tr.Kind {
		case domain.TransitionConflict:
			return ErrConflict
		case domain.TransitionNewCard:
			next := domain.Card{
				CardID:   uuid.NewString(),
				Username: card.Username,
				Network:  card.Network,
				Language: card.Language,
			}
			if err := tx.Table(s.Tables.Cards).Create(&next).Error; err != nil {
				return err
			}
			if err := s.logCard(tx, next.CardID, domain.EventCardCreated); err != nil {
				return err
			}
			card = next
			out.NewCard = true
		}

		report := domain.Report{
			CardID:       card.CardID,
			DisasterType: in.DisasterType,
			Text:         in.Text,
			CreatedAt:    time.Now().UTC(),
			Status:       domain.ReportStatusConfirmed,
		}
		if in.CreatedAt != nil {
			report.CreatedAt = in.CreatedAt.UTC()
		}
		if in.CardData != nil {
			report.CardData = datatypes.NewJSONType(*in.CardData)
		}
		if in.Location != nil {
			report.Geom = in.Location.Point()
		}
		if in.PartnerCode != "" {
			pc := in.PartnerCode
			report.PartnerCode = &pc
		}
		if err := tx.Table(s.Tables.Reports).Create(&report).Error; err != nil {
			return err
		}

		res := tx.Table(s.Tables.Cards).
			Where("card_id = ? AND received = ?", card.CardID, false).
			Update("received", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		card.Received = true

		if err := s.logCard(tx, card.CardID, domain.EventReportSubmitted); err != nil {
			return err
		}
		if s.NotifyPayload != nil {
			payload, err := s.NotifyPayload(tx, card.CardID)
			if err != nil {
				return err
			}
			out.Notify = payload
		}
		out.Card = card

		if claim != nil {
			if _, err := s.insertIdempotency(tx, cardID, card.CardID, claim); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && claim != nil && (errors.Is(err, ErrDuplicate) || errors.Is(err, ErrConflict)) {
		if prior, gerr := s.GetIdempotency(ctx, db, claim.Principal, cardID, claim.Key, claim.Now); gerr == nil {
			sub := replayed(cardID, prior)
			return &sub, nil
		}
	}
	if err != nil {
		return nil, classify(ctx, err)
	}
	return &out, nil
}

func replayed(cardID string, rec *domain.Idempotency) domain.Submission {
	return domain.Submission{
		Card:     domain.Card{CardID: rec.ResultCardID, Received: true},
		NewCard:  rec.ResultCardID != cardID,
		Replayed: true,
	}
}

// AttachImage sets the report image for a received card. The update only
// applies while image_url is still empty; a second attach is
// ErrImageExists and an unreceived card is ErrNotReceived.
func (s *Store) AttachImage(ctx context.Context, db *gorm.DB, cardID, imageURL string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Table(s.Tables.Cards).Where("card_id = ?", cardID)
		if isPostgres(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var card domain.Card
		if err := q.First(&card).Error; err != nil {
			return err
		}

		var current struct{ ImageURL *string }
		err := tx.Table(s.Tables.Reports).Select("image_url").Where("card_id = ?", cardID).Take(&current).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if !domain.CanAttachImage(card.State(), current.ImageURL) {
			if card.State() != domain.CardReceived {
				return ErrNotReceived
			}
			return ErrImageExists
		}

		res := tx.Table(s.Tables.Reports).
			Where("card_id = ? AND (image_url IS NULL OR image_url = '')", cardID).
			Update("image_url", imageURL)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrImageExists
		}
		return s.logCard(tx, cardID, domain.EventReportPatched)
	})
	return classify(ctx, err)
}

// ExpiredCards returns received cards whose report created_at falls within
// [start, end], newest first. Disaster type is not considered.
func (s *Store) ExpiredCards(ctx context.Context, db *gorm.DB, start, end time.Time) ([]domain.CardView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var rows []struct {
		CardID       string
		Username     string
		Network      string
		Language     string
		NetworkData  datatypes.JSONMap
		Received     bool
		CreatedAt    time.Time
		DisasterType string
		Text         string
		CardData     datatypes.JSONType[domain.CardData]
		ImageURL     *string
		Status       string
	}
	err := db.WithContext(ctx).
		Table(s.Tables.Cards+" AS c").
		Select("c.card_id, c.username, c.network, c.language, c.network_data, c.received, "+
			"r.created_at, r.disaster_type, r.text, r.card_data, r.image_url, r.status").
		Joins("JOIN "+s.Tables.Reports+" AS r ON r.card_id = c.card_id").
		Where("r.created_at >= ? AND r.created_at <= ?", start.UTC(), end.UTC()).
		Order("r.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, classify(ctx, err)
	}

	out := make([]domain.CardView, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.CardView{
			CardID:      r.CardID,
			Username:    r.Username,
			Network:     r.Network,
			Language:    r.Language,
			NetworkData: r.NetworkData,
			Received:    r.Received,
			Report: &domain.ReportView{
				CreatedAt:    r.CreatedAt,
				DisasterType: r.DisasterType,
				Text:         r.Text,
				CardData:     r.CardData.Data(),
				ImageURL:     r.ImageURL,
				Status:       r.Status,
			},
		})
	}
	return out, nil
}

func (s *Store) logCard(tx *gorm.DB, cardID, event string) error {
	return tx.Table(s.Tables.Log).Create(&domain.GraspLog{
		CardID:    cardID,
		EventType: event,
		EventTime: time.Now().UTC(),
	}).Error
}
