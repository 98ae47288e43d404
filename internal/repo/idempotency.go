package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/petabencana/sitioss-server/internal/domain"
)

// ErrDuplicate indicates that an idempotency record already exists for the
// given (principal, card_id, key) tuple.
var ErrDuplicate = errors.New("duplicate")

const pgUniqueViolation = "23505"

// GetIdempotency returns a non-expired record or ErrNotFound.
func (s *Store) GetIdempotency(ctx context.Context, db *gorm.DB, principal, cardID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(cardID) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var rec domain.Idempotency
	err := db.WithContext(ctx).Table(s.Tables.Idempotency).
		Where("principal = ? AND card_id = ? AND key = ? AND expires_at > ?", principal, cardID, key, now.UTC()).
		First(&rec).Error
	if err != nil {
		return nil, classify(ctx, err)
	}
	return &rec, nil
}

// IdempotencyClaim scopes a submission to a client Idempotency-Key.
// SubmitReport records it in the same transaction as the report, so a
// retried or concurrent request with the same key replays the stored
// result.
type IdempotencyClaim struct {
	Principal string
	Key       string
	Status    int
	TTL       time.Duration
	Now       time.Time
}

// CreateIdempotency records the outcome of a submission. A record for the
// same tuple is ErrDuplicate.
func (s *Store) CreateIdempotency(ctx context.Context, db *gorm.DB, principal, cardID, key, resultCardID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	claim := &IdempotencyClaim{Principal: principal, Key: key, Status: status, TTL: ttl, Now: time.Now()}
	rec, err := s.insertIdempotency(db.WithContext(ctx), cardID, resultCardID, claim)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return rec, nil
}

func (s *Store) insertIdempotency(tx *gorm.DB, cardID, resultCardID string, c *IdempotencyClaim) (*domain.Idempotency, error) {
	now := c.Now.UTC()
	rec := &domain.Idempotency{
		ID:           uuid.NewString(),
		Principal:    c.Principal,
		CardID:       cardID,
		Key:          c.Key,
		ResultCardID: resultCardID,
		Status:       c.Status,
		CreatedAt:    now,
		ExpiresAt:    now.Add(c.TTL),
	}
	if err := tx.Table(s.Tables.Idempotency).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// claimedResult returns the live record for the claim's tuple, or nil. An
// expired record is deleted so the tuple can be claimed again.
func (s *Store) claimedResult(tx *gorm.DB, cardID string, c *IdempotencyClaim) (*domain.Idempotency, error) {
	var rec domain.Idempotency
	err := tx.Table(s.Tables.Idempotency).
		Where("principal = ? AND card_id = ? AND key = ?", c.Principal, cardID, c.Key).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if rec.ExpiresAt.After(c.Now.UTC()) {
		return &rec, nil
	}
	err = tx.Table(s.Tables.Idempotency).Where("id = ?", rec.ID).Delete(&domain.Idempotency{}).Error
	return nil, err
}

// PurgeIdempotency deletes records that expired before now.
func (s *Store) PurgeIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	res := db.WithContext(ctx).Table(s.Tables.Idempotency).
		Where("expires_at <= ?", now.UTC()).
		Delete(&domain.Idempotency{})
	if res.Error != nil {
		return 0, classify(ctx, res.Error)
	}
	return res.RowsAffected, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	// glebarez/sqlite returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
