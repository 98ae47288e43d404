package domain

import "time"

// Idempotency remembers the outcome of a completed report submission, keyed
// by (principal, card_id, key). A retried submission carrying the same
// Idempotency-Key replays ResultCardID instead of storing a second report
// or opening a second earthquake sub-submission card.
type Idempotency struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Principal    string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_principal_card_key,priority:1"`
	CardID       string    `gorm:"column:card_id;type:varchar(36);not null;uniqueIndex:ux_principal_card_key,priority:2"`
	Key          string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_principal_card_key,priority:3"`
	ResultCardID string    `gorm:"column:result_card_id;type:varchar(36);not null"`
	Status       int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

// TableName returns the default table for Idempotency.
func (Idempotency) TableName() string { return "grasp.idempotency_keys" }
