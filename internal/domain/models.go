// Package domain defines the persistence models for citizen report cards,
// their reports, and the append-only audit trail written alongside every
// card transition. These types are mapped with GORM and shared by the
// repository, service, and HTTP layers.
//
// Table names are configurable at runtime (see repo.Tables); TableName only
// supplies the production default used when no override is given.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Audit event types written to the card log.
const (
	EventCardCreated     = "CARD CREATED"
	EventReportSubmitted = "REPORT SUBMITTED"
	EventReportPatched   = "REPORT UPDATE (PATCH)"
)

// ReportStatusConfirmed is the status every citizen report is stored with.
const ReportStatusConfirmed = "Confirmed"

// Card is the placeholder intake record created before the citizen's report
// content is known.
//
// Fields:
//   - CardID: UUID assigned by the store at creation.
//   - Network: source channel (e.g. "twitter", "telegram", "website").
//   - NetworkData: opaque channel metadata such as tweet or chat ids.
//   - Received: flips false→true exactly once, when a report is stored.
type Card struct {
	CardID      string            `json:"card_id"      gorm:"column:card_id;type:varchar(36);primaryKey"`
	Username    string            `json:"username"     gorm:"type:varchar(255);not null"`
	Network     string            `json:"network"      gorm:"type:varchar(64);not null"`
	Language    string            `json:"language"     gorm:"type:varchar(16);not null"`
	NetworkData datatypes.JSONMap `json:"network_data" gorm:"column:network_data"`
	Received    bool              `json:"received"     gorm:"not null;default:false;index"`
}

// TableName returns the default table for Card.
func (Card) TableName() string { return "grasp.cards" }

// State projects the received flag onto the card lifecycle.
func (c Card) State() CardState { return StateOf(c.Received) }

// Report is the structured disaster report attached to a card. There is at
// most one report per card; CreatedAt is supplied by the citizen, not the
// server.
type Report struct {
	PKey         int64                        `json:"-"             gorm:"column:pkey;primaryKey;autoIncrement"`
	CardID       string                       `json:"card_id"       gorm:"column:card_id;type:varchar(36);not null;uniqueIndex"`
	DisasterType string                       `json:"disaster_type" gorm:"type:varchar(32);not null;index"`
	PartnerCode  *string                      `json:"partner_code,omitempty" gorm:"type:varchar(64)"`
	CardData     datatypes.JSONType[CardData] `json:"card_data"     gorm:"column:card_data"`
	Text         string                       `json:"text"          gorm:"type:text;not null;default:''"`
	ImageURL     *string                      `json:"image_url"     gorm:"column:image_url"`
	CreatedAt    time.Time                    `json:"created_at"    gorm:"autoCreateTime:false;not null;index"`
	Status       string                       `json:"status"        gorm:"type:varchar(32);not null"`
	Geom         Point                        `json:"location"      gorm:"column:the_geom"`
}

// TableName returns the default table for Report.
func (Report) TableName() string { return "grasp.reports" }

// GraspLog is one immutable row of the card audit trail.
type GraspLog struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	CardID    string    `json:"card_id"    gorm:"column:card_id;type:varchar(36);not null;index"`
	EventType string    `json:"event_type" gorm:"type:varchar(64);not null"`
	EventTime time.Time `json:"event_time" gorm:"autoCreateTime:false;not null"`
}

// TableName returns the default table for GraspLog.
func (GraspLog) TableName() string { return "grasp.log" }

// Partner is an organisation whose code may be attached to reports. It is
// only read, for display joins.
type Partner struct {
	ID            int64  `json:"id"             gorm:"primaryKey;autoIncrement"`
	PartnerCode   string `json:"partner_code"   gorm:"type:varchar(64);not null;uniqueIndex"`
	PartnerName   string `json:"partner_name"   gorm:"type:varchar(255)"`
	PartnerStatus string `json:"partner_status" gorm:"type:varchar(32)"`
	PartnerIcon   string `json:"partner_icon"   gorm:"type:text"`
}

// TableName returns the default table for Partner.
func (Partner) TableName() string { return "cognicity.partners" }

// CardView is the read projection returned for a single card. Report is nil
// iff the card has not been received.
type CardView struct {
	CardID      string            `json:"card_id"`
	Username    string            `json:"username"`
	Network     string            `json:"network"`
	Language    string            `json:"language"`
	NetworkData datatypes.JSONMap `json:"network_data,omitempty"`
	Received    bool              `json:"received"`
	Report      *ReportView       `json:"report"`
}

// ReportView is the subset of a report exposed with its card.
type ReportView struct {
	CreatedAt    time.Time `json:"created_at"`
	DisasterType string    `json:"disaster_type"`
	Text         string    `json:"text"`
	CardData     CardData  `json:"card_data"`
	ImageURL     *string   `json:"image_url"`
	Status       string    `json:"status"`
}

// NewCard carries the fields a citizen channel supplies to open a card.
type NewCard struct {
	Username    string         `json:"username"     binding:"required"`
	Network     string         `json:"network"      binding:"required"`
	Language    string         `json:"language"     binding:"required"`
	NetworkData map[string]any `json:"network_data"`
}

// Submission is the outcome of a successful report submission: the card the
// report was stored on and the notification payload produced in the same
// transaction.
type Submission struct {
	Card    Card
	NewCard bool
	Notify  []byte

	// Replayed is set when an earlier submission with the same
	// Idempotency-Key supplied the result.
	Replayed bool
}
