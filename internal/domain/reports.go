package domain

import (
	"time"

	"gorm.io/datatypes"
)

// AggregateReport is one row of the cross-source report table (citizen
// reports from every channel, normalised).
type AggregateReport struct {
	PKey         int64             `json:"pkey"          gorm:"column:pkey;primaryKey;autoIncrement"`
	CreatedAt    time.Time         `json:"created_at"    gorm:"autoCreateTime:false;not null;index"`
	Source       string            `json:"source"        gorm:"type:varchar(64)"`
	Status       string            `json:"status"        gorm:"type:varchar(32)"`
	URL          string            `json:"url"           gorm:"column:url;type:text"`
	ImageURL     *string           `json:"image_url"     gorm:"column:image_url"`
	DisasterType string            `json:"disaster_type" gorm:"type:varchar(32);index"`
	ReportData   datatypes.JSONMap `json:"report_data"`
	Tags         datatypes.JSONMap `json:"tags"`
	Title        string            `json:"title"         gorm:"type:text"`
	Text         string            `json:"text"          gorm:"type:text"`
	Geom         Point             `json:"the_geom"      gorm:"column:the_geom"`
	PartnerCode  *string           `json:"partner_code"  gorm:"type:varchar(64)"`
}

// TableName returns the default table for AggregateReport.
func (AggregateReport) TableName() string { return "cognicity.all_reports" }

// ArchivedReport is an AggregateReport joined with its partner's icon.
type ArchivedReport struct {
	AggregateReport
	PartnerIcon *string `json:"partner_icon"`
}

// ReportPointsLog records one vote on an aggregate report.
type ReportPointsLog struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	ReportID  int64     `json:"report_id"  gorm:"not null;index"`
	Value     int       `json:"value"      gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the default table for ReportPointsLog.
func (ReportPointsLog) TableName() string { return "cognicity.reports_points_log" }
