package domain

import (
	"time"

	"gorm.io/datatypes"
)

// RemState describes one flood-severity code of the regional emergency map.
type RemState struct {
	Severity         string `json:"severity"`
	LevelDescription string `json:"levelDescription"`
}

// RemStates lists every valid REM severity code.
var RemStates = map[int]RemState{
	1: {Severity: "Unknown", LevelDescription: "AN UNKNOWN LEVEL OF FLOODING - USE CAUTION -"},
	2: {Severity: "Minor", LevelDescription: "FLOODING OF BETWEEN 10 and 70 CENTIMETERS"},
	3: {Severity: "Moderate", LevelDescription: "FLOODING OF BETWEEN 71 and 150 CENTIMETERS"},
	4: {Severity: "Severe", LevelDescription: "FLOODING OF OVER 150 CENTIMETERS"},
}

// ValidRemState reports whether code is a known severity.
func ValidRemState(code int) bool {
	_, ok := RemStates[code]
	return ok
}

// LocalArea is a static administrative area that REM states refer to.
type LocalArea struct {
	PKey               int64             `json:"area_id"              gorm:"column:pkey;primaryKey;autoIncrement"`
	GeomID             string            `json:"geom_id"              gorm:"type:varchar(64);index"`
	AreaName           string            `json:"area_name"            gorm:"type:varchar(255)"`
	ParentName         string            `json:"parent_name"          gorm:"type:varchar(255);index"`
	CityName           string            `json:"city_name"            gorm:"type:varchar(255)"`
	InstanceRegionCode string            `json:"instance_region_code" gorm:"type:varchar(16);index"`
	Attributes         datatypes.JSONMap `json:"attributes"`
}

// TableName returns the default table for LocalArea.
func (LocalArea) TableName() string { return "cognicity.local_areas" }

// RemStatus is the current flood state of one area. At most one row exists
// per area; absence means no active state.
type RemStatus struct {
	LocalArea   int64     `json:"area_id"      gorm:"column:local_area;primaryKey;autoIncrement:false"`
	State       int       `json:"state"        gorm:"not null"`
	LastUpdated time.Time `json:"last_updated" gorm:"not null"`
}

// TableName returns the default table for RemStatus.
func (RemStatus) TableName() string { return "cognicity.rem_status" }

// RemStatusLog is one immutable audit row for a REM change. A nil State
// records a clear.
type RemStatusLog struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	LocalArea int64     `json:"area_id"    gorm:"column:local_area;not null;index"`
	State     *int      `json:"state"`
	Changed   time.Time `json:"changed"    gorm:"not null"`
	Username  string    `json:"username"   gorm:"type:varchar(255);not null"`
}

// TableName returns the default table for RemStatusLog.
func (RemStatusLog) TableName() string { return "cognicity.rem_status_log" }

// AreaState is a row of the flood-state listing.
type AreaState struct {
	AreaID      int64     `json:"area_id"`
	State       int       `json:"state"`
	LastUpdated time.Time `json:"last_updated"`
}

// AreaWithState is an area joined with its state, if any.
type AreaWithState struct {
	AreaID             int64             `json:"area_id"`
	GeomID             string            `json:"geom_id"`
	AreaName           string            `json:"area_name"`
	ParentName         string            `json:"parent_name"`
	CityName           string            `json:"city_name"`
	InstanceRegionCode string            `json:"instance_region_code"`
	Attributes         datatypes.JSONMap `json:"attributes"`
	State              *int              `json:"state"`
	LastUpdated        *time.Time        `json:"last_updated"`
}

// Describe returns the REM description for the row's state, if any.
func (a AreaWithState) Describe() *RemState {
	if a.State == nil {
		return nil
	}
	if s, ok := RemStates[*a.State]; ok {
		return &s
	}
	return nil
}
