package domain

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Coordinates is a lat/lng pair as supplied in request bodies. Pointers keep
// "missing" distinct from zero.
type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Point converts validated coordinates into a stored point.
func (c Coordinates) Point() Point {
	var p Point
	if c.Lat != nil {
		p.Lat = *c.Lat
	}
	if c.Lng != nil {
		p.Lng = *c.Lng
	}
	return p
}

// Damage is one assessed building component.
type Damage struct {
	Component string   `json:"component"`
	Severity  *float64 `json:"severity"`
}

// CardData is the report payload whose required fields depend on
// ReportType. Fields outside the active type's required set are optional and
// stored as given.
type CardData struct {
	ReportType string `json:"report_type"`

	FloodDepth *int `json:"flood_depth,omitempty"`
	Impact     *int `json:"impact,omitempty"`

	StructureFailure     *int `json:"structureFailure,omitempty"`
	AccessabilityFailure *int `json:"accessabilityFailure,omitempty"`
	Condition            *int `json:"condition,omitempty"`

	Visibility *int `json:"visibility,omitempty"`
	AirQuality *int `json:"airQuality,omitempty"`

	FireDistance   *float64     `json:"fireDistance,omitempty"`
	FireRadius     *Coordinates `json:"fireRadius,omitempty"`
	FireLocation   *Coordinates `json:"fireLocation,omitempty"`
	PersonLocation *Coordinates `json:"personLocation,omitempty"`

	VolcanicSigns    []int `json:"volcanicSigns,omitempty"`
	EvacuationNumber *int  `json:"evacuationNumber,omitempty"`
	EvacuationArea   *bool `json:"evacuationArea,omitempty"`

	Damages []Damage `json:"damages,omitempty"`

	// Unknown lists keys of the decoded object that CardData does not
	// define. They are never stored; validation rejects them.
	Unknown []string `json:"-"`
}

var cardDataKeys = func() map[string]bool {
	keys := map[string]bool{}
	t := reflect.TypeOf(CardData{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	return keys
}()

// UnmarshalJSON decodes the known fields and records the rest in Unknown.
func (d *CardData) UnmarshalJSON(b []byte) error {
	type plain CardData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = CardData(p)
	d.Unknown = nil
	for k := range raw {
		if !cardDataKeys[k] {
			d.Unknown = append(d.Unknown, k)
		}
	}
	sort.Strings(d.Unknown)
	return nil
}

// ReportSubmission is the body of a report submission against a card.
// ImageURL is accepted but not stored; the image is set by a later attach.
type ReportSubmission struct {
	DisasterType  string       `json:"disaster_type"  binding:"required"`
	PartnerCode   string       `json:"partnerCode"`
	TweetID       string       `json:"tweetID"`
	SubSubmission *bool        `json:"sub_submission" binding:"required"`
	CardData      *CardData    `json:"card_data"      binding:"required"`
	Text          string       `json:"text"`
	ImageURL      string       `json:"image_url"`
	CreatedAt     *time.Time   `json:"created_at"     binding:"required"`
	Location      *Coordinates `json:"location"       binding:"required"`
}

// IsSubSubmission reports whether the payload flags itself as a follow-up.
func (s ReportSubmission) IsSubSubmission() bool {
	return s.SubSubmission != nil && *s.SubSubmission
}
