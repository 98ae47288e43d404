// Package validation holds the conditional-required rules for report
// submissions. Which card_data fields are mandatory depends on the report
// type; every field that is present is range-checked regardless of type.
//
// The rules are pure decision logic with no storage access, and are applied
// before any repository call.
package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/petabencana/sitioss-server/internal/domain"
)

// ErrInvalid is matched (errors.Is) by every *Error.
var ErrInvalid = errors.New("validation failed")

// Violation is one field-level failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error aggregates the violations found in one payload.
type Error struct {
	Violations []Violation `json:"violations"`
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, ErrInvalid) succeed.
func (e *Error) Unwrap() error { return ErrInvalid }

// Fail builds an *Error with a single violation.
func Fail(field, msg string) error {
	return &Error{Violations: []Violation{{Field: field, Message: msg}}}
}

// Policy carries the configurable vocabularies the rules check against.
type Policy struct {
	DisasterTypes    []string
	ReportTypes      []string
	DamageComponents []string
}

// DefaultPolicy returns the vocabularies the service ships with.
func DefaultPolicy() Policy {
	return Policy{
		DisasterTypes:    []string{"flood", "earthquake", "prep", "assessment", "fire", "haze", "volcano", "wind"},
		ReportTypes:      []string{"drain", "damage", "power", "treeclearing", "flood", "assessment", "earthquake", "road", "structure", "fire", "wind", "volcano", "haze"},
		DamageComponents: []string{"roof", "walls", "plinth", "nonstructural"},
	}
}

// requiredByReportType maps a report type to the card_data fields it makes
// mandatory. Adding a report type only needs an entry here.
var requiredByReportType = map[string][]string{
	"flood":      {"flood_depth"},
	"wind":       {"impact"},
	"structure":  {"structureFailure"},
	"road":       {"accessabilityFailure", "condition"},
	"haze":       {"visibility", "airQuality"},
	"fire":       {"fireDistance", "fireRadius", "fireLocation", "personLocation"},
	"volcano":    {"volcanicSigns", "evacuationNumber", "evacuationArea"},
	"assessment": {"damages"},
}

// RequiredFields returns the card_data fields required for reportType.
func RequiredFields(reportType string) []string {
	return slices.Clone(requiredByReportType[reportType])
}

// CheckSubmission validates a decoded submission. It returns nil or an *Error.
func (p Policy) CheckSubmission(s domain.ReportSubmission) error {
	var out []Violation
	add := func(field, msg string) { out = append(out, Violation{Field: field, Message: msg}) }

	if !slices.Contains(p.DisasterTypes, s.DisasterType) {
		add("disaster_type", "must be one of: "+strings.Join(p.DisasterTypes, ", "))
	}
	if s.SubSubmission == nil {
		add("sub_submission", "is required")
	}
	if s.CreatedAt == nil || s.CreatedAt.IsZero() {
		add("created_at", "is required")
	}
	if s.Location == nil {
		add("location", "is required")
	} else {
		out = append(out, checkCoordinates("location", s.Location)...)
	}
	if s.CardData == nil {
		add("card_data", "is required")
	} else {
		out = append(out, p.CheckCardData(*s.CardData)...)
	}

	if len(out) == 0 {
		return nil
	}
	return &Error{Violations: out}
}

// CheckCardData applies the report-type table and per-field ranges. Keys
// outside the card_data schema are rejected.
func (p Policy) CheckCardData(d domain.CardData) []Violation {
	var out []Violation
	for _, k := range d.Unknown {
		out = append(out, Violation{Field: "card_data." + k, Message: "is not allowed"})
	}
	if d.ReportType == "" {
		return append(out, Violation{Field: "card_data.report_type", Message: "is required"})
	}
	if !slices.Contains(p.ReportTypes, d.ReportType) {
		out = append(out, Violation{Field: "card_data.report_type", Message: "must be one of: " + strings.Join(p.ReportTypes, ", ")})
	}

	for _, name := range requiredByReportType[d.ReportType] {
		if !cardFields[name].present(d) {
			out = append(out, Violation{Field: "card_data." + name, Message: fmt.Sprintf("is required when report_type is %q", d.ReportType)})
		}
	}

	for _, name := range fieldOrder {
		f := cardFields[name]
		if !f.present(d) {
			continue
		}
		for _, v := range f.check(p, d) {
			v.Field = "card_data." + name + v.Field
			out = append(out, v)
		}
	}
	return out
}

// field couples a presence test with a range check. Range violations carry
// a field suffix (e.g. ".lat", "[2].severity") relative to the field name.
type field struct {
	present func(domain.CardData) bool
	check   func(Policy, domain.CardData) []Violation
}

var fieldOrder = []string{
	"flood_depth", "impact", "structureFailure", "accessabilityFailure", "condition",
	"visibility", "airQuality", "fireDistance", "fireRadius", "fireLocation",
	"personLocation", "volcanicSigns", "evacuationNumber", "evacuationArea", "damages",
}

var cardFields = map[string]field{
	"flood_depth":          intField(func(d domain.CardData) *int { return d.FloodDepth }, 0, 200),
	"impact":               intField(func(d domain.CardData) *int { return d.Impact }, 0, 5),
	"structureFailure":     intField(func(d domain.CardData) *int { return d.StructureFailure }, 0, 7),
	"accessabilityFailure": intField(func(d domain.CardData) *int { return d.AccessabilityFailure }, 0, 7),
	"condition":            intField(func(d domain.CardData) *int { return d.Condition }, 0, 7),
	"visibility":           intField(func(d domain.CardData) *int { return d.Visibility }, 0, 7),
	"airQuality":           intField(func(d domain.CardData) *int { return d.AirQuality }, 0, 7),
	"evacuationNumber":     intField(func(d domain.CardData) *int { return d.EvacuationNumber }, 0, 7),
	"fireDistance": {
		present: func(d domain.CardData) bool { return d.FireDistance != nil },
		check: func(_ Policy, d domain.CardData) []Violation {
			return floatRange("", *d.FireDistance, 0, 1000)
		},
	},
	"fireRadius":     coordField(func(d domain.CardData) *domain.Coordinates { return d.FireRadius }),
	"fireLocation":   coordField(func(d domain.CardData) *domain.Coordinates { return d.FireLocation }),
	"personLocation": coordField(func(d domain.CardData) *domain.Coordinates { return d.PersonLocation }),
	"volcanicSigns": {
		present: func(d domain.CardData) bool { return d.VolcanicSigns != nil },
		check: func(_ Policy, d domain.CardData) []Violation {
			var out []Violation
			for i, v := range d.VolcanicSigns {
				if v < 0 || v > 7 {
					out = append(out, Violation{Field: fmt.Sprintf("[%d]", i), Message: "must be between 0 and 7"})
				}
			}
			return out
		},
	},
	"evacuationArea": {
		present: func(d domain.CardData) bool { return d.EvacuationArea != nil },
		check:   func(Policy, domain.CardData) []Violation { return nil },
	},
	"damages": {
		present: func(d domain.CardData) bool { return d.Damages != nil },
		check:   checkDamages,
	},
}

func intField(get func(domain.CardData) *int, lo, hi int) field {
	return field{
		present: func(d domain.CardData) bool { return get(d) != nil },
		check: func(_ Policy, d domain.CardData) []Violation {
			if v := *get(d); v < lo || v > hi {
				return []Violation{{Message: fmt.Sprintf("must be between %d and %d", lo, hi)}}
			}
			return nil
		},
	}
}

func coordField(get func(domain.CardData) *domain.Coordinates) field {
	return field{
		present: func(d domain.CardData) bool { return get(d) != nil },
		check: func(_ Policy, d domain.CardData) []Violation {
			return checkCoordinates("", get(d))
		},
	}
}

func checkDamages(p Policy, d domain.CardData) []Violation {
	if len(d.Damages) == 0 {
		return []Violation{{Message: "must contain at least 1 item"}}
	}
	var out []Violation
	for i, dmg := range d.Damages {
		prefix := fmt.Sprintf("[%d]", i)
		if !slices.Contains(p.DamageComponents, dmg.Component) {
			out = append(out, Violation{Field: prefix + ".component", Message: "must be one of: " + strings.Join(p.DamageComponents, ", ")})
		}
		if dmg.Severity == nil {
			out = append(out, Violation{Field: prefix + ".severity", Message: "is required"})
			continue
		}
		out = append(out, floatRange(prefix+".severity", *dmg.Severity, 1, 5)...)
	}
	return out
}

func checkCoordinates(name string, c *domain.Coordinates) []Violation {
	var out []Violation
	if c.Lat == nil {
		out = append(out, Violation{Field: name + ".lat", Message: "is required"})
	} else {
		out = append(out, floatRange(name+".lat", *c.Lat, -90, 90)...)
	}
	if c.Lng == nil {
		out = append(out, Violation{Field: name + ".lng", Message: "is required"})
	} else {
		out = append(out, floatRange(name+".lng", *c.Lng, -180, 180)...)
	}
	return out
}

func floatRange(name string, v, lo, hi float64) []Violation {
	if v < lo || v > hi {
		return []Violation{{Field: name, Message: fmt.Sprintf("must be between %g and %g", lo, hi)}}
	}
	return nil
}
