package domain

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Point is a WGS84 location. On PostgreSQL it is written as a PostGIS
// geometry(Point,4326); other dialects store its WKT text.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// WKT renders the point as "POINT(lng lat)".
func (p Point) WKT() string {
	return fmt.Sprintf("POINT(%g %g)", p.Lng, p.Lat)
}

// GormDataType implements schema.GormDataTypeInterface.
func (Point) GormDataType() string { return "geometry" }

// GormDBDataType picks the column type per dialect.
func (Point) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "geometry(Point,4326)"
	}
	return "text"
}

// GormValue builds the geometry server-side on PostgreSQL.
func (p Point) GormValue(_ context.Context, db *gorm.DB) clause.Expr {
	if db.Dialector.Name() == "postgres" {
		return clause.Expr{SQL: "ST_SetSRID(ST_Point(?, ?), 4326)", Vars: []any{p.Lng, p.Lat}}
	}
	return clause.Expr{SQL: "?", Vars: []any{p.WKT()}}
}

// Value implements driver.Valuer for code paths that bypass GormValue.
func (p Point) Value() (driver.Value, error) { return p.WKT(), nil }

// Scan reads a WKT point. PostgreSQL reads must select ST_AsText(the_geom).
func (p *Point) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*p = Point{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("point: unsupported source %T", src)
	}
	return p.parseWKT(s)
}

func (p *Point) parseWKT(s string) error {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ';'); i >= 0 && strings.HasPrefix(strings.ToUpper(s), "SRID=") {
		s = s[i+1:]
	}
	up := strings.ToUpper(s)
	if !strings.HasPrefix(up, "POINT") {
		return fmt.Errorf("point: not a WKT point: %q", s)
	}
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return fmt.Errorf("point: malformed WKT: %q", s)
	}
	var lng, lat float64
	if _, err := fmt.Sscanf(strings.TrimSpace(s[open+1:end]), "%g %g", &lng, &lat); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	p.Lat, p.Lng = lat, lng
	return nil
}
