package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// RemStats returns the number of active REM states and the latest
// last_updated among them. The HTTP layer derives a weak ETag for the flood
// state listing from it. With no active states, maxUpdated is nil.
func (s *Store) RemStats(ctx context.Context, db *gorm.DB, admin string) (count int64, maxUpdated *time.Time, err error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	scope := func() *gorm.DB {
		q := db.WithContext(ctx).
			Table(s.Tables.RemStatus+" AS rs").
			Joins("JOIN "+s.Tables.LocalAreas+" AS la ON la.pkey = rs.local_area")
		if admin != "" {
			q = q.Where("la.instance_region_code = ?", admin)
		}
		return q
	}

	if err = scope().Count(&count).Error; err != nil {
		return 0, nil, classify(ctx, err)
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Avoid MAX() -> TEXT in SQLite.
	var row struct{ LastUpdated time.Time }
	if err = scope().Select("rs.last_updated").Order("rs.last_updated DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, classify(ctx, err)
	}
	return count, &row.LastUpdated, nil
}
