package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/petabencana/sitioss-server/internal/domain"
)

// SetAreaState upserts the REM state of areaID and appends an audit row in
// one transaction. Concurrent writers are last-writer-wins. An unknown area
// is ErrNotFound.
func (s *Store) SetAreaState(ctx context.Context, db *gorm.DB, areaID int64, state int, username string, now time.Time) (*domain.AreaState, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	now = now.UTC()
	row := domain.RemStatus{LocalArea: areaID, State: state, LastUpdated: now}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireArea(tx, areaID); err != nil {
			return err
		}
		err := tx.Table(s.Tables.RemStatus).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "local_area"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "last_updated"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		st := state
		return s.logRem(tx, areaID, &st, username, now)
	})
	if err != nil {
		return nil, classify(ctx, err)
	}
	return &domain.AreaState{AreaID: areaID, State: state, LastUpdated: now}, nil
}

// ClearAreaState deletes the REM state of areaID (a no-op when absent) and
// appends an audit row with a null state, in one transaction.
func (s *Store) ClearAreaState(ctx context.Context, db *gorm.DB, areaID int64, username string, now time.Time) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireArea(tx, areaID); err != nil {
			return err
		}
		if err := tx.Table(s.Tables.RemStatus).Where("local_area = ?", areaID).Delete(&domain.RemStatus{}).Error; err != nil {
			return err
		}
		return s.logRem(tx, areaID, nil, username, now.UTC())
	})
	return classify(ctx, err)
}

// ListAreaStates returns every area with an active state of at least
// minState (0 = any), optionally restricted to one region.
func (s *Store) ListAreaStates(ctx context.Context, db *gorm.DB, admin string, minState int) ([]domain.AreaState, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	q := db.WithContext(ctx).
		Table(s.Tables.RemStatus+" AS rs").
		Select("rs.local_area AS area_id, rs.state, rs.last_updated").
		Joins("JOIN "+s.Tables.LocalAreas+" AS la ON la.pkey = rs.local_area").
		Where("rs.state IS NOT NULL")
	if minState > 0 {
		q = q.Where("rs.state >= ?", minState)
	}
	if admin != "" {
		q = q.Where("la.instance_region_code = ?", admin)
	}
	out := []domain.AreaState{}
	if err := q.Order("rs.local_area").Scan(&out).Error; err != nil {
		return nil, classify(ctx, err)
	}
	return out, nil
}

// AreaQuery filters ListAreas.
type AreaQuery struct {
	Admin    string
	Parent   string
	MinState int // > 0 keeps only areas with a state >= MinState
}

// ListAreas returns local areas joined with their REM state. Without a
// minimum state every area is returned and stateless areas carry a null
// state; with one, only areas whose state exists and is >= MinState remain.
func (s *Store) ListAreas(ctx context.Context, db *gorm.DB, f AreaQuery) ([]domain.AreaWithState, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	join := "LEFT JOIN "
	if f.MinState > 0 {
		join = "JOIN "
	}
	q := db.WithContext(ctx).
		Table(s.Tables.LocalAreas + " AS la").
		Select("la.pkey AS area_id, la.geom_id, la.area_name, la.parent_name, la.city_name, " +
			"la.instance_region_code, la.attributes, rs.state, rs.last_updated").
		Joins(join + s.Tables.RemStatus + " AS rs ON rs.local_area = la.pkey")
	if f.MinState > 0 {
		q = q.Where("rs.state IS NOT NULL AND rs.state >= ?", f.MinState)
	}
	if f.Admin != "" {
		q = q.Where("la.instance_region_code = ?", f.Admin)
	}
	if f.Parent != "" {
		q = q.Where("la.parent_name = ?", f.Parent)
	}
	out := []domain.AreaWithState{}
	if err := q.Order("la.pkey").Scan(&out).Error; err != nil {
		return nil, classify(ctx, err)
	}
	return out, nil
}

// ListPlaces returns the local areas of a region without state.
func (s *Store) ListPlaces(ctx context.Context, db *gorm.DB, admin string) ([]domain.LocalArea, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	q := db.WithContext(ctx).Table(s.Tables.LocalAreas)
	if admin != "" {
		q = q.Where("instance_region_code = ?", admin)
	}
	out := []domain.LocalArea{}
	if err := q.Order("pkey").Find(&out).Error; err != nil {
		return nil, classify(ctx, err)
	}
	return out, nil
}

// RemLog returns the audit trail of one area, oldest first.
func (s *Store) RemLog(ctx context.Context, db *gorm.DB, areaID int64) ([]domain.RemStatusLog, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	out := []domain.RemStatusLog{}
	err := db.WithContext(ctx).Table(s.Tables.RemStatusLog).
		Where("local_area = ?", areaID).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, classify(ctx, err)
	}
	return out, nil
}

func (s *Store) requireArea(tx *gorm.DB, areaID int64) error {
	var n int64
	if err := tx.Table(s.Tables.LocalAreas).Where("pkey = ?", areaID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) logRem(tx *gorm.DB, areaID int64, state *int, username string, at time.Time) error {
	return tx.Table(s.Tables.RemStatusLog).Create(&domain.RemStatusLog{
		LocalArea: areaID,
		State:     state,
		Changed:   at,
		Username:  username,
	}).Error
}
