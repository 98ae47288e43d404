package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/petabencana/sitioss-server/internal/cache"
	"github.com/petabencana/sitioss-server/internal/domain"
	"github.com/petabencana/sitioss-server/internal/observability"
	"github.com/petabencana/sitioss-server/internal/repo"
	"github.com/petabencana/sitioss-server/internal/validation"
)

// AreaService manages per-area flood state (REM). Every change is audited by
// the store; this layer validates input and invalidates the flood caches.
type AreaService struct {
	DB      *gorm.DB
	Store   AreaStore
	Regions []string
	Cache   Invalidator
	Now     func() time.Time
}

// NewAreaService constructs an AreaService.
func NewAreaService(db *gorm.DB, store AreaStore, regions []string) *AreaService {
	return &AreaService{
		DB:      db,
		Store:   store,
		Regions: regions,
		Cache:   nopInvalidator{},
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetState records state for areaID on behalf of username. The last writer
// wins.
func (s *AreaService) SetState(ctx context.Context, areaID int64, state int, username string) (*domain.AreaState, error) {
	ctx, span := otel.Tracer("services/AreaService").Start(ctx, "SetState",
		trace.WithAttributes(attribute.Int64("area.id", areaID), attribute.Int("rem.state", state)))
	defer span.End()

	if !domain.ValidRemState(state) {
		return nil, validation.Fail("state", "must be between 1 and 4")
	}
	if username == "" {
		return nil, validation.Fail("username", "is required")
	}
	st, err := s.Store.SetAreaState(ctx, s.DB, areaID, state, username, s.Now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAreaNotFound
	}
	if err != nil {
		return nil, err
	}
	observability.RemChanges.WithLabelValues("set").Inc()
	s.invalidate()
	return st, nil
}

// ClearState removes the state of areaID. Clearing an area without state is
// not an error; it is still audited.
func (s *AreaService) ClearState(ctx context.Context, areaID int64, username string) error {
	ctx, span := otel.Tracer("services/AreaService").Start(ctx, "ClearState",
		trace.WithAttributes(attribute.Int64("area.id", areaID)))
	defer span.End()

	if username == "" {
		return validation.Fail("username", "is required")
	}
	err := s.Store.ClearAreaState(ctx, s.DB, areaID, username, s.Now())
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAreaNotFound
	}
	if err != nil {
		return err
	}
	observability.RemChanges.WithLabelValues("clear").Inc()
	s.invalidate()
	return nil
}

// States lists current area states, optionally limited to a region and a
// minimum state.
func (s *AreaService) States(ctx context.Context, admin string, minState int) ([]domain.AreaState, error) {
	if err := s.checkFilters(admin, minState); err != nil {
		return nil, err
	}
	return s.Store.ListAreaStates(ctx, s.DB, admin, minState)
}

// Areas lists areas joined with their state.
func (s *AreaService) Areas(ctx context.Context, q repo.AreaQuery) ([]domain.AreaWithState, error) {
	ctx, span := otel.Tracer("services/AreaService").Start(ctx, "Areas",
		trace.WithAttributes(attribute.String("region", q.Admin), attribute.Int("rem.min_state", q.MinState)))
	defer span.End()

	if err := s.checkFilters(q.Admin, q.MinState); err != nil {
		return nil, err
	}
	return s.Store.ListAreas(ctx, s.DB, q)
}

// Places lists the areas of a region without state.
func (s *AreaService) Places(ctx context.Context, admin string) ([]domain.LocalArea, error) {
	if err := s.checkFilters(admin, 0); err != nil {
		return nil, err
	}
	return s.Store.ListPlaces(ctx, s.DB, admin)
}

// History returns the audit trail of one area, oldest first.
func (s *AreaService) History(ctx context.Context, areaID int64) ([]domain.RemStatusLog, error) {
	return s.Store.RemLog(ctx, s.DB, areaID)
}

// StatesVersion returns a weak validator for the state listing of admin:
// it changes whenever a state row is added, removed or updated.
func (s *AreaService) StatesVersion(ctx context.Context, admin string) (string, error) {
	n, last, err := s.Store.RemStats(ctx, s.DB, admin)
	if err != nil {
		return "", err
	}
	var ts int64
	if last != nil {
		ts = last.UnixNano()
	}
	return fmt.Sprintf(`W/"%s-%d-%d"`, admin, n, ts), nil
}

func (s *AreaService) checkFilters(admin string, minState int) error {
	if err := checkRegion(s.Regions, admin); err != nil {
		return err
	}
	if minState != 0 && !domain.ValidRemState(minState) {
		return validation.Fail("minimum_state", "must be between 1 and 4")
	}
	return nil
}

func (s *AreaService) invalidate() {
	s.Cache.Invalidate(cache.GroupFloods)
	s.Cache.Invalidate(cache.GroupFloodsStates)
}
