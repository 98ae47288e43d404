package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/petabencana/sitioss-server/internal/domain"
	"github.com/petabencana/sitioss-server/internal/notify"
	"github.com/petabencana/sitioss-server/internal/repo"
)

func ptr[T any](v T) *T { return &v }

func floodSubmission() domain.ReportSubmission {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return domain.ReportSubmission{
		DisasterType:  "flood",
		SubSubmission: ptr(false),
		CardData:      &domain.CardData{ReportType: "flood", FloodDepth: ptr(40)},
		CreatedAt:     &created,
		Location:      &domain.Coordinates{Lat: ptr(-6.2), Lng: ptr(106.8)},
	}
}

// newStoreDB opens an in-memory database migrated with the flat table set
// and a Store whose notify procedure returns {"card_id": ...}.
func newStoreDB(t *testing.T) (*repo.Store, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db, repo.FlatTables()); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	s := repo.NewStore(repo.FlatTables(), time.Second)
	s.NotifyPayload = func(_ *gorm.DB, cardID string) ([]byte, error) {
		return []byte(`{"card_id":"` + cardID + `","disaster_type":"flood"}`), nil
	}
	return s, db
}

// recordingCache remembers invalidated groups.
type recordingCache struct {
	mu     sync.Mutex
	groups []string
}

func (c *recordingCache) Invalidate(g string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = append(c.groups, g)
}

func (c *recordingCache) Groups() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.groups...)
}

// recordingNotifier remembers enqueued messages; full makes Enqueue refuse.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
	full bool
}

func (n *recordingNotifier) Enqueue(m notify.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.full {
		return false
	}
	n.msgs = append(n.msgs, m)
	return true
}

func (n *recordingNotifier) Messages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.msgs...)
}

// ----- Fake card store -----

type fakeCardStore struct {
	CardStore // unimplemented methods panic

	submitErr   error
	submitCalls int
	notify      []byte
	attachErr   error
	attachURL   string
	exists      bool
	existsErr   error
	byIDErr     error
	expStart    time.Time
	expEnd      time.Time
}

func (f *fakeCardStore) SubmitReport(_ context.Context, _ *gorm.DB, cardID string, _ domain.ReportSubmission, _ *repo.IdempotencyClaim) (*domain.Submission, error) {
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &domain.Submission{Card: domain.Card{CardID: cardID, Received: true}, Notify: f.notify}, nil
}

func (f *fakeCardStore) AttachImage(_ context.Context, _ *gorm.DB, _, url string) error {
	f.attachURL = url
	return f.attachErr
}

func (f *fakeCardStore) CardExists(context.Context, *gorm.DB, string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeCardStore) CardByID(_ context.Context, _ *gorm.DB, id string) (*domain.CardView, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return &domain.CardView{CardID: id}, nil
}

func (f *fakeCardStore) ExpiredCards(_ context.Context, _ *gorm.DB, start, end time.Time) ([]domain.CardView, error) {
	f.expStart, f.expEnd = start, end
	return nil, nil
}

// fakeSigner returns a fixed URL and records the key.
type fakeSigner struct {
	key, contentType string
	err              error
}

func (s *fakeSigner) PresignPut(_ context.Context, key, ct string) (string, error) {
	s.key, s.contentType = key, ct
	return "https://signed.example/" + key, s.err
}

func (s *fakeSigner) PublicURL(key string) string { return "https://s3.ap-southeast-1.amazonaws.com/bucket/" + key }
