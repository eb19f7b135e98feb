package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"appscheme/internal/article"
	"appscheme/internal/network"
	"appscheme/pkg/domain"
	"appscheme/pkg/traffic"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(Options{Dsn: filepath.Join(t.TempDir(), "test.db"), Prefix: "t_"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestArticleStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewArticleStore(openTestDB(t))

	if _, found, err := s.Article(ctx, "missing"); err != nil || found {
		t.Fatalf("Article(missing) found=%v err=%v", found, err)
	}

	a := article.Article{
		Key:      "en/Go",
		Title:    "Go",
		Sections: []article.Section{{ID: 0, Text: "lead"}},
	}
	if err := s.Put(ctx, a); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	a.Title = "Go (updated)"
	if err := s.Put(ctx, a); err != nil {
		t.Fatalf("Put() replace error = %v", err)
	}

	got, found, err := s.Article(ctx, "en/Go")
	if err != nil || !found {
		t.Fatalf("Article() found=%v err=%v", found, err)
	}
	if got.Title != "Go (updated)" || len(got.Sections) != 1 {
		t.Fatalf("article = %+v", got)
	}
}

func validatorStoreContract(t *testing.T, s network.ValidatorStore) {
	t.Helper()
	ctx := context.Background()
	const url = "https://en.wikipedia.org/api/rest_v1/page/mobile-html/Go"

	if _, found, err := s.Load(ctx, url); err != nil || found {
		t.Fatalf("Load(empty) found=%v err=%v", found, err)
	}
	h := traffic.Header{}
	h.Set("Content-Type", "text/html")
	want := network.Validator{ETag: `"abc"`, Status: 200, Header: h, Body: []byte("<html/>")}
	if err := s.Save(ctx, url, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, found, err := s.Load(ctx, url)
	if err != nil || !found {
		t.Fatalf("Load() found=%v err=%v", found, err)
	}
	if got.ETag != want.ETag || string(got.Body) != "<html/>" || got.Header.Get("content-type") != "text/html" {
		t.Fatalf("validator = %+v", got)
	}
}

func TestValidatorStore(t *testing.T) {
	validatorStoreContract(t, NewValidatorStore(openTestDB(t)))
}

func TestRedisValidatorStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewRedisValidatorStore(rdb, time.Hour)
	validatorStoreContract(t, s)

	if ttl := mr.TTL(validatorKeyPrefix + "https://en.wikipedia.org/api/rest_v1/page/mobile-html/Go"); ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}
}

func TestEventLogRun(t *testing.T) {
	db := openTestDB(t)
	log := NewEventLog(db, nil)

	events := make(chan domain.InterceptEvent, 2)
	events <- domain.InterceptEvent{Type: domain.EventStarted, RequestID: "r1", URL: "wmfapp://app/fileProxy/a.css", Timestamp: 1}
	events <- domain.InterceptEvent{Type: domain.EventFinished, RequestID: "r1", StatusCode: 200, Timestamp: 2}
	close(events)

	log.Run(context.Background(), events)

	recs, err := log.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].Type != string(domain.EventFinished) || recs[0].StatusCode != 200 {
		t.Fatalf("latest record = %+v", recs[0])
	}
}
