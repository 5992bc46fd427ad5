package redis

import (
	"context"
	"testing"
	"time"

	"persona-survey-bot/internal/app"
	"persona-survey-bot/internal/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

type countingLoader struct {
	calls int
}

func (l *countingLoader) LoadDataset(_ context.Context, inst domain.Instrument) ([]domain.Question, error) {
	l.calls++
	return []domain.Question{{Text: inst.String()}}, nil
}

func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
}

func TestDatasetCacheSharesEntriesThroughRedis(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	first := &countingLoader{}
	cache := NewDatasetCache(client, first, time.Minute)
	questions, err := cache.LoadDataset(ctx, domain.InstrumentThinking)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if len(questions) != 1 || first.calls != 1 {
		t.Fatalf("expected one loader hit, got %d calls and %v", first.calls, questions)
	}

	if exists := client.Exists(ctx, "survey:dataset:thinking").Val(); exists != 1 {
		t.Fatalf("expected the dataset key in redis")
	}

	// A second instance over the same redis must not touch its loader.
	second := &countingLoader{}
	other := NewDatasetCache(client, second, time.Minute)
	if _, err := other.LoadDataset(ctx, domain.InstrumentThinking); err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if second.calls != 0 {
		t.Fatalf("expected the cached entry to be served, got %d loader calls", second.calls)
	}
}

func TestDatasetCacheRebuildsCorruptEntry(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	if err := client.Set(ctx, "survey:dataset:priorities", "{broken", 0).Err(); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	loader := &countingLoader{}
	cache := NewDatasetCache(client, loader, time.Minute)
	questions, err := cache.LoadDataset(ctx, domain.InstrumentPriorities)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loader.calls != 1 || len(questions) != 1 {
		t.Fatalf("corrupt entry must be rebuilt from the loader, got %d calls", loader.calls)
	}
}

func TestSessionStoreLivenessMarkers(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	store := NewSessionStore(client, time.Minute)

	s := &app.Session{UserID: 9}
	store.Put(9, s)

	got, ok := store.Get(9)
	if !ok || got != s {
		t.Fatalf("expected the stored session back")
	}
	if exists := client.Exists(ctx, "survey:session:9").Val(); exists != 1 {
		t.Fatalf("expected a liveness marker after put")
	}

	store.Delete(9)
	if _, ok := store.Get(9); ok {
		t.Fatalf("deleted session must be gone")
	}
	if exists := client.Exists(ctx, "survey:session:9").Val(); exists != 0 {
		t.Fatalf("liveness marker must be removed on delete")
	}
}
