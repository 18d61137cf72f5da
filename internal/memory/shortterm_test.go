package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestShortTermStore_AppendAndRecent_ChronologicalOrder(t *testing.T) {
	client := newTestRedis(t)
	store := NewShortTermStore(client, 10, 24*time.Hour)
	ctx := context.Background()

	msgs := []string{"first", "second", "third"}
	for _, m := range msgs {
		if err := store.Append(ctx, "sess-1", model.ShortTermRecord{Role: "user", Content: m}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recent := store.Recent(ctx, "sess-1")
	if len(recent) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recent))
	}
	for i, want := range msgs {
		if recent[i].Content != want {
			t.Fatalf("expected chronological order, index %d: got %q want %q", i, recent[i].Content, want)
		}
	}
}

func TestShortTermStore_WindowTrimsOldest(t *testing.T) {
	client := newTestRedis(t)
	store := NewShortTermStore(client, 2, 24*time.Hour)
	ctx := context.Background()

	for _, m := range []string{"a", "b", "c"} {
		if err := store.Append(ctx, "sess-2", model.ShortTermRecord{Content: m}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recent := store.Recent(ctx, "sess-2")
	if len(recent) != 2 {
		t.Fatalf("expected window trimmed to 2, got %d", len(recent))
	}
	if recent[0].Content != "b" || recent[1].Content != "c" {
		t.Fatalf("expected [b c], got %+v", recent)
	}
}

func TestShortTermStore_Recent_EmptyForUnknownSession(t *testing.T) {
	client := newTestRedis(t)
	store := NewShortTermStore(client, 10, 24*time.Hour)

	recent := store.Recent(context.Background(), "no-such-session")
	if len(recent) != 0 {
		t.Fatalf("expected empty slice, got %+v", recent)
	}
}
