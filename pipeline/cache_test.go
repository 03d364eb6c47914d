package pipeline

import (
	"context"
	"fmt"
	"testing"
)

func TestCacheIdempotence(t *testing.T) {
	cache := NewEvidenceCache()
	calls := 0
	fetch := func(_ context.Context, topic string) string {
		calls++
		return "evidence for " + topic
	}

	ctx := context.Background()
	first := cache.GetOrFetch(ctx, "Bastille", fetch)
	second := cache.GetOrFetch(ctx, "Bastille", fetch)

	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
	if first != second {
		t.Errorf("cached value diverged: %q vs %q", first, second)
	}
}

func TestCacheKeyNormalization(t *testing.T) {
	cache := NewEvidenceCache()
	calls := 0
	fetch := func(_ context.Context, topic string) string {
		calls++
		return "x"
	}

	ctx := context.Background()
	cache.GetOrFetch(ctx, "  Bastille ", fetch)
	cache.GetOrFetch(ctx, "bastille", fetch)
	cache.GetOrFetch(ctx, "BASTILLE", fetch)

	if calls != 1 {
		t.Errorf("fetch called %d times, want 1 for case/space variants", calls)
	}
	if cache.Len() != 1 {
		t.Errorf("cache holds %d entries, want 1", cache.Len())
	}
}

func TestCacheStoresFailures(t *testing.T) {
	cache := NewEvidenceCache()
	calls := 0
	fetch := func(_ context.Context, topic string) string {
		calls++
		return fmt.Sprintf("[wikipedia] no results for '%s'", topic)
	}

	ctx := context.Background()
	cache.GetOrFetch(ctx, "zzz", fetch)
	got := cache.GetOrFetch(ctx, "zzz", fetch)

	if calls != 1 {
		t.Errorf("failure was re-fetched: %d calls", calls)
	}
	if got != "[wikipedia] no results for 'zzz'" {
		t.Errorf("got %q", got)
	}
}
