package cache

import (
	"testing"
	"time"

	"github.com/surveycrm/pollbridge/internal/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return NewStore(log)
}

func TestStoreGetSet(t *testing.T) {
	store := newTestStore(t)

	if _, ok := store.Get(CategoryPollForm, "101"); ok {
		t.Fatalf("Get on empty store: expected miss")
	}

	store.Set(CategoryPollForm, "101", "form-a", time.Minute)
	v, ok := store.Get(CategoryPollForm, "101")
	if !ok {
		t.Fatalf("Get after Set: expected hit")
	}
	if v.(string) != "form-a" {
		t.Fatalf("Get value: want=%q got=%q", "form-a", v)
	}
}

func TestStoreExpiry(t *testing.T) {
	store := newTestStore(t)
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.Set(CategoryProgram, "Data Science", 42, 10*time.Minute)

	current = current.Add(9 * time.Minute)
	if _, ok := store.Get(CategoryProgram, "Data Science"); !ok {
		t.Fatalf("Get before TTL: expected hit")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := store.Get(CategoryProgram, "Data Science"); ok {
		t.Fatalf("Get after TTL: expected miss")
	}

	// The expired entry must be evicted, not just hidden.
	if n := store.Stats()[CategoryProgram]; n != 0 {
		t.Fatalf("Stats after expiry: want=0 got=%d", n)
	}
}

func TestStoreSetRefreshesExpiry(t *testing.T) {
	store := newTestStore(t)
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.Set(CategoryPollForm, "7", "first", time.Minute)
	current = current.Add(50 * time.Second)
	store.Set(CategoryPollForm, "7", "second", time.Minute)
	current = current.Add(30 * time.Second)

	v, ok := store.Get(CategoryPollForm, "7")
	if !ok {
		t.Fatalf("Get after refresh: expected hit")
	}
	if v.(string) != "second" {
		t.Fatalf("Get value: want=%q got=%q", "second", v)
	}
}

func TestStoreInvalidate(t *testing.T) {
	store := newTestStore(t)

	store.Set(CategoryPollForm, "1", "a", time.Minute)
	store.Set(CategoryPollForm, "2", "b", time.Minute)
	store.Set(CategoryProgram, "Law", 5, time.Minute)

	store.Invalidate(CategoryPollForm, "1")
	if _, ok := store.Get(CategoryPollForm, "1"); ok {
		t.Fatalf("Get after entry invalidation: expected miss")
	}
	if _, ok := store.Get(CategoryPollForm, "2"); !ok {
		t.Fatalf("sibling entry must survive targeted invalidation")
	}

	store.Invalidate(CategoryPollForm, "")
	if _, ok := store.Get(CategoryPollForm, "2"); ok {
		t.Fatalf("Get after category invalidation: expected miss")
	}
	if _, ok := store.Get(CategoryProgram, "Law"); !ok {
		t.Fatalf("other category must survive category invalidation")
	}
}

func TestStoreStats(t *testing.T) {
	store := newTestStore(t)

	store.Set(CategoryPollForm, "1", "a", time.Minute)
	store.Set(CategoryPollForm, "2", "b", time.Minute)
	store.Set(CategoryProgram, "Law", 5, time.Minute)

	stats := store.Stats()
	if stats[CategoryPollForm] != 2 {
		t.Fatalf("poll form count: want=2 got=%d", stats[CategoryPollForm])
	}
	if stats[CategoryProgram] != 1 {
		t.Fatalf("program count: want=1 got=%d", stats[CategoryProgram])
	}
}
