package kv

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_GetByPrefixSortedAndScoped(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, k := range []string{"signal:b", "signal:a", "signal_ratings:a", "purchase:1"} {
		if err := s.Set(ctx, k, []byte(`{}`), 0); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	got, err := s.GetByPrefix(ctx, "signal:")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d want 2 (%v)", len(got), got)
	}
	if got[0].Key != "signal:a" || got[1].Key != "signal:b" {
		t.Fatalf("order=%s,%s want signal:a,signal:b", got[0].Key, got[1].Key)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Set(ctx, "idempotency:x", []byte(`"p1"`), time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, found, _ := s.Get(ctx, "idempotency:x"); found {
		t.Fatalf("expected expired key to be gone")
	}
	entries, _ := s.GetByPrefix(ctx, "idempotency:")
	if len(entries) != 0 {
		t.Fatalf("expired key returned by prefix scan")
	}
}

func TestMemoryStore_ExpiryKeepsFreshWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Set(ctx, "idempotency:x", []byte(`"p1"`), time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	// A reader saw the stale item; a writer replaces it before the reader
	// takes the write lock.
	if err := s.Set(ctx, "idempotency:x", []byte(`"p2"`), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.dropExpired("idempotency:x")
	v, found, err := s.Get(ctx, "idempotency:x")
	if err != nil || !found || string(v) != `"p2"` {
		t.Fatalf("value=%s found=%v err=%v want \"p2\"", v, found, err)
	}

	if err := s.Set(ctx, "idempotency:y", []byte(`"p3"`), time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	s.dropExpired("idempotency:y")
	if _, found, _ := s.Get(ctx, "idempotency:y"); found {
		t.Fatalf("expired key survived dropExpired")
	}
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	v := []byte(`[1]`)
	_ = s.Set(ctx, "k", v, 0)
	v[1] = '9'
	got, _, _ := s.Get(ctx, "k")
	if string(got) != `[1]` {
		t.Fatalf("stored value mutated through caller slice: %s", got)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	type rec struct {
		ID    string `json:"id"`
		Count int    `json:"count"`
	}
	if err := SetJSON(ctx, s, "rec:1", rec{ID: "1", Count: 3}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out rec
	found, err := GetJSON(ctx, s, "rec:1", &out)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if out.Count != 3 {
		t.Fatalf("count=%d want 3", out.Count)
	}
	found, err = GetJSON(ctx, s, "rec:missing", &out)
	if err != nil || found {
		t.Fatalf("missing key: found=%v err=%v", found, err)
	}
}

func TestEscapers(t *testing.T) {
	if got := escapeGlob("a*b?[c]"); got != `a\*b\?\[c\]` {
		t.Fatalf("escapeGlob=%q", got)
	}
	if got := escapeLike("user_follows:1%"); got != `user\_follows:1\%` {
		t.Fatalf("escapeLike=%q", got)
	}
}
