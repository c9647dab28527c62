package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryDeniesOverLimit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewMemory()
	m.now = func() time.Time { return now }

	ctx := context.Background()
	const limit = 3

	for i := 1; i <= limit; i++ {
		res, err := m.Check(ctx, "client-a", limit)
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if want := limit - i; res.Remaining != want {
			t.Fatalf("request %d: remaining = %d, want %d", i, res.Remaining, want)
		}
	}

	res, err := m.Check(ctx, "client-a", limit)
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("request over limit should be denied")
	}
	if res.Remaining != 0 {
		t.Fatalf("denied request remaining = %d, want 0", res.Remaining)
	}
}

func TestMemoryDenialDoesNotConsume(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewMemory()
	m.now = func() time.Time { return now }

	ctx := context.Background()
	m.Check(ctx, "k", 1)

	// Two denied attempts must not extend or inflate the window.
	m.Check(ctx, "k", 1)
	m.Check(ctx, "k", 1)

	if m.windows["k"].requests != 1 {
		t.Fatalf("requests = %d, want 1 (denied checks must not increment)", m.windows["k"].requests)
	}
}

func TestMemoryWindowResets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewMemory()
	m.now = func() time.Time { return now }

	ctx := context.Background()
	const limit = 2

	m.Check(ctx, "k", limit)
	m.Check(ctx, "k", limit)
	if res, _ := m.Check(ctx, "k", limit); res.Allowed {
		t.Fatal("expected denial at limit")
	}

	// Exactly 60s is still inside the window.
	now = now.Add(60 * time.Second)
	if res, _ := m.Check(ctx, "k", limit); res.Allowed {
		t.Fatal("window must not reset at exactly 60s")
	}

	// Past 60s the counter starts over.
	now = now.Add(time.Second)
	res, _ := m.Check(ctx, "k", limit)
	if !res.Allowed {
		t.Fatal("expected fresh window after >60s")
	}
	if res.Remaining != limit-1 {
		t.Fatalf("remaining = %d, want %d", res.Remaining, limit-1)
	}
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Check(ctx, "a", 1)
	if res, _ := m.Check(ctx, "a", 1); res.Allowed {
		t.Fatal("key a should be exhausted")
	}
	if res, _ := m.Check(ctx, "b", 1); !res.Allowed {
		t.Fatal("key b should be unaffected by key a")
	}
}
