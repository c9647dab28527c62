package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result of a rate limit check.
type Result struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
}

// Limiter counts requests per client key against a per-minute limit.
type Limiter interface {
	Check(ctx context.Context, key string, limitPerMinute int) (Result, error)
}

const window = 60 * time.Second

type fixedWindow struct {
	requests    int
	windowStart time.Time
}

// Memory is an in-process fixed-window limiter. The window is a plain
// counter reset every 60s, not a sliding window, so a burst of up to
// 2x the limit can straddle a window boundary; that approximation is
// accepted. State is per-process: in a multi-instance deployment each
// instance enforces its own limit (use Redis for global enforcement).
type Memory struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}
}

func (m *Memory) Check(ctx context.Context, key string, limitPerMinute int) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.Sub(w.windowStart) > window {
		w = &fixedWindow{windowStart: now}
		m.windows[key] = w
	}

	if w.requests >= limitPerMinute {
		return Result{Allowed: false, Remaining: 0}, nil
	}
	w.requests++
	return Result{Allowed: true, Remaining: limitPerMinute - w.requests}, nil
}
