// Package ratelimit provides a fixed-window, per-key request limiter for the
// console's HTTP surface. Windows are swept periodically so idle keys do not
// accumulate.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// Limiter counts requests per key in fixed windows.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	limit    int
	interval time.Duration

	stop chan struct{}
	once sync.Once
	now  func() time.Time
}

// New creates a limiter allowing limit requests per key per interval and
// starts its background sweep. Callers must Stop it on shutdown.
func New(limit int, interval, sweepInterval time.Duration) *Limiter {
	if limit <= 0 {
		limit = math.MaxInt
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		interval: interval,
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	go l.sweep(sweepInterval)
	return l
}

// Allow reports whether a request under key fits in the current window.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.interval {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Stop halts the background sweep. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictExpired()
		}
	}
}

func (l *Limiter) evictExpired() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.interval {
			delete(l.windows, key)
		}
	}
}
