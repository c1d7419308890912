// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ratelimit

import (
	"sync"
	"time"
)

// clientWindows holds the admitted-request timestamps of one client, oldest first.
type clientWindows struct {
	minute []time.Time
	hour   []time.Time
}

// compact drops timestamps that are no longer inside their window.
func (c *clientWindows) compact(now time.Time) {
	c.minute = trim(c.minute, now, time.Minute)
	c.hour = trim(c.hour, now, time.Hour)
}

func (c *clientWindows) empty() bool {
	return len(c.minute) == 0 && len(c.hour) == 0
}

// trim keeps entries strictly newer than now-span.
func trim(ts []time.Time, now time.Time, span time.Duration) []time.Time {
	cutoff := now.Add(-span)
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0:0], ts[i:]...)
}

// SlidingWindowLimiter tracks per-client request timestamps in memory.
// It is safe for concurrent use.
type SlidingWindowLimiter struct {
	cfg     Config
	mu      sync.Mutex
	clients map[string]*clientWindows
	now     func() time.Time
}

// Option configures a SlidingWindowLimiter.
type Option func(*SlidingWindowLimiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *SlidingWindowLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewSlidingWindowLimiter creates a limiter. Non-positive limits fall back to 10 per minute and 60 per hour.
func NewSlidingWindowLimiter(cfg Config, opts ...Option) *SlidingWindowLimiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 10
	}
	if cfg.PerHour <= 0 {
		cfg.PerHour = 60
	}
	l := &SlidingWindowLimiter{
		cfg:     cfg,
		clients: make(map[string]*clientWindows),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit checks both windows for clientID and records the request when allowed.
func (l *SlidingWindowLimiter) Admit(clientID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[clientID]
	if !ok {
		c = &clientWindows{}
		l.clients[clientID] = c
	}
	c.compact(now)

	if len(c.minute) >= l.cfg.PerMinute {
		return Decision{
			Reason:     ReasonPerMinute,
			Window:     WindowMinute,
			Limit:      l.cfg.PerMinute,
			RetryAfter: retryAfter(c.minute, now, time.Minute),
		}
	}
	if len(c.hour) >= l.cfg.PerHour {
		return Decision{
			Reason:     ReasonPerHour,
			Window:     WindowHour,
			Limit:      l.cfg.PerHour,
			RetryAfter: retryAfter(c.hour, now, time.Hour),
		}
	}

	c.minute = append(c.minute, now)
	c.hour = append(c.hour, now)

	return Decision{
		Allowed:   true,
		Window:    WindowMinute,
		Limit:     l.cfg.PerMinute,
		Remaining: l.cfg.PerMinute - len(c.minute),
	}
}

func retryAfter(ts []time.Time, now time.Time, span time.Duration) time.Duration {
	if len(ts) == 0 {
		return 0
	}
	if d := ts[0].Add(span).Sub(now); d > 0 {
		return d
	}
	return 0
}

// SweepAll compacts every client and forgets those with no recent requests.
// It returns the number of clients removed.
func (l *SlidingWindowLimiter) SweepAll() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, c := range l.clients {
		c.compact(now)
		if c.empty() {
			delete(l.clients, id)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked clients.
func (l *SlidingWindowLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Reset forgets clientID.
func (l *SlidingWindowLimiter) Reset(clientID string) {
	l.mu.Lock()
	delete(l.clients, clientID)
	l.mu.Unlock()
}

// Config returns the limits in effect.
func (l *SlidingWindowLimiter) Config() Config {
	return l.cfg
}

// Allow is Admit reporting a denial as a *RateLimitError.
func (l *SlidingWindowLimiter) Allow(clientID string) error {
	if d := l.Admit(clientID); !d.Allowed {
		return NewRateLimitError(d)
	}
	return nil
}
