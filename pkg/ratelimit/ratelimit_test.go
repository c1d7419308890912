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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(perMinute, perHour int) (*SlidingWindowLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewSlidingWindowLimiter(Config{PerMinute: perMinute, PerHour: perHour}, WithClock(clock.Now)), clock
}

func TestAdmit_MinuteBurst(t *testing.T) {
	limiter, clock := newTestLimiter(10, 60)

	allowed, denied := 0, 0
	for i := 0; i < 60; i++ {
		d := limiter.Admit("203.0.113.7")
		if d.Allowed {
			allowed++
		} else {
			denied++
			assert.Equal(t, ReasonPerMinute, d.Reason)
			assert.Equal(t, WindowMinute, d.Window)
		}
	}
	assert.Equal(t, 10, allowed)
	assert.Equal(t, 50, denied)

	clock.Advance(61 * time.Second)
	assert.True(t, limiter.Admit("203.0.113.7").Allowed)
}

func TestAdmit_Remaining(t *testing.T) {
	limiter, _ := newTestLimiter(3, 60)

	assert.Equal(t, 2, limiter.Admit("c").Remaining)
	assert.Equal(t, 1, limiter.Admit("c").Remaining)
	d := limiter.Admit("c")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 3, d.Limit)
}

func TestAdmit_WindowBoundaryIsExclusive(t *testing.T) {
	limiter, clock := newTestLimiter(1, 60)

	require.True(t, limiter.Admit("c").Allowed)

	clock.Advance(59 * time.Second)
	d := limiter.Admit("c")
	require.False(t, d.Allowed)
	assert.Equal(t, time.Second, d.RetryAfter)

	clock.Advance(time.Second)
	assert.True(t, limiter.Admit("c").Allowed, "an entry exactly one minute old is outside the window")
}

func TestAdmit_HourLimit(t *testing.T) {
	limiter, clock := newTestLimiter(10, 15)

	admitted := 0
	for round := 0; round < 3; round++ {
		for i := 0; i < 10; i++ {
			if limiter.Admit("c").Allowed {
				admitted++
			}
		}
		clock.Advance(61 * time.Second)
	}
	assert.Equal(t, 15, admitted)

	d := limiter.Admit("c")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonPerHour, d.Reason)
	assert.Equal(t, WindowHour, d.Window)
	assert.Greater(t, d.RetryAfter, time.Duration(0))

	clock.Advance(time.Hour)
	assert.True(t, limiter.Admit("c").Allowed)
}

func TestAdmit_MinuteCheckedFirst(t *testing.T) {
	limiter, _ := newTestLimiter(2, 2)

	limiter.Admit("c")
	limiter.Admit("c")

	d := limiter.Admit("c")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonPerMinute, d.Reason)
}

func TestAdmit_DeniedRequestsAreNotRecorded(t *testing.T) {
	limiter, clock := newTestLimiter(2, 3)

	limiter.Admit("c")
	limiter.Admit("c")
	for i := 0; i < 20; i++ {
		limiter.Admit("c")
	}

	clock.Advance(61 * time.Second)
	assert.True(t, limiter.Admit("c").Allowed, "hour window holds only the 2 admitted requests")
}

func TestAdmit_ClientsAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(1, 60)

	assert.True(t, limiter.Admit("a").Allowed)
	assert.False(t, limiter.Admit("a").Allowed)
	assert.True(t, limiter.Admit("b").Allowed)
}

func TestSweepAll(t *testing.T) {
	limiter, clock := newTestLimiter(10, 60)

	limiter.Admit("old")
	clock.Advance(30 * time.Minute)
	limiter.Admit("recent")
	assert.Equal(t, 2, limiter.Clients())

	clock.Advance(31 * time.Minute)
	assert.Equal(t, 1, limiter.SweepAll())
	assert.Equal(t, 1, limiter.Clients())

	clock.Advance(time.Hour)
	assert.Equal(t, 1, limiter.SweepAll())
	assert.Equal(t, 0, limiter.Clients())
}

func TestReset(t *testing.T) {
	limiter, _ := newTestLimiter(1, 60)

	limiter.Admit("c")
	require.False(t, limiter.Admit("c").Allowed)

	limiter.Reset("c")
	assert.True(t, limiter.Admit("c").Allowed)
}

func TestAllowReturnsRateLimitError(t *testing.T) {
	limiter, _ := newTestLimiter(1, 60)

	require.NoError(t, limiter.Allow("c"))

	err := limiter.Allow("c")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimitExceeded))
	assert.Equal(t, ReasonPerMinute, err.Error())

	d, ok := DecisionFromError(err)
	require.True(t, ok)
	assert.Equal(t, WindowMinute, d.Window)

	_, ok = DecisionFromError(errors.New("other"))
	assert.False(t, ok)
}

func TestConcurrentAdmit(t *testing.T) {
	limiter, _ := newTestLimiter(100, 1000)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if limiter.Admit("shared").Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, allowed)
}

func TestClientID(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"forwarded single", "198.51.100.4", "10.0.0.1:5000", "198.51.100.4"},
		{"forwarded chain", " 198.51.100.4 , 10.0.0.2", "10.0.0.1:5000", "198.51.100.4"},
		{"remote addr", "", "10.0.0.1:5000", "10.0.0.1"},
		{"remote addr without port", "", "10.0.0.1", "10.0.0.1"},
		{"unknown", "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, ClientID(r))
		})
	}
}

func newTestHandler(limiter Admitter, isTest func(*http.Request) bool) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return Middleware(MiddlewareConfig{
		Limiter:       limiter,
		ExcludedPaths: []string{"/", "/api/health"},
		IsTestMode:    isTest,
	})(ok)
}

func doRequest(h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, nil)
	r.RemoteAddr = "192.0.2.10:4321"
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_Denies(t *testing.T) {
	limiter, _ := newTestLimiter(2, 60)
	h := newTestHandler(limiter, nil)

	first := doRequest(h, "/api/chat", nil)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	doRequest(h, "/api/chat", nil)
	w := doRequest(h, "/api/chat", nil)

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, ReasonPerMinute, body["message"])
}

func TestMiddleware_ExcludedPaths(t *testing.T) {
	limiter, _ := newTestLimiter(1, 60)
	h := newTestHandler(limiter, nil)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "/api/health", nil).Code)
		assert.Equal(t, http.StatusOK, doRequest(h, "/", nil).Code)
	}
	assert.Equal(t, 0, limiter.Clients())
}

func TestMiddleware_TestMode(t *testing.T) {
	t.Run("header", func(t *testing.T) {
		limiter, _ := newTestLimiter(1, 60)
		h := newTestHandler(limiter, nil)
		for i := 0; i < 5; i++ {
			w := doRequest(h, "/api/chat", map[string]string{TestModeHeader: "true"})
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("environment", func(t *testing.T) {
		limiter, _ := newTestLimiter(1, 60)
		h := newTestHandler(limiter, func(*http.Request) bool { return true })
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, doRequest(h, "/api/chat", nil).Code)
		}
	})
}

func TestMiddleware_NilLimiterPassesThrough(t *testing.T) {
	h := newTestHandler(nil, nil)
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "/api/chat", nil).Code)
	}
}
