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
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/kadirpekel/folio/pkg/observability"
)

// TestModeHeader marks a request as coming from a test harness.
const TestModeHeader = "X-Test-Mode"

// Admitter decides whether a client may proceed.
type Admitter interface {
	Admit(clientID string) Decision
}

// ClientID identifies the caller: the first X-Forwarded-For entry, else
// the host part of RemoteAddr, else "unknown".
func ClientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}

// HeaderTestMode reports whether the request carries "X-Test-Mode: true".
func HeaderTestMode(r *http.Request) bool {
	return r.Header.Get(TestModeHeader) == "true"
}

// MiddlewareConfig configures the rate limiting middleware.
type MiddlewareConfig struct {
	// Limiter is the rate limiter to use. A nil Limiter disables the middleware.
	Limiter Admitter

	// ExcludedPaths bypass rate limiting.
	ExcludedPaths []string

	// IsTestMode bypasses rate limiting for matching requests.
	// If nil, HeaderTestMode is used.
	IsTestMode func(r *http.Request) bool

	// OnLimited writes the response for a denied request.
	// If nil, a JSON 429 is sent.
	OnLimited func(w http.ResponseWriter, r *http.Request, d Decision)

	// Metrics counts denials. May be nil.
	Metrics *observability.Metrics
}

// Middleware creates an HTTP middleware that enforces rate limits.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	if cfg.IsTestMode == nil {
		cfg.IsTestMode = HeaderTestMode
	}
	if cfg.OnLimited == nil {
		cfg.OnLimited = defaultOnLimited
	}

	excluded := make(map[string]bool, len(cfg.ExcludedPaths))
	for _, p := range cfg.ExcludedPaths {
		excluded[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if excluded[r.URL.Path] || cfg.IsTestMode(r) {
				next.ServeHTTP(w, r)
				return
			}

			clientID := ClientID(r)
			d := cfg.Limiter.Admit(clientID)
			if !d.Allowed {
				slog.Warn("Rate limit exceeded",
					"client_id", clientID,
					"path", r.URL.Path,
					"window", string(d.Window))
				cfg.Metrics.RecordRateLimited(r.Context(), string(d.Window))
				cfg.OnLimited(w, r, d)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// defaultOnLimited sends a 429 with the denial reason.
func defaultOnLimited(w http.ResponseWriter, _ *http.Request, d Decision) {
	w.Header().Set("Content-Type", "application/json")
	if d.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": d.Reason,
	})
}
