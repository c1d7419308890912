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

// Package ratelimit admits or rejects requests per client using two
// sliding windows.
//
// Each client keeps the timestamps of its admitted requests for the last
// minute and the last hour. A request is admitted when both windows have
// room; the minute window is checked first, so a client over both limits
// is told about the minute limit.
//
// # Basic Usage
//
//	limiter := ratelimit.NewSlidingWindowLimiter(ratelimit.Config{PerMinute: 10, PerHour: 60})
//
//	if d := limiter.Admit(clientID); !d.Allowed {
//	    // d.Reason, d.RetryAfter
//	}
//
// # HTTP
//
// Middleware wraps a handler, identifies the client with ClientID and
// answers 429 with {"success": false, "message": reason} when denied.
//
// # Configuration
//
//	rate_limiting:
//	  enabled: true
//	  per_minute: 10
//	  per_hour: 60
//	  sweep_interval: 5m
package ratelimit
