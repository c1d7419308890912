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

import "time"

// Window identifies one of the two sliding windows.
type Window string

const (
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
)

// Duration returns the span of the window.
func (w Window) Duration() time.Duration {
	if w == WindowMinute {
		return time.Minute
	}
	return time.Hour
}

// Denial reasons returned to clients.
const (
	ReasonPerMinute = "Too many requests per minute. Please try again later."
	ReasonPerHour   = "Too many requests per hour. Please try again later."
)

// Config holds the two limits.
type Config struct {
	PerMinute int
	PerHour   int
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool `json:"allowed"`

	// Reason is set when the request was denied.
	Reason string `json:"reason,omitempty"`

	// Window is the window that denied the request, or WindowMinute when allowed.
	Window Window `json:"window"`

	// Limit is the size of Window.
	Limit int `json:"limit"`

	// Remaining is the number of requests still admissible in Window.
	Remaining int `json:"remaining"`

	// RetryAfter is how long until the oldest entry leaves the denying window.
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}
