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

import "errors"

// ErrRateLimitExceeded is wrapped by every RateLimitError.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// RateLimitError carries the Decision that denied a request.
type RateLimitError struct {
	Decision Decision
}

// Error returns the denial reason.
func (e *RateLimitError) Error() string {
	if e.Decision.Reason == "" {
		return ErrRateLimitExceeded.Error()
	}
	return e.Decision.Reason
}

// Unwrap returns ErrRateLimitExceeded.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimitExceeded
}

// NewRateLimitError creates a RateLimitError from a denial.
func NewRateLimitError(d Decision) *RateLimitError {
	return &RateLimitError{Decision: d}
}

// DecisionFromError extracts the Decision from err, if any.
func DecisionFromError(err error) (Decision, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle.Decision, true
	}
	return Decision{}, false
}
