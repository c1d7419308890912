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

package config

import "time"

// DefaultExcludedPaths bypass rate limiting.
var DefaultExcludedPaths = StringList{"/", "/api/health", "/api/docs", "/api/openapi.json", "/metrics"}

// RateLimitConfig defines per-client request limits over a minute and an hour.
//
// Example:
//
//	rate_limiting:
//	  enabled: true
//	  per_minute: 10
//	  per_hour: 60
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active.
	Enabled bool `yaml:"enabled" json:"enabled" env:"RATE_LIMIT_ENABLED" jsonschema:"title=Enabled,default=true"`

	// PerMinute is the maximum number of admitted requests in any trailing minute.
	PerMinute int `yaml:"per_minute,omitempty" json:"per_minute,omitempty" env:"RATE_LIMIT_PER_MINUTE" jsonschema:"title=Per Minute,minimum=1,default=10"`

	// PerHour is the maximum number of admitted requests in any trailing hour.
	PerHour int `yaml:"per_hour,omitempty" json:"per_hour,omitempty" env:"RATE_LIMIT_PER_HOUR" jsonschema:"title=Per Hour,minimum=1,default=60"`

	// SweepInterval is how often idle client records are discarded.
	SweepInterval time.Duration `yaml:"sweep_interval,omitempty" json:"sweep_interval,omitempty" env:"RATE_LIMIT_SWEEP_INTERVAL" jsonschema:"title=Sweep Interval,type=string,default=5m"`

	// ExcludedPaths bypass the limiter entirely.
	ExcludedPaths StringList `yaml:"excluded_paths,omitempty" json:"excluded_paths,omitempty" env:"RATE_LIMIT_EXCLUDED_PATHS" jsonschema:"title=Excluded Paths"`
}

// SetDefaults sets default values for RateLimitConfig.
func (c *RateLimitConfig) SetDefaults() {
	if c.PerMinute == 0 {
		c.PerMinute = 10
	}
	if c.PerHour == 0 {
		c.PerHour = 60
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 5 * time.Minute
	}
	if c.ExcludedPaths == nil {
		c.ExcludedPaths = append(StringList(nil), DefaultExcludedPaths...)
	}
}

// Validate validates the RateLimitConfig.
func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.PerMinute <= 0 {
		return invalid("rate_limiting.per_minute", "must be positive, got %d", c.PerMinute)
	}
	if c.PerHour <= 0 {
		return invalid("rate_limiting.per_hour", "must be positive, got %d", c.PerHour)
	}
	if c.PerHour < c.PerMinute {
		return invalid("rate_limiting.per_hour", "must be at least per_minute (%d), got %d", c.PerMinute, c.PerHour)
	}
	if c.SweepInterval < time.Second {
		return invalid("rate_limiting.sweep_interval", "must be at least 1s, got %s", c.SweepInterval)
	}
	return nil
}
