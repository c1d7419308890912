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

// Package config defines folio's configuration and its loading layers.
//
// Values are resolved lowest to highest from built-in defaults, an optional
// YAML file, environment variables (including .env files) and finally CLI
// flags applied by the caller.
package config

import (
	"fmt"

	"github.com/kadirpekel/folio/pkg/observability"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config is the root configuration.
type Config struct {
	// Environment name. "test" disables rate limiting.
	Environment string `yaml:"environment,omitempty" json:"environment,omitempty" env:"ENVIRONMENT" jsonschema:"title=Environment,default=development"`

	// Debug relaxes CORS and exposes the API schema endpoint.
	Debug bool `yaml:"debug,omitempty" json:"debug,omitempty" env:"DEBUG" jsonschema:"title=Debug"`

	Server        ServerConfig         `yaml:"server,omitempty" json:"server,omitempty"`
	LLM           LLMConfig            `yaml:"llm,omitempty" json:"llm,omitempty"`
	Instruction   InstructionConfig    `yaml:"instruction,omitempty" json:"instruction,omitempty"`
	Sessions      SessionsConfig       `yaml:"sessions,omitempty" json:"sessions,omitempty"`
	RateLimit     RateLimitConfig      `yaml:"rate_limiting,omitempty" json:"rate_limiting,omitempty"`
	Logger        LoggerConfig         `yaml:"logger,omitempty" json:"logger,omitempty"`
	Observability observability.Config `yaml:"observability,omitempty" json:"observability,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := base()
	cfg.SetDefaults()
	return cfg
}

// base seeds the defaults whose zero value is also a legal setting.
func base() *Config {
	return &Config{
		RateLimit: RateLimitConfig{Enabled: true},
		LLM:       LLMConfig{Temperature: DefaultTemperature},
	}
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	c.Server.SetDefaults()
	c.LLM.SetDefaults()
	c.Instruction.SetDefaults()
	c.Sessions.SetDefaults()
	c.RateLimit.SetDefaults()
	c.Logger.SetDefaults()
	c.Observability.SetDefaults()
}

// Validate returns the first invalid setting.
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.Server,
		&c.LLM,
		&c.Sessions,
		&c.RateLimit,
		&c.Logger,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability: %w", err)
	}
	return nil
}

// IsTest reports whether the process runs in the test environment.
func (c *Config) IsTest() bool {
	return c.Environment == EnvTest
}
