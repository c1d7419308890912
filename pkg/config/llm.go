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

import (
	"os"
	"time"
)

// DefaultTemperature is the sampling temperature used when none is configured.
// Zero is a valid explicit setting, so it is seeded before file and env layers.
const DefaultTemperature = 0.7

// LLMProvider identifies the LLM provider type.
type LLMProvider string

const (
	LLMProviderGemini    LLMProvider = "gemini"
	LLMProviderOpenAI    LLMProvider = "openai"
	LLMProviderAnthropic LLMProvider = "anthropic"
)

// LLMConfig configures the chat model.
type LLMConfig struct {
	// Provider type (gemini, openai, anthropic).
	Provider LLMProvider `yaml:"provider,omitempty" json:"provider,omitempty" env:"LLM_PROVIDER" jsonschema:"title=Provider,description=LLM provider,enum=gemini,enum=openai,enum=anthropic,default=gemini"`

	// Model name (e.g., "gemini-2.0-flash-exp", "gpt-4o").
	Model string `yaml:"model,omitempty" json:"model,omitempty" env:"LLM_MODEL" jsonschema:"title=Model,description=Model identifier"`

	// APIKey for authentication. An empty key disables the assistant.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty" env:"LLM_API_KEY" jsonschema:"title=API Key,description=API key for authentication (use ${ENV_VAR})"`

	// BaseURL overrides the default API endpoint.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty" env:"LLM_BASE_URL" jsonschema:"title=Base URL,description=Custom base URL for API endpoint"`

	// Temperature for generation.
	Temperature float64 `yaml:"temperature,omitempty" json:"temperature,omitempty" env:"AI_TEMPERATURE" jsonschema:"title=Temperature,minimum=0,maximum=2,default=0.7"`

	// MaxTokens limits response length.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty" env:"AI_MAX_TOKENS" jsonschema:"title=Max Tokens,minimum=1,default=500"`

	// Timeout bounds a single provider call.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" env:"LLM_TIMEOUT" jsonschema:"title=Timeout,type=string,default=60s"`
}

// SetDefaults applies default values.
func (c *LLMConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = LLMProviderGemini
	}
	if c.Model == "" {
		switch c.Provider {
		case LLMProviderGemini:
			c.Model = "gemini-2.0-flash-exp"
		case LLMProviderOpenAI:
			c.Model = "gpt-4o-mini"
		case LLMProviderAnthropic:
			c.Model = "claude-3-5-haiku-latest"
		}
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 500
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
}

// Validate checks the LLM configuration. A missing API key is not an error.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case LLMProviderGemini, LLMProviderOpenAI, LLMProviderAnthropic:
	default:
		return invalid("llm.provider", "%q (valid: gemini, openai, anthropic)", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return invalid("llm.temperature", "must be between 0 and 2, got %v", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return invalid("llm.max_tokens", "must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return invalid("llm.timeout", "must be positive, got %s", c.Timeout)
	}
	return nil
}

// HasCredentials reports whether a provider can be constructed.
func (c *LLMConfig) HasCredentials() bool {
	return c.APIKey != ""
}

// ProviderAPIKey returns the provider-specific API key from the environment.
func ProviderAPIKey(provider LLMProvider) string {
	switch provider {
	case LLMProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	case LLMProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case LLMProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}
