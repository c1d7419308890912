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

// Package factory builds the configured model.LLM.
package factory

import (
	"errors"
	"fmt"

	"github.com/kadirpekel/folio/pkg/config"
	"github.com/kadirpekel/folio/pkg/model"
	"github.com/kadirpekel/folio/pkg/model/anthropic"
	"github.com/kadirpekel/folio/pkg/model/gemini"
	"github.com/kadirpekel/folio/pkg/model/openai"
)

// ErrUnknownProvider is returned for a provider name with no adapter.
var ErrUnknownProvider = errors.New("unknown LLM provider")

const sdkMaxRetries = 2

// New creates the LLM described by cfg. Without an API key it returns
// (nil, nil): the assistant runs in its unavailable mode.
func New(cfg *config.LLMConfig) (model.LLM, error) {
	if cfg == nil || !cfg.HasCredentials() {
		return nil, nil
	}

	var (
		llm model.LLM
		err error
	)
	switch cfg.Provider {
	case config.LLMProviderGemini:
		llm, err = gemini.New(gemini.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	case config.LLMProviderOpenAI:
		llm, err = openai.New(openai.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			MaxRetries: sdkMaxRetries,
		})
	case config.LLMProviderAnthropic:
		llm, err = anthropic.New(anthropic.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			MaxRetries: sdkMaxRetries,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s model: %w", cfg.Provider, err)
	}
	return llm, nil
}
