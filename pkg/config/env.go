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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from .env files.
//
// Search order: explicit paths, then .env.local and .env in the current
// directory, then .env next to the config file when configPath is set.
// Existing environment variables are NOT overwritten.
func LoadDotEnv(configPath string, paths ...string) error {
	candidates := append([]string{}, paths...)
	candidates = append(candidates, ".env.local", ".env")
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			candidates = append(candidates, filepath.Join(filepath.Dir(abs), ".env"))
		}
	}

	for _, path := range candidates {
		if path == "" {
			continue
		}
		if err := loadIfExists(path); err != nil {
			return err
		}
	}
	return nil
}

// loadIfExists loads a .env file if it exists.
func loadIfExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	slog.Debug("Loaded environment file", "path", path)
	return nil
}

// applyEnv overlays environment variables onto cfg using the env struct tags.
// Unset variables leave the existing value untouched.
func applyEnv(cfg *Config) error {
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("failed to decode environment: %w", err)
	}

	// Provider-specific aliases used by existing deployments.
	provider := cfg.LLM.Provider
	if provider == "" {
		provider = LLMProviderGemini
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = ProviderAPIKey(provider)
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" && provider == LLMProviderGemini && os.Getenv("LLM_MODEL") == "" {
		cfg.LLM.Model = model
	}
	return nil
}
