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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/folio/pkg/config"
)

func TestLogSettingsFlagsOverrideConfig(t *testing.T) {
	cfg := config.LoggerConfig{Level: "info", Format: "text", File: "config.log"}

	got := logSettings(&CLI{LogLevel: "debug"}, cfg)
	assert.Equal(t, "debug", got.Level)
	assert.Equal(t, "text", got.Format)
	assert.Equal(t, "config.log", got.File)

	got = logSettings(&CLI{LogFormat: "json", LogFile: "cli.log"}, cfg)
	assert.Equal(t, "info", got.Level)
	assert.Equal(t, "json", got.Format)
	assert.Equal(t, "cli.log", got.File)
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	_, err := initLogger(config.LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestServeFlagsApply(t *testing.T) {
	cfg := config.Default()
	cmd := &ServeCmd{Port: 9090, Environment: config.EnvTest, Debug: true, Watch: true}
	cmd.apply(cfg)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.True(t, cfg.IsTest())
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.Instruction.Watch)
}

func TestServeFlagsSwitchProvider(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, config.LLMProviderGemini, cfg.LLM.Provider)

	(&ServeCmd{Provider: "anthropic", APIKey: "k"}).apply(cfg)
	assert.Equal(t, config.LLMProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.LLM.Model)
	assert.Equal(t, "k", cfg.LLM.APIKey)

	(&ServeCmd{Provider: "openai", Model: "gpt-4.1"}).apply(cfg)
	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
}

func TestValidateCommand(t *testing.T) {
	t.Setenv("PORT", "")
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("server:\n  port: 8100\nllm:\n  api_key: secret-key\n"), 0o644))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server:\n  port: 70000\n"), 0o644))

	t.Run("valid", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := &ValidateCmd{Format: "compact"}
		require.NoError(t, cmd.validate(&stdout, &stderr, nil, good))
		assert.Equal(t, good+": valid\n", stdout.String())
	})

	t.Run("invalid", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := &ValidateCmd{Format: "compact"}
		assert.Error(t, cmd.validate(&stdout, &stderr, nil, bad))
		assert.Contains(t, stderr.String(), "server.port")
	})

	t.Run("json", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := &ValidateCmd{Format: "json"}
		assert.Error(t, cmd.validate(&stdout, &stderr, nil, bad))

		var result validateResult
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.False(t, result.Valid)
		assert.Equal(t, bad, result.File)
	})

	t.Run("print config masks key", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := &ValidateCmd{Format: "compact", PrintConfig: true}
		require.NoError(t, cmd.validate(&stdout, &stderr, nil, good))
		assert.Contains(t, stdout.String(), "port: 8100")
		assert.NotContains(t, stdout.String(), "secret-key")
	})
}

func TestAppServesWithoutCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = config.EnvTest
	cfg.Instruction.File = filepath.Join(t.TempDir(), "missing.txt")

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.close()
	assert.Nil(t, a.llm)

	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := strings.NewReader(`{"message": "Hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var reply map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.NotEmpty(t, reply["session_id"])
	assert.Equal(t, 1, a.sessions.Count())
}
