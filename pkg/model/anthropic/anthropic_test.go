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

package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/folio/pkg/model"
)

func TestGenerate(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "Hello!"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 9, "output_tokens": 2}
		}`))
	}))
	defer srv.Close()

	llm, err := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	resp, err := llm.Generate(context.Background(), &model.Request{
		SystemInstruction: "be kind",
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "hi"},
			{Role: model.RoleAssistant, Content: "hello"},
			{Role: model.RoleUser, Content: "again"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello!", resp.Text)
	assert.Equal(t, model.FinishReasonStop, resp.FinishReason)
	assert.Equal(t, 11, resp.TotalTokens())

	assert.EqualValues(t, defaultMaxTokens, captured["max_tokens"])
	system, ok := captured["system"].([]any)
	require.True(t, ok)
	assert.Equal(t, "be kind", system[0].(map[string]any)["text"])

	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 3)
	assert.Equal(t, "assistant", messages[1].(map[string]any)["role"])
}

func TestGenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "invalid_request_error", "message": "nope"}}`))
	}))
	defer srv.Close()

	llm, err := New(Config{APIKey: "k", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	_, err = llm.Generate(context.Background(), &model.Request{
		Messages: []model.Message{{Role: model.RoleUser, Content: "hi"}},
	})
	assert.Error(t, err)
}
