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

package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/kadirpekel/folio/pkg/model"
)

func TestBuildContentsMapsRoles(t *testing.T) {
	contents := buildContents([]model.Message{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
	})

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "hi", contents[0].Parts[0].Text)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "hello", contents[1].Parts[0].Text)
}

func TestBuildConfig(t *testing.T) {
	temp := 0.7
	maxTokens := 500

	cfg := buildConfig(&model.GenerateConfig{Temperature: &temp, MaxTokens: &maxTokens}, "be brief")
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "be brief", cfg.SystemInstruction.Parts[0].Text)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.7, float64(*cfg.Temperature), 1e-6)
	assert.Equal(t, int32(500), cfg.MaxOutputTokens)

	bare := buildConfig(nil, "")
	assert.Nil(t, bare.SystemInstruction)
	assert.Nil(t, bare.Temperature)
}

func TestParseResponse(t *testing.T) {
	resp, err := parseResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "Hello "},
				{Text: "there"},
			}},
			FinishReason: genai.FinishReasonMaxTokens,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 4,
			TotalTokenCount:      14,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", resp.Text)
	assert.Equal(t, model.FinishReasonLength, resp.FinishReason)
	assert.Equal(t, 14, resp.TotalTokens())
}

func TestParseResponseNoCandidates(t *testing.T) {
	_, err := parseResponse(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, model.ErrEmptyResponse)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
