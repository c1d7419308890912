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

// Package openai implements model.LLM over the OpenAI Chat Completions API.
// Any OpenAI-compatible endpoint can be used through Config.BaseURL.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kadirpekel/folio/pkg/model"
)

// Config contains configuration for the OpenAI model.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string

	// Timeout bounds each completion call.
	Timeout time.Duration

	// MaxRetries overrides the SDK retry count when non-negative.
	MaxRetries int
}

type openaiModel struct {
	client  openai.Client
	name    string
	timeout time.Duration
}

// New creates a new OpenAI model instance.
func New(cfg Config) (model.LLM, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	return &openaiModel{
		client:  openai.NewClient(opts...),
		name:    cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

func (m *openaiModel) Name() string {
	return m.name
}

func (m *openaiModel) Provider() model.Provider {
	return model.ProviderOpenAI
}

func (m *openaiModel) Close() error {
	return nil
}

// Generate sends one chat completion request.
func (m *openaiModel) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	completion, err := m.client.Chat.Completions.New(ctx, m.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, model.ErrEmptyResponse
	}

	choice := completion.Choices[0]
	return &model.Response{
		Text:         choice.Message.Content,
		FinishReason: mapFinishReason(choice.FinishReason),
		Usage: &model.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}

func (m *openaiModel) buildParams(req *model.Request) openai.ChatCompletionNewParams {
	system, turns := req.SplitSystem()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, msg := range turns {
		if msg.Role == model.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(msg.Content))
		} else {
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.name),
		Messages: messages,
	}
	if req.Config != nil {
		if req.Config.Temperature != nil {
			params.Temperature = openai.Float(*req.Config.Temperature)
		}
		if req.Config.MaxTokens != nil {
			params.MaxTokens = openai.Int(int64(*req.Config.MaxTokens))
		}
	}
	return params
}

func mapFinishReason(reason string) model.FinishReason {
	switch reason {
	case "stop", "":
		return model.FinishReasonStop
	case "length":
		return model.FinishReasonLength
	case "content_filter":
		return model.FinishReasonContent
	default:
		return model.FinishReasonOther
	}
}

var _ model.LLM = (*openaiModel)(nil)
