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

// Package anthropic implements model.LLM over the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/kadirpekel/folio/pkg/model"
)

// defaultMaxTokens is used when the request does not set one; the API requires it.
const defaultMaxTokens = 500

// Config contains configuration for the Anthropic model.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string

	// Timeout bounds each Messages call.
	Timeout time.Duration

	// MaxRetries overrides the SDK retry count when non-negative.
	MaxRetries int
}

type anthropicModel struct {
	client  anthropic.Client
	name    string
	timeout time.Duration
}

// New creates a new Anthropic model instance.
func New(cfg Config) (model.LLM, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	return &anthropicModel{
		client:  anthropic.NewClient(opts...),
		name:    cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

func (m *anthropicModel) Name() string {
	return m.name
}

func (m *anthropicModel) Provider() model.Provider {
	return model.ProviderAnthropic
}

func (m *anthropicModel) Close() error {
	return nil
}

// Generate sends one Messages request.
func (m *anthropicModel) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	msg, err := m.client.Messages.New(ctx, m.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	input, output := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return &model.Response{
		Text:         text.String(),
		FinishReason: mapStopReason(msg.StopReason),
		Usage: &model.Usage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		},
	}, nil
}

func (m *anthropicModel) buildParams(req *model.Request) anthropic.MessageNewParams {
	system, turns := req.SplitSystem()

	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, msg := range turns {
		if msg.Role == model.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	maxTokens := defaultMaxTokens
	if req.Config != nil && req.Config.MaxTokens != nil {
		maxTokens = *req.Config.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.name),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Config != nil && req.Config.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Config.Temperature)
	}
	return params
}

func mapStopReason(reason anthropic.StopReason) model.FinishReason {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return model.FinishReasonStop
	case anthropic.StopReasonMaxTokens:
		return model.FinishReasonLength
	default:
		return model.FinishReasonOther
	}
}

var _ model.LLM = (*anthropicModel)(nil)
