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

// Package model defines the provider-neutral LLM interface.
//
// Conversation turns are carried as Message values with a closed set of
// roles. Each provider package converts them to its wire format; nothing
// outside those packages sees provider types.
package model

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// LLM is the interface for language models.
type LLM interface {
	// Name returns the model identifier.
	Name() string

	// Provider returns the provider type (e.g., "openai", "anthropic", "gemini").
	Provider() Provider

	// Generate produces a single complete response for the request.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Close releases any resources held by the LLM.
	Close() error
}

// Provider identifies the LLM provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Role is the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Request contains the input for an LLM call.
type Request struct {
	// SystemInstruction is sent ahead of the conversation.
	SystemInstruction string

	// Messages is the conversation, oldest first. The last entry is normally
	// the user turn being answered.
	Messages []Message

	// Config contains generation configuration.
	Config *GenerateConfig
}

// SplitSystem separates system guidance from the dialogue. RoleSystem
// messages are appended to the system instruction in order.
func (r *Request) SplitSystem() (string, []Message) {
	var system []string
	if s := strings.TrimSpace(r.SystemInstruction); s != "" {
		system = append(system, s)
	}

	turns := make([]Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			if s := strings.TrimSpace(m.Content); s != "" {
				system = append(system, s)
			}
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(system, "\n\n"), turns
}

// GenerateConfig contains configuration for generation.
type GenerateConfig struct {
	// Temperature controls randomness (0-2).
	Temperature *float64

	// MaxTokens limits the response length.
	MaxTokens *int
}

// Response is a complete model answer.
type Response struct {
	Text         string
	FinishReason FinishReason
	Usage        *Usage
}

// TotalTokens returns the reported token total, or zero.
func (r *Response) TotalTokens() int {
	if r == nil || r.Usage == nil {
		return 0
	}
	return r.Usage.TotalTokens
}

// Usage reports token consumption for a call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// FinishReason indicates why generation stopped.
type FinishReason string

const (
	FinishReasonStop    FinishReason = "stop"
	FinishReasonLength  FinishReason = "length"
	FinishReasonContent FinishReason = "content_filter"
	FinishReasonOther   FinishReason = "other"
)
