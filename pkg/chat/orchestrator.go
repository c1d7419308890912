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

// Package chat turns a visitor message into an assistant reply.
//
// The Orchestrator builds the model prompt from the system instruction and
// the stored conversation and never fails: provider problems become fixed
// apology strings. The Service runs the full turn against the session
// store.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kadirpekel/folio/pkg/instruction"
	"github.com/kadirpekel/folio/pkg/model"
	"github.com/kadirpekel/folio/pkg/observability"
	"github.com/kadirpekel/folio/pkg/session"
)

// Replies served instead of a model answer.
const (
	ReplyUnavailable = "I'm sorry, the AI service is not currently available. Please try again later or use the contact form."
	ReplyError       = "I'm sorry, I encountered an error processing your message. Please try again later."
	ReplyEmpty       = "I'm sorry, I didn't receive a valid response."
)

var languageNames = map[session.Language]string{
	session.LanguageArabic: "Arabic",
}

// Options tunes generation and instrumentation.
type Options struct {
	Temperature *float64
	MaxTokens   *int

	Metrics *observability.Metrics
	Tracer  trace.Tracer
}

// Orchestrator asks the model for the next assistant turn.
type Orchestrator struct {
	llm         model.LLM
	store       session.Store
	instruction *instruction.Source
	genConfig   *model.GenerateConfig
	metrics     *observability.Metrics
	tracer      trace.Tracer
}

// NewOrchestrator creates an Orchestrator. llm may be nil, in which case
// every reply is ReplyUnavailable.
func NewOrchestrator(llm model.LLM, store session.Store, instr *instruction.Source, opts Options) *Orchestrator {
	if instr == nil {
		instr = instruction.Static(instruction.Default)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &Orchestrator{
		llm:         llm,
		store:       store,
		instruction: instr,
		genConfig: &model.GenerateConfig{
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		},
		metrics: opts.Metrics,
		tracer:  tracer,
	}
}

// Available reports whether a model is configured.
func (o *Orchestrator) Available() bool {
	return o.llm != nil
}

// Respond returns the assistant reply to userMessage in the context of the
// session's earlier turns. The session may already hold userMessage as its
// last entry; it is not sent twice.
func (o *Orchestrator) Respond(ctx context.Context, sessionID, userMessage string, language session.Language) string {
	if o.llm == nil {
		return ReplyUnavailable
	}

	ctx, span := o.tracer.Start(ctx, observability.SpanChatRespond,
		trace.WithAttributes(
			attribute.String(observability.AttrSessionID, sessionID),
			attribute.String(observability.AttrLLMProvider, string(o.llm.Provider())),
			attribute.String(observability.AttrLLMModel, o.llm.Name()),
		))
	defer span.End()

	req := &model.Request{
		SystemInstruction: o.systemInstruction(language),
		Messages:          o.buildMessages(sessionID, userMessage),
		Config:            o.genConfig,
	}

	start := time.Now()
	resp, err := o.llm.Generate(ctx, req)
	o.metrics.RecordLLMRequest(ctx, string(o.llm.Provider()), o.llm.Name(), time.Since(start), resp.TotalTokens(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("AI request failed",
			"session_id", sessionID,
			"provider", o.llm.Provider(),
			"error", err)
		return ReplyError
	}

	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Text)
	}
	if text == "" {
		slog.Warn("AI returned an empty response", "session_id", sessionID, "provider", o.llm.Provider())
		return ReplyEmpty
	}

	slog.Info("AI response generated",
		"model", o.llm.Name(),
		"session_id", sessionID,
		"history", len(req.Messages)-1)
	return text
}

// buildMessages returns the prior turns followed by the current user message.
func (o *Orchestrator) buildMessages(sessionID, userMessage string) []model.Message {
	var prior []session.Message
	if o.store != nil {
		prior = o.store.Messages(sessionID)
	}
	if n := len(prior); n > 0 && prior[n-1].Role == session.RoleUser && prior[n-1].Content == userMessage {
		prior = prior[:n-1]
	}

	msgs := make([]model.Message, 0, len(prior)+1)
	for _, m := range prior {
		if m.Role != session.RoleUser && m.Role != session.RoleAssistant {
			continue
		}
		msgs = append(msgs, model.Message{Role: m.Role, Content: m.Content})
	}
	return append(msgs, model.Message{Role: model.RoleUser, Content: userMessage})
}

func (o *Orchestrator) systemInstruction(language session.Language) string {
	raw := o.instruction.Text()
	text, err := instruction.Render(raw, map[string]string{"language": string(language)})
	if err != nil {
		slog.Warn("System instruction placeholders not resolved", "error", err)
		text = raw
	}

	if name, ok := languageNames[language]; ok {
		text += "\n\nRespond in " + name + "."
	}
	return text
}
