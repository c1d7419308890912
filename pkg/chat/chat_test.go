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

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/folio/pkg/instruction"
	"github.com/kadirpekel/folio/pkg/model"
	"github.com/kadirpekel/folio/pkg/session"
)

// fakeLLM records requests and answers from a script.
type fakeLLM struct {
	mu       sync.Mutex
	requests []*model.Request
	reply    string
	err      error
}

func (f *fakeLLM) Name() string             { return "fake-model" }
func (f *fakeLLM) Provider() model.Provider { return model.ProviderGemini }
func (f *fakeLLM) Close() error             { return nil }

func (f *fakeLLM) Generate(_ context.Context, req *model.Request) (*model.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Response{Text: f.reply, Usage: &model.Usage{TotalTokens: 12}}, nil
}

func (f *fakeLLM) last() *model.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func newTestService(llm model.LLM) (*Service, *session.MemoryStore) {
	store := session.NewMemoryStore()
	orch := NewOrchestrator(llm, store, instruction.Static("You are Sam's portfolio assistant."), Options{})
	return NewService(store, orch), store
}

func TestRespond_PromptLayout(t *testing.T) {
	llm := &fakeLLM{reply: "  Sure.  "}
	store := session.NewMemoryStore()
	orch := NewOrchestrator(llm, store, instruction.Static("System."), Options{})

	id := store.Create()
	store.AppendMessage(id, session.RoleUser, "m1")
	store.AppendMessage(id, session.RoleAssistant, "m2")
	store.AppendMessage(id, session.RoleUser, "m3")
	store.AppendMessage(id, session.RoleAssistant, "m4")
	store.AppendMessage(id, session.RoleUser, "m5")

	got := orch.Respond(context.Background(), id, "m5", session.LanguageEnglish)
	assert.Equal(t, "Sure.", got)

	req := llm.last()
	require.NotNil(t, req)
	assert.Equal(t, "System.", req.SystemInstruction)
	require.Len(t, req.Messages, 5)

	wantRoles := []model.Role{model.RoleUser, model.RoleAssistant, model.RoleUser, model.RoleAssistant, model.RoleUser}
	wantContent := []string{"m1", "m2", "m3", "m4", "m5"}
	for i, m := range req.Messages {
		assert.Equal(t, wantRoles[i], m.Role)
		assert.Equal(t, wantContent[i], m.Content)
	}
}

func TestRespond_UserMessageNotYetStored(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	store := session.NewMemoryStore()
	orch := NewOrchestrator(llm, store, nil, Options{})

	id := store.Create()
	store.AppendMessage(id, session.RoleUser, "hello")
	store.AppendMessage(id, session.RoleAssistant, "hi there")

	orch.Respond(context.Background(), id, "what do you build?", session.LanguageEnglish)

	req := llm.last()
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "what do you build?", req.Messages[2].Content)
	assert.Equal(t, instruction.Default, req.SystemInstruction)
}

func TestRespond_GenerationConfig(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	temp, maxTokens := 0.0, 500
	orch := NewOrchestrator(llm, session.NewMemoryStore(), nil, Options{Temperature: &temp, MaxTokens: &maxTokens})

	orch.Respond(context.Background(), "none", "hi", session.LanguageEnglish)

	req := llm.last()
	require.NotNil(t, req.Config)
	require.NotNil(t, req.Config.Temperature)
	assert.Equal(t, 0.0, *req.Config.Temperature)
	assert.Equal(t, 500, *req.Config.MaxTokens)
	require.Len(t, req.Messages, 1)
}

func TestRespond_LanguageHint(t *testing.T) {
	llm := &fakeLLM{reply: "مرحبا"}
	orch := NewOrchestrator(llm, session.NewMemoryStore(), instruction.Static("Base prompt, language={language}."), Options{})

	orch.Respond(context.Background(), "none", "hello", session.LanguageArabic)
	sys := llm.last().SystemInstruction
	assert.True(t, strings.HasPrefix(sys, "Base prompt, language=ar."))
	assert.Contains(t, sys, "Respond in Arabic.")

	orch.Respond(context.Background(), "none", "hello", session.LanguageEnglish)
	assert.Equal(t, "Base prompt, language=en.", llm.last().SystemInstruction)
}

func TestRespond_Fallbacks(t *testing.T) {
	ctx := context.Background()

	t.Run("no model", func(t *testing.T) {
		orch := NewOrchestrator(nil, session.NewMemoryStore(), nil, Options{})
		assert.False(t, orch.Available())
		assert.Equal(t, ReplyUnavailable, orch.Respond(ctx, "s", "hi", session.LanguageEnglish))
	})

	t.Run("provider error", func(t *testing.T) {
		orch := NewOrchestrator(&fakeLLM{err: errors.New("boom")}, session.NewMemoryStore(), nil, Options{})
		assert.Equal(t, ReplyError, orch.Respond(ctx, "s", "hi", session.LanguageEnglish))
	})

	t.Run("empty text", func(t *testing.T) {
		orch := NewOrchestrator(&fakeLLM{reply: " \n\t"}, session.NewMemoryStore(), nil, Options{})
		assert.Equal(t, ReplyEmpty, orch.Respond(ctx, "s", "hi", session.LanguageEnglish))
	})
}

func TestSend_NewSession(t *testing.T) {
	svc, store := newTestService(&fakeLLM{reply: "Hello!"})

	reply, err := svc.Send(context.Background(), Turn{Message: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply.Message)
	assert.NotEmpty(t, reply.SessionID)
	assert.False(t, reply.Timestamp.IsZero())

	msgs := store.Messages(reply.SessionID)
	require.Len(t, msgs, 2)
	assert.Equal(t, session.RoleUser, msgs[0].Role)
	assert.Equal(t, "Hi", msgs[0].Content)
	assert.Equal(t, session.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Hello!", msgs[1].Content)
}

func TestSend_ContinuesSession(t *testing.T) {
	llm := &fakeLLM{reply: "answer"}
	svc, store := newTestService(llm)
	ctx := context.Background()

	first, err := svc.Send(ctx, Turn{Message: "one"})
	require.NoError(t, err)

	second, err := svc.Send(ctx, Turn{Message: "two", SessionID: first.SessionID})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Len(t, store.Messages(first.SessionID), 4)

	req := llm.last()
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "one", req.Messages[0].Content)
	assert.Equal(t, "answer", req.Messages[1].Content)
	assert.Equal(t, "two", req.Messages[2].Content)
}

func TestSend_UnknownSessionStartsNew(t *testing.T) {
	svc, store := newTestService(&fakeLLM{reply: "ok"})

	reply, err := svc.Send(context.Background(), Turn{Message: "hi", SessionID: "stale-id"})
	require.NoError(t, err)
	assert.NotEqual(t, "stale-id", reply.SessionID)
	assert.Equal(t, 1, store.Count())
}

func TestSend_SetsLanguage(t *testing.T) {
	svc, store := newTestService(&fakeLLM{reply: "ok"})

	reply, err := svc.Send(context.Background(), Turn{Message: "hi", Language: "ar"})
	require.NoError(t, err)

	sess, ok := store.Get(reply.SessionID)
	require.True(t, ok)
	assert.Equal(t, session.LanguageArabic, sess.Language)
}

func TestSend_FallbackIsStored(t *testing.T) {
	svc, store := newTestService(nil)

	reply, err := svc.Send(context.Background(), Turn{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ReplyUnavailable, reply.Message)

	msgs := store.Messages(reply.SessionID)
	require.Len(t, msgs, 2)
	assert.Equal(t, ReplyUnavailable, msgs[1].Content)
}

func TestSend_Validation(t *testing.T) {
	svc, store := newTestService(&fakeLLM{reply: "ok"})
	ctx := context.Background()

	_, err := svc.Send(ctx, Turn{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.Send(ctx, Turn{Message: strings.Repeat("a", MaxMessageLength+1)})
	assert.ErrorIs(t, err, ErrMessageTooLong)

	_, err = svc.Send(ctx, Turn{Message: "hi", Language: "fr"})
	assert.ErrorIs(t, err, ErrInvalidLanguage)

	assert.Equal(t, 0, store.Count())

	_, err = svc.Send(ctx, Turn{Message: strings.Repeat("é", MaxMessageLength)})
	assert.NoError(t, err)
}

func TestHistoryAndReset(t *testing.T) {
	svc, _ := newTestService(&fakeLLM{reply: "ok"})
	ctx := context.Background()

	reply, err := svc.Send(ctx, Turn{Message: "hi"})
	require.NoError(t, err)

	info, err := svc.History(reply.SessionID)
	require.NoError(t, err)
	assert.Equal(t, reply.SessionID, info.SessionID)
	assert.Equal(t, 2, info.MessageCount)
	assert.False(t, info.CreatedAt.After(info.LastActivityAt))

	require.NoError(t, svc.Reset(reply.SessionID))
	_, err = svc.History(reply.SessionID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.ErrorIs(t, svc.Reset(reply.SessionID), session.ErrSessionNotFound)
}
