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
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kadirpekel/folio/pkg/session"
)

// MaxMessageLength is the longest accepted visitor message, in characters.
const MaxMessageLength = 2000

var (
	// ErrEmptyMessage is returned for a message that is blank after trimming.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrMessageTooLong is returned for a message over MaxMessageLength characters.
	ErrMessageTooLong = fmt.Errorf("message exceeds %d characters", MaxMessageLength)

	// ErrInvalidLanguage is returned for a language other than en or ar.
	ErrInvalidLanguage = errors.New("invalid language")
)

// Turn is one visitor message.
type Turn struct {
	Message   string
	SessionID string
	Language  string
}

// Reply is the assistant's answer to a Turn.
type Reply struct {
	Message   string    `json:"message"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionInfo summarizes a live session.
type SessionInfo struct {
	SessionID      string    `json:"session_id"`
	MessageCount   int       `json:"message_count"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity"`
}

// Service runs chat turns against the session store.
type Service struct {
	store        session.Store
	orchestrator *Orchestrator
	now          func() time.Time
}

// NewService creates a Service.
func NewService(store session.Store, orchestrator *Orchestrator) *Service {
	return &Service{
		store:        store,
		orchestrator: orchestrator,
		now:          time.Now,
	}
}

// Validate checks a turn without touching any session.
func (t Turn) Validate() error {
	msg := strings.TrimSpace(t.Message)
	if msg == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(t.Message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if _, err := session.ParseLanguage(t.Language); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, t.Language)
	}
	return nil
}

// Send resolves or creates the session, records the trimmed visitor message, asks
// the model and records the answer. An unknown or expired session id
// starts a new session.
func (s *Service) Send(ctx context.Context, turn Turn) (*Reply, error) {
	if err := turn.Validate(); err != nil {
		return nil, err
	}
	lang, _ := session.ParseLanguage(turn.Language)
	message := strings.TrimSpace(turn.Message)

	sessionID := turn.SessionID
	if sessionID == "" {
		sessionID = s.store.Create()
	} else if _, ok := s.store.Get(sessionID); !ok {
		slog.Debug("Session not found, starting a new one", "requested_session_id", sessionID)
		sessionID = s.store.Create()
	}

	if turn.Language != "" {
		s.store.SetLanguage(sessionID, lang)
	}

	s.store.AppendMessage(sessionID, session.RoleUser, message)

	answer := s.orchestrator.Respond(ctx, sessionID, message, lang)

	s.store.AppendMessage(sessionID, session.RoleAssistant, answer)

	slog.Info("Chat message processed",
		"session_id", sessionID,
		"message_length", len(message),
		"response_length", len(answer))

	return &Reply{
		Message:   answer,
		SessionID: sessionID,
		Timestamp: s.now(),
	}, nil
}

// History summarizes a live session.
func (s *Service) History(sessionID string) (*SessionInfo, error) {
	sess, ok := s.store.Get(sessionID)
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return &SessionInfo{
		SessionID:      sess.ID,
		MessageCount:   len(sess.Messages),
		CreatedAt:      sess.CreatedAt,
		LastActivityAt: sess.LastActivityAt,
	}, nil
}

// Reset discards a session.
func (s *Service) Reset(sessionID string) error {
	if !s.store.Delete(sessionID) {
		return session.ErrSessionNotFound
	}
	slog.Info("Session reset", "session_id", sessionID)
	return nil
}

// ActiveSessions returns the number of tracked sessions.
func (s *Service) ActiveSessions() int {
	return s.store.Count()
}
