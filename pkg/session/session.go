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

// Package session holds chat conversations in memory.
//
// A session is either absent or live: lookups evict sessions whose idle time
// exceeds the store timeout in the same critical section that observes them,
// so an expired session is never returned.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/kadirpekel/folio/pkg/model"
)

// DefaultMaxMessages is the retained history length per session.
const DefaultMaxMessages = 20

// DefaultTimeout is the idle period after which a session expires.
const DefaultTimeout = 30 * time.Minute

// ErrSessionNotFound is returned when a session doesn't exist or has expired.
var ErrSessionNotFound = errors.New("session not found")

// Role is the author of a stored message.
type Role = model.Role

const (
	RoleUser      = model.RoleUser
	RoleAssistant = model.RoleAssistant
	RoleSystem    = model.RoleSystem
)

// Language is the preferred reply language of a conversation.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// ParseLanguage validates s. The empty string selects English.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case "":
		return LanguageEnglish, nil
	case LanguageEnglish, LanguageArabic:
		return Language(s), nil
	default:
		return "", fmt.Errorf("unsupported language %q", s)
	}
}

// Message is one stored conversation turn.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a snapshot of a conversation. Values returned by a Store are
// copies; mutating them does not affect the store.
type Session struct {
	ID             string
	CreatedAt      time.Time
	LastActivityAt time.Time
	Language       Language
	Messages       []Message
}

func (s *Session) clone() *Session {
	c := *s
	c.Messages = append([]Message(nil), s.Messages...)
	return &c
}

// Store manages conversation sessions.
type Store interface {
	// Create starts an empty session and returns its id.
	Create() string

	// Get returns a live session, evicting it if it has expired.
	Get(id string) (*Session, bool)

	// AppendMessage records a turn and refreshes the idle timer.
	// It is a no-op when the session is absent.
	AppendMessage(id string, role Role, content string)

	// SetLanguage changes the reply language. No-op when absent.
	SetLanguage(id string, lang Language)

	// Messages returns the full retained history, oldest first.
	Messages(id string) []Message

	// HistoryExcludingLast returns every message except the most recent one.
	HistoryExcludingLast(id string) []Message

	// Delete removes a session, reporting whether it existed.
	Delete(id string) bool

	// SweepExpired removes every expired session and returns how many were removed.
	SweepExpired() int

	// Count returns the number of sessions held.
	Count() int
}
