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

package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a Store backed by a map guarded by one mutex.
type MemoryStore struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	timeout     time.Duration
	maxMessages int
	now         func() time.Time
	newID       func() string
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithTimeout sets the idle expiry.
func WithTimeout(d time.Duration) Option {
	return func(s *MemoryStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxMessages sets the retained history length.
func WithMaxMessages(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxMessages = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// WithIDGenerator replaces the uuid generator, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *MemoryStore) {
		s.newID = fn
	}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions:    make(map[string]*Session),
		timeout:     DefaultTimeout,
		maxMessages: DefaultMaxMessages,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create() string {
	now := s.now()
	id := s.newID()

	s.mu.Lock()
	s.sessions[id] = &Session{
		ID:             id,
		CreatedAt:      now,
		LastActivityAt: now,
		Language:       LanguageEnglish,
	}
	s.mu.Unlock()

	slog.Info("Session created", "session_id", id)
	return id
}

func (s *MemoryStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookupLocked(id)
	if !ok {
		return nil, false
	}
	return sess.clone(), true
}

func (s *MemoryStore) AppendMessage(id string, role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookupLocked(id)
	if !ok {
		return
	}

	now := s.now()
	sess.Messages = append(sess.Messages, Message{Role: role, Content: content, Timestamp: now})
	if over := len(sess.Messages) - s.maxMessages; over > 0 {
		// Copy down so the dropped prefix does not pin the old backing array.
		sess.Messages = append(sess.Messages[:0:0], sess.Messages[over:]...)
	}
	sess.LastActivityAt = now
}

func (s *MemoryStore) SetLanguage(id string, lang Language) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.lookupLocked(id); ok {
		sess.Language = lang
	}
}

func (s *MemoryStore) Messages(id string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookupLocked(id)
	if !ok {
		return nil
	}
	return append([]Message(nil), sess.Messages...)
}

func (s *MemoryStore) HistoryExcludingLast(id string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookupLocked(id)
	if !ok || len(sess.Messages) == 0 {
		return nil
	}
	return append([]Message(nil), sess.Messages[:len(sess.Messages)-1]...)
}

func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *MemoryStore) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("Expired sessions cleaned up", "count", removed, "remaining", len(s.sessions))
	}
	return removed
}

func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// lookupLocked returns the live session for id, evicting it if expired.
// Callers must hold s.mu.
func (s *MemoryStore) lookupLocked(id string) (*Session, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(sess, s.now()) {
		delete(s.sessions, id)
		slog.Info("Session expired", "session_id", id)
		return nil, false
	}
	return sess, true
}

func (s *MemoryStore) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.LastActivityAt) > s.timeout
}

var _ Store = (*MemoryStore)(nil)
