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

package instruction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kadirpekel/folio/pkg/config"
)

// Default is used when neither inline text nor a readable file is available.
const Default = "You are a helpful AI assistant."

const debounceDelay = 100 * time.Millisecond

// Source holds the current system instruction. Text is safe to call
// concurrently with reloads.
type Source struct {
	path string
	text atomic.Pointer[string]

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// Load resolves the instruction from cfg. Inline text wins over the file;
// a missing or empty file yields Default with a warning.
func Load(cfg config.InstructionConfig) *Source {
	s := &Source{}

	if text := strings.TrimSpace(cfg.Text); text != "" {
		s.set(text)
		slog.Info("System instruction loaded", "source", "inline")
		return s
	}

	if cfg.File != "" {
		if abs, err := filepath.Abs(cfg.File); err == nil {
			s.path = abs
		} else {
			s.path = cfg.File
		}
	}

	if s.path == "" {
		s.set(Default)
		slog.Warn("No system instruction configured, using default")
		return s
	}

	if err := s.Reload(); err != nil {
		s.set(Default)
		slog.Warn("System instruction file not loaded, using default", "path", s.path, "error", err)
		return s
	}
	slog.Info("System instruction loaded", "source", "file", "path", s.path)
	return s
}

// Static returns a Source that always yields text.
func Static(text string) *Source {
	s := &Source{}
	s.set(text)
	return s
}

// Text returns the current instruction.
func (s *Source) Text() string {
	if p := s.text.Load(); p != nil {
		return *p
	}
	return Default
}

// Path returns the watched file, or "" for inline instructions.
func (s *Source) Path() string {
	return s.path
}

func (s *Source) set(text string) {
	s.text.Store(&text)
}

// Reload re-reads the file. The current text is kept if the file cannot
// be read or is empty.
func (s *Source) Reload() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read instruction file %s: %w", s.path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return fmt.Errorf("instruction file %s is empty", s.path)
	}
	s.set(text)
	return nil
}

// Watch reloads the file whenever it is written or recreated, until ctx
// is done or Close is called. It is a no-op for inline instructions.
func (s *Source) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("instruction source is closed")
	}
	if s.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so editors that replace the file are seen.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	s.watcher = watcher

	go s.watchLoop(ctx, watcher, filepath.Base(s.path))

	slog.Info("Watching system instruction file", "path", s.path)
	return nil
}

func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, name string) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
		s.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				if err := s.Reload(); err != nil {
					slog.Warn("System instruction reload failed", "path", s.path, "error", err)
					return
				}
				slog.Info("System instruction reloaded", "path", s.path)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

// Close stops watching.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.watcher != nil {
		err := s.watcher.Close()
		s.watcher = nil
		return err
	}
	return nil
}
