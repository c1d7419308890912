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

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kadirpekel/folio/pkg/chat"
	"github.com/kadirpekel/folio/pkg/config"
	"github.com/kadirpekel/folio/pkg/contact"
	"github.com/kadirpekel/folio/pkg/observability"
	"github.com/kadirpekel/folio/pkg/ratelimit"
)

// Server is the portfolio HTTP server.
type Server struct {
	cfg     *config.Config
	chat    *chat.Service
	contact *contact.Service
	limiter ratelimit.Admitter
	obs     *observability.Manager
	version string

	handler http.Handler

	openAPIOnce sync.Once
	openAPIDoc  map[string]any

	mu     sync.Mutex
	server *http.Server
}

// Option configures the server.
type Option func(*Server)

// WithRateLimiter enables rate limiting of API routes.
func WithRateLimiter(l ratelimit.Admitter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithObservability sets the observability manager for tracing and metrics.
func WithObservability(obs *observability.Manager) Option {
	return func(s *Server) {
		s.obs = obs
	}
}

// WithVersion sets the version reported by GET /.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// New creates a server. The handler chain is built once here.
func New(cfg *config.Config, chatSvc *chat.Service, contactSvc *contact.Service, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		chat:    chatSvc,
		contact: contactSvc,
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the complete HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Address returns the listen address.
func (s *Server) Address() string {
	return s.cfg.Server.Address()
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Address(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	slog.Info("HTTP server starting",
		"address", s.Address(),
		"environment", s.cfg.Environment,
		"debug", s.cfg.Debug)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slog.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}
	return nil
}
