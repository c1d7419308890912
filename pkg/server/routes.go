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
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kadirpekel/folio/pkg/chat"
	"github.com/kadirpekel/folio/pkg/contact"
	"github.com/kadirpekel/folio/pkg/logger"
	"github.com/kadirpekel/folio/pkg/observability"
	"github.com/kadirpekel/folio/pkg/ratelimit"
	"github.com/kadirpekel/folio/pkg/session"
)

const (
	msgChatFailed       = "An error occurred while processing your message. Please try again later."
	msgValidation       = "Validation error"
	msgSessionNotFound  = "Session not found or expired"
	msgInvalidJSON      = "Request body must be valid JSON"
	msgUnsupportedMedia = "Content-Type must be application/json"
)

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	Message   string `json:"message" jsonschema:"minLength=1,maxLength=2000"`
	SessionID string `json:"session_id,omitempty"`
	Language  string `json:"language,omitempty" jsonschema:"enum=en,enum=ar,default=en"`
}

// historyResponse is the body of GET /api/chat/history/{session_id}.
type historyResponse struct {
	Success bool `json:"success"`
	chat.SessionInfo
}

// contactResponse is the body of POST /api/contact.
type contactResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	var metrics *observability.Metrics
	tracer := observability.Tracer()
	if s.obs != nil {
		metrics = s.obs.Metrics()
		tracer = s.obs.Tracer()
	}

	r.Use(requestID)
	r.Use(recoverer)
	r.Use(observability.HTTPMiddleware(tracer, metrics))
	r.Use(accessLog)
	r.Use(securityHeaders)
	r.Use(bodyLimit(s.cfg.Server.MaxBodyBytes))
	r.Use(cors(s.cfg.Debug, s.cfg.Server.CORSOrigins))

	if s.limiter != nil && s.cfg.RateLimit.Enabled {
		r.Use(ratelimit.Middleware(ratelimit.MiddlewareConfig{
			Limiter:       s.limiter,
			ExcludedPaths: s.cfg.RateLimit.ExcludedPaths,
			IsTestMode: func(r *http.Request) bool {
				return s.cfg.IsTest() || ratelimit.HeaderTestMode(r)
			},
			Metrics: metrics,
		}))
	}

	r.Get("/", s.handleRoot)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.With(requireJSON).Post("/chat", s.handleChat)
		r.Get("/chat/history/{sessionID}", s.handleHistory)
		r.Delete("/chat/{sessionID}", s.handleReset)

		r.With(requireJSON).Post("/contact", s.handleContact)

		if s.cfg.Debug {
			r.Get("/openapi.json", s.handleOpenAPI)
		}
	})

	if metrics != nil {
		r.Method(http.MethodGet, s.cfg.Observability.Metrics.Endpoint, metrics.Handler())
	}

	if dir := s.cfg.Server.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
		}
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "Portfolio API",
		"version": s.version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"environment": s.cfg.Environment,
		"sessions":    s.chat.ActiveSessions(),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	turn := chat.Turn{Message: req.Message, SessionID: req.SessionID, Language: req.Language}
	if err := turn.Validate(); err != nil {
		writeValidation(w, []string{err.Error()})
		return
	}

	reply, err := s.chat.Send(r.Context(), turn)
	if err != nil {
		logger.FromContext(r.Context()).Error("Chat request failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgChatFailed)
		return
	}

	logger.FromContext(r.Context()).Info("Chat message served",
		"session_id", reply.SessionID,
		"client_ip", ratelimit.ClientID(r))
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	info, err := s.chat.History(chi.URLParam(r, "sessionID"))
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, msgSessionNotFound)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Success: true, SessionInfo: *info})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.Reset(chi.URLParam(r, "sessionID")); errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, msgSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var sub contact.Submission
	if !decodeJSON(w, r, &sub) {
		return
	}

	err := s.contact.Submit(r.Context(), sub, ratelimit.ClientID(r))
	var verrs contact.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeValidation(w, verrs.Messages())
	case err != nil:
		logger.FromContext(r.Context()).Error("Contact submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	default:
		writeJSON(w, http.StatusOK, contactResponse{Success: true, Message: contact.SuccessMessage})
	}
}

// decodeJSON reads a single JSON object into dst, answering 400 or 413 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return false
		}
		writeValidation(w, []string{msgInvalidJSON + ": " + strings.TrimPrefix(err.Error(), "json: ")})
		return false
	}
	return true
}
