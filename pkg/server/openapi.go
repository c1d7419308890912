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
	"net/http"

	"github.com/invopop/jsonschema"

	"github.com/kadirpekel/folio/pkg/chat"
	"github.com/kadirpekel/folio/pkg/contact"
)

func reflectSchema(v any) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	s := r.Reflect(v)
	s.Version = ""
	return s
}

func jsonBody(schema *jsonschema.Schema) map[string]any {
	return map[string]any{
		"content": map[string]any{
			"application/json": map[string]any{"schema": schema},
		},
	}
}

func response(description string, schema *jsonschema.Schema) map[string]any {
	r := jsonBody(schema)
	r["description"] = description
	return r
}

// buildOpenAPI describes the public API as an OpenAPI 3.1 document.
func buildOpenAPI(version string) map[string]any {
	errSchema := reflectSchema(&errorResponse{})
	sessionParam := []map[string]any{{
		"name":     "sessionID",
		"in":       "path",
		"required": true,
		"schema":   map[string]string{"type": "string"},
	}}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "Portfolio API",
			"version": version,
		},
		"paths": map[string]any{
			"/api/chat": map[string]any{
				"post": map[string]any{
					"summary":     "Send chat message",
					"requestBody": jsonBody(reflectSchema(&chatRequest{})),
					"responses": map[string]any{
						"200": response("Assistant reply", reflectSchema(&chat.Reply{})),
						"400": response("Validation error", errSchema),
						"429": response("Rate limited", errSchema),
						"500": response("Processing error", errSchema),
					},
				},
			},
			"/api/chat/history/{sessionID}": map[string]any{
				"get": map[string]any{
					"summary":    "Get chat session summary",
					"parameters": sessionParam,
					"responses": map[string]any{
						"200": response("Session summary", reflectSchema(&historyResponse{})),
						"404": response("Session not found or expired", errSchema),
					},
				},
			},
			"/api/chat/{sessionID}": map[string]any{
				"delete": map[string]any{
					"summary":    "Discard a chat session",
					"parameters": sessionParam,
					"responses": map[string]any{
						"204": map[string]any{"description": "Session discarded"},
						"404": response("Session not found or expired", errSchema),
					},
				},
			},
			"/api/contact": map[string]any{
				"post": map[string]any{
					"summary":     "Submit contact form",
					"requestBody": jsonBody(reflectSchema(&contact.Submission{})),
					"responses": map[string]any{
						"200": response("Submission accepted", reflectSchema(&contactResponse{})),
						"400": response("Validation error", errSchema),
					},
				},
			},
			"/api/health": map[string]any{
				"get": map[string]any{
					"summary":   "Health check",
					"responses": map[string]any{"200": map[string]any{"description": "Service is healthy"}},
				},
			},
		},
	}
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	s.openAPIOnce.Do(func() {
		s.openAPIDoc = buildOpenAPI(s.version)
	})
	writeJSON(w, http.StatusOK, s.openAPIDoc)
}
