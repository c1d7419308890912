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

// Package server exposes the portfolio API over HTTP.
//
// Routes:
//
//	GET    /                              service banner
//	GET    /api/health                    liveness and session count
//	POST   /api/chat                      send a chat message
//	GET    /api/chat/history/{session_id} session summary
//	DELETE /api/chat/{session_id}         discard a session
//	POST   /api/contact                   contact form
//	GET    /api/openapi.json              API description (debug only)
//	GET    /metrics                       Prometheus metrics (when enabled)
//	GET    /static/*                      portfolio site (when static_dir is set)
//
// Every response carries security headers. Requests pass through request
// id assignment, panic recovery, tracing and metrics, access logging, body
// size limiting, CORS and rate limiting, in that order.
package server
