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

// Package contact validates and records contact form submissions.
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/kadirpekel/folio/pkg/observability"
)

// SuccessMessage is returned to the visitor after a valid submission.
const SuccessMessage = "Thank you for your message! I'll get back to you as soon as possible."

const previewLength = 100

// Submission is a contact form as posted by a visitor.
type Submission struct {
	Name    string `json:"name" jsonschema:"minLength=1,maxLength=100"`
	Email   string `json:"email" jsonschema:"format=email"`
	Subject string `json:"subject" jsonschema:"minLength=1,maxLength=200"`
	Message string `json:"message" jsonschema:"minLength=10,maxLength=5000"`
}

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors lists every invalid field of a submission.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages returns one human-readable line per field error.
func (v ValidationErrors) Messages() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.String()
	}
	return out
}

// Normalize trims surrounding whitespace from every field.
func (s *Submission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Subject = strings.TrimSpace(s.Subject)
	s.Message = strings.TrimSpace(s.Message)
}

// Validate normalizes s and checks every field. It returns ValidationErrors
// or nil.
func (s *Submission) Validate() error {
	s.Normalize()

	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch n := utf8.RuneCountInString(s.Name); {
	case n == 0:
		add("name", "Name cannot be empty")
	case n > 100:
		add("name", "Name must be at most 100 characters")
	case strings.ContainsAny(s.Name, "<>"):
		add("name", "Name contains invalid characters")
	}

	if s.Email == "" {
		add("email", "Email is required")
	} else if addr, err := mail.ParseAddress(s.Email); err != nil || addr.Address != s.Email || addr.Name != "" {
		add("email", "Email is not a valid email address")
	} else if !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		add("email", "Email domain is not valid")
	}

	switch n := utf8.RuneCountInString(s.Subject); {
	case n == 0:
		add("subject", "Subject cannot be empty")
	case n > 200:
		add("subject", "Subject must be at most 200 characters")
	}

	switch n := utf8.RuneCountInString(s.Message); {
	case n < 10:
		add("message", "Message must be at least 10 characters long")
	case n > 5000:
		add("message", "Message must be at most 5000 characters")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Preview returns the first 100 characters of the message.
func (s *Submission) Preview() string {
	if utf8.RuneCountInString(s.Message) <= previewLength {
		return s.Message
	}
	return string([]rune(s.Message)[:previewLength])
}

// Service accepts contact submissions. Submissions are logged; nothing is
// delivered by email.
type Service struct {
	metrics *observability.Metrics
}

// NewService creates a Service. metrics may be nil.
func NewService(metrics *observability.Metrics) *Service {
	return &Service{metrics: metrics}
}

// Submit validates and records a submission from clientIP.
func (s *Service) Submit(ctx context.Context, sub Submission, clientIP string) error {
	if err := sub.Validate(); err != nil {
		slog.Warn("Contact form validation failed", "error", err, "client_ip", clientIP)
		return err
	}

	slog.Info("Contact form submission",
		"name", sub.Name,
		"email", sub.Email,
		"subject", sub.Subject,
		"message_preview", sub.Preview(),
		"client_ip", clientIP)

	s.metrics.RecordContactSubmission(ctx)
	return nil
}
