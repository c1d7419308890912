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

package contact

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() Submission {
	return Submission{
		Name:    "Jordan Lee",
		Email:   "jordan@example.com",
		Subject: "Project inquiry",
		Message: "I'd like to talk about a backend role.",
	}
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
	fields := make([]string, len(verrs))
	for i, e := range verrs {
		fields[i] = e.Field
	}
	return fields
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Submission)
		fields []string
	}{
		{"valid", func(*Submission) {}, nil},
		{"name empty after trim", func(s *Submission) { s.Name = "   " }, []string{"name"}},
		{"name too long", func(s *Submission) { s.Name = strings.Repeat("n", 101) }, []string{"name"}},
		{"name with markup", func(s *Submission) { s.Name = "<script>" }, []string{"name"}},
		{"email missing", func(s *Submission) { s.Email = "" }, []string{"email"}},
		{"email malformed", func(s *Submission) { s.Email = "not-an-email" }, []string{"email"}},
		{"email display name", func(s *Submission) { s.Email = "Jordan <jordan@example.com>" }, []string{"email"}},
		{"email no tld", func(s *Submission) { s.Email = "jordan@localhost" }, []string{"email"}},
		{"subject too long", func(s *Submission) { s.Subject = strings.Repeat("s", 201) }, []string{"subject"}},
		{"message short after trim", func(s *Submission) { s.Message = "   short   " }, []string{"message"}},
		{"message too long", func(s *Submission) { s.Message = strings.Repeat("m", 5001) }, []string{"message"}},
		{"several", func(s *Submission) { s.Name = ""; s.Subject = "" }, []string{"name", "subject"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)
			err := sub.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.fields, fieldsOf(t, err))
		})
	}
}

func TestValidateTrims(t *testing.T) {
	sub := Submission{
		Name:    "  Jordan  ",
		Email:   " jordan@example.com ",
		Subject: "\tHello\n",
		Message: "  exactly ten  ",
	}
	require.NoError(t, sub.Validate())
	assert.Equal(t, "Jordan", sub.Name)
	assert.Equal(t, "jordan@example.com", sub.Email)
	assert.Equal(t, "Hello", sub.Subject)
	assert.Equal(t, "exactly ten", sub.Message)
}

func TestValidationErrorsMessages(t *testing.T) {
	sub := validSubmission()
	sub.Name = "a<b"
	err := sub.Validate()

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"name: Name contains invalid characters"}, verrs.Messages())
	assert.Contains(t, err.Error(), "Name contains invalid characters")
}

func TestPreview(t *testing.T) {
	sub := validSubmission()
	assert.Equal(t, sub.Message, sub.Preview())

	sub.Message = strings.Repeat("ü", 150)
	assert.Equal(t, strings.Repeat("ü", 100), sub.Preview())
}

func TestSubmit(t *testing.T) {
	svc := NewService(nil)

	assert.NoError(t, svc.Submit(context.Background(), validSubmission(), "198.51.100.9"))

	bad := validSubmission()
	bad.Message = "hi"
	assert.Error(t, svc.Submit(context.Background(), bad, "198.51.100.9"))
}
