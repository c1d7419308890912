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
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// placeholderRegex matches one or more opening braces, content without braces, one or more closing braces.
var placeholderRegex = regexp.MustCompile(`{+[^{}]*}+`)

// Render resolves {name} and {name?} placeholders in text from vars.
// A required placeholder with no value is an error.
func Render(text string, vars map[string]string) (string, error) {
	if text == "" {
		return "", nil
	}

	var result strings.Builder
	lastIndex := 0

	for _, idx := range placeholderRegex.FindAllStringIndex(text, -1) {
		start, end := idx[0], idx[1]
		result.WriteString(text[lastIndex:start])

		replacement, err := replaceMatch(text[start:end], vars)
		if err != nil {
			return "", err
		}
		result.WriteString(replacement)
		lastIndex = end
	}

	result.WriteString(text[lastIndex:])
	return result.String(), nil
}

func replaceMatch(match string, vars map[string]string) (string, error) {
	name := strings.TrimSpace(strings.Trim(match, "{}"))

	optional := false
	if strings.HasSuffix(name, "?") {
		optional = true
		name = strings.TrimSuffix(name, "?")
	}

	if !isIdentifier(name) {
		return match, nil
	}

	if v, ok := vars[name]; ok {
		return v, nil
	}
	if optional {
		return "", nil
	}
	return "", fmt.Errorf("instruction placeholder %q has no value", name)
}

// isIdentifier reports whether s is a letter or underscore followed by letters, digits or underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
