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

package config

import "github.com/invopop/jsonschema"

// JSONSchema describes the configuration file format.
func JSONSchema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		FieldNameTag:              "yaml",
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "Folio Configuration Schema"
	schema.Description = "Configuration for the folio portfolio backend"
	schema.Examples = []any{
		map[string]any{
			"environment": "production",
			"server": map[string]any{
				"port":         8000,
				"cors_origins": []string{"https://example.com"},
			},
			"llm": map[string]any{
				"provider": "gemini",
				"api_key":  "${GEMINI_API_KEY}",
			},
			"rate_limiting": map[string]any{
				"enabled":    true,
				"per_minute": 10,
				"per_hour":   60,
			},
		},
	}
	return schema
}
