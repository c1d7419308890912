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

// LoggerConfig configures logging behavior.
//
// Priority order (highest to lowest):
//  1. CLI flags (--log-level, --log-file, --log-format)
//  2. Environment variables (LOG_LEVEL, LOG_FILE, LOG_FORMAT)
//  3. Config file (logger section)
//  4. Defaults (info level, text format, stderr)
//
// Example:
//
//	logger:
//	  level: info
//	  file: folio.log
//	  format: json
type LoggerConfig struct {
	// Level specifies the log level (debug, info, warn, error).
	Level string `yaml:"level,omitempty" json:"level,omitempty" env:"LOG_LEVEL" jsonschema:"title=Level,enum=debug,enum=info,enum=warn,enum=error,default=info"`

	// File specifies the log file path. Empty means stderr.
	File string `yaml:"file,omitempty" json:"file,omitempty" env:"LOG_FILE" jsonschema:"title=File,description=Log file path (stderr when empty)"`

	// Format is "text" (colored on terminals) or "json".
	Format string `yaml:"format,omitempty" json:"format,omitempty" env:"LOG_FORMAT" jsonschema:"title=Format,enum=text,enum=json,default=text"`
}

// SetDefaults applies default values to LoggerConfig.
func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

// Validate checks the logger configuration.
func (c *LoggerConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("logger.level", "%q (valid: debug, info, warn, error)", c.Level)
	}
	switch c.Format {
	case "", "text", "json":
	default:
		return invalid("logger.format", "%q (valid: text, json)", c.Format)
	}
	return nil
}
