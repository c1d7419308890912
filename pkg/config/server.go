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

import (
	"fmt"
	"time"
)

// DefaultCORSOrigins are the local development origins allowed out of the box.
var DefaultCORSOrigins = StringList{
	"http://localhost:3000",
	"http://localhost:8080",
	"http://127.0.0.1:5500",
	"http://127.0.0.1:8080",
	"file://",
}

// DefaultMaxBodyBytes caps request bodies at 10MB.
const DefaultMaxBodyBytes int64 = 10 * 1024 * 1024

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Host to bind to.
	Host string `yaml:"host,omitempty" json:"host,omitempty" env:"HOST" jsonschema:"title=Host,default=0.0.0.0"`

	// Port to listen on.
	Port int `yaml:"port,omitempty" json:"port,omitempty" env:"PORT" jsonschema:"title=Port,minimum=1,maximum=65535,default=8000"`

	// CORSOrigins lists allowed browser origins. Ignored in debug mode, where any origin is allowed.
	CORSOrigins StringList `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty" env:"CORS_ORIGINS" jsonschema:"title=CORS Origins"`

	// StaticDir optionally serves the portfolio site under /static/.
	StaticDir string `yaml:"static_dir,omitempty" json:"static_dir,omitempty" env:"STATIC_DIR" jsonschema:"title=Static Directory"`

	// MaxBodyBytes rejects larger requests with 413.
	MaxBodyBytes int64 `yaml:"max_body_bytes,omitempty" json:"max_body_bytes,omitempty" env:"MAX_BODY_BYTES" jsonschema:"title=Max Body Bytes,default=10485760"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty" json:"shutdown_timeout,omitempty" env:"SHUTDOWN_TIMEOUT" jsonschema:"title=Shutdown Timeout,type=string,default=5s"`
}

// SetDefaults applies default values.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.CORSOrigins == nil {
		c.CORSOrigins = append(StringList(nil), DefaultCORSOrigins...)
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Validate checks the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return invalid("server.port", "must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxBodyBytes <= 0 {
		return invalid("server.max_body_bytes", "must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

// Address returns the listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SessionsConfig configures the in-memory conversation store.
type SessionsConfig struct {
	// Timeout is the idle period after which a session expires.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" env:"SESSION_TIMEOUT" jsonschema:"title=Idle Timeout,type=string,default=30m"`

	// MaxMessages caps the retained history per session.
	MaxMessages int `yaml:"max_messages,omitempty" json:"max_messages,omitempty" env:"SESSION_MAX_MESSAGES" jsonschema:"title=Max Messages,minimum=1,default=20"`

	// SweepInterval is how often expired sessions are removed.
	SweepInterval time.Duration `yaml:"sweep_interval,omitempty" json:"sweep_interval,omitempty" env:"SESSION_SWEEP_INTERVAL" jsonschema:"title=Sweep Interval,type=string,default=5m"`
}

// SetDefaults applies default values.
func (c *SessionsConfig) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Minute
	}
	if c.MaxMessages == 0 {
		c.MaxMessages = 20
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 5 * time.Minute
	}
}

// Validate checks the sessions configuration.
func (c *SessionsConfig) Validate() error {
	if c.Timeout <= 0 {
		return invalid("sessions.timeout", "must be positive, got %s", c.Timeout)
	}
	if c.MaxMessages < 2 {
		return invalid("sessions.max_messages", "must be at least 2, got %d", c.MaxMessages)
	}
	if c.SweepInterval < time.Second {
		return invalid("sessions.sweep_interval", "must be at least 1s, got %s", c.SweepInterval)
	}
	return nil
}

// InstructionConfig locates the assistant's system instruction.
type InstructionConfig struct {
	// Text is an inline instruction. Takes precedence over File.
	Text string `yaml:"text,omitempty" json:"text,omitempty" env:"SYSTEM_PROMPT" jsonschema:"title=Text"`

	// File is read at startup when Text is empty.
	File string `yaml:"file,omitempty" json:"file,omitempty" env:"SYSTEM_PROMPT_FILE" jsonschema:"title=File,default=data/system_prompt.txt"`

	// Watch reloads File when it changes on disk.
	Watch bool `yaml:"watch,omitempty" json:"watch,omitempty" env:"SYSTEM_PROMPT_WATCH" jsonschema:"title=Watch"`
}

// SetDefaults applies default values.
func (c *InstructionConfig) SetDefaults() {
	if c.File == "" {
		c.File = "data/system_prompt.txt"
	}
}
