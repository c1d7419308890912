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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/folio/pkg/config"
)

// ValidateCmd checks a configuration file.
type ValidateCmd struct {
	Config string `arg:"" optional:"" name:"config" help:"Configuration file path (defaults to --config)." placeholder:"PATH"`

	Format string `short:"f" help:"Output format: compact, json." default:"compact" enum:"compact,json"`

	PrintConfig bool `short:"p" name:"print-config" help:"Print the resolved configuration (defaults applied, env vars resolved)."`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	path := c.Config
	if path == "" {
		path = cli.Config
	}
	return c.validate(os.Stdout, os.Stderr, cli.EnvFile, path)
}

func (c *ValidateCmd) validate(stdout, stderr io.Writer, envFiles []string, path string) error {
	label := path
	if label == "" {
		label = "<environment>"
	}

	if err := config.LoadDotEnv(path, envFiles...); err != nil {
		return c.fail(stdout, stderr, label, err)
	}
	cfg, err := config.LoadAndValidate(path)
	if err != nil {
		return c.fail(stdout, stderr, label, err)
	}

	if c.PrintConfig {
		return printConfig(stdout, c.Format, cfg)
	}

	if c.Format == "json" {
		return writeJSON(stdout, validateResult{Valid: true, File: label})
	}
	fmt.Fprintf(stdout, "%s: valid\n", label)
	return nil
}

type validateResult struct {
	Valid bool   `json:"valid"`
	File  string `json:"file"`
	Error string `json:"error,omitempty"`
}

func (c *ValidateCmd) fail(stdout, stderr io.Writer, label string, err error) error {
	if c.Format == "json" {
		_ = writeJSON(stdout, validateResult{File: label, Error: err.Error()})
	} else {
		fmt.Fprintf(stderr, "%s: %s\n", label, err)
	}
	return fmt.Errorf("configuration is invalid")
}

// printConfig writes cfg with the API key masked.
func printConfig(w io.Writer, format string, cfg *config.Config) error {
	masked := *cfg
	if masked.LLM.APIKey != "" {
		masked.LLM.APIKey = "****"
	}
	cfg = &masked

	if format == "json" {
		return writeJSON(w, cfg)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config as YAML: %w", err)
	}
	return enc.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
