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

// Command folio runs the portfolio backend.
//
// Usage:
//
//	folio serve --config folio.yaml
//	folio validate folio.yaml --print-config
//	folio schema > folio.schema.json
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	folio "github.com/kadirpekel/folio"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" default:"1" help:"Start the HTTP server."`
	Validate ValidateCmd `cmd:"" help:"Validate configuration file."`
	Schema   SchemaCmd   `cmd:"" help:"Generate JSON Schema for the configuration file."`

	Config    string   `short:"c" help:"Path to config file." type:"path"`
	EnvFile   []string `name:"env-file" help:"Additional .env files to load (repeatable)." type:"path"`
	LogLevel  string   `help:"Log level (debug, info, warn, error)."`
	LogFile   string   `help:"Log file path (empty = stderr)."`
	LogFormat string   `help:"Log format (text, json)."`
}

// VersionCmd shows version information.
type VersionCmd struct {
	JSON bool `help:"Print version information as JSON."`
}

func (c *VersionCmd) Run() error {
	if c.JSON {
		return writeJSON(os.Stdout, folio.GetVersion())
	}
	fmt.Println(folio.GetVersion().String())
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("folio"),
		kong.Description("Portfolio backend with an AI chat assistant."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
