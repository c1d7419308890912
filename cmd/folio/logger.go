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
	"fmt"
	"io"
	"os"

	"github.com/kadirpekel/folio/pkg/config"
	"github.com/kadirpekel/folio/pkg/logger"
)

// logSettings merges CLI flags over the loaded logger config. The config
// already carries LOG_LEVEL, LOG_FILE and LOG_FORMAT from the environment.
func logSettings(cli *CLI, cfg config.LoggerConfig) config.LoggerConfig {
	if cli.LogLevel != "" {
		cfg.Level = cli.LogLevel
	}
	if cli.LogFile != "" {
		cfg.File = cli.LogFile
	}
	if cli.LogFormat != "" {
		cfg.Format = cli.LogFormat
	}
	return cfg
}

// initLogger installs the process-wide logger. The returned cleanup closes
// the log file, if any.
func initLogger(cfg config.LoggerConfig) (func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer = os.Stderr
	cleanup := func() {}
	if cfg.File != "" {
		file, closeFn, err := logger.OpenLogFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		cleanup = closeFn
	}

	format := cfg.Format
	if format == "" {
		format = logger.FormatText
	}
	logger.Init(level, output, format)
	return cleanup, nil
}
