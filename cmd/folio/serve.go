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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	folio "github.com/kadirpekel/folio"
	"github.com/kadirpekel/folio/pkg/chat"
	"github.com/kadirpekel/folio/pkg/config"
	"github.com/kadirpekel/folio/pkg/contact"
	"github.com/kadirpekel/folio/pkg/instruction"
	"github.com/kadirpekel/folio/pkg/janitor"
	"github.com/kadirpekel/folio/pkg/model"
	"github.com/kadirpekel/folio/pkg/model/factory"
	"github.com/kadirpekel/folio/pkg/observability"
	"github.com/kadirpekel/folio/pkg/ratelimit"
	"github.com/kadirpekel/folio/pkg/server"
	"github.com/kadirpekel/folio/pkg/session"
)

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Host        string `help:"Interface to bind (overrides server.host)."`
	Port        int    `help:"Port to listen on (overrides server.port)."`
	Environment string `name:"environment" short:"e" help:"Environment name: development, production or test."`
	Debug       bool   `help:"Enable debug mode (permissive CORS, API schema endpoint)."`
	Watch       bool   `help:"Reload the system prompt file when it changes."`

	Provider string `help:"LLM provider (gemini, openai, anthropic)."`
	Model    string `help:"Model name."`
	APIKey   string `name:"api-key" help:"LLM API key (defaults to the provider's environment variable)."`
	BaseURL  string `name:"base-url" help:"Custom LLM API base URL."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	c.apply(cfg)

	cleanup, err := initLogger(logSettings(cli, cfg.Logger))
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	return a.run(ctx)
}

// apply overlays explicit flags onto cfg.
func (c *ServeCmd) apply(cfg *config.Config) {
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.Environment != "" {
		cfg.Environment = c.Environment
	}
	if c.Debug {
		cfg.Debug = true
	}
	if c.Watch {
		cfg.Instruction.Watch = true
	}

	if c.Provider != "" && config.LLMProvider(c.Provider) != cfg.LLM.Provider {
		cfg.LLM.Provider = config.LLMProvider(c.Provider)
		if c.Model == "" {
			cfg.LLM.Model = ""
		}
		cfg.LLM.APIKey = config.ProviderAPIKey(cfg.LLM.Provider)
		cfg.LLM.SetDefaults()
	}
	if c.Model != "" {
		cfg.LLM.Model = c.Model
	}
	if c.APIKey != "" {
		cfg.LLM.APIKey = c.APIKey
	}
	if c.BaseURL != "" {
		cfg.LLM.BaseURL = c.BaseURL
	}
}

// loadConfig reads .env files, then the config file and environment.
func loadConfig(cli *CLI) (*config.Config, error) {
	if err := config.LoadDotEnv(cli.Config, cli.EnvFile...); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// app holds the wired components of a running server.
type app struct {
	cfg         *config.Config
	obs         *observability.Manager
	llm         model.LLM
	instruction *instruction.Source
	sessions    *session.MemoryStore
	janitor     *janitor.Janitor
	server      *server.Server
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	a.obs = observability.NewManager(cfg.Observability)
	if err := a.obs.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	metrics := a.obs.Metrics()

	llm, err := factory.New(&cfg.LLM)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create LLM: %w", err)
	}
	a.llm = llm
	if llm == nil {
		slog.Warn("No LLM API key configured, chat will answer with the unavailable message",
			"provider", cfg.LLM.Provider)
	} else {
		slog.Info("LLM configured", "provider", llm.Provider(), "model", llm.Name())
	}

	a.instruction = instruction.Load(cfg.Instruction)
	if cfg.Instruction.Watch {
		if err := a.instruction.Watch(ctx); err != nil {
			slog.Warn("Failed to watch system instruction", "error", err)
		}
	}

	a.sessions = session.NewMemoryStore(
		session.WithTimeout(cfg.Sessions.Timeout),
		session.WithMaxMessages(cfg.Sessions.MaxMessages),
	)
	if err := metrics.ObserveSessions(a.sessions.Count); err != nil {
		slog.Warn("Failed to register session gauge", "error", err)
	}

	temperature := cfg.LLM.Temperature
	maxTokens := cfg.LLM.MaxTokens
	orchestrator := chat.NewOrchestrator(llm, a.sessions, a.instruction, chat.Options{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		Metrics:     metrics,
		Tracer:      a.obs.Tracer(),
	})

	jobs := []janitor.Job{janitor.SessionSweep(a.sessions, cfg.Sessions.SweepInterval)}
	opts := []server.Option{
		server.WithObservability(a.obs),
		server.WithVersion(folio.Version),
	}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewSlidingWindowLimiter(ratelimit.Config{
			PerMinute: cfg.RateLimit.PerMinute,
			PerHour:   cfg.RateLimit.PerHour,
		})
		opts = append(opts, server.WithRateLimiter(limiter))
		jobs = append(jobs, janitor.RateLimitSweep(limiter, cfg.RateLimit.SweepInterval))
	}

	a.janitor, err = janitor.New(jobs...)
	if err != nil {
		a.close()
		return nil, err
	}

	a.server = server.New(cfg,
		chat.NewService(a.sessions, orchestrator),
		contact.NewService(metrics),
		opts...,
	)
	return a, nil
}

// run serves until ctx is cancelled or the listener fails.
func (a *app) run(ctx context.Context) error {
	a.janitor.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Start(gctx)
	})

	slog.Info("Folio ready",
		"version", folio.Version,
		"address", a.server.Address(),
		"rate_limiting", a.cfg.RateLimit.Enabled && !a.cfg.IsTest(),
		"metrics", a.cfg.Observability.Metrics.Enabled)

	err := g.Wait()
	slog.Info("Shutting down")
	return err
}

// close releases every component; safe on a partially built app.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if a.janitor != nil {
		errs = append(errs, a.janitor.Stop(ctx))
	}
	if a.instruction != nil {
		errs = append(errs, a.instruction.Close())
	}
	if a.llm != nil {
		errs = append(errs, a.llm.Close())
	}
	if a.obs != nil {
		errs = append(errs, a.obs.Shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		slog.Warn("Shutdown incomplete", "error", err)
	}
}
