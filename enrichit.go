// Copyright 2025 Poiesic Systems
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


package enrichit

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/ai/gemini"
	"github.com/poiesic/enrichit/ai/openai"
	"github.com/poiesic/enrichit/config"
	"github.com/poiesic/enrichit/enrich"
	"github.com/poiesic/enrichit/storage"
	sqlitestore "github.com/poiesic/enrichit/storage/sqlite"
)

// Runner bundles a loaded config, the SQLite store, the model registry,
// and an engine into one handle. It is the programmatic entrypoint for
// embedding enrichment runs in another application.
type Runner struct {
	cfg      *config.Config
	store    storage.Store
	registry *ai.Registry
	engine   *enrich.Engine
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*runnerOptions)

type runnerOptions struct {
	workers   int
	progress  io.Writer
	factories map[string]ai.Factory
}

// WithWorkers overrides the config's worker count.
func WithWorkers(n int) RunnerOption {
	return func(o *runnerOptions) {
		o.workers = n
	}
}

// WithProgress enables progress reporting to the given writer.
func WithProgress(w io.Writer) RunnerOption {
	return func(o *runnerOptions) {
		o.progress = w
	}
}

// WithFactories replaces the default provider factories. Tests use it to
// swap in mocks.
func WithFactories(factories map[string]ai.Factory) RunnerOption {
	return func(o *runnerOptions) {
		o.factories = factories
	}
}

// Open loads the config file and wires storage, providers, and the engine.
// Close the runner when done.
func Open(configPath string, opts ...RunnerOption) (*Runner, error) {
	options := &runnerOptions{
		factories: map[string]ai.Factory{
			ai.ProviderOpenAI: openai.NewGenerator,
			ai.ProviderGemini: gemini.NewGenerator,
		},
	}
	for _, opt := range opts {
		opt(options)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if options.workers > 0 {
		cfg.Workers = options.workers
	}

	store, err := sqlitestore.New(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	registry, err := ai.NewRegistry(options.factories, ModelConfigs(cfg))
	if err != nil {
		store.Close()
		return nil, err
	}

	var engineOpts []enrich.Option
	if options.progress != nil {
		engineOpts = append(engineOpts, enrich.WithProgress(options.progress))
	}
	engine, err := enrich.NewEngine(store, registry, cfg, engineOpts...)
	if err != nil {
		registry.Close()
		store.Close()
		return nil, err
	}

	return &Runner{
		cfg:      cfg,
		store:    store,
		registry: registry,
		engine:   engine,
		logger:   slog.Default().With("component", "runner"),
	}, nil
}

// Run executes the named enrichment tasks, or every configured task when
// none are named.
func (r *Runner) Run(ctx context.Context, tasks ...string) (*enrich.Summary, error) {
	return r.engine.Run(ctx, tasks...)
}

// History queries the audit trail.
func (r *Runner) History(ctx context.Context, filter storage.HistoryFilter) ([]storage.AuditEntry, error) {
	return r.store.History(ctx, filter)
}

// Config returns the loaded configuration.
func (r *Runner) Config() *config.Config {
	return r.cfg
}

// Store returns the underlying store for direct queries.
func (r *Runner) Store() storage.Store {
	return r.store
}

// Close releases the engine pool, provider clients, and the store.
func (r *Runner) Close() error {
	r.engine.Release()
	if err := r.registry.Close(); err != nil {
		r.logger.Warn("closing providers", "error", err)
	}
	return r.store.Close()
}

// ModelConfigs expands the config's model overrides into registry configs
// for every model any task references.
func ModelConfigs(cfg *config.Config) []*ai.ModelConfig {
	seen := make(map[string]bool)
	var configs []*ai.ModelConfig
	for _, spec := range cfg.Enrichments {
		for _, model := range cfg.TaskModels(spec) {
			if model == "" || seen[model] {
				continue
			}
			seen[model] = true
			configs = append(configs, modelConfig(cfg, model))
		}
	}
	return configs
}

func modelConfig(cfg *config.Config, model string) *ai.ModelConfig {
	mc := ai.NewModelConfig(model)
	if override, ok := cfg.Models[model]; ok {
		if override.Provider != "" {
			mc.Provider = override.Provider
		}
		mc.BaseURL = override.BaseURL
		if override.APIKeyEnv != "" {
			mc.APIKeyEnv = override.APIKeyEnv
		}
		mc.RequestsPerSecond = override.RequestsPerSecond
		mc.Temperature = override.Temperature
		mc.MaxTokens = override.MaxTokens
	}
	mc.Normalize()
	return mc
}
