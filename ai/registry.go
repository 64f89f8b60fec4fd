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


package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/poiesic/enrichit/schema"
)

// Factory builds a Generator for one model configuration. Provider
// packages register nothing globally; callers pass the factories they
// want, keyed by provider name.
type Factory func(cfg *ModelConfig) (Generator, error)

// Registry is an immutable model-to-generator catalog built once at task
// load. Generators are wrapped with per-model rate limiters when the
// config asks for one.
type Registry struct {
	generators map[string]Generator
	closers    []io.Closer
	logger     *slog.Logger
}

// NewRegistry constructs generators for every model config through the
// matching factory. Construction fails fast on an unknown provider or a
// factory error; there is no lazy dial at dispatch time.
func NewRegistry(factories map[string]Factory, configs []*ModelConfig) (*Registry, error) {
	registry := &Registry{
		generators: make(map[string]Generator, len(configs)),
		logger:     slog.Default().With("component", "ai-registry"),
	}

	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		factory, ok := factories[cfg.Provider]
		if !ok {
			return nil, fmt.Errorf("%w: %s (model %s)", ErrUnknownProvider, cfg.Provider, cfg.Name)
		}
		generator, err := factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("building provider for model %s: %w", cfg.Name, err)
		}
		if closer, ok := generator.(io.Closer); ok {
			registry.closers = append(registry.closers, closer)
		}
		registry.generators[cfg.Name] = throttle(generator, cfg.RequestsPerSecond)
		registry.logger.Debug("registered model",
			"model", cfg.Name, "provider", cfg.Provider, "rps", cfg.RequestsPerSecond)
	}
	return registry, nil
}

// Generator returns the generator routed to by model name.
func (r *Registry) Generator(model string) (Generator, error) {
	generator, ok := r.generators[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	return generator, nil
}

// Models returns the registered model names.
func (r *Registry) Models() []string {
	models := make([]string, 0, len(r.generators))
	for name := range r.generators {
		models = append(models, name)
	}
	return models
}

// Close closes every provider that holds resources.
func (r *Registry) Close() error {
	var errs []error
	for _, closer := range r.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// throttle wraps a generator with a rate limiter. The wrapper keeps the
// StructuredGenerator capability visible when the inner generator has it,
// so type assertions behave the same before and after wrapping.
func throttle(inner Generator, rps float64) Generator {
	if rps <= 0 {
		return inner
	}
	limiter := rate.NewLimiter(rate.Limit(rps), 1)
	limited := limitedGenerator{inner: inner, limiter: limiter}
	if structured, ok := inner.(StructuredGenerator); ok {
		return &limitedStructuredGenerator{limitedGenerator: limited, structured: structured}
	}
	return &limited
}

type limitedGenerator struct {
	inner   Generator
	limiter *rate.Limiter
}

func (g *limitedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return g.inner.Generate(ctx, req)
}

type limitedStructuredGenerator struct {
	limitedGenerator
	structured StructuredGenerator
}

func (g *limitedStructuredGenerator) GenerateStructured(ctx context.Context, req Request, record *schema.Record) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return g.structured.GenerateStructured(ctx, req, record)
}
