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
	"errors"
	"strings"
)

// Provider names understood by the registry.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ModelConfig describes one model the registry can route requests to.
type ModelConfig struct {
	// Name is the model identifier requests are routed by.
	// Example: "gpt-4o-mini", "gemini-2.0-flash"
	Name string

	// Provider selects the implementation. When empty it is inferred
	// from the model name prefix during Normalize.
	Provider string

	// BaseURL overrides the provider endpoint.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	BaseURL string

	// APIKeyEnv names the environment variable holding the API key.
	// Defaults per provider (OPENAI_API_KEY, GEMINI_API_KEY).
	APIKeyEnv string

	// RequestsPerSecond throttles calls to this model. Zero disables
	// throttling.
	RequestsPerSecond float64

	// Temperature is the default sampling temperature for this model.
	Temperature float64

	// MaxTokens caps response length. Zero means provider default.
	MaxTokens int
}

// ConfigOption is a functional option for configuring a ModelConfig.
type ConfigOption func(*ModelConfig)

// WithProvider pins the provider implementation instead of inferring it.
func WithProvider(provider string) ConfigOption {
	return func(c *ModelConfig) {
		c.Provider = provider
	}
}

// WithBaseURL overrides the provider endpoint URL.
func WithBaseURL(url string) ConfigOption {
	return func(c *ModelConfig) {
		c.BaseURL = url
	}
}

// WithAPIKeyEnv names the environment variable holding the API key.
func WithAPIKeyEnv(env string) ConfigOption {
	return func(c *ModelConfig) {
		c.APIKeyEnv = env
	}
}

// WithRequestsPerSecond throttles calls to this model.
func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *ModelConfig) {
		c.RequestsPerSecond = rps
	}
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(temp float64) ConfigOption {
	return func(c *ModelConfig) {
		c.Temperature = temp
	}
}

// WithMaxTokens caps response length.
func WithMaxTokens(n int) ConfigOption {
	return func(c *ModelConfig) {
		c.MaxTokens = n
	}
}

// NewModelConfig creates a ModelConfig for the named model and applies the
// provided options.
func NewModelConfig(name string, opts ...ConfigOption) *ModelConfig {
	cfg := &ModelConfig{Name: name}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// InferProvider maps a model name onto a provider by prefix. Anything not
// recognizably Gemini routes to the OpenAI-compatible provider, which also
// covers local servers (Ollama, vLLM, LocalAI).
func InferProvider(model string) string {
	if strings.HasPrefix(model, "gemini-") || strings.HasPrefix(model, "models/gemini") {
		return ProviderGemini
	}
	return ProviderOpenAI
}

// Normalize fills derivable fields: the provider from the model name
// prefix and the default API key environment variable per provider.
func (c *ModelConfig) Normalize() {
	if c.Provider == "" {
		c.Provider = InferProvider(c.Name)
	}
	if c.APIKeyEnv == "" {
		switch c.Provider {
		case ProviderGemini:
			c.APIKeyEnv = "GEMINI_API_KEY"
		default:
			c.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *ModelConfig) Validate() error {
	c.Normalize()

	if c.Name == "" {
		return errors.New("ai config: model name is required")
	}
	if c.Provider != ProviderOpenAI && c.Provider != ProviderGemini {
		return errors.New("ai config: unknown provider " + c.Provider)
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("ai config: RequestsPerSecond cannot be negative")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	return nil
}
