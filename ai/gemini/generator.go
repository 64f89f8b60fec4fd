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


// Package gemini implements ai.StructuredGenerator using the Google Gemini
// API. Gemini enforces response schemas natively, so record schemas are
// translated to genai.Schema values and the model is constrained server
// side instead of through prompt instructions.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/schema"
)

// Generator implements ai.StructuredGenerator against the Gemini API.
type Generator struct {
	client *genai.Client
	config *ai.ModelConfig
	logger *slog.Logger
}

func newGenerator(config *ai.ModelConfig) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(os.Getenv(config.APIKeyEnv))
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set %s", ai.ErrMissingAPIKey, config.APIKeyEnv)
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions.BaseURL = config.BaseURL
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		config: config,
		logger: slog.Default().With("component", "gemini-generator"),
	}, nil
}

// NewGenerator creates a generator for one model configuration.
//
// Returns ai.Generator interface; its signature matches ai.Factory for
// direct registry wiring. The concrete type also implements
// ai.StructuredGenerator.
func NewGenerator(config *ai.ModelConfig) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate sends one unconstrained request.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	cfg := g.contentConfig(req)
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	return g.generate(ctx, req, cfg)
}

// GenerateStructured sends one request with the record schema enforced by
// the API.
func (g *Generator) GenerateStructured(ctx context.Context, req ai.Request, record *schema.Record) (string, error) {
	cfg := g.contentConfig(req)
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = recordSchema(record)
	return g.generate(ctx, req, cfg)
}

func (g *Generator) contentConfig(req ai.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		CandidateCount: 1,
		Temperature:    genai.Ptr(float32(req.Temperature)),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	return cfg
}

func (g *Generator) generate(ctx context.Context, req ai.Request, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.config.Name, genai.Text(req.Prompt), cfg)
	if err != nil {
		g.logger.Error("generation failed", "model", g.config.Name, "err", err)
		return "", &ai.ProviderError{Model: g.config.Name, Transient: isTransient(err), Err: err}
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &ai.ProviderError{Model: g.config.Name, Err: ai.ErrEmptyResponse}
	}
	return text, nil
}

// isTransient classifies an API failure as retryable: rate limiting,
// server-side errors, and network timeouts.
func isTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code/100 == 5
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
