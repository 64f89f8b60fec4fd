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


package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/enrichit/ai"
)

// Generator implements ai.Generator against OpenAI-compatible chat APIs.
// It has no native schema enforcement, so callers fall back to prompt
// instructions; JSON mode is requested when the caller asks for it.
type Generator struct {
	client llms.Model
	config *ai.ModelConfig
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
func newGenerator(config *ai.ModelConfig) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local OpenAI-compatible services work without authentication; the
	// client still insists on a token, so fall back to "none".
	token := os.Getenv(config.APIKeyEnv)
	if token == "" {
		token = "none"
	}

	clientOpts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(config.Name),
	}
	if config.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(config.BaseURL))
	}
	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		config: config,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a generator for one model configuration.
//
// Returns ai.Generator interface to enforce abstraction; its signature
// matches ai.Factory for direct registry wiring.
func NewGenerator(config *ai.ModelConfig) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate sends one request and returns the raw response text. When the
// request asked for JSON and the model produced something that almost is,
// common formatting damage is repaired before returning.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	content := make([]llms.MessageContent, 0, 2)
	if req.SystemPrompt != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.SystemPrompt)},
		})
	}
	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
	})

	callOpts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	response, err := g.client.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		g.logger.Error("generation failed", "model", g.config.Name, "err", err)
		return "", &ai.ProviderError{Model: g.config.Name, Transient: isTransient(err), Err: err}
	}
	if len(response.Choices) < 1 {
		return "", &ai.ProviderError{Model: g.config.Name, Err: ai.ErrEmptyResponse}
	}

	text := strings.TrimSpace(response.Choices[0].Content)
	if req.JSONMode && !json.Valid([]byte(text)) {
		repaired := repairJSON(text)
		if json.Valid([]byte(repaired)) {
			g.logger.Debug("repaired malformed JSON response", "model", g.config.Name)
			return repaired, nil
		}
	}
	return text, nil
}

// isTransient classifies a client error as retryable. The langchaingo
// client surfaces HTTP status only in the error text, so this matches on
// the markers rate-limited and overloaded servers actually produce.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429", "rate limit", "too many requests",
		"500", "502", "503", "504",
		"overloaded", "timeout", "connection refused", "connection reset",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
