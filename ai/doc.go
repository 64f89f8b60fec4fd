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


// Package ai provides abstractions for the generative providers enrichit
// dispatches to.
//
// This package defines the Generator interface, the optional
// StructuredGenerator capability, the Request type, and the Registry that
// routes model names to configured providers. It follows the dependency
// inversion principle: the enrichment engine depends on these abstractions,
// never on a concrete provider package.
//
// # Design Principles
//
// The package is designed around two interfaces:
//
//   - Generator: mandatory; produces a text completion for a Request
//   - StructuredGenerator: optional capability; enforces an output schema
//     natively (discovered by type assertion)
//
// # Implementation Packages
//
// The ai package includes three implementation sub-packages:
//
//   - ai/openai: OpenAI-compatible APIs via langchaingo (also covers local
//     servers such as Ollama and vLLM)
//   - ai/gemini: Google Gemini with native response schemas
//   - ai/mock: test doubles for unit testing without external services
//
// # Registry
//
// The Registry is built once from model configurations and provider
// factories, then never mutated. Each model may carry a request rate limit;
// the registry wraps its generator with a golang.org/x/time/rate limiter
// while preserving the StructuredGenerator capability of the wrapped
// provider.
//
//	factories := map[string]ai.Factory{
//	    ai.ProviderOpenAI: openai.NewGenerator,
//	    ai.ProviderGemini: gemini.NewGenerator,
//	}
//	registry, err := ai.NewRegistry(factories, configs)
//	defer registry.Close()
//
// # Error Classification
//
// Provider failures surface as *ProviderError. Transient failures (rate
// limits, server errors, timeouts) set Transient so the engine's retry
// loop can distinguish them from permanent ones; IsTransient is the
// canonical check.
package ai
