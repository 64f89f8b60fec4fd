package ai

import (
	"context"

	"github.com/poiesic/enrichit/schema"
)

// Generator produces text completions. Every provider implements it.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate sends one request and returns the raw response text.
	// Transient failures (rate limits, server errors, timeouts) come
	// back as *ProviderError with Transient set so callers can retry.
	Generate(ctx context.Context, req Request) (string, error)
}

// StructuredGenerator is an optional capability: providers that can
// enforce an output schema natively implement it in addition to Generator.
// Callers discover it by type assertion; when absent, they fall back to
// appending schema instructions to the prompt.
type StructuredGenerator interface {
	Generator

	// GenerateStructured sends one request constrained to the given
	// record schema and returns the raw JSON response text.
	GenerateStructured(ctx context.Context, req Request, record *schema.Record) (string, error)
}
