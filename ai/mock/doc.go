// Package mock provides test double implementations of the ai interfaces.
//
// This package contains a mock implementation of ai.Generator and
// ai.StructuredGenerator for use in unit tests. The mock allows tests to
// run without external provider dependencies and enables controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Scripted responses, in order; the last one repeats
//	gen := mock.NewMockGenerator().Script(`not json`, `{"sentiment": "positive"}`)
//
//	// Scripted errors are consumed before responses
//	gen.ScriptError(&ai.ProviderError{Model: "m", Transient: true, Err: errTest})
//
//	// Custom behavior injection
//	gen.GenerateFunc = func(ctx context.Context, req ai.Request) (string, error) {
//	    return `{"result": "ok"}`, nil
//	}
//
//	// Assertions
//	count := gen.CallCount()
//	reqs := gen.Requests()
//
// Use NewPlainGenerator for a mock that deliberately lacks the structured
// capability, to exercise the instruction-block fallback.
package mock
