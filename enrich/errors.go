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


package enrich

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreRequired indicates the engine was built without storage.
	ErrStoreRequired = errors.New("storage is required")

	// ErrRegistryRequired indicates the engine was built without a model registry.
	ErrRegistryRequired = errors.New("model registry is required")

	// ErrConfigRequired indicates the engine was built without a config.
	ErrConfigRequired = errors.New("config is required")

	// ErrUnknownTask indicates a task name not present in the config.
	ErrUnknownTask = errors.New("unknown enrichment task")

	// ErrInvalidMaxAttempts indicates a non-positive retry budget.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	errEmptyPayload = errors.New("empty response")
	errWantObject   = errors.New("expected a JSON object")
)

// ConfigError reports a task definition that cannot be resolved into a
// runnable task. It is always fatal and always raised before any dispatch.
type ConfigError struct {
	Task   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("task %s: %s", e.Task, e.Reason)
}

// ParseError reports a provider response that could not be interpreted in
// the task's output shape. Retryable: a re-prompted model usually
// straightens out.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// BatchError reports a run that completed without a single successful
// pair. Partial failure is not an error; total failure is.
type BatchError struct {
	Task   string
	Failed int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("task %s: all %d pairs failed", e.Task, e.Failed)
}
