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
	"fmt"
)

var (
	// ErrUnknownModel indicates a model with no registered provider.
	ErrUnknownModel = errors.New("unknown model")

	// ErrUnknownProvider indicates a provider name with no factory.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrEmptyResponse indicates the provider returned no choices.
	ErrEmptyResponse = errors.New("empty provider response")

	// ErrMissingAPIKey indicates a provider that requires a key found none.
	ErrMissingAPIKey = errors.New("missing API key")
)

// ProviderError wraps a provider failure with the model that produced it
// and whether the failure is worth retrying.
type ProviderError struct {
	Model     string
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (model %s): %v", e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a provider failure that a retry might
// clear: rate limits, server-side errors, network timeouts.
func IsTransient(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Transient
}
