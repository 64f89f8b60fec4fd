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


package schema

import (
	"errors"
	"fmt"
)

// Schema definition errors. These indicate a misconfigured task and are
// raised during normalization, before any document is dispatched.
var (
	// ErrEmptySchema indicates the schema definition contains no fields.
	ErrEmptySchema = errors.New("schema cannot be empty")

	// ErrEmptyEnum indicates an enum or enum_list with no choices.
	ErrEmptyEnum = errors.New("enum must have at least one choice")

	// ErrUnknownType indicates an unrecognized type token.
	ErrUnknownType = errors.New("unknown schema type")

	// ErrMissingItems indicates an array field without an item schema.
	ErrMissingItems = errors.New("array field must declare an item schema")

	// ErrInvertedBounds indicates a minimum constraint above its maximum.
	ErrInvertedBounds = errors.New("minimum constraint exceeds maximum")

	// ErrUnknownLang indicates an unsupported language constraint token.
	ErrUnknownLang = errors.New("unknown language constraint")

	// ErrUnknownConverter indicates a convert tag naming no registered converter.
	ErrUnknownConverter = errors.New("unknown converter")
)

// ValidationError reports a value that is well-formed but violates a field
// constraint. It is retryable: the caller may re-request a response for the
// same document and model.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

func validationErrf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
