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


// Package schema turns user-authored YAML output declarations into typed
// field specifications and validates responses against them.
//
// # Dialect
//
// A schema declaration is either a single inline field or a map of field
// names to specs. Each spec can be a scalar type token ("string", "int",
// "float", "bool"), a bare sequence (an enum of its elements), or a mapping
// carrying a type plus tags and constraints:
//
//	sentiment:
//	  enum: [positive, negative, neutral]
//	scores:
//	  type: array
//	  items: float
//	  maxItems: 5
//
// Declaration order is preserved because it determines both the storage
// column order and the shape of provider-facing schemas. Parsing therefore
// walks yaml.Node content directly instead of decoding into Go maps.
//
// # Pipeline
//
// Normalize produces a *Record. Record.Validate checks a decoded provider
// response, returning normalized values (canonical enum casing, int64
// integers, booleans as 0/1, deduplicated enum lists). ApplyConversions
// then runs declared converters such as chinese_to_pinyin over the
// validated values.
//
// # Error Handling
//
// Structural schema problems surface as sentinel errors (ErrUnknownType,
// ErrMissingItems, ...) so callers can branch on them. Response validation
// failures are *ValidationError values carrying the offending field name;
// they are retryable because a re-prompted provider can usually correct
// the response.
package schema
