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
	"encoding/json"
	"strings"

	"github.com/poiesic/enrichit/schema"
)

// parseResponse turns a raw model response into validated, converted field
// values keyed by field name. Markdown code fences are stripped first.
// Single-field records accept a bare literal when the response is not a
// JSON object; multi-field records require one.
func parseResponse(record *schema.Record, raw string) (map[string]any, error) {
	text := stripFences(raw)
	if text == "" {
		return nil, &ParseError{Raw: raw, Err: errEmptyPayload}
	}

	if strings.HasPrefix(text, "{") {
		var payload map[string]any
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			if field := record.Single(); field != nil {
				return parseLiteral(field, text)
			}
			return nil, &ParseError{Raw: raw, Err: err}
		}
		values, err := record.Validate(payload)
		if err != nil {
			return nil, err
		}
		return record.ApplyConversions(values), nil
	}

	field := record.Single()
	if field == nil {
		return nil, &ParseError{Raw: raw, Err: errWantObject}
	}
	return parseLiteral(field, text)
}

func parseLiteral(field *schema.FieldSpec, text string) (map[string]any, error) {
	value, err := field.ValidateLiteral(text)
	if err != nil {
		return nil, err
	}
	record := &schema.Record{Fields: []schema.FieldSpec{*field}}
	values := map[string]any{field.Name: value}
	return record.ApplyConversions(values), nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		// Drop a language tag such as "json" on the opening fence line.
		first := strings.TrimSpace(text[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}[]\"") {
			text = text[idx+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
