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
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Validate checks values against every declared field and returns the
// normalized record as field name -> validated value. Only declared fields
// appear in the result; undeclared keys in the input are ignored. A missing
// or explicitly null value passes for optional fields and fails otherwise.
func (r *Record) Validate(values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(r.Fields))
	for i := range r.Fields {
		field := &r.Fields[i]
		validated, err := field.Validate(values[field.Name])
		if err != nil {
			return nil, err
		}
		out[field.Name] = validated
	}
	return out, nil
}

// Validate checks a single value against the field spec and returns its
// normalized form: canonical enum literals, deduplicated enum lists,
// booleans as int64 0/1, integers as int64, floats as float64. nil is
// returned for an optional field receiving null.
func (f *FieldSpec) Validate(value any) (any, error) {
	if value == nil {
		if f.Optional {
			return nil, nil
		}
		return nil, validationErrf(f.Name, "required field is missing or null")
	}

	switch f.Kind {
	case KindString:
		return f.validateString(value)
	case KindInteger:
		return f.validateInteger(value)
	case KindFloat:
		return f.validateFloat(value)
	case KindBoolean:
		return f.validateBoolean(value)
	case KindEnum:
		return f.validateEnum(value)
	case KindEnumList:
		return f.validateEnumList(value)
	case KindArray:
		return f.validateArray(value)
	case KindObject:
		return f.validateObject(value)
	default:
		return nil, validationErrf(f.Name, "unsupported kind %v", f.Kind)
	}
}

// ValidateLiteral coerces a bare textual response into the field's type and
// validates it. This is the single-field path: providers answering without
// a JSON envelope return one literal, not a record.
func (f *FieldSpec) ValidateLiteral(raw string) (any, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, `"'`)

	switch f.Kind {
	case KindInteger:
		n, err := strconv.ParseInt(cleaned, 10, 64)
		if err != nil {
			return nil, validationErrf(f.Name, "cannot parse %q as integer", cleaned)
		}
		return f.Validate(float64(n))
	case KindFloat:
		x, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil, validationErrf(f.Name, "cannot parse %q as float", cleaned)
		}
		return f.Validate(x)
	case KindEnumList, KindArray:
		return f.Validate(parseListLiteral(raw))
	case KindObject:
		var obj map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err != nil {
			return nil, validationErrf(f.Name, "cannot parse object response: %v", err)
		}
		return f.Validate(obj)
	default:
		return f.Validate(cleaned)
	}
}

// parseListLiteral interprets a raw response as a list: a JSON array when
// possible, otherwise comma-separated values, otherwise a single element.
func parseListLiteral(raw string) []any {
	trimmed := strings.TrimSpace(raw)
	var parsed []any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		return parsed
	}
	var single any
	if err := json.Unmarshal([]byte(trimmed), &single); err == nil {
		if s, ok := single.(string); ok {
			trimmed = s
		}
	}
	var items []any
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, `"'`)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

func (f *FieldSpec) validateString(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, validationErrf(f.Name, "expected string, got %T", value)
	}
	n := len([]rune(s))
	if f.MinLength > 0 && n < f.MinLength {
		return nil, validationErrf(f.Name, "length %d below minimum %d", n, f.MinLength)
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return nil, validationErrf(f.Name, "length %d above maximum %d", n, f.MaxLength)
	}
	if f.Pattern != nil && !f.Pattern.MatchString(s) {
		return nil, validationErrf(f.Name, "value does not match pattern %s", f.Pattern)
	}
	if err := checkLang(f.Name, s, f.Lang); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *FieldSpec) validateInteger(value any) (any, error) {
	var x float64
	switch v := value.(type) {
	case float64:
		x = v
	case int:
		x = float64(v)
	case int64:
		x = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, validationErrf(f.Name, "cannot parse %q as number", v)
		}
		x = parsed
	default:
		return nil, validationErrf(f.Name, "expected integer, got %T", value)
	}
	if x != math.Trunc(x) {
		return nil, validationErrf(f.Name, "expected integer, got %v", x)
	}
	if err := f.checkNumericBounds(x); err != nil {
		return nil, err
	}
	return int64(x), nil
}

func (f *FieldSpec) validateFloat(value any) (any, error) {
	var x float64
	switch v := value.(type) {
	case float64:
		x = v
	case int:
		x = float64(v)
	case int64:
		x = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, validationErrf(f.Name, "cannot parse %q as number", v)
		}
		x = parsed
	default:
		return nil, validationErrf(f.Name, "expected number, got %T", value)
	}
	if err := f.checkNumericBounds(x); err != nil {
		return nil, err
	}
	return x, nil
}

func (f *FieldSpec) checkNumericBounds(x float64) error {
	if f.Minimum != nil {
		if f.ExclusiveMin && x <= *f.Minimum {
			return validationErrf(f.Name, "%v not above exclusive minimum %v", x, *f.Minimum)
		}
		if !f.ExclusiveMin && x < *f.Minimum {
			return validationErrf(f.Name, "%v below minimum %v", x, *f.Minimum)
		}
	}
	if f.Maximum != nil {
		if f.ExclusiveMax && x >= *f.Maximum {
			return validationErrf(f.Name, "%v not below exclusive maximum %v", x, *f.Maximum)
		}
		if !f.ExclusiveMax && x > *f.Maximum {
			return validationErrf(f.Name, "%v above maximum %v", x, *f.Maximum)
		}
	}
	if f.MultipleOf != nil && *f.MultipleOf != 0 {
		ratio := x / *f.MultipleOf
		if math.Abs(ratio-math.Round(ratio)) > 1e-9 {
			return validationErrf(f.Name, "%v is not a multiple of %v", x, *f.MultipleOf)
		}
	}
	return nil
}

// Boolean tokens accepted case-insensitively alongside native booleans.
var truthyTokens = map[string]int64{
	"true": 1, "yes": 1, "1": 1, "on": 1,
	"false": 0, "no": 0, "0": 0, "off": 0,
}

func (f *FieldSpec) validateBoolean(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		if n, ok := truthyTokens[strings.ToLower(strings.TrimSpace(v))]; ok {
			return n, nil
		}
		return nil, validationErrf(f.Name, "cannot interpret %q as boolean", v)
	case float64:
		if v == 0 || v == 1 {
			return int64(v), nil
		}
		return nil, validationErrf(f.Name, "cannot interpret %v as boolean", v)
	default:
		return nil, validationErrf(f.Name, "expected boolean, got %T", value)
	}
}

func (f *FieldSpec) validateEnum(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, validationErrf(f.Name, "expected enum literal, got %T", value)
	}
	s = strings.TrimSpace(s)
	canonical, ok := f.matchChoice(s)
	if !ok {
		return nil, validationErrf(f.Name, "%q is not one of the allowed choices %v", s, f.Choices)
	}
	return canonical, nil
}

func (f *FieldSpec) validateEnumList(value any) (any, error) {
	items, ok := asList(value)
	if !ok {
		return nil, validationErrf(f.Name, "expected list, got %T", value)
	}

	// Any disallowed member invalidates the whole response. No silent
	// filtering: the provider is asked again instead.
	validated := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, validationErrf(f.Name, "expected string element, got %T", item)
		}
		canonical, ok := f.matchChoice(strings.TrimSpace(s))
		if !ok {
			return nil, validationErrf(f.Name, "%q is not one of the allowed choices %v", s, f.Choices)
		}
		validated = append(validated, canonical)
	}

	// Deduplicate preserving first-seen order. Duplicates are never a
	// rejection reason; item-count bounds apply after deduplication.
	seen := make(map[string]struct{}, len(validated))
	deduped := make([]string, 0, len(validated))
	for _, item := range validated {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		deduped = append(deduped, item)
	}

	if f.MinItems > 0 && len(deduped) < f.MinItems {
		return nil, validationErrf(f.Name, "need at least %d items, got %d", f.MinItems, len(deduped))
	}
	if f.MaxItems > 0 && len(deduped) > f.MaxItems {
		return nil, validationErrf(f.Name, "need at most %d items, got %d", f.MaxItems, len(deduped))
	}
	return deduped, nil
}

func (f *FieldSpec) validateArray(value any) (any, error) {
	items, ok := asList(value)
	if !ok {
		return nil, validationErrf(f.Name, "expected list, got %T", value)
	}
	if f.MinItems > 0 && len(items) < f.MinItems {
		return nil, validationErrf(f.Name, "need at least %d items, got %d", f.MinItems, len(items))
	}
	if f.MaxItems > 0 && len(items) > f.MaxItems {
		return nil, validationErrf(f.Name, "need at most %d items, got %d", f.MaxItems, len(items))
	}
	validated := make([]any, 0, len(items))
	for _, item := range items {
		v, err := f.Items.Validate(item)
		if err != nil {
			return nil, err
		}
		validated = append(validated, v)
	}
	return validated, nil
}

func (f *FieldSpec) validateObject(value any) (any, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, validationErrf(f.Name, "expected object, got %T", value)
	}
	for _, required := range f.Required {
		if v, present := obj[required]; !present || v == nil {
			return nil, validationErrf(f.Name, "missing required property %q", required)
		}
	}
	out := make(map[string]any, len(f.Properties))
	for i := range f.Properties {
		prop := &f.Properties[i]
		v, present := obj[prop.Name]
		if !present && !isRequired(f.Required, prop.Name) {
			continue
		}
		validated, err := prop.Validate(v)
		if err != nil {
			return nil, err
		}
		out[prop.Name] = validated
	}
	return out, nil
}

func (f *FieldSpec) matchChoice(s string) (string, bool) {
	for _, choice := range f.Choices {
		if f.CaseSensitive {
			if s == choice {
				return choice, true
			}
		} else if strings.EqualFold(s, choice) {
			return choice, true
		}
	}
	return "", false
}

// asList accepts a native list or, forgivingly, a bare string treated as a
// one-element list.
func asList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case string:
		return []any{v}, true
	default:
		return nil, false
	}
}

func isRequired(required []string, name string) bool {
	for _, r := range required {
		if r == name {
			return true
		}
	}
	return false
}

// checkLang enforces a language constraint on string content. The check
// runs after structural validation; a violation is retryable because a
// re-prompted provider can usually comply.
func checkLang(field, s, lang string) error {
	switch lang {
	case "":
		return nil
	case LangChinese:
		if !containsHanzi(s) {
			return validationErrf(field, "value must contain Chinese characters")
		}
	case LangEnglish:
		for _, r := range s {
			if r > 127 {
				return validationErrf(field, "value must be ASCII-only, found %q", r)
			}
		}
	}
	return nil
}

// containsHanzi reports whether text contains at least one CJK code point.
func containsHanzi(text string) bool {
	for _, r := range text {
		switch {
		case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
			return true
		case r >= 0x3400 && r <= 0x4DBF: // Extension A
			return true
		case r >= 0x20000 && r <= 0x2A6DF: // Extension B
			return true
		case r >= 0x2A700 && r <= 0x2EBEF: // Extensions C-F
			return true
		case r >= 0xF900 && r <= 0xFAFF: // Compatibility Ideographs
			return true
		case r >= 0x2F800 && r <= 0x2FA1F: // Compatibility Supplement
			return true
		}
	}
	return false
}
