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
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// NormalizeOptions adjusts how a raw schema definition is interpreted.
type NormalizeOptions struct {
	// DefaultFieldName names the single field produced by dialects that
	// declare no field name of their own (bare enum lists, inline specs,
	// scalar type tokens). Defaults to "result".
	DefaultFieldName string

	// AllOptional marks every top-level field optional regardless of
	// per-field tags.
	AllOptional bool
}

// Normalize parses a raw schema definition into an ordered Record. The
// definition may use any supported dialect:
//
//   - a bare string list (single enum field)
//   - an inline spec: {enum: [...]}, {enum_list: [...], min_items: N},
//     {type: enum_list, choices: [...]}, {type: array, items: {...}},
//     {type: object, properties: {...}}, or a scalar type with constraints
//   - a scalar type token ("string", "boolean", ...)
//   - a mapping of field name to per-field spec (any of the above forms)
//
// Field declaration order is preserved. Malformed specs (empty enums,
// inverted bounds, arrays without item schemas, unknown type tokens) fail
// here, before any document is dispatched.
func Normalize(node *yaml.Node, opts NormalizeOptions) (*Record, error) {
	if opts.DefaultFieldName == "" {
		opts.DefaultFieldName = "result"
	}
	node = resolve(node)
	if node == nil {
		return nil, ErrEmptySchema
	}

	var fields []FieldSpec
	switch {
	case node.Kind == yaml.MappingNode && !isInlineSpec(node):
		if len(node.Content) == 0 {
			return nil, ErrEmptySchema
		}
		for i := 0; i < len(node.Content)-1; i += 2 {
			name := node.Content[i].Value
			spec, err := parseSpec(name, node.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			fields = append(fields, *spec)
		}
	default:
		spec, err := parseSpec(opts.DefaultFieldName, node)
		if err != nil {
			return nil, err
		}
		fields = append(fields, *spec)
	}

	if opts.AllOptional {
		for i := range fields {
			fields[i].Optional = true
		}
	}
	return &Record{Fields: fields}, nil
}

// isInlineSpec reports whether a mapping node is a single field spec rather
// than a map of field names. Specs are recognized by their structural keys.
func isInlineSpec(node *yaml.Node) bool {
	for i := 0; i < len(node.Content)-1; i += 2 {
		switch node.Content[i].Value {
		case "enum", "enum_list", "type":
			return true
		}
	}
	return false
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch node.Kind {
		case 0:
			// Zero-value node from decoding empty input.
			return nil
		case yaml.DocumentNode:
			if len(node.Content) == 0 {
				return nil
			}
			node = node.Content[0]
		case yaml.AliasNode:
			node = node.Alias
		default:
			return node
		}
	}
	return nil
}

func parseSpec(name string, node *yaml.Node) (*FieldSpec, error) {
	node = resolve(node)
	if node == nil {
		return nil, ErrEmptySchema
	}

	switch node.Kind {
	case yaml.ScalarNode:
		var token string
		if err := node.Decode(&token); err != nil {
			return nil, err
		}
		return scalarSpec(name, token)
	case yaml.SequenceNode:
		choices, err := decodeStrings(node)
		if err != nil {
			return nil, err
		}
		if len(choices) == 0 {
			return nil, ErrEmptyEnum
		}
		return &FieldSpec{Name: name, Kind: KindEnum, Choices: choices, CaseSensitive: true}, nil
	case yaml.MappingNode:
		return parseMappingSpec(name, node)
	default:
		return nil, fmt.Errorf("%w: unsupported node kind", ErrUnknownType)
	}
}

// scalarSpec builds a bare scalar field from a type token.
func scalarSpec(name, token string) (*FieldSpec, error) {
	kind, err := scalarKind(token)
	if err != nil {
		return nil, err
	}
	return &FieldSpec{Name: name, Kind: kind}, nil
}

func scalarKind(token string) (Kind, error) {
	switch strings.ToLower(token) {
	case "string", "str":
		return KindString, nil
	case "integer", "int":
		return KindInteger, nil
	case "float", "number":
		return KindFloat, nil
	case "boolean", "bool":
		return KindBoolean, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, token)
	}
}

func parseMappingSpec(name string, node *yaml.Node) (*FieldSpec, error) {
	keys := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i < len(node.Content)-1; i += 2 {
		keys[node.Content[i].Value] = resolve(node.Content[i+1])
	}

	spec := &FieldSpec{Name: name, CaseSensitive: true}
	if err := applyCommonTags(spec, keys); err != nil {
		return nil, err
	}

	switch {
	case keys["enum"] != nil:
		choices, err := decodeStrings(keys["enum"])
		if err != nil {
			return nil, err
		}
		spec.Kind = KindEnum
		spec.Choices = choices
	case keys["enum_list"] != nil:
		choices, err := decodeStrings(keys["enum_list"])
		if err != nil {
			return nil, err
		}
		spec.Kind = KindEnumList
		spec.Choices = choices
	case keys["type"] != nil:
		var token string
		if err := keys["type"].Decode(&token); err != nil {
			return nil, err
		}
		if err := applyTypedSpec(spec, strings.ToLower(token), keys); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: spec must declare type, enum, or enum_list", ErrUnknownType)
	}

	if err := applyConstraints(spec, keys); err != nil {
		return nil, err
	}
	return spec, checkBounds(spec)
}

func applyTypedSpec(spec *FieldSpec, token string, keys map[string]*yaml.Node) error {
	switch token {
	case "enum", "enum_list":
		choices, err := decodeStrings(keys["choices"])
		if err != nil {
			return err
		}
		if token == "enum" {
			spec.Kind = KindEnum
		} else {
			spec.Kind = KindEnumList
		}
		spec.Choices = choices
		return nil
	case "array", "list":
		items := keys["items"]
		if items == nil {
			return ErrMissingItems
		}
		itemSpec, err := parseSpec(spec.Name, items)
		if err != nil {
			return fmt.Errorf("items: %w", err)
		}
		spec.Kind = KindArray
		spec.Items = itemSpec
		return nil
	case "object", "dict":
		props := keys["properties"]
		if props == nil || props.Kind != yaml.MappingNode || len(props.Content) == 0 {
			return fmt.Errorf("%w: object field must declare properties", ErrUnknownType)
		}
		for i := 0; i < len(props.Content)-1; i += 2 {
			propName := props.Content[i].Value
			propSpec, err := parseSpec(propName, props.Content[i+1])
			if err != nil {
				return fmt.Errorf("property %q: %w", propName, err)
			}
			spec.Properties = append(spec.Properties, *propSpec)
		}
		if req := keys["required"]; req != nil {
			required, err := decodeStrings(req)
			if err != nil {
				return err
			}
			for _, r := range required {
				if !hasProperty(spec.Properties, r) {
					return fmt.Errorf("%w: required property %q not declared", ErrUnknownType, r)
				}
			}
			spec.Required = required
		}
		spec.Kind = KindObject
		return nil
	default:
		kind, err := scalarKind(token)
		if err != nil {
			return err
		}
		spec.Kind = kind
		return nil
	}
}

func applyCommonTags(spec *FieldSpec, keys map[string]*yaml.Node) error {
	if n := keys["lang"]; n != nil {
		var lang string
		if err := n.Decode(&lang); err != nil {
			return err
		}
		switch strings.ToLower(lang) {
		case "chinese", "zh":
			spec.Lang = LangChinese
		case "english", "en":
			spec.Lang = LangEnglish
		default:
			return fmt.Errorf("%w: %q", ErrUnknownLang, lang)
		}
	}
	if n := keys["convert"]; n != nil {
		var convert string
		if err := n.Decode(&convert); err != nil {
			return err
		}
		if _, ok := ConverterFor(convert); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownConverter, convert)
		}
		spec.Convert = convert
	}
	for _, key := range []string{"optional", "nullable"} {
		if n := keys[key]; n != nil {
			var b bool
			if err := n.Decode(&b); err != nil {
				return err
			}
			if b {
				spec.Optional = true
			}
		}
	}
	if n := keys["case_sensitive"]; n != nil {
		if err := n.Decode(&spec.CaseSensitive); err != nil {
			return err
		}
	}
	return nil
}

func applyConstraints(spec *FieldSpec, keys map[string]*yaml.Node) error {
	decodeFloatPtr := func(key string) (*float64, error) {
		n := keys[key]
		if n == nil {
			return nil, nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return &f, nil
	}
	decodeInt := func(key string, dst *int) error {
		n := keys[key]
		if n == nil {
			return nil
		}
		return n.Decode(dst)
	}

	var err error
	if spec.Minimum, err = decodeFloatPtr("minimum"); err != nil {
		return err
	}
	if spec.Maximum, err = decodeFloatPtr("maximum"); err != nil {
		return err
	}
	if excl, err := decodeFloatPtr("exclusiveMinimum"); err != nil {
		return err
	} else if excl != nil {
		spec.Minimum = excl
		spec.ExclusiveMin = true
	}
	if excl, err := decodeFloatPtr("exclusiveMaximum"); err != nil {
		return err
	} else if excl != nil {
		spec.Maximum = excl
		spec.ExclusiveMax = true
	}
	if spec.MultipleOf, err = decodeFloatPtr("multipleOf"); err != nil {
		return err
	}

	if err := decodeInt("minLength", &spec.MinLength); err != nil {
		return err
	}
	if err := decodeInt("maxLength", &spec.MaxLength); err != nil {
		return err
	}

	// Item bounds accept both schema dialect spellings.
	for _, key := range []string{"minItems", "min_items"} {
		if err := decodeInt(key, &spec.MinItems); err != nil {
			return err
		}
	}
	for _, key := range []string{"maxItems", "max_items"} {
		if err := decodeInt(key, &spec.MaxItems); err != nil {
			return err
		}
	}

	if n := keys["pattern"]; n != nil {
		var pattern string
		if err := n.Decode(&pattern); err != nil {
			return err
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
		spec.Pattern = re
	}
	return nil
}

func checkBounds(spec *FieldSpec) error {
	if len(spec.Choices) == 0 && (spec.Kind == KindEnum || spec.Kind == KindEnumList) {
		return ErrEmptyEnum
	}
	if spec.Minimum != nil && spec.Maximum != nil && *spec.Minimum > *spec.Maximum {
		return ErrInvertedBounds
	}
	if spec.MaxLength > 0 && spec.MinLength > spec.MaxLength {
		return ErrInvertedBounds
	}
	if spec.MaxItems > 0 && spec.MinItems > spec.MaxItems {
		return ErrInvertedBounds
	}
	return nil
}

func hasProperty(props []FieldSpec, name string) bool {
	for i := range props {
		if props[i].Name == name {
			return true
		}
	}
	return false
}

func decodeStrings(node *yaml.Node) ([]string, error) {
	node = resolve(node)
	if node == nil {
		return nil, ErrEmptyEnum
	}
	var out []string
	if err := node.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
