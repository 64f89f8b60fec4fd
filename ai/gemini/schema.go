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


package gemini

import (
	"google.golang.org/genai"

	"github.com/poiesic/enrichit/schema"
)

// recordSchema translates a validated record into the genai schema dialect.
// The response is always a JSON object keyed by field name, even for
// single-field records, so parsing is uniform across providers.
func recordSchema(record *schema.Record) *genai.Schema {
	properties := make(map[string]*genai.Schema, len(record.Fields))
	ordering := make([]string, 0, len(record.Fields))
	var required []string
	for i := range record.Fields {
		field := &record.Fields[i]
		properties[field.Name] = fieldSchema(field)
		ordering = append(ordering, field.Name)
		if !field.Optional {
			required = append(required, field.Name)
		}
	}
	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       properties,
		Required:         required,
		PropertyOrdering: ordering,
	}
}

func fieldSchema(field *schema.FieldSpec) *genai.Schema {
	s := &genai.Schema{}
	if field.Optional {
		s.Nullable = genai.Ptr(true)
	}

	switch field.Kind {
	case schema.KindString:
		s.Type = genai.TypeString
	case schema.KindInteger:
		s.Type = genai.TypeInteger
		s.Minimum = field.Minimum
		s.Maximum = field.Maximum
	case schema.KindFloat:
		s.Type = genai.TypeNumber
		s.Minimum = field.Minimum
		s.Maximum = field.Maximum
	case schema.KindBoolean:
		s.Type = genai.TypeBoolean
	case schema.KindEnum:
		s.Type = genai.TypeString
		s.Enum = field.Choices
	case schema.KindEnumList:
		s.Type = genai.TypeArray
		s.Items = &genai.Schema{Type: genai.TypeString, Enum: field.Choices}
		setItemBounds(s, field)
	case schema.KindArray:
		s.Type = genai.TypeArray
		s.Items = fieldSchema(field.Items)
		setItemBounds(s, field)
	case schema.KindObject:
		s.Type = genai.TypeObject
		s.Properties = make(map[string]*genai.Schema, len(field.Properties))
		ordering := make([]string, 0, len(field.Properties))
		for i := range field.Properties {
			prop := &field.Properties[i]
			s.Properties[prop.Name] = fieldSchema(prop)
			ordering = append(ordering, prop.Name)
		}
		s.PropertyOrdering = ordering
		s.Required = field.Required
	}
	return s
}

func setItemBounds(s *genai.Schema, field *schema.FieldSpec) {
	if field.MinItems > 0 {
		s.MinItems = genai.Ptr(int64(field.MinItems))
	}
	if field.MaxItems > 0 {
		s.MaxItems = genai.Ptr(int64(field.MaxItems))
	}
}
