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

import "regexp"

// Kind identifies the value shape a field accepts. The set is closed: every
// schema dialect normalizes into one of these variants.
type Kind int

const (
	// KindString accepts free text, optionally bounded and pattern-checked.
	KindString Kind = iota + 1
	// KindInteger accepts whole numbers.
	KindInteger
	// KindFloat accepts real numbers.
	KindFloat
	// KindBoolean accepts native booleans or truthy/falsy tokens.
	KindBoolean
	// KindEnum accepts exactly one literal from a closed vocabulary.
	KindEnum
	// KindEnumList accepts a list of literals from a closed vocabulary.
	KindEnumList
	// KindArray accepts a list validated item-by-item against a nested spec.
	KindArray
	// KindObject accepts a map validated against declared properties.
	KindObject
)

// String returns the type token used in schema definitions.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindEnum:
		return "enum"
	case KindEnumList:
		return "enum_list"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Language constraint tokens accepted by the normalizer.
const (
	// LangChinese requires at least one CJK code point.
	LangChinese = "chinese"
	// LangEnglish requires ASCII-only text.
	LangEnglish = "english"
)

// FieldSpec describes one field of a normalized schema. It is a tagged
// union: Kind selects the variant and the constraint fields that apply to
// it; the rest stay zero. Validate is recursive for arrays and objects.
type FieldSpec struct {
	// Name is the field identifier, which doubles as the destination
	// column name.
	Name string

	// Kind selects the variant.
	Kind Kind

	// Optional marks a field that may be null. An explicit null passes
	// validation trivially.
	Optional bool

	// Lang constrains string content ("" means unconstrained). Applies to
	// string fields directly and to array-of-string items recursively.
	Lang string

	// Convert names a post-validation converter. Converters run only on
	// values that already passed validation and their output is not
	// re-validated.
	Convert string

	// Choices holds the closed vocabulary for enum and enum_list.
	Choices []string

	// CaseSensitive controls vocabulary matching for enum and enum_list.
	CaseSensitive bool

	// MinItems and MaxItems bound enum_list and array lengths.
	// MaxItems == 0 means unbounded.
	MinItems int
	MaxItems int

	// Items is the nested spec for array elements.
	Items *FieldSpec

	// Properties and Required describe object fields. Property order is
	// declaration order.
	Properties []FieldSpec
	Required   []string

	// Numeric bounds. Nil means unconstrained.
	Minimum      *float64
	Maximum      *float64
	ExclusiveMin bool
	ExclusiveMax bool
	MultipleOf   *float64

	// String length bounds (in runes). MaxLength == 0 means unbounded.
	MinLength int
	MaxLength int

	// Pattern is a compiled regular expression the string must match.
	Pattern *regexp.Regexp
}

// SQLType returns the SQLite column type that stores values of this field.
// Lists and objects are serialized to JSON text.
func (f *FieldSpec) SQLType() string {
	switch f.Kind {
	case KindInteger, KindBoolean:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// Record is an ordered set of field specifications compiled into a record
// validator. Declaration order is preserved; it drives destination column
// ordering.
type Record struct {
	Fields []FieldSpec
}

// FieldNames returns field names in declaration order.
func (r *Record) FieldNames() []string {
	names := make([]string, len(r.Fields))
	for i := range r.Fields {
		names[i] = r.Fields[i].Name
	}
	return names
}

// Field returns the spec for name, or nil if the record does not declare it.
func (r *Record) Field(name string) *FieldSpec {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return &r.Fields[i]
		}
	}
	return nil
}

// Single returns the sole field of a single-field record, or nil when the
// record declares more than one field.
func (r *Record) Single() *FieldSpec {
	if len(r.Fields) == 1 {
		return &r.Fields[0]
	}
	return nil
}
