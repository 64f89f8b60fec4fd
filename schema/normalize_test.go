package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func mustNode(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &node))
	return &node
}

func mustNormalize(t *testing.T, src string) *Record {
	t.Helper()
	record, err := Normalize(mustNode(t, src), NormalizeOptions{})
	require.NoError(t, err)
	return record
}

func TestNormalizeBareEnumList(t *testing.T) {
	record := mustNormalize(t, `[positive, negative, neutral]`)

	require.Len(t, record.Fields, 1)
	field := record.Fields[0]
	assert.Equal(t, "result", field.Name)
	assert.Equal(t, KindEnum, field.Kind)
	assert.Equal(t, []string{"positive", "negative", "neutral"}, field.Choices)
	assert.True(t, field.CaseSensitive)
}

func TestNormalizeScalarToken(t *testing.T) {
	tests := []struct {
		token string
		kind  Kind
	}{
		{"string", KindString},
		{"str", KindString},
		{"integer", KindInteger},
		{"int", KindInteger},
		{"float", KindFloat},
		{"number", KindFloat},
		{"boolean", KindBoolean},
		{"bool", KindBoolean},
	}
	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			record := mustNormalize(t, tc.token)
			require.Len(t, record.Fields, 1)
			assert.Equal(t, tc.kind, record.Fields[0].Kind)
		})
	}
}

func TestNormalizeUnknownTypeToken(t *testing.T) {
	_, err := Normalize(mustNode(t, `timestamp`), NormalizeOptions{})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestNormalizeInlineSpec(t *testing.T) {
	t.Run("enum shorthand", func(t *testing.T) {
		record := mustNormalize(t, `enum: [low, medium, high]`)
		require.Len(t, record.Fields, 1)
		assert.Equal(t, KindEnum, record.Fields[0].Kind)
		assert.Equal(t, []string{"low", "medium", "high"}, record.Fields[0].Choices)
	})

	t.Run("enum_list shorthand with item bounds", func(t *testing.T) {
		record := mustNormalize(t, `
enum_list: [rock, jazz, blues]
min_items: 1
max_items: 2
`)
		field := record.Fields[0]
		assert.Equal(t, KindEnumList, field.Kind)
		assert.Equal(t, 1, field.MinItems)
		assert.Equal(t, 2, field.MaxItems)
	})

	t.Run("typed enum with choices", func(t *testing.T) {
		record := mustNormalize(t, `
type: enum
choices: [yes, no]
case_sensitive: false
`)
		field := record.Fields[0]
		assert.Equal(t, KindEnum, field.Kind)
		assert.False(t, field.CaseSensitive)
	})

	t.Run("numeric constraints", func(t *testing.T) {
		record := mustNormalize(t, `
type: integer
minimum: 0
maximum: 10
`)
		field := record.Fields[0]
		assert.Equal(t, KindInteger, field.Kind)
		require.NotNil(t, field.Minimum)
		require.NotNil(t, field.Maximum)
		assert.Equal(t, 0.0, *field.Minimum)
		assert.Equal(t, 10.0, *field.Maximum)
	})

	t.Run("exclusive bounds", func(t *testing.T) {
		record := mustNormalize(t, `
type: float
exclusiveMinimum: 0
`)
		field := record.Fields[0]
		assert.True(t, field.ExclusiveMin)
		assert.Equal(t, 0.0, *field.Minimum)
	})
}

func TestNormalizeFieldMap(t *testing.T) {
	record := mustNormalize(t, `
title: string
year:
  type: integer
  minimum: 1800
sentiment:
  enum: [positive, negative, neutral]
tags:
  type: array
  items: string
`)

	require.Len(t, record.Fields, 4)
	// Declaration order must survive normalization.
	assert.Equal(t, []string{"title", "year", "sentiment", "tags"}, record.FieldNames())
	assert.Equal(t, KindString, record.Fields[0].Kind)
	assert.Equal(t, KindInteger, record.Fields[1].Kind)
	assert.Equal(t, KindEnum, record.Fields[2].Kind)
	assert.Equal(t, KindArray, record.Fields[3].Kind)
	require.NotNil(t, record.Fields[3].Items)
	assert.Equal(t, KindString, record.Fields[3].Items.Kind)
}

func TestNormalizeArrayRequiresItems(t *testing.T) {
	_, err := Normalize(mustNode(t, `type: array`), NormalizeOptions{})
	assert.ErrorIs(t, err, ErrMissingItems)
}

func TestNormalizeObject(t *testing.T) {
	record := mustNormalize(t, `
type: object
properties:
  name: string
  score:
    type: float
required: [name]
`)

	field := record.Fields[0]
	assert.Equal(t, KindObject, field.Kind)
	require.Len(t, field.Properties, 2)
	assert.Equal(t, "name", field.Properties[0].Name)
	assert.Equal(t, "score", field.Properties[1].Name)
	assert.Equal(t, []string{"name"}, field.Required)
}

func TestNormalizeObjectRequiredMustBeDeclared(t *testing.T) {
	_, err := Normalize(mustNode(t, `
type: object
properties:
  name: string
required: [age]
`), NormalizeOptions{})
	require.Error(t, err)
}

func TestNormalizeEmptyEnum(t *testing.T) {
	_, err := Normalize(mustNode(t, `enum: []`), NormalizeOptions{})
	assert.ErrorIs(t, err, ErrEmptyEnum)
}

func TestNormalizeInvertedBounds(t *testing.T) {
	t.Run("numeric", func(t *testing.T) {
		_, err := Normalize(mustNode(t, `
type: integer
minimum: 10
maximum: 1
`), NormalizeOptions{})
		assert.ErrorIs(t, err, ErrInvertedBounds)
	})

	t.Run("items", func(t *testing.T) {
		_, err := Normalize(mustNode(t, `
enum_list: [a, b, c]
min_items: 3
max_items: 1
`), NormalizeOptions{})
		assert.ErrorIs(t, err, ErrInvertedBounds)
	})
}

func TestNormalizeLanguageTag(t *testing.T) {
	record := mustNormalize(t, `
type: string
lang: chinese
`)
	assert.Equal(t, LangChinese, record.Fields[0].Lang)

	_, err := Normalize(mustNode(t, `
type: string
lang: klingon
`), NormalizeOptions{})
	assert.ErrorIs(t, err, ErrUnknownLang)
}

func TestNormalizeConverterTag(t *testing.T) {
	record := mustNormalize(t, `
type: string
convert: chinese_to_pinyin
`)
	assert.Equal(t, "chinese_to_pinyin", record.Fields[0].Convert)

	_, err := Normalize(mustNode(t, `
type: string
convert: reverse
`), NormalizeOptions{})
	assert.ErrorIs(t, err, ErrUnknownConverter)
}

func TestNormalizeOptionalTags(t *testing.T) {
	record := mustNormalize(t, `
summary:
  type: string
  optional: true
rating:
  type: integer
  nullable: true
title: string
`)

	assert.True(t, record.Fields[0].Optional)
	assert.True(t, record.Fields[1].Optional)
	assert.False(t, record.Fields[2].Optional)
}

func TestNormalizeOptions(t *testing.T) {
	t.Run("default field name", func(t *testing.T) {
		record, err := Normalize(mustNode(t, `string`), NormalizeOptions{DefaultFieldName: "answer"})
		require.NoError(t, err)
		assert.Equal(t, "answer", record.Fields[0].Name)
	})

	t.Run("all optional", func(t *testing.T) {
		record, err := Normalize(mustNode(t, "a: string\nb: integer\n"), NormalizeOptions{AllOptional: true})
		require.NoError(t, err)
		for _, field := range record.Fields {
			assert.True(t, field.Optional, field.Name)
		}
	})
}

func TestNormalizeEmptySchema(t *testing.T) {
	_, err := Normalize(mustNode(t, ``), NormalizeOptions{})
	assert.ErrorIs(t, err, ErrEmptySchema)
}

func TestFieldSQLType(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`string`, "TEXT"},
		{`integer`, "INTEGER"},
		{`boolean`, "INTEGER"},
		{`float`, "REAL"},
		{`enum: [a, b]`, "TEXT"},
		{`enum_list: [a, b]`, "TEXT"},
		{"type: array\nitems: int\n", "TEXT"},
	}
	for _, tc := range tests {
		record := mustNormalize(t, tc.src)
		assert.Equal(t, tc.want, record.Fields[0].SQLType(), tc.src)
	}
}
