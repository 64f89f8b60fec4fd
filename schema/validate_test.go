package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleField(t *testing.T, src string) *FieldSpec {
	t.Helper()
	record := mustNormalize(t, src)
	require.Len(t, record.Fields, 1)
	return &record.Fields[0]
}

func TestValidateString(t *testing.T) {
	field := singleField(t, `
type: string
minLength: 2
maxLength: 5
`)

	t.Run("accepts in-range", func(t *testing.T) {
		v, err := field.Validate("abc")
		require.NoError(t, err)
		assert.Equal(t, "abc", v)
	})

	t.Run("rejects too short", func(t *testing.T) {
		_, err := field.Validate("a")
		require.Error(t, err)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("rejects too long", func(t *testing.T) {
		_, err := field.Validate("abcdef")
		assert.Error(t, err)
	})

	t.Run("rejects wrong type", func(t *testing.T) {
		_, err := field.Validate(42.0)
		assert.Error(t, err)
	})

	t.Run("length counts runes", func(t *testing.T) {
		_, err := field.Validate("中文字")
		assert.NoError(t, err)
	})
}

func TestValidatePattern(t *testing.T) {
	field := singleField(t, `
type: string
pattern: "^[A-Z]{2}[0-9]+$"
`)

	_, err := field.Validate("AB12")
	assert.NoError(t, err)

	_, err = field.Validate("ab12")
	assert.Error(t, err)
}

func TestValidateInteger(t *testing.T) {
	field := singleField(t, `
type: integer
minimum: 0
maximum: 100
`)

	t.Run("integral float64 becomes int64", func(t *testing.T) {
		v, err := field.Validate(float64(42))
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)
	})

	t.Run("fractional rejected", func(t *testing.T) {
		_, err := field.Validate(41.5)
		assert.Error(t, err)
	})

	t.Run("bounds enforced", func(t *testing.T) {
		_, err := field.Validate(float64(101))
		assert.Error(t, err)
		_, err = field.Validate(float64(-1))
		assert.Error(t, err)
	})
}

func TestValidateFloat(t *testing.T) {
	t.Run("exclusive bounds", func(t *testing.T) {
		field := singleField(t, `
type: float
exclusiveMinimum: 0
`)
		_, err := field.Validate(0.0)
		assert.Error(t, err)
		v, err := field.Validate(0.1)
		require.NoError(t, err)
		assert.Equal(t, 0.1, v)
	})

	t.Run("multipleOf", func(t *testing.T) {
		field := singleField(t, `
type: float
multipleOf: 0.5
`)
		_, err := field.Validate(2.5)
		assert.NoError(t, err)
		_, err = field.Validate(2.3)
		assert.Error(t, err)
	})
}

func TestValidateBoolean(t *testing.T) {
	field := singleField(t, `boolean`)

	tests := []struct {
		in   any
		want int64
	}{
		{true, 1},
		{false, 0},
		{"true", 1},
		{"False", 0},
		{"yes", 1},
		{"NO", 0},
		{"1", 1},
		{"0", 0},
		{float64(1), 1},
	}
	for _, tc := range tests {
		v, err := field.Validate(tc.in)
		require.NoError(t, err, "%v", tc.in)
		assert.Equal(t, tc.want, v, "%v", tc.in)
	}

	_, err := field.Validate("maybe")
	assert.Error(t, err)
	_, err = field.Validate(float64(2))
	assert.Error(t, err)
}

func TestValidateEnum(t *testing.T) {
	t.Run("case sensitive by default", func(t *testing.T) {
		field := singleField(t, `enum: [Positive, Negative]`)
		v, err := field.Validate("Positive")
		require.NoError(t, err)
		assert.Equal(t, "Positive", v)

		_, err = field.Validate("positive")
		assert.Error(t, err)
	})

	t.Run("case insensitive returns canonical casing", func(t *testing.T) {
		field := singleField(t, `
type: enum
choices: [Positive, Negative]
case_sensitive: false
`)
		v, err := field.Validate("POSITIVE")
		require.NoError(t, err)
		assert.Equal(t, "Positive", v)
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		field := singleField(t, `enum: [a, b]`)
		v, err := field.Validate("  a ")
		require.NoError(t, err)
		assert.Equal(t, "a", v)
	})
}

func TestValidateEnumList(t *testing.T) {
	field := singleField(t, `
enum_list: [rock, jazz, blues, folk]
min_items: 1
max_items: 3
`)

	t.Run("valid members pass", func(t *testing.T) {
		v, err := field.Validate([]any{"rock", "jazz"})
		require.NoError(t, err)
		assert.Equal(t, []string{"rock", "jazz"}, v)
	})

	t.Run("any disallowed member rejects the whole list", func(t *testing.T) {
		_, err := field.Validate([]any{"rock", "polka"})
		assert.Error(t, err)
	})

	t.Run("duplicates collapse preserving first-seen order", func(t *testing.T) {
		v, err := field.Validate([]any{"jazz", "rock", "jazz", "rock"})
		require.NoError(t, err)
		assert.Equal(t, []string{"jazz", "rock"}, v)
	})

	t.Run("item bounds apply after dedup", func(t *testing.T) {
		v, err := field.Validate([]any{"rock", "rock", "jazz", "blues", "folk", "folk"})
		// Six raw members collapse to four, which still exceeds max_items.
		assert.Error(t, err)
		assert.Nil(t, v)
	})

	t.Run("bare string wraps into one-element list", func(t *testing.T) {
		v, err := field.Validate("blues")
		require.NoError(t, err)
		assert.Equal(t, []string{"blues"}, v)
	})

	t.Run("empty list fails min_items", func(t *testing.T) {
		_, err := field.Validate([]any{})
		assert.Error(t, err)
	})
}

func TestValidateArray(t *testing.T) {
	field := singleField(t, `
type: array
items:
  type: integer
  minimum: 0
maxItems: 3
`)

	v, err := field.Validate([]any{float64(1), float64(2)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, v)

	_, err = field.Validate([]any{float64(1), float64(-1)})
	assert.Error(t, err)

	_, err = field.Validate([]any{float64(1), float64(2), float64(3), float64(4)})
	assert.Error(t, err)
}

func TestValidateObject(t *testing.T) {
	field := singleField(t, `
type: object
properties:
  name: string
  score:
    type: float
required: [name]
`)

	t.Run("valid object", func(t *testing.T) {
		v, err := field.Validate(map[string]any{"name": "ada", "score": 0.9})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "ada", "score": 0.9}, v)
	})

	t.Run("missing required property", func(t *testing.T) {
		_, err := field.Validate(map[string]any{"score": 0.9})
		assert.Error(t, err)
	})

	t.Run("optional property may be absent", func(t *testing.T) {
		v, err := field.Validate(map[string]any{"name": "ada"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "ada"}, v)
	})
}

func TestValidateOptional(t *testing.T) {
	required := singleField(t, `string`)
	_, err := required.Validate(nil)
	assert.Error(t, err)

	optional := singleField(t, `
type: string
optional: true
`)
	v, err := optional.Validate(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestValidateLanguage(t *testing.T) {
	t.Run("chinese requires hanzi", func(t *testing.T) {
		field := singleField(t, `
type: string
lang: chinese
`)
		_, err := field.Validate("中文标题")
		assert.NoError(t, err)
		_, err = field.Validate("english only")
		assert.Error(t, err)
	})

	t.Run("english requires ascii", func(t *testing.T) {
		field := singleField(t, `
type: string
lang: english
`)
		_, err := field.Validate("plain text")
		assert.NoError(t, err)
		_, err = field.Validate("mixed 中文")
		assert.Error(t, err)
		_, err = field.Validate("café")
		assert.Error(t, err)
	})
}

func TestRecordValidate(t *testing.T) {
	record := mustNormalize(t, `
title: string
year:
  type: integer
  optional: true
mood:
  enum: [happy, sad]
`)

	t.Run("undeclared keys ignored", func(t *testing.T) {
		out, err := record.Validate(map[string]any{
			"title": "Blue in Green",
			"mood":  "sad",
			"extra": "dropped",
		})
		require.NoError(t, err)
		assert.NotContains(t, out, "extra")
		assert.Equal(t, "Blue in Green", out["title"])
		assert.Nil(t, out["year"])
	})

	t.Run("first failing field aborts", func(t *testing.T) {
		_, err := record.Validate(map[string]any{
			"title": "x",
			"mood":  "angry",
		})
		require.Error(t, err)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "mood", verr.Field)
	})
}

func TestValidateLiteral(t *testing.T) {
	t.Run("integer literal", func(t *testing.T) {
		field := singleField(t, `integer`)
		v, err := field.ValidateLiteral(" 42 ")
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)

		_, err = field.ValidateLiteral("forty-two")
		assert.Error(t, err)
	})

	t.Run("quoted string stripped", func(t *testing.T) {
		field := singleField(t, `string`)
		v, err := field.ValidateLiteral(`"hello"`)
		require.NoError(t, err)
		assert.Equal(t, "hello", v)
	})

	t.Run("enum literal", func(t *testing.T) {
		field := singleField(t, `enum: [up, down]`)
		v, err := field.ValidateLiteral("up\n")
		require.NoError(t, err)
		assert.Equal(t, "up", v)
	})

	t.Run("json array literal", func(t *testing.T) {
		field := singleField(t, `enum_list: [a, b, c]`)
		v, err := field.ValidateLiteral(`["a", "c"]`)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, v)
	})

	t.Run("comma separated literal", func(t *testing.T) {
		field := singleField(t, `enum_list: [a, b, c]`)
		v, err := field.ValidateLiteral("a, b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, v)
	})

	t.Run("float literal", func(t *testing.T) {
		field := singleField(t, `float`)
		v, err := field.ValidateLiteral("3.14")
		require.NoError(t, err)
		assert.Equal(t, 3.14, v)
	})
}

func TestApplyConversions(t *testing.T) {
	t.Run("pinyin on string field", func(t *testing.T) {
		record := mustNormalize(t, `
name:
  type: string
  convert: chinese_to_pinyin
`)
		out := record.ApplyConversions(map[string]any{"name": "北京"})
		assert.Equal(t, "bei jing", out["name"])
	})

	t.Run("mixed text keeps latin runs", func(t *testing.T) {
		assert.Equal(t, "bei jing city", chineseToPinyin("北京 city"))
	})

	t.Run("pure latin passes through", func(t *testing.T) {
		assert.Equal(t, "hello", chineseToPinyin("hello"))
	})

	t.Run("list values convert element-wise", func(t *testing.T) {
		record := mustNormalize(t, `
tags:
  type: array
  items: string
  convert: lowercase
`)
		out := record.ApplyConversions(map[string]any{"tags": []any{"Rock", "Jazz"}})
		assert.Equal(t, []any{"rock", "jazz"}, out["tags"])
	})

	t.Run("fields without converter untouched", func(t *testing.T) {
		record := mustNormalize(t, `title: string`)
		out := record.ApplyConversions(map[string]any{"title": "As Is"})
		assert.Equal(t, "As Is", out["title"])
	})
}
