package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/enrichit/schema"
)

func TestParseResponseObject(t *testing.T) {
	record := mustRecord(t, "label: {type: enum, choices: [spam, ham]}\nscore: float\n")

	values, err := parseResponse(record, `{"label": "spam", "score": 0.91}`)
	require.NoError(t, err)
	assert.Equal(t, "spam", values["label"])
	assert.Equal(t, 0.91, values["score"])
}

func TestParseResponseFenced(t *testing.T) {
	record := mustRecord(t, "label: {type: enum, choices: [spam, ham]}\nscore: float\n")

	raw := "```json\n{\"label\": \"ham\", \"score\": 0.2}\n```"
	values, err := parseResponse(record, raw)
	require.NoError(t, err)
	assert.Equal(t, "ham", values["label"])
}

func TestParseResponseBareLiteral(t *testing.T) {
	record := mustRecord(t, "type: enum\nchoices: [positive, negative]\n")

	values, err := parseResponse(record, "  Positive\n")
	require.NoError(t, err)
	assert.Equal(t, "positive", values["result"], "canonical casing from the choice list")
}

func TestParseResponseSingleFieldObject(t *testing.T) {
	record := mustRecord(t, "type: integer\nminimum: 1\nmaximum: 5\n")

	values, err := parseResponse(record, `{"result": 4}`)
	require.NoError(t, err)
	assert.Equal(t, int64(4), values["result"])
}

func TestParseResponseConversions(t *testing.T) {
	record := mustRecord(t, "type: string\nlang: chinese\nconvert: chinese_to_pinyin\n")

	values, err := parseResponse(record, "北京")
	require.NoError(t, err)
	assert.Equal(t, "bei jing", values["result"])
}

func TestParseResponseErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		record := mustRecord(t, "string\n")
		_, err := parseResponse(record, "   ")
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("multi-field wants object", func(t *testing.T) {
		record := mustRecord(t, "a: string\nb: string\n")
		_, err := parseResponse(record, "just some text")
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.ErrorIs(t, err, errWantObject)
	})

	t.Run("malformed object", func(t *testing.T) {
		record := mustRecord(t, "a: string\nb: string\n")
		_, err := parseResponse(record, `{"a": "x", `)
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("schema violation", func(t *testing.T) {
		record := mustRecord(t, "type: enum\nchoices: [yes, no]\n")
		_, err := parseResponse(record, "maybe")
		var validationErr *schema.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"tagged fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"whitespace", "  positive  ", "positive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripFences(tc.raw))
		})
	}
}
