package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/enrichit/schema"
)

func normalized(t *testing.T, src string) *schema.Record {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &node))
	record, err := schema.Normalize(&node, schema.NormalizeOptions{})
	require.NoError(t, err)
	return record
}

func TestRecordSchema(t *testing.T) {
	record := normalized(t, `
title: string
year:
  type: integer
  minimum: 1800
  optional: true
sentiment:
  enum: [positive, negative, neutral]
genres:
  enum_list: [rock, jazz, blues]
  min_items: 1
  max_items: 2
scores:
  type: array
  items: float
credits:
  type: object
  properties:
    producer: string
    engineer: string
  required: [producer]
`)

	s := recordSchema(record)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"title", "year", "sentiment", "genres", "scores", "credits"}, s.PropertyOrdering)
	assert.Equal(t, []string{"title", "sentiment", "genres", "scores", "credits"}, s.Required)

	title := s.Properties["title"]
	require.NotNil(t, title)
	assert.Equal(t, genai.TypeString, title.Type)

	year := s.Properties["year"]
	require.NotNil(t, year)
	assert.Equal(t, genai.TypeInteger, year.Type)
	require.NotNil(t, year.Minimum)
	assert.Equal(t, 1800.0, *year.Minimum)
	require.NotNil(t, year.Nullable)
	assert.True(t, *year.Nullable)

	sentiment := s.Properties["sentiment"]
	require.NotNil(t, sentiment)
	assert.Equal(t, genai.TypeString, sentiment.Type)
	assert.Equal(t, []string{"positive", "negative", "neutral"}, sentiment.Enum)

	genres := s.Properties["genres"]
	require.NotNil(t, genres)
	assert.Equal(t, genai.TypeArray, genres.Type)
	require.NotNil(t, genres.Items)
	assert.Equal(t, []string{"rock", "jazz", "blues"}, genres.Items.Enum)
	require.NotNil(t, genres.MinItems)
	assert.Equal(t, int64(1), *genres.MinItems)
	require.NotNil(t, genres.MaxItems)
	assert.Equal(t, int64(2), *genres.MaxItems)

	scores := s.Properties["scores"]
	require.NotNil(t, scores)
	assert.Equal(t, genai.TypeArray, scores.Type)
	require.NotNil(t, scores.Items)
	assert.Equal(t, genai.TypeNumber, scores.Items.Type)

	credits := s.Properties["credits"]
	require.NotNil(t, credits)
	assert.Equal(t, genai.TypeObject, credits.Type)
	assert.Equal(t, []string{"producer"}, credits.Required)
	assert.Equal(t, []string{"producer", "engineer"}, credits.PropertyOrdering)
}

func TestRecordSchemaSingleField(t *testing.T) {
	record := normalized(t, `[low, medium, high]`)
	s := recordSchema(record)

	assert.Equal(t, genai.TypeObject, s.Type)
	require.Contains(t, s.Properties, "result")
	assert.Equal(t, []string{"low", "medium", "high"}, s.Properties["result"].Enum)
	assert.Equal(t, []string{"result"}, s.Required)
}
