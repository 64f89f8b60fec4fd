package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
database: corpus.db
default_model: gpt-4o-mini
workers: 8

queries:
  pending: SELECT key FROM documents WHERE body IS NOT NULL

models:
  gpt-4o-mini:
    rps: 2
  gemini-2.0-flash:
    api_key_env: MY_GEMINI_KEY

enrichments:
  sentiment:
    input:
      query: pending
      columns: [documents.body:2000]
    output:
      table: doc_sentiment
      schema:
        sentiment:
          enum: [positive, negative, neutral]
        score:
          type: float
    models: [gpt-4o-mini, gemini-2.0-flash]
    mode: append
    prompt: "Classify the sentiment of: {body}"
    system_prompt: You are a careful annotator.

  summarize:
    input:
      table: documents
      columns: [documents.body]
    output:
      column: summary
      schema: string
    prompt: "Summarize: {body}"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "enrichit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.KeyColumn)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "corpus.db"), cfg.DatabasePath())
	require.Len(t, cfg.Enrichments, 2)

	sentiment := cfg.Enrichments["sentiment"]
	require.NotNil(t, sentiment)
	assert.Equal(t, "append", sentiment.Mode)
	assert.Equal(t, 3, sentiment.MaxRetries)
	assert.Equal(t, []string{"gpt-4o-mini", "gemini-2.0-flash"}, cfg.TaskModels(sentiment))
	assert.False(t, sentiment.Output.Schema.IsZero())

	summarize := cfg.Enrichments["summarize"]
	require.NotNil(t, summarize)
	assert.Equal(t, "overwrite", summarize.Mode)
	assert.Equal(t, []string{"gpt-4o-mini"}, cfg.TaskModels(summarize))

	assert.Equal(t, 2.0, cfg.Models["gpt-4o-mini"].RequestsPerSecond)
	assert.Equal(t, "MY_GEMINI_KEY", cfg.Models["gemini-2.0-flash"].APIKeyEnv)
}

func TestResolveQuery(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	t.Run("named query", func(t *testing.T) {
		q, err := cfg.ResolveQuery(cfg.Enrichments["sentiment"])
		require.NoError(t, err)
		assert.Equal(t, "SELECT key FROM documents WHERE body IS NOT NULL", q)
	})

	t.Run("table shorthand", func(t *testing.T) {
		q, err := cfg.ResolveQuery(cfg.Enrichments["summarize"])
		require.NoError(t, err)
		assert.Equal(t, "SELECT key FROM documents", q)
	})

	t.Run("inline select", func(t *testing.T) {
		task := &Enrichment{Input: Input{Query: "select key from documents limit 5"}}
		q, err := cfg.ResolveQuery(task)
		require.NoError(t, err)
		assert.Equal(t, "select key from documents limit 5", q)
	})

	t.Run("unknown name rejected", func(t *testing.T) {
		task := &Enrichment{Input: Input{Query: "no_such_query"}}
		_, err := cfg.ResolveQuery(task)
		assert.Error(t, err)
	})
}

func TestAppendFileContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.txt"), []byte("Valid genres:\nrock\njazz\n"), 0644))
	path := filepath.Join(dir, "enrichit.yaml")
	content := sampleConfig + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	task := cfg.Enrichments["sentiment"]
	task.AppendFile = "extra.txt"
	text, err := cfg.AppendFileContent(task)
	require.NoError(t, err)
	assert.Equal(t, "Valid genres:\nrock\njazz", text)

	t.Run("no append file", func(t *testing.T) {
		text, err := cfg.AppendFileContent(cfg.Enrichments["summarize"])
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("missing file", func(t *testing.T) {
		task.AppendFile = "gone.txt"
		_, err := cfg.AppendFileContent(task)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("missing database", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
enrichments:
  x:
    input: {table: t, columns: [t.c]}
    output: {schema: string}
    prompt: p
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database path is required")
	})

	t.Run("bad mode", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
database: d.db
default_model: m
enrichments:
  x:
    input: {table: t, columns: [t.c]}
    output: {schema: string}
    prompt: p
    mode: upsert
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mode must be overwrite or append")
	})

	t.Run("no models anywhere", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
database: d.db
enrichments:
  x:
    input: {table: t, columns: [t.c]}
    output: {schema: string}
    prompt: p
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no default_model")
	})

	t.Run("missing schema", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
database: d.db
default_model: m
enrichments:
  x:
    input: {table: t, columns: [t.c]}
    output: {}
    prompt: p
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema is required")
	})

	t.Run("missing prompt", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
database: d.db
default_model: m
enrichments:
  x:
    input: {table: t, columns: [t.c]}
    output: {schema: string}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prompt is required")
	})
}
