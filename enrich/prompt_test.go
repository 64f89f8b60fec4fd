package enrich

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/enrichit/schema"
	"github.com/poiesic/enrichit/storage"
)

func mustRecord(t *testing.T, src string) *schema.Record {
	t.Helper()
	node := schemaNode(t, src)
	record, err := schema.Normalize(&node, schema.NormalizeOptions{DefaultFieldName: "result"})
	require.NoError(t, err)
	return record
}

func indexOf(s, sub string) int {
	return strings.Index(s, sub)
}

func TestRenderPromptPlaceholders(t *testing.T) {
	task := &Task{
		Prompt: "Classify the sentiment of: {body}",
		InputRefs: []storage.ColumnRef{
			{Table: "documents", Column: "body"},
		},
	}
	inputs := map[string]string{"body": "great product"}

	prompt := renderPrompt(task, inputs)
	assert.Equal(t, "Classify the sentiment of: great product", prompt)
}

func TestRenderPromptUnreferencedColumns(t *testing.T) {
	task := &Task{
		Prompt: "Classify this document.",
		InputRefs: []storage.ColumnRef{
			{Table: "documents", Column: "title"},
			{Table: "documents", Column: "body"},
		},
	}
	inputs := map[string]string{"title": "Review", "body": "great product"}

	prompt := renderPrompt(task, inputs)
	assert.Contains(t, prompt, "Classify this document.")
	assert.Contains(t, prompt, "title: Review")
	assert.Contains(t, prompt, "body: great product")
	// Declaration order, not map order.
	assert.Less(t, indexOf(prompt, "title:"), indexOf(prompt, "body:"))
}

func TestRenderPromptMixed(t *testing.T) {
	task := &Task{
		Prompt: "Title is {title}.",
		InputRefs: []storage.ColumnRef{
			{Table: "documents", Column: "title"},
			{Table: "documents", Column: "body"},
		},
		AppendText: "Extra guidance.",
	}
	inputs := map[string]string{"title": "Review", "body": "great"}

	prompt := renderPrompt(task, inputs)
	assert.Contains(t, prompt, "Title is Review.")
	assert.NotContains(t, prompt, "title: Review", "consumed columns stay out of the block")
	assert.Contains(t, prompt, "body: great")
	assert.Contains(t, prompt, "Extra guidance.")
}

func TestRenderPromptSkipsEmptyInputs(t *testing.T) {
	task := &Task{
		Prompt: "Classify.",
		InputRefs: []storage.ColumnRef{
			{Table: "documents", Column: "title"},
			{Table: "documents", Column: "body"},
		},
	}
	inputs := map[string]string{"title": "", "body": "text"}

	prompt := renderPrompt(task, inputs)
	assert.NotContains(t, prompt, "title:")
	assert.Contains(t, prompt, "body: text")
}

func TestSchemaInstructionsSingleField(t *testing.T) {
	record := mustRecord(t, "type: enum\nchoices: [positive, negative, neutral]\n")
	got := schemaInstructions(record)
	assert.Contains(t, got, "one of: positive, negative, neutral")
	assert.NotContains(t, got, "JSON object")
}

func TestSchemaInstructionsMultiField(t *testing.T) {
	record := mustRecord(t, `
label:
  type: enum
  choices: [spam, ham]
score:
  type: float
  minimum: 0
  maximum: 1
tags:
  type: enum_list
  choices: [a, b, c]
  minItems: 1
  maxItems: 2
note:
  type: string
  optional: true
`)
	got := schemaInstructions(record)
	assert.Contains(t, got, "JSON object")
	assert.Contains(t, got, `"label": one of: spam, ham`)
	assert.Contains(t, got, ">= 0")
	assert.Contains(t, got, "<= 1")
	assert.Contains(t, got, "1 to 2 items")
	assert.Contains(t, got, "(or null)")
}
