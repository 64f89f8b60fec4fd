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


package enrich

import (
	"fmt"
	"strings"

	"github.com/poiesic/enrichit/schema"
)

// renderPrompt assembles the full user prompt for one document: the task
// template with {column} placeholders expanded, an input block for columns
// the template did not already consume, and any append-file content.
func renderPrompt(task *Task, inputs map[string]string) string {
	var b strings.Builder

	prompt := task.Prompt
	consumed := make(map[string]bool, len(inputs))
	for column, value := range inputs {
		placeholder := "{" + column + "}"
		if strings.Contains(prompt, placeholder) {
			prompt = strings.ReplaceAll(prompt, placeholder, value)
			consumed[column] = true
		}
	}
	b.WriteString(strings.TrimSpace(prompt))

	// Columns not referenced in the template still reach the model, as a
	// labeled block in declaration order.
	var block []string
	for _, ref := range task.InputRefs {
		if consumed[ref.Column] {
			continue
		}
		if value, ok := inputs[ref.Column]; ok && value != "" {
			block = append(block, fmt.Sprintf("%s: %s", ref.Column, value))
		}
	}
	if len(block) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(block, "\n"))
	}

	if task.AppendText != "" {
		b.WriteString("\n\n")
		b.WriteString(task.AppendText)
	}
	return b.String()
}

// schemaInstructions renders the fallback instruction block for providers
// without native schema enforcement. Single-field tasks ask for a bare
// value; anything wider asks for a JSON object.
func schemaInstructions(record *schema.Record) string {
	var b strings.Builder
	if field := record.Single(); field != nil {
		b.WriteString("Respond with only ")
		b.WriteString(fieldInstruction(field))
		b.WriteString(". No explanation, no markdown.")
		return b.String()
	}

	b.WriteString("Respond with a single JSON object with exactly these keys:\n")
	for i := range record.Fields {
		field := &record.Fields[i]
		fmt.Fprintf(&b, "- %q: %s", field.Name, fieldInstruction(field))
		if field.Optional {
			b.WriteString(" (or null)")
		}
		b.WriteString("\n")
	}
	b.WriteString("No explanation, no markdown, no extra keys.")
	return b.String()
}

func fieldInstruction(field *schema.FieldSpec) string {
	switch field.Kind {
	case schema.KindEnum:
		return "one of: " + strings.Join(field.Choices, ", ")
	case schema.KindEnumList:
		instruction := "a JSON array drawn from: " + strings.Join(field.Choices, ", ")
		if field.MinItems > 0 || field.MaxItems > 0 {
			instruction += fmt.Sprintf(" (%s)", itemBounds(field))
		}
		return instruction
	case schema.KindInteger:
		return "an integer" + numericBounds(field)
	case schema.KindFloat:
		return "a number" + numericBounds(field)
	case schema.KindBoolean:
		return "true or false"
	case schema.KindArray:
		return "a JSON array where each element is " + fieldInstruction(field.Items)
	case schema.KindObject:
		names := make([]string, len(field.Properties))
		for i := range field.Properties {
			names[i] = field.Properties[i].Name
		}
		return "a JSON object with keys: " + strings.Join(names, ", ")
	default:
		s := "a string"
		switch field.Lang {
		case schema.LangChinese:
			s += " in Chinese"
		case schema.LangEnglish:
			s += " in English"
		}
		return s
	}
}

func numericBounds(field *schema.FieldSpec) string {
	var parts []string
	if field.Minimum != nil {
		parts = append(parts, fmt.Sprintf(">= %v", *field.Minimum))
	}
	if field.Maximum != nil {
		parts = append(parts, fmt.Sprintf("<= %v", *field.Maximum))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func itemBounds(field *schema.FieldSpec) string {
	switch {
	case field.MinItems > 0 && field.MaxItems > 0:
		return fmt.Sprintf("%d to %d items", field.MinItems, field.MaxItems)
	case field.MinItems > 0:
		return fmt.Sprintf("at least %d items", field.MinItems)
	default:
		return fmt.Sprintf("at most %d items", field.MaxItems)
	}
}
