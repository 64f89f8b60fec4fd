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

	"github.com/poiesic/enrichit/config"
	"github.com/poiesic/enrichit/schema"
	"github.com/poiesic/enrichit/storage"
)

// Task is a fully resolved enrichment: schema normalized, storage target
// routed, query and prompt material in hand. Resolution front-loads every
// configuration failure so nothing is dispatched for a task that cannot
// complete.
type Task struct {
	Name      string
	Query     string
	KeyColumn string
	InputRefs []storage.ColumnRef
	Record    *schema.Record
	Target    storage.Target
	Models    []string

	Prompt       string
	SystemPrompt string
	AppendText   string
	MaxRetries   int

	// Limit caps the candidate document count. Zero means no cap.
	Limit int
}

// ResolveTask turns one named enrichment from the config into a runnable
// Task.
func ResolveTask(cfg *config.Config, name string) (*Task, error) {
	spec, ok := cfg.Enrichments[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	if len(spec.Input.Columns) == 0 {
		return nil, &ConfigError{Task: name, Reason: "no input columns declared"}
	}
	refs := make([]storage.ColumnRef, 0, len(spec.Input.Columns))
	for _, raw := range spec.Input.Columns {
		ref, err := storage.ParseColumnRef(raw)
		if err != nil {
			return nil, &ConfigError{Task: name, Reason: err.Error()}
		}
		refs = append(refs, ref)
	}

	query, err := cfg.ResolveQuery(spec)
	if err != nil {
		return nil, &ConfigError{Task: name, Reason: err.Error()}
	}

	// Unqualified columns belong to the task's source table: the named
	// input table, the table a qualified ref points at, or the table the
	// row-selection query reads from.
	sourceTable := spec.Input.Table
	if sourceTable == "" {
		for _, ref := range refs {
			if ref.Table != "" {
				sourceTable = ref.Table
				break
			}
		}
	}
	if sourceTable == "" {
		sourceTable = queryTable(query)
	}
	for i := range refs {
		if refs[i].Table != "" {
			continue
		}
		if sourceTable == "" {
			return nil, &ConfigError{
				Task:   name,
				Reason: fmt.Sprintf("column %q names no table and the task declares no input table", refs[i].Column),
			}
		}
		refs[i].Table = sourceTable
	}

	if spec.Input.Query == "" && spec.Input.Table == "" {
		// Table shorthand with no explicit table: select from the first
		// input ref's table.
		query = fmt.Sprintf("SELECT %s FROM %s", cfg.KeyColumn, refs[0].Table)
	}

	fieldName := spec.Output.Column
	if fieldName == "" {
		fieldName = name
	}
	record, err := schema.Normalize(&spec.Output.Schema, schema.NormalizeOptions{
		DefaultFieldName: fieldName,
		AllOptional:      spec.AllOptional,
	})
	if err != nil {
		return nil, &ConfigError{Task: name, Reason: fmt.Sprintf("schema: %v", err)}
	}

	models := cfg.TaskModels(spec)
	target, err := routeTarget(name, spec, record, refs, cfg.KeyColumn, len(models) > 1)
	if err != nil {
		return nil, err
	}

	appendText, err := cfg.AppendFileContent(spec)
	if err != nil {
		return nil, &ConfigError{Task: name, Reason: err.Error()}
	}

	return &Task{
		Name:         name,
		Query:        query,
		KeyColumn:    cfg.KeyColumn,
		InputRefs:    refs,
		Record:       record,
		Target:       target,
		Models:       models,
		Prompt:       spec.Prompt,
		SystemPrompt: spec.SystemPrompt,
		AppendText:   appendText,
		MaxRetries:   spec.MaxRetries,
		Limit:        spec.Input.Limit,
	}, nil
}

// queryTable extracts the table a simple SELECT reads from. Subqueries and
// joins are beyond it; it returns "" when it cannot tell, and the caller
// treats that as no table.
func queryTable(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields {
		if !strings.EqualFold(f, "from") || i+1 >= len(fields) {
			continue
		}
		table := strings.Trim(fields[i+1], `"`+"`;")
		if table == "" || strings.HasPrefix(table, "(") {
			return ""
		}
		return table
	}
	return ""
}

// routeTarget decides the storage strategy. A named side table always wins;
// otherwise a single-field schema writes directly into the source table,
// and a multi-field schema with nowhere to go is a configuration error.
func routeTarget(name string, spec *config.Enrichment, record *schema.Record, refs []storage.ColumnRef, keyColumn string, multiModel bool) (storage.Target, error) {
	writeMode := storage.WriteOverwrite
	if spec.Mode == "append" {
		writeMode = storage.WriteAppend
	}

	columns := make([]storage.Column, len(record.Fields))
	for i := range record.Fields {
		columns[i] = storage.Column{
			Name:    record.Fields[i].Name,
			SQLType: record.Fields[i].SQLType(),
		}
	}

	if spec.Output.Table != "" {
		return storage.Target{
			Mode:       storage.ModeSeparateTable,
			WriteMode:  writeMode,
			Table:      spec.Output.Table,
			KeyColumn:  keyColumn,
			Columns:    columns,
			MultiModel: multiModel,
		}, nil
	}

	if len(record.Fields) != 1 {
		return storage.Target{}, &ConfigError{
			Task:   name,
			Reason: fmt.Sprintf("schema declares %d fields but no output table is named", len(record.Fields)),
		}
	}
	if multiModel {
		return storage.Target{}, &ConfigError{
			Task:   name,
			Reason: "direct column mode cannot keep results from multiple models; name an output table",
		}
	}

	sourceTable := spec.Input.Table
	if sourceTable == "" {
		sourceTable = refs[0].Table
	}
	return storage.Target{
		Mode:      storage.ModeDirectColumn,
		WriteMode: writeMode,
		Table:     sourceTable,
		KeyColumn: keyColumn,
		Columns:   columns,
	}, nil
}
