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


// Package config loads and validates enrichit task files: YAML documents
// declaring the database, reusable row-selection queries, model overrides,
// and the enrichment tasks themselves. Output schemas stay as raw yaml.Node
// values here; the schema package parses them at task resolution so field
// order survives.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level task file.
type Config struct {
	// Database is the SQLite file path, resolved relative to the config
	// file when not absolute.
	Database string `yaml:"database"`

	// KeyColumn names the document key column shared by input tables.
	// Defaults to "key".
	KeyColumn string `yaml:"key_column"`

	// DefaultModel is used by enrichments that list no models.
	DefaultModel string `yaml:"default_model"`

	// Workers sizes the dispatch pool. Defaults to 4.
	Workers int `yaml:"workers"`

	// Queries holds named, reusable row-selection queries referenced by
	// enrichment inputs.
	Queries map[string]string `yaml:"queries"`

	// Models carries per-model overrides keyed by model name.
	Models map[string]ModelOverride `yaml:"models"`

	// Enrichments maps task name to its definition.
	Enrichments map[string]*Enrichment `yaml:"enrichments"`

	// Dir is the directory the config file was loaded from; relative
	// paths resolve against it. Not part of the YAML.
	Dir string `yaml:"-"`
}

// ModelOverride carries optional per-model settings.
type ModelOverride struct {
	Provider          string  `yaml:"provider"`
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	RequestsPerSecond float64 `yaml:"rps"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
}

// Enrichment is one task definition.
type Enrichment struct {
	Input  Input  `yaml:"input"`
	Output Output `yaml:"output"`

	// Models lists the models to run this task with. Empty means the
	// config's default model.
	Models []string `yaml:"models"`

	// Mode is "overwrite" or "append". Defaults to overwrite.
	Mode string `yaml:"mode"`

	// Prompt is the user prompt template. {column} placeholders expand
	// to input column values.
	Prompt string `yaml:"prompt"`

	// SystemPrompt carries task-level instructions.
	SystemPrompt string `yaml:"system_prompt"`

	// AppendFile names a file whose content is appended to every
	// prompt, resolved relative to the config file.
	AppendFile string `yaml:"append_file"`

	// MaxRetries bounds validation/parse retries per pair. Defaults
	// to 3.
	MaxRetries int `yaml:"max_retries"`

	// AllOptional marks every schema field optional without editing the
	// schema itself.
	AllOptional bool `yaml:"all_optional"`
}

// Input selects the documents and columns a task reads.
type Input struct {
	// Query is either a name from the config's queries section or an
	// inline SELECT statement.
	Query string `yaml:"query"`

	// Table is a shorthand for Query: enrich every row of the table.
	Table string `yaml:"table"`

	// Columns lists "table.column[:max_runes]" references fed into the
	// prompt.
	Columns []string `yaml:"columns"`

	// Limit caps the number of selected documents. Zero means no cap.
	Limit int `yaml:"limit"`
}

// Output declares where results land and what shape they take.
type Output struct {
	// Table names a side table. Empty means direct column mode.
	Table string `yaml:"table"`

	// Column names the output column for single-field schemas declared
	// without a field map. Defaults to the task name.
	Column string `yaml:"column"`

	// Schema is the raw schema declaration, parsed later by the schema
	// package. Kept as a node so field order survives.
	Schema yaml.Node `yaml:"schema"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Dir = filepath.Dir(path)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.KeyColumn == "" {
		c.KeyColumn = "key"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	for _, task := range c.Enrichments {
		if task.Mode == "" {
			task.Mode = "overwrite"
		}
		if task.MaxRetries <= 0 {
			task.MaxRetries = 3
		}
	}
}

// Validate checks structural requirements that do not need the database or
// schema packages. Deeper checks (schema dialect, storage mode) happen at
// task resolution.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database path is required")
	}
	if len(c.Enrichments) == 0 {
		return fmt.Errorf("at least one enrichment is required")
	}
	for name, task := range c.Enrichments {
		if task.Input.Query == "" && task.Input.Table == "" {
			return fmt.Errorf("enrichment %s: input needs a query or table", name)
		}
		if len(task.Input.Columns) == 0 {
			return fmt.Errorf("enrichment %s: input needs at least one column", name)
		}
		if task.Prompt == "" {
			return fmt.Errorf("enrichment %s: prompt is required", name)
		}
		if task.Output.Schema.IsZero() {
			return fmt.Errorf("enrichment %s: output schema is required", name)
		}
		if task.Mode != "overwrite" && task.Mode != "append" {
			return fmt.Errorf("enrichment %s: mode must be overwrite or append, got %q", name, task.Mode)
		}
		if len(task.Models) == 0 && c.DefaultModel == "" {
			return fmt.Errorf("enrichment %s: no models listed and no default_model set", name)
		}
	}
	return nil
}

// DatabasePath resolves the database path against the config directory.
func (c *Config) DatabasePath() string {
	return c.resolve(c.Database)
}

// AppendFileContent loads a task's append file, or returns empty when the
// task declares none.
func (c *Config) AppendFileContent(task *Enrichment) (string, error) {
	if task.AppendFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.resolve(task.AppendFile))
	if err != nil {
		return "", fmt.Errorf("reading append file: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// ResolveQuery turns a task input into a row-selection statement: a named
// query from the queries section, an inline SELECT, or a whole-table scan.
func (c *Config) ResolveQuery(task *Enrichment) (string, error) {
	if task.Input.Query != "" {
		if named, ok := c.Queries[task.Input.Query]; ok {
			return named, nil
		}
		if isSelect(task.Input.Query) {
			return task.Input.Query, nil
		}
		return "", fmt.Errorf("query %q is neither a named query nor a SELECT", task.Input.Query)
	}
	return fmt.Sprintf("SELECT %s FROM %s", c.KeyColumn, task.Input.Table), nil
}

// TaskModels returns the models a task runs with, falling back to the
// config default.
func (c *Config) TaskModels(task *Enrichment) []string {
	if len(task.Models) > 0 {
		return task.Models
	}
	return []string{c.DefaultModel}
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}

func isSelect(q string) bool {
	trimmed := strings.ToUpper(strings.TrimSpace(q))
	return strings.HasPrefix(trimmed, "SELECT") || strings.HasPrefix(trimmed, "WITH")
}
