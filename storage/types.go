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


package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/enrichit/core"
)

// Mode selects where validated results land.
type Mode int

const (
	// ModeDirectColumn writes each result into columns added to the
	// source table itself.
	ModeDirectColumn Mode = iota + 1

	// ModeSeparateTable writes results as rows of a dedicated side table
	// keyed by document key.
	ModeSeparateTable
)

func (m Mode) String() string {
	switch m {
	case ModeDirectColumn:
		return "direct_column"
	case ModeSeparateTable:
		return "separate_table"
	default:
		return "unknown"
	}
}

// WriteMode controls collision behavior against already-enriched documents.
type WriteMode int

const (
	// WriteOverwrite replaces any previous result for the same document
	// (and model, when several models run).
	WriteOverwrite WriteMode = iota + 1

	// WriteAppend writes only where no result exists yet.
	WriteAppend
)

func (m WriteMode) String() string {
	switch m {
	case WriteOverwrite:
		return "overwrite"
	case WriteAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Column describes one destination column.
type Column struct {
	Name    string
	SQLType string // TEXT, INTEGER, or REAL
}

// Target describes where a task's results are written. The router
// provisions it, the planner consults it for pending checks, and the
// persister writes through it.
type Target struct {
	Mode      Mode
	WriteMode WriteMode

	// Table is the destination: the source table in direct mode, the
	// side table otherwise.
	Table string

	// KeyColumn holds the document key in both the source and side table.
	KeyColumn string

	Columns []Column

	// MultiModel widens the side table uniqueness constraint to
	// (key, model_used) so each model keeps its own row.
	MultiModel bool
}

// ColumnRef points at one input column, optionally truncated. The textual
// form is "table.column" or "column", either with a ":N" maximum rune
// count suffix. An unqualified column has an empty Table; the task layer
// resolves it against the task's source table.
type ColumnRef struct {
	Table    string
	Column   string
	MaxRunes int
}

// ParseColumnRef parses the "[table.]column[:N]" form.
func ParseColumnRef(s string) (ColumnRef, error) {
	ref := ColumnRef{}
	spec := s
	if idx := strings.LastIndex(spec, ":"); idx >= 0 {
		n, err := strconv.Atoi(spec[idx+1:])
		if err != nil || n <= 0 {
			return ref, fmt.Errorf("%w: bad truncation in %q", ErrInvalidColumnRef, s)
		}
		ref.MaxRunes = n
		spec = spec[:idx]
	}
	parts := strings.Split(spec, ".")
	switch {
	case len(parts) == 1 && parts[0] != "":
		ref.Column = parts[0]
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		ref.Table = parts[0]
		ref.Column = parts[1]
	default:
		return ref, fmt.Errorf("%w: %q is not [table.]column", ErrInvalidColumnRef, s)
	}
	return ref, nil
}

// Attempt is one provider exchange for one (document, model) pair,
// recorded in the audit trail and, when successful, written to the
// destination.
type Attempt struct {
	// EnrichmentID identifies this attempt; stamped on the audit row and
	// on side-table rows.
	EnrichmentID string

	Key   core.Key
	Task  string
	Model string

	// Prompt is the full rendered prompt; stored deduplicated by hash.
	Prompt string

	// RawResponse is the provider output before any parsing.
	RawResponse string

	// Values holds validated, converted field values. nil for a failed
	// attempt. An all-null payload is audited but never written to the
	// destination.
	Values map[string]any

	Success bool
}

// AuditEntry is one row of the enrichment_responses trail, joined with its
// prompt text.
type AuditEntry struct {
	ID           int64
	EnrichmentID string
	Key          core.Key
	Task         string
	Model        string
	Prompt       string
	RawResponse  string
	Success      bool
	CreatedAt    time.Time
}

// HistoryFilter narrows an audit trail query. Zero-valued fields match
// everything.
type HistoryFilter struct {
	Key   core.Key
	Task  string
	Limit int
}
