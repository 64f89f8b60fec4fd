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
	"context"

	"github.com/poiesic/enrichit/core"
)

// Store is the storage contract the enrichment engine runs against.
// Implementations must be safe for concurrent use: the dispatcher persists
// results from many workers at once.
type Store interface {
	// SelectKeys runs a row-selection query and returns the first column
	// of each result row as a document key.
	SelectKeys(ctx context.Context, query string) ([]core.Key, error)

	// FetchInputs gathers input column values for one document. Each
	// table is matched on keyColumn. A missing table, missing column, or
	// missing row yields an empty value rather than an error; truncation
	// limits from the refs are applied by rune count. The result maps
	// bare column names to their text.
	FetchInputs(ctx context.Context, key core.Key, keyColumn string, refs []ColumnRef) (map[string]string, error)

	// Provision prepares the destination for a target: additive ALTER
	// TABLE in direct mode, create-or-migrate of the side table
	// otherwise. Provisioning never drops or retypes existing columns
	// and is idempotent.
	Provision(ctx context.Context, target Target) error

	// Enriched reports whether a successful result already exists for the
	// (document, model) pair. The audit trail is consulted first, then
	// the destination, so rows enriched before the trail existed still
	// count.
	Enriched(ctx context.Context, target Target, task string, key core.Key, model string) (bool, error)

	// Persist records an attempt: the audit row always, the destination
	// write only for a successful attempt with a non-null payload. Both
	// happen in one transaction.
	Persist(ctx context.Context, target Target, attempt Attempt) error

	// History returns audit trail entries, newest first.
	History(ctx context.Context, filter HistoryFilter) ([]AuditEntry, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
