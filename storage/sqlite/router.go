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


package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/enrichit/storage"
)

// ensureAuditTables creates the append-only audit trail: deduplicated
// prompts plus one enrichment_responses row per provider exchange.
func (s *Store) ensureAuditTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS prompts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hash TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS enrichment_responses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			enrichment_id TEXT NOT NULL,
			doc_key TEXT NOT NULL,
			task_name TEXT NOT NULL,
			model_used TEXT NOT NULL,
			prompt_id INTEGER REFERENCES prompts(id),
			raw_response TEXT,
			success INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_lookup
			ON enrichment_responses(doc_key, task_name, model_used)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: audit tables: %w", storage.ErrProvisionFailed, err)
		}
	}
	return nil
}

// Provision prepares the destination described by target. All changes are
// additive: existing columns are never dropped or retyped, so reruns with
// an evolved schema only widen the destination.
func (s *Store) Provision(ctx context.Context, target storage.Target) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	switch target.Mode {
	case storage.ModeDirectColumn:
		return s.provisionDirect(ctx, target)
	case storage.ModeSeparateTable:
		return s.provisionSideTable(ctx, target)
	default:
		return fmt.Errorf("%w: unknown storage mode %v", storage.ErrProvisionFailed, target.Mode)
	}
}

// provisionDirect adds missing output columns to the source table.
func (s *Store) provisionDirect(ctx context.Context, target storage.Target) error {
	exists, err := s.tableExists(ctx, target.Table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrTableNotFound, target.Table)
	}

	existing, err := s.tableColumns(ctx, target.Table)
	if err != nil {
		return err
	}
	table, err := quoteIdent(target.Table)
	if err != nil {
		return err
	}
	for _, col := range target.Columns {
		if existing[col.Name] {
			continue
		}
		name, err := quoteIdent(col.Name)
		if err != nil {
			return err
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, name, col.SQLType)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %s: %w", storage.ErrProvisionFailed, stmt, err)
		}
		s.logger.Debug("added column", "table", target.Table, "column", col.Name, "type", col.SQLType)
	}
	return nil
}

// provisionSideTable creates the side table if missing and migrates an
// existing one additively.
func (s *Store) provisionSideTable(ctx context.Context, target storage.Target) error {
	exists, err := s.tableExists(ctx, target.Table)
	if err != nil {
		return err
	}
	if exists {
		return s.migrateSideTable(ctx, target)
	}

	table, err := quoteIdent(target.Table)
	if err != nil {
		return err
	}
	keyCol, err := quoteIdent(target.KeyColumn)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", table)
	b.WriteString("\tid INTEGER PRIMARY KEY AUTOINCREMENT,\n")
	fmt.Fprintf(&b, "\t%s TEXT NOT NULL,\n", keyCol)
	for _, col := range target.Columns {
		name, err := quoteIdent(col.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "\t%s %s,\n", name, col.SQLType)
	}
	b.WriteString("\tenrichment_id TEXT,\n")
	b.WriteString("\tmodel_used TEXT,\n")
	b.WriteString("\tcreated_at TEXT NOT NULL DEFAULT (datetime('now')),\n")
	b.WriteString("\tupdated_at TEXT NOT NULL DEFAULT (datetime('now')),\n")
	if target.MultiModel {
		fmt.Fprintf(&b, "\tUNIQUE(%s, model_used)\n", keyCol)
	} else {
		fmt.Fprintf(&b, "\tUNIQUE(%s)\n", keyCol)
	}
	b.WriteString(")")

	if _, err := s.db.ExecContext(ctx, b.String()); err != nil {
		return fmt.Errorf("%w: creating %s: %w", storage.ErrProvisionFailed, target.Table, err)
	}
	s.logger.Debug("created side table", "table", target.Table, "multi_model", target.MultiModel)
	return nil
}

// migrateSideTable adds any output columns missing from an existing side
// table. Uniqueness constraints of the existing table are left alone.
func (s *Store) migrateSideTable(ctx context.Context, target storage.Target) error {
	existing, err := s.tableColumns(ctx, target.Table)
	if err != nil {
		return err
	}
	if !existing[target.KeyColumn] {
		return fmt.Errorf("%w: table %s has no key column %s",
			storage.ErrProvisionFailed, target.Table, target.KeyColumn)
	}
	table, err := quoteIdent(target.Table)
	if err != nil {
		return err
	}
	needed := make([]storage.Column, 0, len(target.Columns)+2)
	needed = append(needed, target.Columns...)
	needed = append(needed,
		storage.Column{Name: "enrichment_id", SQLType: "TEXT"},
		storage.Column{Name: "model_used", SQLType: "TEXT"},
	)
	for _, col := range needed {
		if existing[col.Name] {
			continue
		}
		name, err := quoteIdent(col.Name)
		if err != nil {
			return err
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, name, col.SQLType)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %s: %w", storage.ErrProvisionFailed, stmt, err)
		}
		s.logger.Debug("added column", "table", target.Table, "column", col.Name, "type", col.SQLType)
	}
	return nil
}
