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
	"database/sql"
	"fmt"
	"strings"

	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/storage"
)

// SelectKeys runs a row-selection query and collects the first result
// column as document keys.
func (s *Store) SelectKeys(ctx context.Context, query string) ([]core.Key, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var keys []core.Key
	for rows.Next() {
		scan := make([]any, len(cols))
		var key sql.NullString
		scan[0] = &key
		for i := 1; i < len(scan); i++ {
			scan[i] = new(any)
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		if key.Valid && key.String != "" {
			keys = append(keys, core.Key(key.String))
		}
	}
	return keys, rows.Err()
}

// FetchInputs gathers input column text for one document. Refs are grouped
// by table and fetched with one query each; a missing table, column, or
// row contributes empty text so a sparse corpus never aborts a run.
func (s *Store) FetchInputs(ctx context.Context, key core.Key, keyColumn string, refs []storage.ColumnRef) (map[string]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(refs))
	for _, ref := range refs {
		values[ref.Column] = ""
	}

	byTable := make(map[string][]storage.ColumnRef)
	tableOrder := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, seen := byTable[ref.Table]; !seen {
			tableOrder = append(tableOrder, ref.Table)
		}
		byTable[ref.Table] = append(byTable[ref.Table], ref)
	}

	for _, tableName := range tableOrder {
		tableRefs := byTable[tableName]
		exists, err := s.tableExists(ctx, tableName)
		if err != nil {
			return nil, err
		}
		if !exists {
			s.logger.Debug("input table missing", "table", tableName)
			continue
		}
		columns, err := s.tableColumns(ctx, tableName)
		if err != nil {
			return nil, err
		}
		if !columns[keyColumn] {
			s.logger.Debug("input table has no key column", "table", tableName, "key_column", keyColumn)
			continue
		}

		present := make([]storage.ColumnRef, 0, len(tableRefs))
		for _, ref := range tableRefs {
			if columns[ref.Column] {
				present = append(present, ref)
			}
		}
		if len(present) == 0 {
			continue
		}
		if err := s.fetchFromTable(ctx, key, keyColumn, present, values); err != nil {
			return nil, err
		}
	}
	return values, nil
}

func (s *Store) fetchFromTable(ctx context.Context, key core.Key, keyColumn string, refs []storage.ColumnRef, values map[string]string) error {
	table, err := quoteIdent(refs[0].Table)
	if err != nil {
		return err
	}
	keyCol, err := quoteIdent(keyColumn)
	if err != nil {
		return err
	}
	selected := make([]string, len(refs))
	for i, ref := range refs {
		quoted, err := quoteIdent(ref.Column)
		if err != nil {
			return err
		}
		selected[i] = quoted
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		strings.Join(selected, ", "), table, keyCol)
	row := s.db.QueryRowContext(ctx, query, string(key))

	scanned := make([]sql.NullString, len(refs))
	scan := make([]any, len(refs))
	for i := range scanned {
		scan[i] = &scanned[i]
	}
	if err := row.Scan(scan...); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}
	for i, ref := range refs {
		if !scanned[i].Valid {
			continue
		}
		values[ref.Column] = truncateRunes(scanned[i].String, ref.MaxRunes)
	}
	return nil
}

// truncateRunes limits text to max runes. Zero means unlimited.
func truncateRunes(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// Enriched reports whether a successful result already exists for the
// (document, model) pair. The audit trail answers first; the destination
// is a fallback for rows enriched before the trail existed.
func (s *Store) Enriched(ctx context.Context, target storage.Target, task string, key core.Key, model string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrichment_responses
		 WHERE doc_key = ? AND task_name = ? AND model_used = ? AND success = 1`,
		string(key), task, model).Scan(&n)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	switch target.Mode {
	case storage.ModeDirectColumn:
		return s.directEnriched(ctx, target, key)
	case storage.ModeSeparateTable:
		return s.sideTableEnriched(ctx, target, key, model)
	default:
		return false, nil
	}
}

func (s *Store) directEnriched(ctx context.Context, target storage.Target, key core.Key) (bool, error) {
	if len(target.Columns) == 0 {
		return false, nil
	}
	existing, err := s.tableColumns(ctx, target.Table)
	if err != nil {
		return false, err
	}
	table, err := quoteIdent(target.Table)
	if err != nil {
		return false, err
	}
	keyCol, err := quoteIdent(target.KeyColumn)
	if err != nil {
		return false, err
	}

	// Any non-null output column counts as enriched.
	conditions := make([]string, 0, len(target.Columns))
	for _, col := range target.Columns {
		if !existing[col.Name] {
			continue
		}
		quoted, err := quoteIdent(col.Name)
		if err != nil {
			return false, err
		}
		conditions = append(conditions, quoted+" IS NOT NULL")
	}
	if len(conditions) == 0 {
		return false, nil
	}

	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ? AND (%s)",
		table, keyCol, strings.Join(conditions, " OR "))
	if err := s.db.QueryRowContext(ctx, query, string(key)).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) sideTableEnriched(ctx context.Context, target storage.Target, key core.Key, model string) (bool, error) {
	exists, err := s.tableExists(ctx, target.Table)
	if err != nil || !exists {
		return false, err
	}
	table, err := quoteIdent(target.Table)
	if err != nil {
		return false, err
	}
	keyCol, err := quoteIdent(target.KeyColumn)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", table, keyCol)
	args := []any{string(key)}
	if target.MultiModel {
		query += " AND model_used = ?"
		args = append(args, model)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
