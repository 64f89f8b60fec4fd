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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/storage"
)

// Persist records one attempt: the audit row unconditionally, the
// destination write only for a successful attempt whose payload has at
// least one non-null value. Both run in one transaction so the trail never
// claims a write that did not land.
func (s *Store) Persist(ctx context.Context, target storage.Target, attempt storage.Attempt) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	promptID, err := s.upsertPrompt(ctx, tx, attempt.Prompt)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}

	success := 0
	if attempt.Success {
		success = 1
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO enrichment_responses
		 (enrichment_id, doc_key, task_name, model_used, prompt_id, raw_response, success)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		attempt.EnrichmentID, string(attempt.Key), attempt.Task, attempt.Model,
		promptID, attempt.RawResponse, success)
	if err != nil {
		return fmt.Errorf("%w: audit insert: %w", storage.ErrTransactionFailed, err)
	}

	if attempt.Success && !allNull(attempt.Values) {
		switch target.Mode {
		case storage.ModeDirectColumn:
			err = s.writeDirect(ctx, tx, target, attempt)
		case storage.ModeSeparateTable:
			err = s.writeSideTable(ctx, tx, target, attempt)
		default:
			err = fmt.Errorf("unknown storage mode %v", target.Mode)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return nil
}

// upsertPrompt stores prompt text deduplicated by content hash and returns
// its row id.
func (s *Store) upsertPrompt(ctx context.Context, tx *sql.Tx, prompt string) (int64, error) {
	hash := core.HashText(prompt)
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO prompts (hash, text) VALUES (?, ?)`, hash, prompt); err != nil {
		return 0, err
	}
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM prompts WHERE hash = ?`, hash).Scan(&id)
	return id, err
}

// writeDirect updates output columns on the source row. Append mode only
// fills rows whose output columns are all still null, so a result written
// by an earlier run survives.
func (s *Store) writeDirect(ctx context.Context, tx *sql.Tx, target storage.Target, attempt storage.Attempt) error {
	table, err := quoteIdent(target.Table)
	if err != nil {
		return err
	}
	keyCol, err := quoteIdent(target.KeyColumn)
	if err != nil {
		return err
	}

	assignments := make([]string, 0, len(target.Columns))
	guards := make([]string, 0, len(target.Columns))
	args := make([]any, 0, len(target.Columns)+1)
	for _, col := range target.Columns {
		quoted, err := quoteIdent(col.Name)
		if err != nil {
			return err
		}
		assignments = append(assignments, quoted+" = ?")
		guards = append(guards, quoted+" IS NULL")
		args = append(args, sqlValue(attempt.Values[col.Name]))
	}
	args = append(args, string(attempt.Key))

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		table, strings.Join(assignments, ", "), keyCol)
	if target.WriteMode == storage.WriteAppend {
		query += " AND (" + strings.Join(guards, " AND ") + ")"
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// writeSideTable upserts the side table row for (key, model). Overwrite
// replaces the existing row's values; append leaves them alone.
func (s *Store) writeSideTable(ctx context.Context, tx *sql.Tx, target storage.Target, attempt storage.Attempt) error {
	table, err := quoteIdent(target.Table)
	if err != nil {
		return err
	}
	keyCol, err := quoteIdent(target.KeyColumn)
	if err != nil {
		return err
	}

	names := []string{keyCol, "enrichment_id", "model_used"}
	args := []any{string(attempt.Key), attempt.EnrichmentID, attempt.Model}
	for _, col := range target.Columns {
		quoted, err := quoteIdent(col.Name)
		if err != nil {
			return err
		}
		names = append(names, quoted)
		args = append(args, sqlValue(attempt.Values[col.Name]))
	}

	conflict := keyCol
	if target.MultiModel {
		conflict = keyCol + ", model_used"
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	var query string
	if target.WriteMode == storage.WriteOverwrite {
		updates := make([]string, 0, len(names))
		for _, name := range names[1:] {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", name, name))
		}
		updates = append(updates, "updated_at = datetime('now')")
		query = fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
			table, strings.Join(names, ", "), placeholders, conflict, strings.Join(updates, ", "))
	} else {
		query = fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO NOTHING",
			table, strings.Join(names, ", "), placeholders, conflict)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// sqlValue maps a validated field value onto a driver-storable value.
// Lists and objects are stored as JSON text.
func sqlValue(v any) any {
	switch value := v.(type) {
	case nil:
		return nil
	case string, int64, float64, bool:
		return value
	case []string, []any, map[string]any:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// allNull reports whether a payload has no value worth writing. Empty and
// whitespace-only strings count as null.
func allNull(values map[string]any) bool {
	for _, v := range values {
		switch value := v.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(value) != "" {
				return false
			}
		case []string:
			if len(value) > 0 {
				return false
			}
		case []any:
			if len(value) > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// History returns audit trail entries, newest first.
func (s *Store) History(ctx context.Context, filter storage.HistoryFilter) ([]storage.AuditEntry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query := `SELECT r.id, r.enrichment_id, r.doc_key, r.task_name, r.model_used,
		COALESCE(p.text, ''), COALESCE(r.raw_response, ''), r.success, r.created_at
		FROM enrichment_responses r
		LEFT JOIN prompts p ON p.id = r.prompt_id`
	var (
		conditions []string
		args       []any
	)
	if filter.Key != "" {
		conditions = append(conditions, "r.doc_key = ?")
		args = append(args, string(filter.Key))
	}
	if filter.Task != "" {
		conditions = append(conditions, "r.task_name = ?")
		args = append(args, filter.Task)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []storage.AuditEntry
	for rows.Next() {
		var (
			entry     storage.AuditEntry
			key       string
			success   int
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.EnrichmentID, &key, &entry.Task,
			&entry.Model, &entry.Prompt, &entry.RawResponse, &success, &createdAt); err != nil {
			return nil, err
		}
		entry.Key = core.Key(key)
		entry.Success = success == 1
		entry.CreatedAt = parseTimestamp(createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// parseTimestamp parses the datetime('now') text format. A zero time is
// returned for anything unparseable rather than failing the whole query.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
