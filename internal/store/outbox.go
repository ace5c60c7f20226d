package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tabq/internal/ir"
)

// Entry is one pending outbox row.
type Entry struct {
	Dataset string // Source label, usually the data file path
	Edit    ir.Edit
}

// WriteEdits appends edits for dataset in a single transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - edits already in the
// outbox (acked or not) are silently skipped. Returns the number inserted.
func (s *Store) WriteEdits(ctx context.Context, dataset string, edits []ir.Edit) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write edits: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edits
		(id, seq, dataset, row_id, column_name, previous_kind, previous, new_kind, new)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("write edits: prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range edits {
		prevKind, prev := ir.EncodeValue(e.Previous)
		newKind, next := ir.EncodeValue(e.New)

		result, err := stmt.ExecContext(ctx,
			e.ID,
			e.Seq,
			dataset,
			e.RowID,
			e.Column,
			prevKind, prev,
			newKind, next,
		)
		if err != nil {
			return 0, fmt.Errorf("write edit %s: %w", e.ID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("write edit %s: rows affected: %w", e.ID, err)
		}
		inserted += int(n)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO outbox_meta (key, value)
		SELECT 'max_seq', COALESCE(MAX(seq), 0) FROM edits
		WHERE true
		ON CONFLICT(key) DO UPDATE SET value = MAX(value, excluded.value)
	`); err != nil {
		return 0, fmt.Errorf("write edits: update max seq: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write edits: commit: %w", err)
	}
	return inserted, nil
}

// PendingEdits returns the edits not yet acked, oldest first.
//
// Returns an empty slice (not nil) if nothing is pending.
func (s *Store) PendingEdits(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, dataset, row_id, column_name, previous_kind, previous, new_kind, new
		FROM edits
		WHERE acked = 0
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query pending edits: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending edits: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		entry          Entry
		prevKind, prev string
		newKind, next  string
	)
	err := rows.Scan(
		&entry.Edit.ID,
		&entry.Edit.Seq,
		&entry.Dataset,
		&entry.Edit.RowID,
		&entry.Edit.Column,
		&prevKind, &prev,
		&newKind, &next,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("scan edit: %w", err)
	}

	entry.Edit.Previous, err = ir.DecodeValue(prevKind, prev)
	if err != nil {
		return Entry{}, fmt.Errorf("edit %s previous: %w", entry.Edit.ID, err)
	}
	entry.Edit.New, err = ir.DecodeValue(newKind, next)
	if err != nil {
		return Entry{}, fmt.Errorf("edit %s new: %w", entry.Edit.ID, err)
	}
	return entry, nil
}

// Ack marks edits as applied upstream. Unknown ids are ignored.
// Returns the number of edits that moved out of the pending set.
func (s *Store) Ack(ctx context.Context, ids []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ack edits: begin tx: %w", err)
	}
	defer tx.Rollback()

	acked := 0
	for _, id := range ids {
		result, err := tx.ExecContext(ctx, `UPDATE edits SET acked = 1 WHERE id = ? AND acked = 0`, id)
		if err != nil {
			return 0, fmt.Errorf("ack edit %s: %w", id, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("ack edit %s: rows affected: %w", id, err)
		}
		acked += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ack edits: commit: %w", err)
	}
	return acked, nil
}

// Prune deletes acked edits and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM edits WHERE acked = 1`)
	if err != nil {
		return 0, fmt.Errorf("prune edits: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune edits: rows affected: %w", err)
	}
	return int(n), nil
}

// MaxSeq returns the highest sequence number ever written to the outbox,
// or 0 when nothing has been. Pruned edits still count, so a new tracker
// clock started here keeps sequence numbers increasing across processes.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT value FROM outbox_meta WHERE key = 'max_seq'), 0),
			COALESCE((SELECT MAX(seq) FROM edits), 0)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq, nil
}
