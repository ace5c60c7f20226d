package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/tabq/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEdit creates a number-column edit with the given identity.
func createTestEdit(id string, seq int64, rowID int, prev, next float64) ir.Edit {
	return ir.Edit{
		ID:       id,
		Seq:      seq,
		RowID:    rowID,
		Column:   "age",
		Previous: ir.Number(prev),
		New:      ir.Number(next),
	}
}
