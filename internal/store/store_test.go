package store

import (
	"database/sql"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAt(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.db")
	s := openAt(t, path)

	require.FileExists(t, path)
	for _, table := range []string{"runs", "samples"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpen_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.db")

	first, err := Open(path)
	require.NoError(t, err)
	runID, err := first.BeginRun(t.Context(), "nightly")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open %d", i)
		runs, err := s.Runs(t.Context())
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, runID, runs[0].ID)
		require.NoError(t, s.Close())
	}
}

func TestOpen_MissingDirectory(t *testing.T) {
	_, err := Open("/nonexistent/dir/eval.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/dir/eval.db")
}

func TestClose(t *testing.T) {
	assert.NoError(t, (&Store{}).Close(), "zero Store")

	s, err := Open(filepath.Join(t.TempDir(), "eval.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NotPanics(t, func() { _ = s.Close() })
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.pragma, func(t *testing.T) {
			assert.NoError(t, s.verifyPragma(tt.pragma, tt.want))
		})
	}
}

func TestSchema_SamplesColumns(t *testing.T) {
	s := createTestStore(t)

	columns := tableColumns(t, s.db, "samples")
	for _, want := range []string{"run_id", "seq", "case_id", "outcome", "canonical", "fingerprint", "has_expected", "matched"} {
		assert.Contains(t, columns, want)
	}
}

func TestMigration_CurrentVersion(t *testing.T) {
	s := createTestStore(t)

	assert.Equal(t, currentSchemaVersion, userVersion(t, s.db))
	assert.True(t, slices.Contains(tableIndexes(t, s.db, "samples"), "idx_samples_fingerprint"))
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.db")

	// A journal written before the fingerprint index existed.
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 0")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s := openAt(t, path)
	assert.Equal(t, currentSchemaVersion, userVersion(t, s.db))
	assert.Contains(t, tableIndexes(t, s.db, "samples"), "idx_samples_fingerprint")
}

func userVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	return version
}

func tableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	require.NoError(t, err)
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		columns = append(columns, name)
	}
	require.NoError(t, rows.Err())
	return columns
}

func tableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	require.NoError(t, err)
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		indexes = append(indexes, name)
	}
	require.NoError(t, rows.Err())
	return indexes
}
