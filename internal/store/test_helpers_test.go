package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/iql/internal/testutil"
)

var testEpoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// createTestStore opens a store in a temp dir with sequential run IDs and
// a frozen clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithIDGenerator(testutil.NewSequentialIDs("run").Next),
		WithClock(testutil.NewStepClock(testEpoch, 0).Now),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
