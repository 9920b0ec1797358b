package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/roach88/iql/internal/eval"
)

// BeginRun creates a run and returns its ID.
func (s *Store) BeginRun(ctx context.Context, name string) (string, error) {
	id := s.newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, name, started_at)
		VALUES (?, ?, ?)
	`, id, name, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", errors.Wrapf(err, "begin run %s", name)
	}
	return id, nil
}

// RecordSample stores one result at position seq of a run.
// Uses ON CONFLICT DO NOTHING for idempotency - rewriting a seq is silently
// ignored. The run must exist (foreign key constraint).
func (s *Store) RecordSample(ctx context.Context, runID string, seq int, r eval.Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO samples
		(run_id, seq, case_id, question, query, expected, outcome, error_code, error,
		 calls, hallucinated, invalid_arguments, canonical, fingerprint, has_expected, matched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		runID,
		seq,
		r.Case.ID,
		r.Case.Question,
		r.Case.Query,
		r.Case.Expected,
		string(r.Outcome),
		string(r.Code),
		r.Error,
		r.Calls,
		r.Hallucinated,
		r.InvalidArguments,
		r.Canonical,
		r.Fingerprint,
		r.HasExpected,
		r.Matched,
	)
	if err != nil {
		return errors.Wrapf(err, "record sample %d of run %s", seq, runID)
	}
	return nil
}
