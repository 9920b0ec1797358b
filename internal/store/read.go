package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/roach88/iql/internal/eval"
	"github.com/roach88/iql/internal/queryir"
)

// Run is a journaled evaluation run.
type Run struct {
	ID        string
	Name      string
	StartedAt time.Time
}

// TreeCount is a distinct parsed tree and how many samples produced it.
type TreeCount struct {
	Fingerprint string `json:"fingerprint"`
	Canonical   string `json:"canonical"`
	Count       int    `json:"count"`
}

// Runs lists every run in insertion order.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, started_at
		FROM runs
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run     Run
			started string
		)
		if err := rows.Scan(&run.ID, &run.Name, &started); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, errors.Wrapf(err, "parse start time of run %s", run.ID)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate runs")
	}
	return runs, nil
}

// Samples returns the results of a run ordered by seq. Returns an empty
// slice (not nil) for a run without samples.
func (s *Store) Samples(ctx context.Context, runID string) ([]eval.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT case_id, question, query, expected, outcome, error_code, error,
		       calls, hallucinated, invalid_arguments, canonical, fingerprint, has_expected, matched
		FROM samples
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "query samples")
	}
	defer rows.Close()

	results := []eval.Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate samples")
	}
	return results, nil
}

func scanResult(rows *sql.Rows) (eval.Result, error) {
	var (
		r       eval.Result
		outcome string
		code    string
	)
	err := rows.Scan(
		&r.Case.ID,
		&r.Case.Question,
		&r.Case.Query,
		&r.Case.Expected,
		&outcome,
		&code,
		&r.Error,
		&r.Calls,
		&r.Hallucinated,
		&r.InvalidArguments,
		&r.Canonical,
		&r.Fingerprint,
		&r.HasExpected,
		&r.Matched,
	)
	if err != nil {
		return eval.Result{}, errors.Wrap(err, "scan sample")
	}
	r.Outcome = eval.Outcome(outcome)
	r.Code = queryir.ErrorCode(code)
	return r, nil
}

// Summary aggregates a run's samples. An unknown run yields the zero
// Summary.
func (s *Store) Summary(ctx context.Context, runID string) (eval.Summary, error) {
	var sum eval.Summary
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(outcome = ?), 0),
			COALESCE(SUM(outcome = ?), 0),
			COALESCE(SUM(outcome = ?), 0),
			COALESCE(SUM(outcome = ?), 0),
			COALESCE(SUM(calls), 0),
			COALESCE(SUM(hallucinated), 0),
			COALESCE(SUM(invalid_arguments), 0),
			COALESCE(SUM(has_expected), 0),
			COALESCE(SUM(has_expected AND matched), 0)
		FROM samples
		WHERE run_id = ?
	`,
		string(eval.OutcomeValid),
		string(eval.OutcomeInvalid),
		string(eval.OutcomeSyntaxError),
		string(eval.OutcomeArgumentParsingError),
		runID,
	).Scan(
		&sum.Samples,
		&sum.Valid,
		&sum.Invalid,
		&sum.SyntaxErrors,
		&sum.ArgumentParsingErrors,
		&sum.Calls,
		&sum.Hallucinated,
		&sum.InvalidArguments,
		&sum.WithExpected,
		&sum.Matched,
	)
	if err != nil {
		return eval.Summary{}, errors.Wrapf(err, "summarize run %s", runID)
	}
	return sum, nil
}

// DistinctTrees groups a run's parsed samples by tree fingerprint, most
// frequent first. Samples that failed to parse are skipped.
func (s *Store) DistinctTrees(ctx context.Context, runID string) ([]TreeCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, MIN(canonical), COUNT(*) AS n
		FROM samples
		WHERE run_id = ? AND fingerprint != ''
		GROUP BY fingerprint
		ORDER BY n DESC, fingerprint COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "query distinct trees")
	}
	defer rows.Close()

	trees := []TreeCount{}
	for rows.Next() {
		var tc TreeCount
		if err := rows.Scan(&tc.Fingerprint, &tc.Canonical, &tc.Count); err != nil {
			return nil, errors.Wrap(err, "scan distinct tree")
		}
		trees = append(trees, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate distinct trees")
	}
	return trees, nil
}
