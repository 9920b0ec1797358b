// Package eval scores model-produced IQL against a signature registry.
//
// Evaluation is lenient: a syntax error or a hallucinated call is a
// measurement, not a failure. Run only returns an error when the context is
// cancelled or the Recorder fails.
package eval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/iql/internal/logger"
	"github.com/roach88/iql/internal/parser"
	"github.com/roach88/iql/internal/queryir"
	"github.com/roach88/iql/internal/signature"
	"github.com/roach88/iql/internal/validate"
)

// Outcome classifies a sample.
type Outcome string

const (
	// OutcomeValid: parsed, every call registered and correctly typed.
	OutcomeValid Outcome = "valid"

	// OutcomeInvalid: parsed, with hallucinated calls or argument errors.
	OutcomeInvalid Outcome = "invalid"

	OutcomeSyntaxError          Outcome = "syntax_error"
	OutcomeArgumentParsingError Outcome = "argument_parsing_error"
)

// Result is the score of one case.
type Result struct {
	Case    Case
	Outcome Outcome

	// Code and Error describe the parse failure or the first finding.
	Code  queryir.ErrorCode
	Error string

	Calls            int
	Hallucinated     int
	InvalidArguments int

	// Canonical and Fingerprint are set when Query parsed.
	Canonical   string
	Fingerprint string

	HasExpected bool
	Matched     bool
}

// Recorder journals results. store.Store implements it.
type Recorder interface {
	RecordSample(ctx context.Context, runID string, seq int, r Result) error
}

// Evaluator scores cases against Registry. Logger, Metrics and Recorder
// are optional.
type Evaluator struct {
	Registry *signature.Registry
	Logger   *zap.Logger
	Metrics  *Metrics
	Recorder Recorder
}

// Evaluate scores a single case.
func (e *Evaluator) Evaluate(c Case) Result {
	r := Result{Case: c, HasExpected: c.Expected != ""}

	tree, err := parser.Parse(c.Query)
	if err != nil {
		r.Code = queryir.CodeOf(err)
		r.Error = err.Error()
		if queryir.IsArgumentParsingError(err) {
			r.Outcome = OutcomeArgumentParsingError
		} else {
			r.Outcome = OutcomeSyntaxError
		}
		return r
	}

	report := validate.Validate(tree, e.Registry)
	r.Calls = report.Calls()
	r.Hallucinated = report.HallucinatedCount()
	r.InvalidArguments = report.InvalidCount()
	r.Canonical = tree.String()
	r.Fingerprint = e.fingerprint(c, tree)

	r.Outcome = OutcomeValid
	if errs := report.Errors(); len(errs) > 0 {
		r.Outcome = OutcomeInvalid
		r.Code = queryir.CodeOf(errs[0])
		r.Error = errs[0].Error()
	}

	if r.HasExpected {
		if want, err := parser.Parse(c.Expected); err == nil {
			r.Matched = queryir.EqualTrees(tree, want)
		} else {
			logger.OrNop(e.Logger).Warn("reference query does not parse",
				zap.String(logger.FieldSample, c.ID),
				zap.String(logger.FieldQuery, c.Expected),
				zap.Error(err))
		}
	}
	return r
}

// fingerprint hashes tree, logging and returning "" when the tree carries
// a value canonical JSON cannot encode.
func (e *Evaluator) fingerprint(c Case, tree *queryir.Tree) string {
	fp, err := queryir.Fingerprint(tree)
	if err != nil {
		logger.OrNop(e.Logger).Warn("tree fingerprint failed",
			zap.String(logger.FieldSample, c.ID),
			zap.String(logger.FieldQuery, c.Query),
			zap.Error(err))
		return ""
	}
	return fp
}

// Run scores every case of ds in order, recording each under runID.
func (e *Evaluator) Run(ctx context.Context, runID string, ds *Dataset) (Summary, []Result, error) {
	log := logger.OrNop(e.Logger).With(
		zap.String(logger.FieldRunID, runID),
		zap.String(logger.FieldDataset, ds.Name))
	start := time.Now()

	var summary Summary
	results := make([]Result, 0, len(ds.Cases))
	for i, c := range ds.Cases {
		if err := ctx.Err(); err != nil {
			return summary, results, err
		}

		r := e.Evaluate(c)
		e.Metrics.Observe(r)
		summary.Add(r)
		results = append(results, r)

		log.Debug("sample evaluated",
			zap.String(logger.FieldSample, c.ID),
			zap.String(logger.FieldQuery, c.Query),
			zap.String("outcome", string(r.Outcome)),
			zap.String(logger.FieldErrorCode, string(r.Code)),
			zap.String(logger.FieldFingerprint, r.Fingerprint))

		if e.Recorder != nil {
			if err := e.Recorder.RecordSample(ctx, runID, i, r); err != nil {
				return summary, results, err
			}
		}
	}

	log.Info("evaluation complete",
		zap.Int(logger.FieldCount, summary.Samples),
		zap.Float64("valid_ratio", summary.ValidRatio()),
		zap.Float64("hallucination_ratio", summary.HallucinationRatio()),
		zap.Int64(logger.FieldDurationMS, time.Since(start).Milliseconds()))
	return summary, results, nil
}
