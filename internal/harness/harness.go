package harness

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/iql/internal/ctxresolve"
	"github.com/roach88/iql/internal/ir"
	"github.com/roach88/iql/internal/logger"
	"github.com/roach88/iql/internal/parser"
	"github.com/roach88/iql/internal/queryir"
	"github.com/roach88/iql/internal/signature"
	"github.com/roach88/iql/internal/validate"
)

// Harness runs the cases of one scenario against a fixed registry, policy
// and context pool.
type Harness struct {
	registry *signature.Registry
	policy   validate.Policy
	pool     ctxresolve.Pool
	logger   *zap.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithRegistry uses reg instead of loading the scenario's signature file.
func WithRegistry(reg *signature.Registry) Option {
	return func(h *Harness) { h.registry = reg }
}

// WithLogger logs each case at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario and returns the result. An error means the
// scenario could not be set up; failed expectations are reported in the
// result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}

	if h.registry == nil {
		reg, err := signature.LoadFile(scenario.Signatures)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		h.registry = reg
	}

	policy, err := validate.ParsePolicy(scenario.Policy)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	h.policy = policy

	for _, c := range scenario.Context {
		h.pool = append(h.pool, ctxresolve.Context{Type: c.Type, Value: c.Value})
	}

	result := NewResult()
	for _, c := range scenario.Cases {
		trace := h.runCase(c)
		result.Trace = append(result.Trace, trace)
		if c.Expect != nil {
			for _, msg := range checkExpect(trace, *c.Expect) {
				result.AddError(fmt.Sprintf("case %s: %s", c.Name, msg))
			}
		}
	}

	for _, a := range scenario.Assertions {
		if err := checkAssertion(result.Trace, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

func (h *Harness) runCase(c Case) CaseTrace {
	trace := CaseTrace{Name: c.Name, Query: c.Query}

	p := parser.New(c.Query)
	tree, err := p.Parse()
	trace.State = p.State().String()
	if err != nil {
		trace.ErrorCode = string(queryir.CodeOf(err))
		trace.ErrorText = parseErrorText(err)
		h.log(trace)
		return trace
	}

	trace.Tree = tree.String()
	trace.Fingerprint, _ = queryir.Fingerprint(tree)

	report, enforceErr := validate.Check(tree, h.registry, h.policy)
	trace.Calls = report.Calls()
	trace.Hallucinated = report.HallucinatedCount()
	trace.Valid = report.Valid()
	for _, e := range report.Errors() {
		trace.Findings = append(trace.Findings, e.Error())
	}
	if enforceErr != nil {
		trace.ErrorCode = string(queryir.CodeOf(enforceErr))
		h.log(trace)
		return trace
	}

	resolveFrom := tree
	if trace.Valid {
		coerced, err := report.CoercedTree()
		if err == nil {
			trace.Coerced = coerced.String()
			resolveFrom = coerced
		}
	}

	if len(ctxresolve.Unresolved(resolveFrom)) > 0 {
		resolved, err := ctxresolve.Resolve(resolveFrom, h.registry, h.pool)
		if err != nil {
			trace.ErrorCode = string(queryir.CodeOf(err))
		} else {
			trace.Bindings = h.bindings(resolved)
		}
	}

	h.log(trace)
	return trace
}

// bindings renders every bound argument as operation.param=context:value.
func (h *Harness) bindings(t *queryir.Tree) []string {
	var out []string
	for _, call := range queryir.Calls(t) {
		sig, _ := h.registry.Lookup(call.Name)
		for i, arg := range call.Args {
			b, ok := arg.(ir.Bound)
			if !ok {
				continue
			}
			out = append(out, fmt.Sprintf("%s.%s=%s:%v", call.Name, sig.Params[i].Name, b.Context, b.Value))
		}
	}
	return out
}

func (h *Harness) log(trace CaseTrace) {
	h.logger.Debug("case evaluated",
		zap.String("case", trace.Name),
		zap.String(logger.FieldQuery, trace.Query),
		zap.String(logger.FieldState, trace.State),
		zap.String(logger.FieldErrorCode, trace.ErrorCode))
}

func parseErrorText(err error) string {
	var syntaxErr *queryir.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Text
	}
	var argErr *queryir.ArgumentParsingError
	if errors.As(err, &argErr) {
		return argErr.Text
	}
	return ""
}

func checkExpect(trace CaseTrace, want ExpectClause) []string {
	var msgs []string
	mismatch := func(field string, expected, actual any) {
		msgs = append(msgs, fmt.Sprintf("%s: expected %v, got %v", field, expected, actual))
	}

	if want.State != "" && want.State != trace.State {
		mismatch("state", want.State, trace.State)
	}
	if want.ErrorCode != "" && want.ErrorCode != trace.ErrorCode {
		mismatch("error_code", want.ErrorCode, trace.ErrorCode)
	}
	if want.ErrorText != "" && want.ErrorText != trace.ErrorText {
		mismatch("error_text", want.ErrorText, trace.ErrorText)
	}
	if want.Valid != nil && *want.Valid != trace.Valid {
		mismatch("valid", *want.Valid, trace.Valid)
	}
	if want.Hallucinated != nil && *want.Hallucinated != trace.Hallucinated {
		mismatch("hallucinated", *want.Hallucinated, trace.Hallucinated)
	}
	if want.Tree != "" {
		if msg := compareTree(want.Tree, trace.Tree); msg != "" {
			msgs = append(msgs, "tree: "+msg)
		}
	}
	if want.Coerced != "" {
		if msg := compareTree(want.Coerced, trace.Coerced); msg != "" {
			msgs = append(msgs, "coerced: "+msg)
		}
	}
	if want.Bindings != nil && !slices.Equal(want.Bindings, trace.Bindings) {
		mismatch("bindings", want.Bindings, trace.Bindings)
	}
	for _, sub := range want.Findings {
		if !containsFinding(trace.Findings, sub) {
			msgs = append(msgs, fmt.Sprintf("findings: no finding contains %q in %v", sub, trace.Findings))
		}
	}
	return msgs
}

// compareTree parses both renderings so spacing differences do not matter.
func compareTree(want, got string) string {
	if got == "" {
		return fmt.Sprintf("expected %s, got nothing", want)
	}
	wantTree, err := parser.Parse(want)
	if err != nil {
		return fmt.Sprintf("expected tree does not parse: %v", err)
	}
	gotTree, err := parser.Parse(got)
	if err != nil || !queryir.EqualTrees(wantTree, gotTree) {
		return fmt.Sprintf("expected %s, got %s", wantTree, got)
	}
	return ""
}
