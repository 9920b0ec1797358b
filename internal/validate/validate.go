package validate

import (
	"fmt"
	"strings"

	"github.com/roach88/iql/internal/queryir"
	"github.com/roach88/iql/internal/signature"
)

// Policy selects which findings Enforce turns into errors.
type Policy struct {
	FailOnHallucination   bool
	FailOnInvalidArgument bool
}

var (
	// Strict escalates every finding.
	Strict = Policy{FailOnHallucination: true, FailOnInvalidArgument: true}

	// Lenient escalates nothing. Evaluation runs use it to measure rather
	// than reject.
	Lenient = Policy{}
)

// ParsePolicy maps "strict" or "lenient" to its preset.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "strict":
		return Strict, nil
	case "lenient", "":
		return Lenient, nil
	default:
		return Policy{}, fmt.Errorf("unknown policy %q (want strict or lenient)", name)
	}
}

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return fmt.Sprintf("Policy{FailOnHallucination:%t FailOnInvalidArgument:%t}",
			p.FailOnHallucination, p.FailOnInvalidArgument)
	}
}

// Validate checks every call leaf of t against reg. The tree is not
// modified and the call may be repeated any number of times.
func Validate(t *queryir.Tree, reg *signature.Registry) *Report {
	calls := queryir.Calls(t)
	report := &Report{Tree: t, Leaves: make([]LeafReport, len(calls))}
	for i, call := range calls {
		report.Leaves[i] = validateCall(i, call, reg)
	}
	return report
}

// Check validates t and enforces p. The report is returned even when the
// policy fails.
func Check(t *queryir.Tree, reg *signature.Registry, p Policy) (*Report, error) {
	report := Validate(t, reg)
	return report, report.Enforce(p)
}

func validateCall(index int, call *queryir.Call, reg *signature.Registry) LeafReport {
	leaf := LeafReport{Index: index, Call: call}

	sig, ok := reg.Lookup(call.Name)
	if !ok {
		leaf.Hallucinated = true
		return leaf
	}
	leaf.Signature = &sig

	if len(call.Args) != sig.Arity() {
		leaf.ArityErr = queryir.NewArityError(call.Name, index, sig.Arity(), len(call.Args))
	}

	leaf.Args = make([]ArgResult, len(call.Args))
	for i, arg := range call.Args {
		if i >= len(sig.Params) {
			leaf.Args[i] = ArgResult{Reason: "unexpected argument", Coerced: arg}
			continue
		}
		param := sig.Params[i]
		res := Coerce(arg, param.Type)
		res.Param = param.Name
		leaf.Args[i] = res
	}
	return leaf
}
