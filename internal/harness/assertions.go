package harness

import (
	"fmt"
	"math"
	"strings"
)

// ratioTolerance absorbs float rounding in hallucination_ratio.
const ratioTolerance = 1e-9

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []CaseTrace
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, c := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s %s\n", i+1, c.Name, c.State, c.Query)
	}
	return buf.String()
}

func checkAssertion(trace []CaseTrace, a Assertion) error {
	switch a.Type {
	case AssertStateCount:
		return assertStateCount(trace, a)
	case AssertErrorCount:
		return assertErrorCount(trace, a)
	case AssertHallucinationRatio:
		return assertHallucinationRatio(trace, a)
	case AssertSameTree:
		return assertSameTree(trace, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertStateCount checks how many cases ended in the given parser state.
func assertStateCount(trace []CaseTrace, a Assertion) error {
	count := 0
	for _, c := range trace {
		if c.State == a.State {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertStateCount,
			Expected: fmt.Sprintf("%d cases in state %s", a.Count, a.State),
			Actual:   fmt.Sprintf("%d cases", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertErrorCount checks how many cases stopped on the given error code.
func assertErrorCount(trace []CaseTrace, a Assertion) error {
	count := 0
	for _, c := range trace {
		if c.ErrorCode == a.Code {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertErrorCount,
			Expected: fmt.Sprintf("%d cases with error %s", a.Count, a.Code),
			Actual:   fmt.Sprintf("%d cases", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertHallucinationRatio pools calls across every parsed case. A trace
// without calls has ratio zero.
func assertHallucinationRatio(trace []CaseTrace, a Assertion) error {
	calls, hallucinated := 0, 0
	for _, c := range trace {
		calls += c.Calls
		hallucinated += c.Hallucinated
	}

	var ratio float64
	if calls > 0 {
		ratio = float64(hallucinated) / float64(calls)
	}
	if math.Abs(ratio-a.Ratio) > ratioTolerance {
		return &AssertionError{
			Type:     AssertHallucinationRatio,
			Expected: fmt.Sprintf("ratio %g", a.Ratio),
			Actual:   fmt.Sprintf("ratio %g (%d of %d calls)", ratio, hallucinated, calls),
			Trace:    trace,
		}
	}
	return nil
}

// assertSameTree checks that the named cases all parsed to one tree.
func assertSameTree(trace []CaseTrace, a Assertion) error {
	var first CaseTrace
	for i, name := range a.Cases {
		c, ok := findCase(trace, name)
		if !ok {
			return &AssertionError{
				Type:     AssertSameTree,
				Expected: fmt.Sprintf("case %s in trace", name),
				Actual:   "not found",
				Trace:    trace,
			}
		}
		if c.Fingerprint == "" {
			return &AssertionError{
				Type:     AssertSameTree,
				Expected: fmt.Sprintf("case %s to parse", name),
				Actual:   fmt.Sprintf("state %s", c.State),
				Trace:    trace,
			}
		}
		if i == 0 {
			first = c
			continue
		}
		if c.Fingerprint != first.Fingerprint {
			return &AssertionError{
				Type:     AssertSameTree,
				Expected: fmt.Sprintf("%s and %s to share a tree", first.Name, c.Name),
				Actual:   fmt.Sprintf("%s vs %s", first.Tree, c.Tree),
				Trace:    trace,
			}
		}
	}
	return nil
}

func findCase(trace []CaseTrace, name string) (CaseTrace, bool) {
	for _, c := range trace {
		if c.Name == name {
			return c, true
		}
	}
	return CaseTrace{}, false
}

func containsFinding(findings []string, sub string) bool {
	for _, f := range findings {
		if strings.Contains(f, sub) {
			return true
		}
	}
	return false
}
