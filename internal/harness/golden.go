package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/iql/internal/ir"
)

// snapshot converts a trace to the map form canonical JSON accepts.
// Fingerprints are left out; same_tree assertions cover them and the
// golden files stay readable.
func snapshot(scenarioName string, trace []CaseTrace) map[string]any {
	cases := make([]any, len(trace))
	for i, c := range trace {
		m := map[string]any{
			"name":         c.Name,
			"query":        c.Query,
			"state":        c.State,
			"calls":        c.Calls,
			"hallucinated": c.Hallucinated,
			"valid":        c.Valid,
		}
		if c.Tree != "" {
			m["tree"] = c.Tree
		}
		if c.ErrorCode != "" {
			m["error_code"] = c.ErrorCode
		}
		if c.ErrorText != "" {
			m["error_text"] = c.ErrorText
		}
		if c.Coerced != "" {
			m["coerced"] = c.Coerced
		}
		if len(c.Findings) > 0 {
			m["findings"] = stringList(c.Findings)
		}
		if len(c.Bindings) > 0 {
			m["bindings"] = stringList(c.Bindings)
		}
		cases[i] = m
	}
	return map[string]any{
		"scenario_name": scenarioName,
		"cases":         cases,
	}
}

// Snapshot renders a result as the canonical JSON stored in golden files.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(snapshot(scenarioName, result.Trace))
}

func stringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the named golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
