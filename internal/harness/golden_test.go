package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_OmitsEmptyFields(t *testing.T) {
	trace := []CaseTrace{
		{Name: "a", Query: "f() >= 1", State: "SYNTAX_ERROR", ErrorCode: "SYNTAX_ERROR", ErrorText: "f() >= 1"},
		{Name: "b", Query: "f(1)", State: "VALID_TREE", Tree: "f(1)", Fingerprint: "abc", Calls: 1, Valid: true, Coerced: "f(1)"},
	}

	data, err := Snapshot("tiny", &Result{Trace: trace})
	require.NoError(t, err)
	assert.Equal(t,
		`{"cases":[`+
			`{"calls":0,"error_code":"SYNTAX_ERROR","error_text":"f() >= 1","hallucinated":0,"name":"a","query":"f() >= 1","state":"SYNTAX_ERROR","valid":false},`+
			`{"calls":1,"coerced":"f(1)","hallucinated":0,"name":"b","query":"f(1)","state":"VALID_TREE","tree":"f(1)","valid":true}`+
			`],"scenario_name":"tiny"}`,
		string(data))
	assert.NotContains(t, string(data), "fingerprint")
}

func TestAssertGolden_Tiny(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, CaseTrace{
		Name:     "only",
		Query:    "f(<x>)",
		State:    "VALID_TREE",
		Tree:     "f('<x>')",
		Findings: []string{`hallucinated operation "f" at leaf 0`},
		Bindings: []string{"g.p=user:alice"},
		Calls:    1,
	})

	// Run with -update to regenerate:
	//   go test ./internal/harness -run TestAssertGolden_Tiny -update
	require.NoError(t, AssertGolden(t, "tiny_snapshot", result))
}
