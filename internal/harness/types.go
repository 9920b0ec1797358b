package harness

// CaseTrace records what the pipeline produced for one query.
type CaseTrace struct {
	Name  string `json:"name"`
	Query string `json:"query"`

	// State is the parser's terminal state.
	State string `json:"state"`

	// Tree is the canonical rendering of the parsed tree.
	Tree        string `json:"tree,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	// ErrorCode is the first error the pipeline stopped on: a parse error,
	// an escalated validation finding, or a resolution failure.
	ErrorCode string `json:"error_code,omitempty"`

	// ErrorText is the offending text of a parse error.
	ErrorText string `json:"error_text,omitempty"`

	// Findings lists every validation finding, escalated or not.
	Findings []string `json:"findings,omitempty"`

	Calls        int  `json:"calls"`
	Hallucinated int  `json:"hallucinated"`
	Valid        bool `json:"valid"`

	// Coerced is the tree after argument coercion, set when Valid.
	Coerced string `json:"coerced,omitempty"`

	// Bindings lists resolved placeholders as operation.param=context:value.
	Bindings []string `json:"bindings,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Trace []CaseTrace `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []CaseTrace{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Case returns the trace of the named case.
func (r *Result) Case(name string) (CaseTrace, bool) {
	return findCase(r.Trace, name)
}
