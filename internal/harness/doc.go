// Package harness runs IQL conformance scenarios.
//
// A scenario names a signature file, a strictness policy and an optional
// context pool, then lists queries with the outcome each must produce. The
// harness pushes every query through the full pipeline (parse, validate,
// enforce, coerce, resolve), checks per-case expectations and run-level
// assertions, and can snapshot the trace to a golden file.
//
// # Scenario Format
//
//	name: people_basic
//	description: "Registered calls validate and coerce"
//	signatures: ../signatures/people.yaml
//	policy: strict
//	context:
//	  - type: current_user
//	    value: alice
//	cases:
//	  - name: name_and_age
//	    query: filter_by_name('Cody') and filter_by_age(10.0)
//	    expect:
//	      state: VALID_TREE
//	      coerced: filter_by_name('Cody') and filter_by_age(10)
//	  - name: comparison
//	    query: filter_by_age() >= 30
//	    expect:
//	      state: SYNTAX_ERROR
//	      error_text: filter_by_age() >= 30
//	assertions:
//	  - type: error_count
//	    code: SYNTAX_ERROR
//	    count: 1
//
// The signatures path is relative to the scenario file.
//
// # Assertion Types
//
//   - state_count: exactly Count cases end in parser state State
//   - error_count: exactly Count cases report error code Code
//   - hallucination_ratio: hallucinated calls over all calls equals Ratio
//   - same_tree: the named Cases parse to trees with one fingerprint
//
// Golden snapshots are canonical JSON, so they are byte-stable across runs.
package harness
