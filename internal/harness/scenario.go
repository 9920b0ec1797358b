package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/iql/internal/validate"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Signatures is the declaration file (.yaml, .yml or .cue) the
	// registry is compiled from. LoadScenario resolves it relative to the
	// scenario file.
	Signatures string `yaml:"signatures"`

	// Policy is "strict" or "lenient". Defaults to lenient.
	Policy string `yaml:"policy,omitempty"`

	// Context is the pool placeholders resolve against, in order.
	Context []ContextEntry `yaml:"context,omitempty"`

	Cases []Case `yaml:"cases"`

	// Assertions validate the whole trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ContextEntry is one pool member.
type ContextEntry struct {
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

// Case is one query and its expected outcome.
type Case struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`

	// Expect is optional. Without it the case only contributes to the
	// trace and to assertions.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause lists the outcome fields a case must match. Unset fields
// are not checked.
type ExpectClause struct {
	// State is the parser's terminal state, e.g. VALID_TREE.
	State string `yaml:"state,omitempty"`

	// Tree is compared structurally with the parsed tree.
	Tree string `yaml:"tree,omitempty"`

	ErrorCode string `yaml:"error_code,omitempty"`
	ErrorText string `yaml:"error_text,omitempty"`

	Valid        *bool `yaml:"valid,omitempty"`
	Hallucinated *int  `yaml:"hallucinated,omitempty"`

	// Coerced is compared structurally with the coerced tree.
	Coerced string `yaml:"coerced,omitempty"`

	// Bindings must equal the trace bindings exactly.
	Bindings []string `yaml:"bindings,omitempty"`

	// Findings are substrings; each must occur in some finding.
	Findings []string `yaml:"findings,omitempty"`
}

// Assertion validates the trace as a whole.
type Assertion struct {
	// Type is one of state_count, error_count, hallucination_ratio or
	// same_tree.
	Type string `yaml:"type"`

	// State is the parser state (used by state_count).
	State string `yaml:"state,omitempty"`

	// Code is the error code (used by error_count).
	Code string `yaml:"code,omitempty"`

	// Count is the expected number of cases (used by state_count and
	// error_count).
	Count int `yaml:"count,omitempty"`

	// Ratio is the expected hallucination ratio.
	Ratio float64 `yaml:"ratio,omitempty"`

	// Cases names the cases that must share a tree (used by same_tree).
	Cases []string `yaml:"cases,omitempty"`
}

// Assertion type constants.
const (
	AssertStateCount         = "state_count"
	AssertErrorCount         = "error_count"
	AssertHallucinationRatio = "hallucination_ratio"
	AssertSameTree           = "same_tree"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if s.Signatures != "" && !filepath.IsAbs(s.Signatures) {
		s.Signatures = filepath.Join(filepath.Dir(path), s.Signatures)
	}
	return s, nil
}

// ParseScenario decodes scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Signatures == "" {
		return fmt.Errorf("signatures is required")
	}

	if _, err := validate.ParsePolicy(s.Policy); err != nil {
		return err
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("case %d: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("case %d: duplicate name %q", i, c.Name)
		}
		names[c.Name] = true
	}

	for i, ctx := range s.Context {
		if ctx.Type == "" {
			return fmt.Errorf("context %d: type is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, names); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion, names map[string]bool) error {
	switch a.Type {
	case AssertStateCount:
		if a.State == "" {
			return fmt.Errorf("state_count requires state")
		}
	case AssertErrorCount:
		if a.Code == "" {
			return fmt.Errorf("error_count requires code")
		}
	case AssertHallucinationRatio:
		if a.Ratio < 0 || a.Ratio > 1 {
			return fmt.Errorf("hallucination_ratio must be within [0, 1], got %v", a.Ratio)
		}
	case AssertSameTree:
		if len(a.Cases) < 2 {
			return fmt.Errorf("same_tree requires at least two cases")
		}
		for _, name := range a.Cases {
			if !names[name] {
				return fmt.Errorf("same_tree references unknown case %q", name)
			}
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
