package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/iql/internal/ctxresolve"
	"github.com/roach88/iql/internal/ir"
	"github.com/roach88/iql/internal/logger"
	"github.com/roach88/iql/internal/parser"
	"github.com/roach88/iql/internal/queryir"
	"github.com/roach88/iql/internal/signature"
	"github.com/roach88/iql/internal/validate"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Signatures string
	Strict     bool
	Context    []string // type=value pool entries, in order
}

// Finding is one validation finding.
type Finding struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CheckResult is the output of iql check.
type CheckResult struct {
	Query        string    `json:"query"`
	Tree         string    `json:"tree"`
	Policy       string    `json:"policy"`
	Valid        bool      `json:"valid"`
	Calls        int       `json:"calls"`
	Hallucinated int       `json:"hallucinated"`
	Findings     []Finding `json:"findings,omitempty"`
	Coerced      string    `json:"coerced,omitempty"`
	Bindings     []string  `json:"bindings,omitempty"`
}

func (r CheckResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "tree:    %s\n", r.Tree)
	fmt.Fprintf(w, "policy:  %s\n", r.Policy)
	fmt.Fprintf(w, "calls:   %d (%d hallucinated)\n", r.Calls, r.Hallucinated)
	if r.Valid {
		fmt.Fprintln(w, "✓ valid")
	} else {
		fmt.Fprintf(w, "✗ %d finding(s)\n", len(r.Findings))
	}
	for _, f := range r.Findings {
		fmt.Fprintf(w, "  [%s] %s\n", f.Code, f.Message)
	}
	if r.Coerced != "" {
		fmt.Fprintf(w, "coerced: %s\n", r.Coerced)
	}
	for _, b := range r.Bindings {
		fmt.Fprintf(w, "bound:   %s\n", b)
	}
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <query>",
		Short: "Validate a query against operation signatures",
		Long: `Parse a query, validate every call against the signature file and,
when the query is valid, print the coerced tree. Placeholders such as
current_user() are bound from --context entries.

Findings only fail the command under the strict policy (--strict, or
policy: strict in iql.yaml).

Exit codes:
  0 - Query accepted
  1 - Query rejected (parse error, escalated finding, unresolved context)
  2 - Command error (missing signature file, bad flag)

Examples:
  iql check --signatures people.yaml "filter_by_age(10.0)"
  iql check --signatures people.yaml --strict "filter_by_height(2)"
  iql check --signatures people.yaml --context current_user=alice "filter_by_owner(current_user())"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Signatures, "signatures", "s", "", "signature file (.yaml, .yml or .cue)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "escalate every finding")
	cmd.Flags().StringArrayVar(&opts.Context, "context", nil, "context pool entry type=value (repeatable)")

	return cmd
}

func runCheck(opts *CheckOptions, query string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg, err := opts.Config()
	if err != nil {
		return formatter.fail(ErrCodeConfig, "load config", err)
	}
	log, err := opts.Logger()
	if err != nil {
		return formatter.fail(ErrCodeConfig, "build logger", err)
	}

	policy, err := checkPolicy(opts.Strict, cfg)
	if err != nil {
		return formatter.fail(ErrCodeConfig, "policy", err)
	}
	pool, err := parsePool(opts.Context)
	if err != nil {
		return formatter.fail(ErrCodeConfig, "context", err)
	}
	path, err := signaturePath(opts.Signatures, cfg)
	if err != nil {
		return formatter.fail(ErrCodeConfig, "signatures", err)
	}
	reg, code, err := loadRegistry(path)
	if err != nil {
		return formatter.fail(code, "load signatures", err)
	}
	formatter.VerboseLog("Loaded %d signature(s) from %s", reg.Len(), path)

	p := parser.New(query)
	tree, err := p.Parse()
	if err != nil {
		return reportParseError(formatter, log, p, err)
	}

	report, enforceErr := validate.Check(tree, reg, policy)
	result := CheckResult{
		Query:        query,
		Tree:         tree.String(),
		Policy:       policy.String(),
		Valid:        report.Valid(),
		Calls:        report.Calls(),
		Hallucinated: report.HallucinatedCount(),
	}
	for _, e := range report.Errors() {
		result.Findings = append(result.Findings, Finding{Code: string(queryir.CodeOf(e)), Message: e.Error()})
	}

	log.Debug("query checked",
		zap.String(logger.FieldQuery, query),
		zap.Stringer("policy", policy),
		zap.Bool("valid", result.Valid),
		zap.Int(logger.FieldCount, len(result.Findings)))

	if enforceErr != nil {
		return rejectQuery(formatter, result, enforceErr)
	}

	resolveFrom := tree
	if result.Valid {
		coerced, err := report.CoercedTree()
		if err != nil {
			return formatter.fail(ErrCodeGeneric, "coerce", err)
		}
		result.Coerced = coerced.String()
		resolveFrom = coerced
	}

	// Hallucinated calls have no parameters to bind; under a policy that
	// tolerates them they stay reported findings, not a rejection.
	if result.Hallucinated == 0 && len(ctxresolve.Unresolved(resolveFrom)) > 0 {
		resolved, err := ctxresolve.Resolve(resolveFrom, reg, pool)
		if err != nil {
			return rejectQuery(formatter, result, err)
		}
		result.Bindings = bindings(resolved, reg)
	}
	return formatter.Success(result)
}

// rejectQuery prints the partial result with the first error and returns
// exit code 1.
func rejectQuery(formatter *OutputFormatter, result CheckResult, err error) error {
	code := string(queryir.CodeOf(err))
	message := err.Error()
	if first, _, ok := strings.Cut(message, "\n"); ok {
		message = first
	}
	_ = formatter.Failure(code, message, result)
	return WrapExitError(ExitFailure, "query rejected", err)
}

func checkPolicy(strict bool, cfg *Config) (validate.Policy, error) {
	if strict {
		return validate.Strict, nil
	}
	return validate.ParsePolicy(cfg.Policy)
}

// parsePool turns type=value flags into a context pool. Values stay strings.
func parsePool(entries []string) (ctxresolve.Pool, error) {
	pool := make(ctxresolve.Pool, 0, len(entries))
	for _, e := range entries {
		typ, value, ok := strings.Cut(e, "=")
		if !ok || typ == "" {
			return nil, fmt.Errorf("context entry %q: want type=value", e)
		}
		pool = append(pool, ctxresolve.Context{Type: typ, Value: value})
	}
	return pool, nil
}

// bindings renders each bound argument as operation.param=context:value.
func bindings(t *queryir.Tree, reg *signature.Registry) []string {
	var out []string
	for _, call := range queryir.Calls(t) {
		sig, _ := reg.Lookup(call.Name)
		for i, arg := range call.Args {
			if b, ok := arg.(ir.Bound); ok {
				out = append(out, fmt.Sprintf("%s.%s=%s:%v", call.Name, sig.Params[i].Name, b.Context, b.Value))
			}
		}
	}
	return out
}
