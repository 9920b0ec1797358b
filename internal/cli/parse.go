package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/iql/internal/ctxresolve"
	"github.com/roach88/iql/internal/logger"
	"github.com/roach88/iql/internal/parser"
	"github.com/roach88/iql/internal/queryir"
)

// ParseResult is the output of iql parse.
type ParseResult struct {
	Query        string   `json:"query"`
	State        string   `json:"state"`
	Tree         string   `json:"tree"`
	Fingerprint  string   `json:"fingerprint"`
	Calls        []string `json:"calls"`
	Placeholders []string `json:"placeholders,omitempty"`
}

func (r ParseResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "tree:         %s\n", r.Tree)
	fmt.Fprintf(w, "fingerprint:  %s\n", r.Fingerprint)
	fmt.Fprintf(w, "calls:        %s\n", strings.Join(r.Calls, ", "))
	if len(r.Placeholders) > 0 {
		fmt.Fprintf(w, "placeholders: %s\n", strings.Join(r.Placeholders, ", "))
	}
}

// parseErrorDetails is the JSON detail of a parse failure.
type parseErrorDetails struct {
	State    string `json:"state"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query and print its canonical tree",
		Long: `Parse an IQL query without consulting any signatures.

Prints the canonical rendering, the tree fingerprint and the operations
called. A syntax or argument parsing error exits with code 1.

Examples:
  iql parse "filter_by_name('Cody') and filter_by_age(10)"
  iql parse --format json "not a() or b()"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
}

func runParse(opts *RootOptions, query string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	log, err := opts.Logger()
	if err != nil {
		return formatter.fail(ErrCodeConfig, "build logger", err)
	}

	p := parser.New(query)
	tree, err := p.Parse()
	if err != nil {
		return reportParseError(formatter, log, p, err)
	}

	result := ParseResult{
		Query:        query,
		State:        p.State().String(),
		Tree:         tree.String(),
		Calls:        callNames(tree),
		Placeholders: ctxresolve.Unresolved(tree),
	}
	if result.Fingerprint, err = queryir.Fingerprint(tree); err != nil {
		return formatter.fail(ErrCodeGeneric, "fingerprint", err)
	}

	log.Debug("query parsed",
		zap.String(logger.FieldQuery, query),
		zap.String(logger.FieldFingerprint, result.Fingerprint),
		zap.Int(logger.FieldCount, len(result.Calls)))
	return formatter.Success(result)
}

// reportParseError prints a parse failure and returns exit code 1.
func reportParseError(formatter *OutputFormatter, log *zap.Logger, p *parser.Parser, err error) error {
	code := queryir.CodeOf(err)
	details := parseErrorDetails{State: p.State().String()}
	var syntaxErr *queryir.SyntaxError
	var argErr *queryir.ArgumentParsingError
	switch {
	case errors.As(err, &syntaxErr):
		details.Text, details.Position = syntaxErr.Text, syntaxErr.Position
	case errors.As(err, &argErr):
		details.Text, details.Position = argErr.Text, argErr.Position
	}

	log.Debug("query rejected",
		zap.String(logger.FieldQuery, p.Source()),
		zap.String(logger.FieldState, details.State),
		zap.String(logger.FieldErrorCode, string(code)))

	_ = formatter.Error(string(code), err.Error(), details)
	return WrapExitError(ExitFailure, "parse failed", err)
}

func callNames(t *queryir.Tree) []string {
	calls := queryir.Calls(t)
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return names
}
