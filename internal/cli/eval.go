package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/iql/internal/eval"
	"github.com/roach88/iql/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Signatures string
	Dataset    string
	DBPath     string
	Name       string
	Metrics    bool // include Prometheus counter values
	Samples    bool // include one line per sample
}

// Ratios are the headline evaluation numbers.
type Ratios struct {
	Valid                float64 `json:"valid"`
	SyntaxError          float64 `json:"syntax_error"`
	ArgumentParsingError float64 `json:"argument_parsing_error"`
	Hallucination        float64 `json:"hallucination"`
	Accuracy             float64 `json:"accuracy"`
}

// SampleLine is one scored sample.
type SampleLine struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome"`
	Code    string `json:"code,omitempty"`
	Tree    string `json:"tree,omitempty"`
	Matched *bool  `json:"matched,omitempty"`
}

// EvalReport is the output of iql eval.
type EvalReport struct {
	RunID   string             `json:"run_id"`
	Dataset string             `json:"dataset"`
	Journal string             `json:"journal,omitempty"`
	Summary eval.Summary       `json:"summary"`
	Ratios  Ratios             `json:"ratios"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Samples []SampleLine       `json:"samples,omitempty"`
}

func (r EvalReport) renderText(w io.Writer) {
	s := r.Summary
	fmt.Fprintf(w, "run %s (%s)\n", r.RunID, r.Dataset)
	if r.Journal != "" {
		fmt.Fprintf(w, "journal: %s\n", r.Journal)
	}
	fmt.Fprintf(w, "samples: %d  valid: %d  invalid: %d  syntax errors: %d  argument parsing errors: %d\n",
		s.Samples, s.Valid, s.Invalid, s.SyntaxErrors, s.ArgumentParsingErrors)
	fmt.Fprintf(w, "calls: %d  hallucinated: %d  invalid arguments: %d\n",
		s.Calls, s.Hallucinated, s.InvalidArguments)
	fmt.Fprintf(w, "valid ratio:         %.3f\n", r.Ratios.Valid)
	fmt.Fprintf(w, "syntax error ratio:  %.3f\n", r.Ratios.SyntaxError)
	fmt.Fprintf(w, "arg parse ratio:     %.3f\n", r.Ratios.ArgumentParsingError)
	fmt.Fprintf(w, "hallucination ratio: %.3f\n", r.Ratios.Hallucination)
	if s.WithExpected > 0 {
		fmt.Fprintf(w, "accuracy:            %.3f (%d/%d)\n", r.Ratios.Accuracy, s.Matched, s.WithExpected)
	}
	for _, line := range r.Samples {
		fmt.Fprintf(w, "  %-12s %-22s %s\n", line.ID, line.Outcome, line.Code)
	}
	if len(r.Metrics) > 0 {
		keys := make([]string, 0, len(r.Metrics))
		for k := range r.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s %g\n", k, r.Metrics[k])
		}
	}
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score a dataset of model-produced queries",
		Long: `Parse and validate every query of a dataset in lenient mode and report
syntax error, argument parsing error, hallucination and valid ratios.

When --db (or store.path in iql.yaml) is set, every sample is journaled
to SQLite under a new run ID; see iql runs.

Examples:
  iql eval --signatures people.yaml --dataset samples.yaml
  iql eval -s people.yaml -d samples.yaml --db eval.db --name nightly
  iql eval -s people.yaml -d samples.yaml --metrics --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Signatures, "signatures", "s", "", "signature file (.yaml, .yml or .cue)")
	cmd.Flags().StringVarP(&opts.Dataset, "dataset", "d", "", "dataset file (required)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "journal database path")
	cmd.Flags().StringVar(&opts.Name, "name", "", "run name (default dataset name)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "include Prometheus counter values")
	cmd.Flags().BoolVar(&opts.Samples, "samples", false, "list every sample")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func runEval(opts *EvalOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	cfg, err := opts.Config()
	if err != nil {
		return formatter.fail(ErrCodeConfig, "load config", err)
	}
	log, err := opts.Logger()
	if err != nil {
		return formatter.fail(ErrCodeConfig, "build logger", err)
	}

	path, err := signaturePath(opts.Signatures, cfg)
	if err != nil {
		return formatter.fail(ErrCodeConfig, "signatures", err)
	}
	reg, code, err := loadRegistry(path)
	if err != nil {
		return formatter.fail(code, "load signatures", err)
	}
	ds, err := eval.LoadDataset(opts.Dataset)
	if err != nil {
		return formatter.fail(ErrCodeLoadFailed, "load dataset", err)
	}
	formatter.VerboseLog("Loaded %d signature(s) and %d case(s)", reg.Len(), len(ds.Cases))

	promReg := prometheus.NewRegistry()
	metrics, err := eval.NewMetrics(promReg)
	if err != nil {
		return formatter.fail(ErrCodeGeneric, "register metrics", err)
	}
	evaluator := &eval.Evaluator{Registry: reg, Logger: log, Metrics: metrics}

	report := EvalReport{Dataset: ds.Name}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = cfg.Store.Path
	}
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return formatter.fail(ErrCodeStore, "open journal", err)
		}
		defer st.Close()

		name := opts.Name
		if name == "" {
			name = ds.Name
		}
		if report.RunID, err = st.BeginRun(ctx, name); err != nil {
			return formatter.fail(ErrCodeStore, "begin run", err)
		}
		evaluator.Recorder = st
		report.Journal = dbPath
	} else {
		report.RunID = uuid.NewString()
	}

	summary, results, err := evaluator.Run(ctx, report.RunID, ds)
	if err != nil {
		return formatter.fail(ErrCodeStore, "evaluate", err)
	}

	report.Summary = summary
	report.Ratios = Ratios{
		Valid:                summary.ValidRatio(),
		SyntaxError:          summary.SyntaxErrorRatio(),
		ArgumentParsingError: summary.ArgumentParsingErrorRatio(),
		Hallucination:        summary.HallucinationRatio(),
		Accuracy:             summary.Accuracy(),
	}
	if opts.Samples {
		report.Samples = sampleLines(results)
	}
	if opts.Metrics {
		if report.Metrics, err = gatherCounters(promReg); err != nil {
			return formatter.fail(ErrCodeGeneric, "gather metrics", err)
		}
	}
	return formatter.Success(report)
}

func sampleLines(results []eval.Result) []SampleLine {
	lines := make([]SampleLine, len(results))
	for i, r := range results {
		lines[i] = SampleLine{ID: r.Case.ID, Outcome: string(r.Outcome), Code: string(r.Code), Tree: r.Canonical}
		if r.HasExpected {
			matched := r.Matched
			lines[i].Matched = &matched
		}
	}
	return lines
}

// gatherCounters flattens counter families to name{label="value"} keys.
func gatherCounters(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				parts := make([]string, len(labels))
				for i, l := range labels {
					parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
				}
				key += "{" + strings.Join(parts, ",") + "}"
			}
			out[key] = m.GetCounter().GetValue()
		}
	}
	return out, nil
}
