package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/iql/internal/eval"
	"github.com/roach88/iql/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	DBPath string
}

// RunInfo is one journaled run with its aggregate.
type RunInfo struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	StartedAt time.Time    `json:"started_at"`
	Summary   eval.Summary `json:"summary"`
}

// RunList is the output of iql runs.
type RunList struct {
	Runs []RunInfo `json:"runs"`
}

func (l RunList) renderText(w io.Writer) {
	if len(l.Runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range l.Runs {
		fmt.Fprintf(w, "%s  %-20s %s  samples=%d valid=%d hallucinated=%d/%d\n",
			r.ID, r.Name, r.StartedAt.Format(time.RFC3339),
			r.Summary.Samples, r.Summary.Valid, r.Summary.Hallucinated, r.Summary.Calls)
	}
}

// RunDetail is the output of iql runs <run-id>.
type RunDetail struct {
	RunID   string            `json:"run_id"`
	Summary eval.Summary      `json:"summary"`
	Trees   []store.TreeCount `json:"trees"`
}

func (d RunDetail) renderText(w io.Writer) {
	s := d.Summary
	fmt.Fprintf(w, "run %s: %d samples, %d valid, %d syntax errors, %d argument parsing errors\n",
		d.RunID, s.Samples, s.Valid, s.SyntaxErrors, s.ArgumentParsingErrors)
	fmt.Fprintf(w, "%d distinct tree(s)\n", len(d.Trees))
	for _, t := range d.Trees {
		fmt.Fprintf(w, "  %4d  %s  %s\n", t.Count, t.Fingerprint[:12], t.Canonical)
	}
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Inspect journaled evaluation runs",
		Long: `List the runs recorded by iql eval --db, or show one run's summary and
the distinct trees its samples parsed to, most frequent first.

Examples:
  iql runs --db eval.db
  iql runs --db eval.db 6f1c...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runRuns(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "journal database path")

	return cmd
}

func runRuns(opts *RunsOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	cfg, err := opts.Config()
	if err != nil {
		return formatter.fail(ErrCodeConfig, "load config", err)
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = cfg.Store.Path
	}
	if dbPath == "" {
		return formatter.fail(ErrCodeConfig, "journal", fmt.Errorf("no database: pass --db or set store.path"))
	}
	// Opening would create an empty journal; a typo should not.
	if _, err := os.Stat(dbPath); err != nil {
		return formatter.fail(ErrCodeNotFound, "journal", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return formatter.fail(ErrCodeStore, "open journal", err)
	}
	defer st.Close()

	if runID == "" {
		runs, err := st.Runs(ctx)
		if err != nil {
			return formatter.fail(ErrCodeStore, "list runs", err)
		}
		list := RunList{Runs: make([]RunInfo, 0, len(runs))}
		for _, r := range runs {
			sum, err := st.Summary(ctx, r.ID)
			if err != nil {
				return formatter.fail(ErrCodeStore, "summarize run", err)
			}
			list.Runs = append(list.Runs, RunInfo{ID: r.ID, Name: r.Name, StartedAt: r.StartedAt, Summary: sum})
		}
		return formatter.Success(list)
	}

	sum, err := st.Summary(ctx, runID)
	if err != nil {
		return formatter.fail(ErrCodeStore, "summarize run", err)
	}
	if sum.Samples == 0 {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run %s has no samples", runID), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("run %s has no samples", runID))
	}
	trees, err := st.DistinctTrees(ctx, runID)
	if err != nil {
		return formatter.fail(ErrCodeStore, "distinct trees", err)
	}
	return formatter.Success(RunDetail{RunID: runID, Summary: sum, Trees: trees})
}
