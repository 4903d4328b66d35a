package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/gatekit/internal/harness"
	"github.com/roach88/gatekit/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Filter   string // scenario file filter (glob pattern)
	Database string // check log; defaults to the configured db
}

// ScenarioResult holds the result of a single scenario.
type ScenarioResult struct {
	Name   string   `json:"name"`
	RunID  string   `json:"run_id,omitempty"`
	Pass   bool     `json:"pass"`
	Checks int      `json:"checks"`
	Errors []string `json:"errors,omitempty"`
}

// CheckResult holds the overall result of a check run.
type CheckResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check [scenarios-dir]",
		Short: "Run scenario checks",
		Long: `Run the checks declared in YAML scenario files.

Every scenario in the directory is loaded and validated against the
scenario schema, its programs are built, and each check is evaluated.
Results are recorded in the check log of the configured database.
Without an argument the configured scenarios directory is used.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed
  2 - Command error (invalid paths, bad scenario, etc.)

Examples:
  gatekit check ./scenarios
  gatekit check ./scenarios --filter "crz*"
  gatekit check ./scenarios --db ./gatekit.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runCheck(cmd, opts, dir)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenario files by glob pattern")
	cmd.Flags().StringVar(&opts.Database, "db", "", "database for the check log (default from config)")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions, dir string) error {
	cfg, logger, err := opts.settings(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.Scenarios
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	scenarios, err := harness.LoadScenarios(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}
	if len(scenarios) == 0 {
		if opts.Format == "json" {
			return outputCheck(cmd, opts, CheckResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	h := harness.New(
		harness.WithStore(st),
		harness.WithCompareOptions(cfg.CompareOptions()...),
		harness.WithLogger(logger),
	)

	result := CheckResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarios)),
		Total:     len(scenarios),
	}
	for _, s := range scenarios {
		sr := runScenario(cmd, opts, h, s)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	return outputCheck(cmd, opts, result)
}

// runScenario runs one scenario and prints its line in text mode.
func runScenario(cmd *cobra.Command, opts *CheckOptions, h *harness.Harness, s *harness.Scenario) ScenarioResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	result, err := h.Run(cmd.Context(), s)
	if err != nil {
		if text {
			fmt.Fprintf(w, "✗ %s\n", s.Name)
			fmt.Fprintf(w, "  Build error: %v\n", err)
		}
		return ScenarioResult{
			Name:   s.Name,
			Pass:   false,
			Errors: []string{fmt.Sprintf("build failed: %v", err)},
		}
	}

	sr := ScenarioResult{
		Name:   s.Name,
		RunID:  result.RunID,
		Pass:   result.Pass,
		Checks: len(result.Trace),
		Errors: result.Errors,
	}
	if !text {
		return sr
	}
	if sr.Pass {
		fmt.Fprintf(w, "✓ %s (%d checks)\n", s.Name, sr.Checks)
		return sr
	}
	fmt.Fprintf(w, "✗ %s (%d of %d checks failed)\n", s.Name, len(result.Failed()), sr.Checks)
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return sr
}

func outputCheck(cmd *cobra.Command, opts *CheckOptions, result CheckResult) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))

	if opts.Format == "json" {
		f := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: CodeCheckFailed, Message: failure.Message}
		}
		if err := f.encode(resp); err != nil {
			return err
		}
		if result.Failed > 0 {
			return failure
		}
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Check Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return failure
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
