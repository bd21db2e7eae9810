package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ss7kit/job"
)

// errStepsFailed makes the process exit non-zero without repeating the report.
var errStepsFailed = errors.New("job had failed steps")

var jsonReport bool

var runCmd = &cobra.Command{
	Use:   "run <job>",
	Short: "Run a job file once",
	Long: `Runs every step of a job file against a fresh engine and saves the project.

Example:
  ss7run run jobs/building.yaml
  ss7run run jobs/building.toml --json > report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&jsonReport, "json", false, "Print the report as JSON")
	RootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	j, err := job.Load(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report, err := runJob(ctx, cmd.OutOrStdout(), engineOutput(cmd), j)
	if err != nil {
		return err
	}
	if report.Failed() > 0 {
		return errStepsFailed
	}
	return nil
}

// engineOutput is where engine error messages go. With --json they move to
// stderr so stdout stays a single JSON document.
func engineOutput(cmd *cobra.Command) io.Writer {
	if jsonReport {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

// runJob runs j once and prints its report to out. Engine messages go to
// engineOut.
func runJob(ctx context.Context, out, engineOut io.Writer, j *job.Job) (*job.Report, error) {
	report, err := job.Run(ctx, newEngine(cfg.Engine), j, job.WithOutput(engineOut))
	if report != nil {
		if perr := printReport(out, report); perr != nil && err == nil {
			err = perr
		}
	}
	return report, err
}

func printReport(w io.Writer, r *job.Report) error {
	if jsonReport {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	if !r.Opened() {
		fmt.Fprintf(w, "input not opened: %s\n", r.Input)
	}
	for _, s := range r.Steps {
		fmt.Fprintf(w, "%3d  %-7s  %s\n", s.Index, s.Status, s.Label)
	}
	fmt.Fprintf(w, "run %s: %d steps, %d failed, %d skipped in %s\n",
		r.RunID, len(r.Steps), r.Failed(), r.Skipped(), r.Duration.Round(time.Millisecond))
	return nil
}
