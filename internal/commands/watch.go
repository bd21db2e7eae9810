package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ss7kit/job"
	"github.com/randalmurphal/ss7kit/session"
	"github.com/randalmurphal/ss7kit/watch"
)

var (
	watchDebounce time.Duration
	watchPoll     bool
	watchInitial  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <job>",
	Short: "Re-run a job whenever it or its input CSV changes",
	Long: `Watches the job file and, for CSV inputs, the input file. Each change
re-runs the job with a fresh engine. Runs never overlap.

Project (.ikn) inputs are not watched since every run saves them.

Example:
  ss7run watch jobs/building.yaml --debounce 1s`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before a re-run")
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "Poll modification times instead of using file notifications")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", true, "Run once before waiting for changes")
	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	jobPath := args[0]
	j, err := job.Load(jobPath)
	if err != nil {
		return err
	}

	opts := []watch.Option{watch.WithDebounce(watchDebounce)}
	if watchPoll {
		opts = append(opts, watch.WithPolling())
	}
	w, err := watch.New(watchPaths(jobPath, j), opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out, engineOut := cmd.OutOrStdout(), engineOutput(cmd)
	rerun := func() {
		// Reload so edits to the job itself take effect.
		current, err := job.Load(jobPath)
		if err != nil {
			slog.Error("reload job", slog.Any("error", err))
			return
		}
		if _, err := runJob(ctx, out, engineOut, current); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("run job", slog.Any("error", err))
		}
	}

	if watchInitial {
		rerun()
	}
	slog.Info("watching", slog.Any("paths", w.Paths()))

	if err := w.Run(ctx, rerun); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchPaths returns the job file plus its input when the input is a CSV.
func watchPaths(jobPath string, j *job.Job) []string {
	paths := []string{jobPath}
	if strings.HasSuffix(j.Input, session.ExtCSV) {
		paths = append(paths, j.InputPath())
	}
	return paths
}
