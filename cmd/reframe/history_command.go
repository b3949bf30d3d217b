package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"reframe/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past conversion runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					fmt.Sprintf("%d", run.Total),
					fmt.Sprintf("%d", run.Succeeded),
					fmt.Sprintf("%d", run.Failed),
					fmt.Sprintf("%d", run.Cancelled),
					formatDuration(run.Duration),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Run", "Started", "Total", "OK", "Failed", "Cancelled", "Duration"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.AddCommand(newHistoryShowCommand(ctx))

	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the jobs of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runID, err := resolveRunID(cmd, store, args[0])
			if err != nil {
				return err
			}
			jobs, err := store.ListJobs(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				return fmt.Errorf("run %s not found", args[0])
			}

			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				rows = append(rows, []string{
					filepath.Base(job.SourcePath),
					string(job.Status),
					string(job.Quality),
					fmt.Sprintf("%.2f", job.Zoom),
					formatJobDuration(job.StartedAt, job.FinishedAt),
					job.Error,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Source", "Status", "Quality", "Zoom", "Duration", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

// resolveRunID accepts either a full run ID or the shortened prefix shown in
// the history listing.
func resolveRunID(cmd *cobra.Command, store *history.Store, candidate string) (string, error) {
	if len(candidate) >= 36 {
		return candidate, nil
	}
	runs, err := store.ListRuns(cmd.Context(), 0)
	if err != nil {
		return "", err
	}
	matched := ""
	for _, run := range runs {
		if len(run.ID) >= len(candidate) && run.ID[:len(candidate)] == candidate {
			if matched != "" {
				return "", fmt.Errorf("run prefix %q is ambiguous", candidate)
			}
			matched = run.ID
		}
	}
	if matched == "" {
		return "", fmt.Errorf("run %s not found", candidate)
	}
	return matched, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatJobDuration(started, finished time.Time) string {
	if started.IsZero() || finished.IsZero() {
		return "-"
	}
	return formatDuration(finished.Sub(started))
}
