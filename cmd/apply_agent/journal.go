package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/apply-assistant/internal/db"
	stepreg "github.com/jonathan/apply-assistant/internal/pipeline/steps"
)

var (
	journalURL    string
	journalStatus string
	journalLimit  int
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the local run journal (requires --db-url or APPLY_DATABASE_URL)",
}

var journalMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the journal tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if a.cfg.DatabaseURL == "" {
			return errNoJournal
		}
		if err := db.Migrate(cmd.Context(), a.cfg.DatabaseURL); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, "Journal is up to date.")
		return nil
	},
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withJournal(cmd, func(ctx context.Context, database *db.DB, out io.Writer) error {
			if journalStatus != "" && !db.ValidRunStatus(journalStatus) {
				return fmt.Errorf("unknown run status %q", journalStatus)
			}
			runs, err := database.ListRunsFiltered(ctx, db.RunFilters{
				URLContains: journalURL,
				Status:      journalStatus,
				Limit:       journalLimit,
			})
			if err != nil {
				return err
			}
			return writeRuns(out, runs)
		})
	},
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the steps of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id: %w", err)
		}
		return withJournal(cmd, func(ctx context.Context, database *db.DB, out io.Writer) error {
			run, err := database.GetRun(ctx, runID)
			if err != nil {
				return err
			}
			if run == nil {
				return db.ErrRunNotFound
			}
			steps, err := database.ListRunSteps(ctx, runID, nil, nil)
			if err != nil {
				return err
			}
			if err := writeRuns(out, []db.Run{*run}); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out)
			if err := writeSteps(out, steps); err != nil {
				return err
			}
			return writeStepProgress(out, steps)
		})
	},
}

var journalDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run and its steps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id: %w", err)
		}
		return withJournal(cmd, func(ctx context.Context, database *db.DB, _ io.Writer) error {
			return database.DeleteRun(ctx, runID)
		})
	},
}

var errNoJournal = errors.New("no journal database configured; set --db-url or APPLY_DATABASE_URL")

func init() {
	journalRunsCmd.Flags().StringVar(&journalURL, "url", "", "Only runs whose job URL contains this text")
	journalRunsCmd.Flags().StringVar(&journalStatus, "status", "", "Only runs with this status")
	journalRunsCmd.Flags().IntVar(&journalLimit, "limit", 20, "Maximum number of runs")

	journalCmd.AddCommand(journalMigrateCmd, journalRunsCmd, journalShowCmd, journalDeleteCmd)
	rootCmd.AddCommand(journalCmd)
}

func withJournal(cmd *cobra.Command, fn func(ctx context.Context, database *db.DB, out io.Writer) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.DatabaseURL == "" {
		return errNoJournal
	}
	database, err := db.Connect(cmd.Context(), a.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	return fn(cmd.Context(), database, a.out)
}

func writeRuns(out io.Writer, runs []db.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTATUS\tSTARTED\tURL")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Status, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.JobURL)
	}
	return tw.Flush()
}

func writeSteps(out io.Writer, steps []db.RunStep) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STEP\tCATEGORY\tSTATUS\tDURATION\tERROR")
	for _, s := range steps {
		duration := "-"
		if s.DurationMs != nil {
			duration = fmt.Sprintf("%dms", *s.DurationMs)
		}
		errMsg := ""
		if s.ErrorMessage != nil {
			errMsg = *s.ErrorMessage
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Step, s.Category, s.Status, duration, errMsg)
	}
	return tw.Flush()
}

// writeStepProgress lists the steps that could run next and those still waiting on others.
func writeStepProgress(out io.Writer, recorded []db.RunStep) error {
	completed := map[string]bool{}
	for _, s := range recorded {
		if s.Status == db.StepStatusCompleted {
			completed[s.Step] = true
		}
	}
	done := func(step string) bool { return completed[step] }

	_, err := fmt.Fprintf(out, "\nNext:     %s\nBlocked:  %s\n",
		joinOrNone(stepreg.AvailableSteps(done)), joinOrNone(stepreg.BlockedSteps(done)))
	return err
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
