package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-assistant/internal/api"
	"github.com/jonathan/apply-assistant/internal/pipeline"
	"github.com/jonathan/apply-assistant/internal/profile"
	"github.com/jonathan/apply-assistant/internal/runlock"
	"github.com/jonathan/apply-assistant/internal/session"
	"github.com/jonathan/apply-assistant/internal/types"
)

var applyCmd = &cobra.Command{
	Use:   "apply <job-url>",
	Short: "Score, analyze, fill and record one job application",
	Long: `Runs one application end to end: the resume is scored against the posting, the
application form is detected and previewed, the form is filled by the automation
backend and the result can be recorded in the application ledger.

A low score asks before continuing. Use --yes to accept every prompt.
--preview lists the planned inputs before asking to fill; --dry-run stops there
and fills nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: runApplyCmd,
}

var (
	applyYes    bool
	applyMode   string
	applySet    []string
	applyRecord bool
	applyStatus string
	applyPrev   bool
	applyDry    bool
)

func init() {
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "Answer yes to every prompt")
	applyCmd.Flags().StringVar(&applyMode, "mode", string(profile.ModeProfile), "Fill values from the stored profile or custom form data (profile|custom)")
	applyCmd.Flags().StringArrayVar(&applySet, "set", nil, "Custom value as Label=Value; repeatable, requires --mode custom")
	applyCmd.Flags().BoolVar(&applyRecord, "record", false, "Record the application in the ledger without asking")
	applyCmd.Flags().BoolVar(&applyPrev, "preview", false, "Show the planned inputs before asking to fill")
	applyCmd.Flags().BoolVar(&applyDry, "dry-run", false, "Preview the fill against a fresh form detection and stop without filling")
	applyCmd.Flags().StringVar(&applyStatus, "status", string(types.StatusPending), "Status to record the application with (pending|submitted|completed)")

	rootCmd.AddCommand(applyCmd)
}

// applyOptions are the user's choices for one run.
type applyOptions struct {
	URL       string
	Yes       bool
	Mode      profile.Mode
	Overrides map[string]string
	Record    bool
	Status    types.ApplicationStatus
	Preview   bool
	DryRun    bool
}

func runApplyCmd(cmd *cobra.Command, args []string) error {
	mode, err := profile.ParseMode(applyMode)
	if err != nil {
		return err
	}
	overrides, err := parseOverrides(applySet)
	if err != nil {
		return err
	}
	if len(overrides) > 0 && mode != profile.ModeCustom {
		return fmt.Errorf("--set requires --mode custom")
	}
	status := types.ApplicationStatus(applyStatus)
	if !status.Valid() {
		return fmt.Errorf("unknown status %q (expected pending, submitted or completed)", applyStatus)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := a.requireSession(ctx, session.RouteHome); err != nil {
		return err
	}

	lock, err := runlock.Acquire(a.cfg.DataDir)
	if err != nil {
		return err
	}
	defer lock.Release() //nolint:errcheck

	opts := pipeline.Options{
		Backend:  a.client,
		Values:   a.profiles,
		Recorder: a.ledger,
		Journal:  a.journal(ctx),
	}
	if a.cfg.Verbose {
		opts.OnProgress = progressWriter(a.errOut)
	}
	orch, err := pipeline.New(opts)
	if err != nil {
		return err
	}

	return runApply(ctx, a, orch, applyOptions{
		URL:       args[0],
		Yes:       applyYes,
		Mode:      mode,
		Overrides: overrides,
		Record:    applyRecord,
		Status:    status,
		Preview:   applyPrev,
		DryRun:    applyDry,
	})
}

// runApply drives the orchestrator through one run, asking the user at each decision point.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func runApply(ctx context.Context, a *app, orch *pipeline.Orchestrator, opts applyOptions) error {
	snap, err := orch.Submit(ctx, opts.URL)
	a.printer.PrintScore(snap.Score)
	var rejection *pipeline.BusinessRejection
	if errors.As(err, &rejection) {
		return errors.New(rejection.Message)
	}
	if err != nil {
		return describe(err)
	}

	if snap.State == pipeline.StateScoreShown {
		if !opts.Yes && !a.confirm("Low match score. Proceed anyway?") {
			if _, err := orch.Cancel(); err != nil {
				return describe(err)
			}
			fmt.Fprintln(a.out, "Cancelled.")
			return nil
		}
		if _, err := orch.Proceed(ctx); err != nil {
			return describe(err)
		}
	}

	// Previewing is shown once the fillability check has answered or given up.
	orch.WaitBackground()
	snap = orch.Snapshot()
	if snap.State != pipeline.StatePreviewing {
		return fmt.Errorf("run ended in state %s: %s", snap.State, snap.Message)
	}
	a.printer.PrintStructure(snap.Structure)
	a.printer.PrintFillability(fillabilityOf(snap))

	if err := checkCanFill(ctx, a, opts.Mode, snap.URL); err != nil {
		return err
	}
	if opts.DryRun {
		return dryRun(ctx, a, snap, opts)
	}
	if opts.Preview {
		previewFill(ctx, a, snap, opts)
	}
	if !opts.Yes && !a.confirm("Fill this form now?") {
		fmt.Fprintln(a.out, "Form not filled.")
		return nil
	}
	if snap, err = orch.Fill(ctx, opts.Mode, opts.Overrides); err != nil {
		return describe(err)
	}
	a.printer.PrintFillResult(snap.Result)

	if !opts.Record && (opts.Yes || !a.confirm("Record this application?")) {
		return nil
	}
	app, err := orch.RecordApplication(ctx, opts.Status)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "Recorded application %s (%s)\n", app.ID, app.Status)
	return nil
}

// checkCanFill refuses to offer a fill that cannot run, such as profile mode without a profile.
func checkCanFill(ctx context.Context, a *app, mode profile.Mode, formURL string) error {
	var prof *types.Profile
	if mode == profile.ModeProfile {
		var err error
		prof, err = a.profiles.Get(ctx)
		if err != nil && !errors.Is(err, profile.ErrNoProfile) {
			return errors.New(api.Message(err, "Failed to load profile"))
		}
	}
	if profile.CanFill(mode, prof, formURL) {
		return nil
	}
	if mode == profile.ModeProfile {
		return fmt.Errorf("cannot fill: %w (or use --mode custom)", profile.ErrNoProfile)
	}
	return errors.New("cannot fill: no form URL")
}

// previewFill shows the planned inputs. A failed preview only warns.
func previewFill(ctx context.Context, a *app, snap pipeline.Snapshot, opts applyOptions) {
	values, err := a.profiles.PreviewValues(ctx, opts.Mode, snap.Structure, opts.Overrides)
	if err != nil {
		a.log.Warnw("preview skipped", "error", err)
		return
	}
	preview, err := a.client.Preview(ctx, &types.PreviewRequest{URL: snap.URL, FormData: values})
	if err != nil {
		a.log.Warnw("preview failed", "error", api.Message(err, "Error generating preview"))
		return
	}
	a.printer.PrintPreview(preview)
}

// dryRun previews the fill against a fresh detection of the form and fills nothing.
func dryRun(ctx context.Context, a *app, snap pipeline.Snapshot, opts applyOptions) error {
	values, err := a.profiles.PreviewValues(ctx, opts.Mode, snap.Structure, opts.Overrides)
	if err != nil {
		return err
	}
	result, err := a.client.DryRun(ctx, &types.PreviewRequest{URL: snap.URL, FormData: values})
	if err != nil {
		return errors.New(api.Message(err, "Error performing dry run"))
	}
	if !result.Success {
		return fmt.Errorf("dry run failed: %s", result.Error)
	}
	a.printer.PrintPreview(result.Preview)
	_, _ = fmt.Fprintln(a.out, "Dry run: nothing was filled.")
	return nil
}

func fillabilityOf(snap pipeline.Snapshot) *types.FillabilityAssessment {
	if a, ok := snap.Fillability.Get(); ok {
		return &a
	}
	return nil
}

// describe turns a run error into the message shown to the user.
func describe(err error) error {
	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		if stepErr.Cause == nil {
			return errors.New(stepErr.Message)
		}
		return fmt.Errorf("%s: %s", stepErr.Message, api.Message(stepErr.Cause, stepErr.Message))
	}
	var valErr *pipeline.ValidationError
	if errors.As(err, &valErr) {
		return errors.New(valErr.Message)
	}
	return err
}

// parseOverrides parses Label=Value pairs. The label is everything before the first '='.
func parseOverrides(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		label, value, ok := strings.Cut(pair, "=")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, fmt.Errorf("invalid --set %q: expected Label=Value", pair)
		}
		out[label] = value
	}
	return out, nil
}
