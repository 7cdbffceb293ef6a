// Package pipeline drives one job application from URL submission through
// scoring, form analysis and preview to a user-triggered fill.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/apply-assistant/internal/api"
	"github.com/jonathan/apply-assistant/internal/db"
	"github.com/jonathan/apply-assistant/internal/forms"
	"github.com/jonathan/apply-assistant/internal/pipeline/steps"
	"github.com/jonathan/apply-assistant/internal/profile"
	"github.com/jonathan/apply-assistant/internal/types"
)

// User-facing messages
const (
	msgNoResume       = "Please upload your resume first to check ATS score."
	msgScoreFailed    = "Error checking ATS score"
	msgAnalyzeFailed  = "Error analyzing form"
	msgFillFailed     = "Error filling form"
	msgRecordFailed   = "Failed to save application"
	msgProceedLowFit  = "Low match score. Proceed anyway or cancel."
	msgNoProfile      = "Please create a profile first"
	msgFallbackScored = "Could not score the resume. Proceeding with form analysis."
)

// Backend is the set of collaborator calls a run makes.
type Backend interface {
	ATSScore(ctx context.Context, jobURL string) (*types.AtsScore, error)
	Analyze(ctx context.Context, formURL string) (json.RawMessage, error)
	CheckFillable(ctx context.Context, formURL string) (*types.FillabilityAssessment, error)
	Fill(ctx context.Context, req *types.FillRequest) (*types.FillResult, error)
}

// ValueResolver decides the values sent with a fill. *profile.Provider implements it.
type ValueResolver interface {
	Resolve(ctx context.Context, mode profile.Mode, fs types.FormStructure, overrides map[string]string) (*profile.FillPayload, error)
}

// Recorder writes fill outcomes to the application ledger. *ledger.Sync implements it.
type Recorder interface {
	Create(ctx context.Context, req *types.CreateApplicationRequest) (*types.Application, error)
	UpdateStatus(ctx context.Context, id string, status types.ApplicationStatus) ([]types.Application, error)
}

// Options configures an Orchestrator. Backend is required.
type Options struct {
	Backend    Backend
	Values     ValueResolver
	Recorder   Recorder
	Journal    Journal
	OnProgress ProgressCallback
}

// Orchestrator owns the workflow state of one session. All methods are safe
// for concurrent use; collaborator calls are made without holding the lock.
type Orchestrator struct {
	backend    Backend
	values     ValueResolver
	recorder   Recorder
	journal    Journal
	onProgress ProgressCallback
	log        *zap.SugaredLogger

	mu       sync.Mutex
	state    Snapshot
	done     map[string]bool
	formData map[string]string
	bgCtx    context.Context
	bgCancel context.CancelFunc

	bg errgroup.Group
}

// New creates an Orchestrator in the idle state.
func New(opts Options) (*Orchestrator, error) {
	if opts.Backend == nil {
		return nil, errors.New("pipeline: backend is required")
	}
	return &Orchestrator{
		backend:    opts.Backend,
		values:     opts.Values,
		recorder:   opts.Recorder,
		journal:    opts.Journal,
		onProgress: opts.OnProgress,
		log:        zap.S().Named("pipeline"),
		state:      Snapshot{State: StateIdle},
		done:       map[string]bool{},
	}, nil
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// WaitBackground blocks until outstanding best-effort calls have been applied.
func (o *Orchestrator) WaitBackground() {
	_ = o.bg.Wait()
}

// update applies fn to the state of run gen and returns the resulting copy.
// It reports false without calling fn when gen is no longer current.
func (o *Orchestrator) update(gen uint64, fn func(s *Snapshot)) (Snapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Generation != gen {
		return o.state.clone(), false
	}
	fn(&o.state)
	return o.state.clone(), true
}

func (o *Orchestrator) completed(step string) bool {
	return o.done[step]
}

// resetLocked moves to a fresh generation. Best-effort calls of the old
// generation are cancelled. Caller holds o.mu.
func (o *Orchestrator) resetLocked(next Snapshot) {
	if o.bgCancel != nil {
		o.bgCancel()
		o.bgCancel = nil
	}
	next.Generation = o.state.Generation + 1
	o.state = next
	o.done = map[string]bool{}
	o.formData = nil
}

// Submit starts a run for jobURL: it scores the resume against the posting and,
// depending on the recommendation, continues to form analysis.
func (o *Orchestrator) Submit(ctx context.Context, jobURL string) (Snapshot, error) {
	jobURL = strings.TrimSpace(jobURL)
	if jobURL == "" {
		return o.Snapshot(), &ValidationError{Field: "url", Message: "Please enter a job URL"}
	}

	o.mu.Lock()
	if o.state.Loading {
		o.mu.Unlock()
		return o.Snapshot(), ErrRunInFlight
	}
	o.resetLocked(Snapshot{
		State:   StateScoringInFlight,
		RunID:   uuid.New(),
		URL:     jobURL,
		Loading: true,
	})
	o.bgCtx, o.bgCancel = context.WithCancel(context.WithoutCancel(ctx))
	snap := o.state.clone()
	o.mu.Unlock()

	gen, runID := snap.Generation, snap.RunID
	platform := forms.DetectPlatform(jobURL)
	o.log.Infow("run started", "run_id", runID, "url", jobURL, "platform", platform)
	o.journalRun(ctx, runID, jobURL)
	o.journalStep(ctx, runID, db.StepATSScore, db.StepStatusInProgress, "", map[string]any{
		"job_url":  jobURL,
		"platform": string(platform),
	})
	o.emitProgress(snap, db.StepATSScore, "Checking ATS score", nil)

	score, err := o.backend.ATSScore(ctx, jobURL)
	if err != nil {
		return o.scoreFailed(ctx, gen, runID, err)
	}

	o.journalStep(ctx, runID, db.StepATSScore, db.StepStatusCompleted, "", map[string]any{
		"score":          score.Score,
		"recommendation": string(score.Recommendation),
	})

	switch rec := score.Recommendation; {
	case rec == types.RecommendationNoResume:
		snap, ok := o.update(gen, func(s *Snapshot) {
			o.done[db.StepATSScore] = true
			s.State = StateScoreBlocked
			s.Score = score
			s.Loading = false
			s.Message = msgNoResume
		})
		if !ok {
			return snap, ErrStaleRun
		}
		o.journalComplete(ctx, runID, db.RunStatusBlocked)
		o.emitProgress(snap, db.StepATSScore, msgNoResume, score)
		return snap, &BusinessRejection{Reason: string(rec), Message: msgNoResume}

	case rec.NeedsConfirmation():
		snap, ok := o.update(gen, func(s *Snapshot) {
			o.done[db.StepATSScore] = true
			s.State = StateScoreShown
			s.Score = score
			s.Loading = false
			s.Message = msgProceedLowFit
		})
		if !ok {
			return snap, ErrStaleRun
		}
		o.emitProgress(snap, db.StepATSScore, fmt.Sprintf("ATS score %d (%s)", score.ClampedScore(), rec), score)
		return snap, nil

	case rec.Acceptable():
		snap, ok := o.update(gen, func(s *Snapshot) {
			o.done[db.StepATSScore] = true
			s.State = StateAutoAnalyzing
			s.Score = score
		})
		if !ok {
			return snap, ErrStaleRun
		}
		o.emitProgress(snap, db.StepATSScore, fmt.Sprintf("ATS score %d (%s)", score.ClampedScore(), rec), score)
		return o.analyze(ctx, gen, StateIdle)

	default:
		// unknown means no job text could be scored; analysis still runs.
		snap, ok := o.update(gen, func(s *Snapshot) {
			s.Score = score
		})
		if !ok {
			return snap, ErrStaleRun
		}
		o.log.Warnw("score carried no usable recommendation, proceeding", "run_id", runID, "recommendation", rec)
		o.emitProgress(snap, db.StepATSScore, msgFallbackScored, score)
		return o.analyze(ctx, gen, StateIdle)
	}
}

// scoreFailed applies a failed scoring call. Scoring is fail-open except when
// the session is no longer authorized or the caller gave up.
func (o *Orchestrator) scoreFailed(ctx context.Context, gen uint64, runID uuid.UUID, err error) (Snapshot, error) {
	msg := api.Message(err, msgScoreFailed)
	o.journalStep(ctx, runID, db.StepATSScore, db.StepStatusFailed, msg, nil)

	if errors.Is(err, api.ErrUnauthorized) || ctx.Err() != nil {
		snap, ok := o.update(gen, func(s *Snapshot) {
			s.State = StateIdle
			s.Loading = false
			s.Message = msg
		})
		if !ok {
			return snap, ErrStaleRun
		}
		o.journalComplete(ctx, runID, db.RunStatusCancelled)
		o.emitProgress(snap, db.StepATSScore, msg, nil)
		return snap, &StepError{Step: db.StepATSScore, Message: msg, Cause: err}
	}

	o.log.Warnw("scoring failed, proceeding with form analysis", "run_id", runID, "error", err)
	snap, ok := o.update(gen, func(s *Snapshot) {})
	if !ok {
		return snap, ErrStaleRun
	}
	o.emitProgress(snap, db.StepATSScore, msgFallbackScored, nil)
	return o.analyze(ctx, gen, StateIdle)
}

// Proceed continues a run whose score was shown for confirmation.
func (o *Orchestrator) Proceed(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	if o.state.Loading {
		o.mu.Unlock()
		return o.Snapshot(), ErrRunInFlight
	}
	if o.state.State != StateScoreShown {
		o.mu.Unlock()
		return o.Snapshot(), ErrNotAwaitingDecision
	}
	if err := steps.ValidateDependencies(o.completed, db.StepAnalyzeForm); err != nil {
		o.mu.Unlock()
		return o.Snapshot(), err
	}
	// Claim the run before unlocking; a concurrent Proceed then sees Loading.
	o.state.State = StateAnalyzingInFlight
	o.state.Loading = true
	gen := o.state.Generation
	o.mu.Unlock()

	return o.analyze(ctx, gen, StateScoreShown)
}

// Cancel abandons a run whose score was shown or blocked. The score is cleared.
func (o *Orchestrator) Cancel() (Snapshot, error) {
	o.mu.Lock()
	prev := o.state
	if prev.State != StateScoreShown && prev.State != StateScoreBlocked {
		o.mu.Unlock()
		return o.Snapshot(), ErrNotAwaitingDecision
	}
	o.resetLocked(Snapshot{State: StateIdle})
	snap := o.state.clone()
	o.mu.Unlock()

	if prev.State == StateScoreShown {
		o.journalComplete(context.Background(), prev.RunID, db.RunStatusCancelled)
	}
	o.emitProgress(snap, db.StepATSScore, "Cancelled", nil)
	return snap, nil
}

// Reset discards the current run, for example when the user navigates away.
// Responses still in flight for it are ignored when they arrive.
func (o *Orchestrator) Reset() Snapshot {
	o.mu.Lock()
	prev := o.state
	o.resetLocked(Snapshot{State: StateIdle})
	snap := o.state.clone()
	o.mu.Unlock()

	if prev.RunID != uuid.Nil && (prev.Loading || prev.State == StateScoreShown || prev.State == StatePreviewing) {
		o.journalComplete(context.Background(), prev.RunID, db.RunStatusCancelled)
	}
	return snap
}

// analyze calls the analysis collaborator for the current run and moves to
// Previewing. On failure the state falls back to fallback.
func (o *Orchestrator) analyze(ctx context.Context, gen uint64, fallback State) (Snapshot, error) {
	var depErr error
	snap, ok := o.update(gen, func(s *Snapshot) {
		if depErr = steps.ValidateDependencies(o.completed, db.StepAnalyzeForm); depErr != nil {
			return
		}
		s.State = StateAnalyzingInFlight
		s.Loading = true
		s.Message = ""
	})
	if !ok {
		return snap, ErrStaleRun
	}
	if depErr != nil {
		return snap, depErr
	}

	runID, formURL := snap.RunID, snap.URL
	o.journalStep(ctx, runID, db.StepAnalyzeForm, db.StepStatusInProgress, "", nil)
	o.emitProgress(snap, db.StepAnalyzeForm, "Analyzing form", nil)

	raw, err := o.backend.Analyze(ctx, formURL)
	var fs types.FormStructure
	if err == nil {
		fs, err = forms.Decode(raw)
	}
	if err != nil {
		msg := api.Message(err, msgAnalyzeFailed)
		snap, ok := o.update(gen, func(s *Snapshot) {
			s.State = fallback
			s.Loading = false
			s.Message = msg
			if fallback == StateIdle {
				s.Score = nil
			}
		})
		if !ok {
			return snap, ErrStaleRun
		}
		o.journalStep(ctx, runID, db.StepAnalyzeForm, db.StepStatusFailed, msg, nil)
		if fallback == StateIdle {
			o.journalComplete(ctx, runID, db.RunStatusFailed)
		}
		o.emitProgress(snap, db.StepAnalyzeForm, msg, nil)
		return snap, &StepError{Step: db.StepAnalyzeForm, Message: msg, Cause: err}
	}

	if dups := forms.DuplicateLabels(fs); len(dups) > 0 {
		o.log.Warnw("form has duplicate labels; later values win in custom mode", "run_id", runID, "labels", dups)
	}

	var bgCtx context.Context
	snap, ok = o.update(gen, func(s *Snapshot) {
		o.done[db.StepAnalyzeForm] = true
		s.State = StatePreviewing
		s.Loading = false
		s.Structure = fs
		s.HasStructure = true
		s.Fillability = None[types.FillabilityAssessment]()
		s.FillabilityPending = true
		s.Message = ""
		bgCtx = o.bgCtx
	})
	if !ok {
		return snap, ErrStaleRun
	}
	o.journalStep(ctx, runID, db.StepAnalyzeForm, db.StepStatusCompleted, "", map[string]any{
		"fields":   len(fs.Fields),
		"required": fs.RequiredCount(),
		"actions":  len(fs.Actions),
	})
	o.emitProgress(snap, db.StepAnalyzeForm, fmt.Sprintf("Detected %d fields", len(fs.Fields)), snap.Structure)

	o.checkFillable(bgCtx, gen, runID, formURL)
	return snap, nil
}

// checkFillable issues the best-effort fillability call. Its result is applied
// only if the run is still current when it arrives.
func (o *Orchestrator) checkFillable(ctx context.Context, gen uint64, runID uuid.UUID, formURL string) {
	if ctx == nil {
		ctx = context.Background()
	}
	o.journalStep(ctx, runID, db.StepCheckFillable, db.StepStatusInProgress, "", nil)

	fetch := func(ctx context.Context) (types.FillabilityAssessment, error) {
		a, err := o.backend.CheckFillable(ctx, formURL)
		if err != nil {
			return types.FillabilityAssessment{}, err
		}
		if a == nil {
			return types.FillabilityAssessment{}, errors.New("empty fillability response")
		}
		return *a, nil
	}

	BestEffort(ctx, &o.bg, db.StepCheckFillable, fetch, func(result Optional[types.FillabilityAssessment], err error) {
		snap, ok := o.update(gen, func(s *Snapshot) {
			s.Fillability = result
			s.FillabilityPending = false
			if result.Present() {
				o.done[db.StepCheckFillable] = true
			}
		})
		if !ok {
			o.log.Debugw("discarding fillability result of superseded run", "run_id", runID)
			return
		}
		if err != nil {
			o.log.Warnw("fillability check failed", "run_id", runID, "error", err)
			o.journalStep(ctx, runID, db.StepCheckFillable, db.StepStatusFailed, err.Error(), nil)
			o.emitProgress(snap, db.StepCheckFillable, "Fillability unknown", nil)
			return
		}
		a, _ := result.Get()
		o.journalStep(ctx, runID, db.StepCheckFillable, db.StepStatusCompleted, "", map[string]any{
			"fillable":   a.Fillable,
			"confidence": string(a.Confidence),
		})
		o.emitProgress(snap, db.StepCheckFillable, a.Message, a)
	})
}

// Fill asks the fill collaborator to fill the previewed form. Values come from
// the stored profile or, in custom mode, from the form's values plus overrides.
func (o *Orchestrator) Fill(ctx context.Context, mode profile.Mode, overrides map[string]string) (Snapshot, error) {
	if o.values == nil {
		return o.Snapshot(), &ValidationError{Field: "values", Message: "no fill value source configured"}
	}

	o.mu.Lock()
	if o.state.Loading {
		o.mu.Unlock()
		return o.Snapshot(), ErrRunInFlight
	}
	if o.state.State != StatePreviewing {
		o.mu.Unlock()
		return o.Snapshot(), ErrNotPreviewing
	}
	if err := steps.ValidateDependencies(o.completed, db.StepFillForm); err != nil {
		o.mu.Unlock()
		return o.Snapshot(), err
	}
	o.state.Loading = true
	o.state.Message = ""
	gen, runID, formURL := o.state.Generation, o.state.RunID, o.state.URL
	fs := forms.Normalize(o.state.Structure)
	o.mu.Unlock()

	payload, err := o.values.Resolve(ctx, mode, fs, overrides)
	if err != nil {
		verr := resolveError(err)
		snap, ok := o.update(gen, func(s *Snapshot) {
			s.Loading = false
			s.Message = verr.Message
		})
		if !ok {
			return snap, ErrStaleRun
		}
		return snap, verr
	}

	snap, ok := o.update(gen, func(s *Snapshot) {
		s.State = StateFillingInFlight
		o.formData = payload.FormData
	})
	if !ok {
		return snap, ErrStaleRun
	}
	o.journalStep(ctx, runID, db.StepFillForm, db.StepStatusInProgress, "", map[string]any{"mode": string(payload.Mode)})
	o.emitProgress(snap, db.StepFillForm, "Filling form", nil)

	result, err := o.backend.Fill(ctx, &types.FillRequest{
		URL:       formURL,
		MultiStep: true,
		FormData:  payload.FormData,
	})
	if err != nil {
		msg := api.Message(err, msgFillFailed)
		snap, ok := o.update(gen, func(s *Snapshot) {
			s.State = StatePreviewing
			s.Loading = false
			s.Message = msg
		})
		if !ok {
			return snap, ErrStaleRun
		}
		o.journalStep(ctx, runID, db.StepFillForm, db.StepStatusFailed, msg, nil)
		o.emitProgress(snap, db.StepFillForm, msg, nil)
		return snap, &StepError{Step: db.StepFillForm, Message: msg, Cause: err}
	}

	outcome := result.Classify()
	snap, ok = o.update(gen, func(s *Snapshot) {
		o.done[db.StepFillForm] = true
		s.State = stateForOutcome(outcome)
		s.Loading = false
		s.Result = result
		s.Outcome = outcome
		s.Message = result.Message
	})
	if !ok {
		return snap, ErrStaleRun
	}

	params := map[string]any{"outcome": string(outcome), "filled_count": result.FilledCount}
	if outcome == types.FillOutcomeFailure {
		o.journalStep(ctx, runID, db.StepFillForm, db.StepStatusFailed, result.Message, params)
		o.journalComplete(ctx, runID, db.RunStatusFailed)
	} else {
		o.journalStep(ctx, runID, db.StepFillForm, db.StepStatusCompleted, "", params)
		o.journalComplete(ctx, runID, db.RunStatusCompleted)
	}
	o.log.Infow("fill finished", "run_id", runID, "outcome", outcome, "filled", result.FilledCount)
	o.emitProgress(snap, db.StepFillForm, result.Message, result)
	return snap, nil
}

func resolveError(err error) *ValidationError {
	switch {
	case errors.Is(err, profile.ErrNoProfile):
		return &ValidationError{Field: "profile", Message: msgNoProfile, Cause: err}
	case errors.Is(err, profile.ErrUnknownLabel), errors.Is(err, profile.ErrInvalidOption):
		return &ValidationError{Field: "form_data", Message: err.Error(), Cause: err}
	default:
		return &ValidationError{Field: "values", Message: api.Message(err, msgFillFailed), Cause: err}
	}
}

// Review returns from a finished fill to the preview so the form can be filled again.
func (o *Orchestrator) Review() (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.state.State.FillDone() {
		return o.state.clone(), ErrNothingToReview
	}
	o.state.State = StatePreviewing
	o.state.Message = ""
	return o.state.clone(), nil
}

// RecordApplication adds the filled application to the ledger with status,
// defaulting to pending. The status is chosen by the caller and never derived
// from the fill outcome.
func (o *Orchestrator) RecordApplication(ctx context.Context, status types.ApplicationStatus) (*types.Application, error) {
	if status == "" {
		status = types.StatusPending
	}
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	if o.recorder == nil {
		return nil, &ValidationError{Field: "recorder", Message: "no application ledger configured"}
	}

	o.mu.Lock()
	if o.state.Loading {
		o.mu.Unlock()
		return nil, ErrRunInFlight
	}
	if o.state.Result == nil {
		o.mu.Unlock()
		return nil, ErrNoFillResult
	}
	if err := steps.ValidateDependencies(o.completed, db.StepRecordApplication); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.state.Loading = true
	gen, runID, jobURL := o.state.Generation, o.state.RunID, o.state.URL
	filled := o.state.Result.FilledFields()
	formData := o.formData
	o.mu.Unlock()

	o.journalStep(ctx, runID, db.StepRecordApplication, db.StepStatusInProgress, "", map[string]any{"status": string(status)})

	app, err := o.record(ctx, &types.CreateApplicationRequest{
		JobURL:       jobURL,
		Status:       status,
		FormData:     formData,
		FilledFields: filled,
	}, status)
	if err != nil {
		msg := api.Message(err, msgRecordFailed)
		snap, ok := o.update(gen, func(s *Snapshot) {
			s.Loading = false
			s.Message = msg
		})
		o.journalStep(ctx, runID, db.StepRecordApplication, db.StepStatusFailed, msg, nil)
		if ok {
			o.emitProgress(snap, db.StepRecordApplication, msg, nil)
		}
		return nil, &StepError{Step: db.StepRecordApplication, Message: msg, Cause: err}
	}

	o.journalStep(ctx, runID, db.StepRecordApplication, db.StepStatusCompleted, "", map[string]any{"application_id": app.ID})
	snap, ok := o.update(gen, func(s *Snapshot) {
		o.done[db.StepRecordApplication] = true
		s.Loading = false
		s.Application = app
		s.Message = "Application saved"
	})
	if !ok {
		o.log.Debugw("application recorded for superseded run", "run_id", runID, "id", app.ID)
		return app, nil
	}
	o.emitProgress(snap, db.StepRecordApplication, "Application saved", app)
	return app, nil
}

// record creates the ledger entry and then sets status if the backend did not
// store it on create.
func (o *Orchestrator) record(ctx context.Context, req *types.CreateApplicationRequest, status types.ApplicationStatus) (*types.Application, error) {
	app, err := o.recorder.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if app.Status == status {
		return app, nil
	}

	apps, err := o.recorder.UpdateStatus(ctx, app.ID, status)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if apps[i].ID == app.ID {
			return &apps[i], nil
		}
	}
	app.Status = status
	return app, nil
}
