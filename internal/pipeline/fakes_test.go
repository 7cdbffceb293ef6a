package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/apply-assistant/internal/db"
	"github.com/jonathan/apply-assistant/internal/profile"
	"github.com/jonathan/apply-assistant/internal/types"
)

// fakeBackend answers collaborator calls from configurable functions and counts them.
type fakeBackend struct {
	mu sync.Mutex

	score    func(ctx context.Context, url string) (*types.AtsScore, error)
	analyze  func(ctx context.Context, url string) (json.RawMessage, error)
	fillable func(ctx context.Context, url string) (*types.FillabilityAssessment, error)
	fill     func(ctx context.Context, req *types.FillRequest) (*types.FillResult, error)

	scoreCalls   []string
	analyzeCalls []string
	fillableURLs []string
	fillRequests []types.FillRequest
}

func scoreOf(score int, rec types.Recommendation) func(context.Context, string) (*types.AtsScore, error) {
	return func(context.Context, string) (*types.AtsScore, error) {
		return &types.AtsScore{Score: score, Recommendation: rec, Message: "scored"}, nil
	}
}

const emailForm = `{"fields":[{"label":"Email","type":"email","required":true}],"actions":[]}`

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		score: scoreOf(82, types.RecommendationHigh),
		analyze: func(context.Context, string) (json.RawMessage, error) {
			return json.RawMessage(emailForm), nil
		},
		fillable: func(context.Context, string) (*types.FillabilityAssessment, error) {
			return &types.FillabilityAssessment{Fillable: true, Confidence: types.ConfidenceHigh, Message: "Form can be filled"}, nil
		},
		fill: func(context.Context, *types.FillRequest) (*types.FillResult, error) {
			total := 1
			return &types.FillResult{Success: true, FilledCount: 1, TotalFields: &total, Message: "Filled 1 field"}, nil
		},
	}
}

func (f *fakeBackend) ATSScore(ctx context.Context, url string) (*types.AtsScore, error) {
	f.mu.Lock()
	f.scoreCalls = append(f.scoreCalls, url)
	fn := f.score
	f.mu.Unlock()
	return fn(ctx, url)
}

func (f *fakeBackend) Analyze(ctx context.Context, url string) (json.RawMessage, error) {
	f.mu.Lock()
	f.analyzeCalls = append(f.analyzeCalls, url)
	fn := f.analyze
	f.mu.Unlock()
	return fn(ctx, url)
}

func (f *fakeBackend) CheckFillable(ctx context.Context, url string) (*types.FillabilityAssessment, error) {
	f.mu.Lock()
	f.fillableURLs = append(f.fillableURLs, url)
	fn := f.fillable
	f.mu.Unlock()
	return fn(ctx, url)
}

func (f *fakeBackend) Fill(ctx context.Context, req *types.FillRequest) (*types.FillResult, error) {
	f.mu.Lock()
	f.fillRequests = append(f.fillRequests, *req)
	fn := f.fill
	f.mu.Unlock()
	return fn(ctx, req)
}

func (f *fakeBackend) analyzeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.analyzeCalls)
}

// fakeValues resolves fill values without a profile backend.
type fakeValues struct {
	noProfile bool
}

func (v *fakeValues) Resolve(_ context.Context, mode profile.Mode, fs types.FormStructure, overrides map[string]string) (*profile.FillPayload, error) {
	switch mode {
	case profile.ModeProfile:
		if v.noProfile {
			return nil, profile.ErrNoProfile
		}
		return &profile.FillPayload{Mode: mode, Profile: &types.Profile{ID: "p1"}}, nil
	case profile.ModeCustom:
		data := profile.Seed(fs)
		for label, value := range overrides {
			if _, ok := data[label]; !ok {
				return nil, profile.ErrUnknownLabel
			}
			for _, f := range fs.Fields {
				if f.Label == label {
					if err := profile.CheckOption(f, value); err != nil {
						return nil, err
					}
				}
			}
			data[label] = value
		}
		return &profile.FillPayload{Mode: mode, FormData: data}, nil
	}
	return nil, errors.New("bad mode")
}

// fakeRecorder is an in-memory ledger whose create ignores the requested status.
type fakeRecorder struct {
	created  []types.CreateApplicationRequest
	updates  []types.ApplicationStatus
	apps     []types.Application
	failWith error
}

func (r *fakeRecorder) Create(_ context.Context, req *types.CreateApplicationRequest) (*types.Application, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.created = append(r.created, *req)
	app := types.Application{ID: "app-1", JobURL: req.JobURL, Status: types.StatusPending, FilledFields: req.FilledFields}
	r.apps = append(r.apps, app)
	return &app, nil
}

func (r *fakeRecorder) UpdateStatus(_ context.Context, id string, status types.ApplicationStatus) ([]types.Application, error) {
	r.updates = append(r.updates, status)
	for i := range r.apps {
		if r.apps[i].ID == id {
			r.apps[i].Status = status
		}
	}
	return append([]types.Application(nil), r.apps...), nil
}

// fakeJournal records journal writes in memory.
type fakeJournal struct {
	mu        sync.Mutex
	runs      map[uuid.UUID]string
	steps     map[string]string
	completed map[uuid.UUID]string
	failAll   bool
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{runs: map[uuid.UUID]string{}, steps: map[string]string{}, completed: map[uuid.UUID]string{}}
}

var errJournalDown = errors.New("journal unavailable")

func (j *fakeJournal) CreateRun(_ context.Context, runID uuid.UUID, jobURL string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.failAll {
		return errJournalDown
	}
	j.runs[runID] = jobURL
	return nil
}

func (j *fakeJournal) RecordStep(_ context.Context, _ uuid.UUID, input *db.RunStepInput) (*db.RunStep, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.failAll {
		return nil, errJournalDown
	}
	j.steps[input.Step] = input.Status
	return &db.RunStep{Step: input.Step, Status: input.Status}, nil
}

func (j *fakeJournal) CompleteRun(_ context.Context, runID uuid.UUID, status string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.failAll {
		return errJournalDown
	}
	j.completed[runID] = status
	return nil
}

func (j *fakeJournal) stepStatus(step string) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.steps[step]
}

// progressLog collects progress events from any goroutine.
type progressLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (p *progressLog) record(e ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *progressLog) steps() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if len(out) == 0 || out[len(out)-1] != e.Step {
			out = append(out, e.Step)
		}
	}
	return out
}
