package app

import (
	"context"
	"fmt"
	"log/slog"

	"assessment-service/internal/domain"
	"github.com/google/uuid"
)

// AssessmentService owns the long-lived collaborators and hands out one
// Controller per candidate connection.
type AssessmentService struct {
	ctx      context.Context
	banks    BankRepository
	bankID   string
	sessions SessionRepository
	results  *ResultStore
	settings *SettingsStore
	sync     *SyncClient
	feedback FeedbackProvider
	opts     ControllerOptions
	logger   *slog.Logger
	work     WorkGroup
}

// ServiceDeps wires an AssessmentService.
type ServiceDeps struct {
	Banks    BankRepository
	BankID   string
	Sessions SessionRepository
	Results  *ResultStore
	Settings *SettingsStore
	Sync     *SyncClient
	Feedback FeedbackProvider
	Logger   *slog.Logger
}

// NewAssessmentService builds the orchestrator. ctx is the lifetime of
// background completion work.
func NewAssessmentService(ctx context.Context, deps ServiceDeps, opts ControllerOptions) *AssessmentService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = deps.Logger
	}
	return &AssessmentService{
		ctx:      ctx,
		banks:    deps.Banks,
		bankID:   deps.BankID,
		sessions: deps.Sessions,
		results:  deps.Results,
		settings: deps.Settings,
		sync:     deps.Sync,
		feedback: deps.Feedback,
		opts:     opts,
		logger:   deps.Logger,
	}
}

// Bank returns the configured question bank.
func (s *AssessmentService) Bank(ctx context.Context) (domain.QuestionBank, error) {
	bank, err := s.banks.GetBank(ctx, s.bankID)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load bank %q: %w", s.bankID, err)
	}
	return bank, nil
}

// Open creates and registers a controller for a new candidate.
func (s *AssessmentService) Open(ctx context.Context) (*Controller, error) {
	bank, err := s.Bank(ctx)
	if err != nil {
		return nil, err
	}
	ctrl := NewController(s.ctx, uuid.NewString(), ControllerDeps{
		Bank:     bank,
		Feedback: s.feedback,
		Results:  s.results,
		Sync:     s.sync,
		Work:     &s.work,
	}, s.opts)
	s.sessions.Put(ctrl.ID(), ctrl)
	s.logger.Info("session opened", "session", ctrl.ID(), "bank", bank.ID, "questions", bank.Len())
	return ctrl, nil
}

// Session looks up a live controller.
func (s *AssessmentService) Session(id string) (*Controller, error) {
	ctrl, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return ctrl, nil
}

// Release closes a controller (retiring its timer) and unregisters it.
func (s *AssessmentService) Release(id string) {
	ctrl, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	ctrl.Close()
	s.sessions.Delete(id)
	s.logger.Info("session released", "session", id)
}

// ActiveSessions reports how many controllers are registered.
func (s *AssessmentService) ActiveSessions() int {
	return s.sessions.Len()
}

// Results exposes the result store.
func (s *AssessmentService) Results() *ResultStore {
	return s.results
}

// Settings exposes the configuration slot.
func (s *AssessmentService) Settings() *SettingsStore {
	return s.settings
}

// ResendResult re-sends a stored result as REAL_DATA on the given tracker.
func (s *AssessmentService) ResendResult(ctx context.Context, id string, tracker *SyncTracker) error {
	stored, err := s.results.Get(id)
	if err != nil {
		return err
	}
	return s.sync.Retry(ctx, stored, tracker)
}

// TestConnection sends a probe on the given tracker.
func (s *AssessmentService) TestConnection(ctx context.Context, tracker *SyncTracker) error {
	return s.sync.Probe(ctx, tracker)
}

// Drain waits for completion work of every controller, released or not, so
// finished attempts are saved and synced before shutdown. It returns ctx's
// error if work is still running when ctx ends.
func (s *AssessmentService) Drain(ctx context.Context) error {
	return s.work.Wait(ctx)
}
