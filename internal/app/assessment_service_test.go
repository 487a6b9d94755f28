package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

func newTestService(t *testing.T, endpoint string) (*app.AssessmentService, *recordingTransport) {
	t.Helper()
	ctx := context.Background()
	kv := memory.NewKeyValueStore()

	results, err := app.OpenResultStore(ctx, kv)
	if err != nil {
		t.Fatalf("open results: %v", err)
	}
	settings, err := app.OpenSettingsStore(ctx, kv, endpoint, nil)
	if err != nil {
		t.Fatalf("open settings: %v", err)
	}
	transport := &recordingTransport{}
	banks := memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{
		"test": testBank(domain.CategoryStripe, domain.CategoryTax),
	}), time.Minute)

	service := app.NewAssessmentService(ctx, app.ServiceDeps{
		Banks:    banks,
		BankID:   "test",
		Sessions: memory.NewSessionStore(),
		Results:  results,
		Settings: settings,
		Sync:     app.NewSyncClient(transport, settings),
		Feedback: &stubFeedback{text: "ok"},
	}, app.ControllerOptions{})
	return service, transport
}

func TestServiceSessionLifecycle(t *testing.T) {
	service, _ := newTestService(t, "")
	ctrl, err := service.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if service.ActiveSessions() != 1 {
		t.Fatalf("expected one active session")
	}
	found, err := service.Session(ctrl.ID())
	if err != nil || found != ctrl {
		t.Fatalf("expected registered controller, got %v", err)
	}

	if err := ctrl.Start("a@b.fr"); err != nil {
		t.Fatalf("start: %v", err)
	}
	service.Release(ctrl.ID())
	if _, err := service.Session(ctrl.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if snap := ctrl.Snapshot(); snap.Phase != domain.PhaseWelcome {
		t.Fatalf("released controller kept its attempt: %+v", snap)
	}
}

func TestServiceUnknownBank(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	results, _ := app.OpenResultStore(ctx, kv)
	service := app.NewAssessmentService(ctx, app.ServiceDeps{
		Banks:    memory.NewBankRepository(memory.NewStaticBankLoader(nil), time.Minute),
		BankID:   "missing",
		Sessions: memory.NewSessionStore(),
		Results:  results,
	}, app.ControllerOptions{})

	if _, err := service.Open(ctx); !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected ErrBankNotFound, got %v", err)
	}
}

func TestServiceResendAndProbe(t *testing.T) {
	ctx := context.Background()
	service, transport := newTestService(t, "https://hook.example/exec")

	stored, err := service.Results().Save(ctx, sampleResult("a@b.fr", 9))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	tracker := app.NewSyncTracker(nil)
	if err := service.ResendResult(ctx, stored.ID, tracker); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if err := service.ResendResult(ctx, "missing", tracker); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
	if err := service.TestConnection(ctx, app.NewSyncTracker(nil)); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if sent := transport.sent(); len(sent) != 2 {
		t.Fatalf("expected two posts, got %d", len(sent))
	}

	if err := service.Settings().Save(ctx, domain.Settings{}); err != nil {
		t.Fatalf("clear settings: %v", err)
	}
	if err := service.TestConnection(ctx, app.NewSyncTracker(nil)); !errors.Is(err, domain.ErrEndpointNotConfigured) {
		t.Fatalf("expected ErrEndpointNotConfigured, got %v", err)
	}
}

func TestServiceDrainWaitsForReleasedSessions(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	results, err := app.OpenResultStore(ctx, kv)
	if err != nil {
		t.Fatalf("open results: %v", err)
	}
	settings, err := app.OpenSettingsStore(ctx, kv, "", nil)
	if err != nil {
		t.Fatalf("open settings: %v", err)
	}
	feedback := &stubFeedback{text: "Bien.", release: make(chan struct{})}
	service := app.NewAssessmentService(ctx, app.ServiceDeps{
		Banks: memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{
			"test": testBank(domain.CategoryStripe, domain.CategoryTax),
		}), time.Minute),
		BankID:   "test",
		Sessions: memory.NewSessionStore(),
		Results:  results,
		Settings: settings,
		Sync:     app.NewSyncClient(&recordingTransport{}, settings),
		Feedback: feedback,
	}, app.ControllerOptions{})

	if err := service.Drain(ctx); err != nil {
		t.Fatalf("drain with nothing running: %v", err)
	}

	ctrl, err := service.Open(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ctrl.Start("a@b.fr"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := ctrl.SubmitAnswer(1); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}
	// The candidate disconnects while feedback is still being written.
	service.Release(ctrl.ID())

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := service.Drain(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected drain to wait for pending feedback, got %v", err)
	}
	if len(results.List()) != 0 {
		t.Fatalf("result saved before feedback completed")
	}

	close(feedback.release)
	if err := service.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	list := results.List()
	if len(list) != 1 || list[0].Feedback != "Bien." {
		t.Fatalf("expected drained result persisted, got %+v", list)
	}
}
