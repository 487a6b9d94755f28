package http

import (
	"context"
	"sync"
	"testing"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

type stubTransport struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (s *stubTransport) Post(_ context.Context, _, _ string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies = append(s.bodies, append([]byte(nil), body...))
	return nil
}

func (s *stubTransport) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

type staticFeedback string

func (f staticFeedback) Feedback(context.Context, domain.AssessmentResult) (string, error) {
	return string(f), nil
}

func newTestService(t *testing.T, endpoint string) (*app.AssessmentService, *stubTransport) {
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
	transport := &stubTransport{}
	banks := memory.NewBankRepository(memory.NewStaticBankLoader(sampleBanks()), time.Minute)

	service := app.NewAssessmentService(ctx, app.ServiceDeps{
		Banks:    banks,
		BankID:   "izyshow",
		Sessions: memory.NewSessionStore(),
		Results:  results,
		Settings: settings,
		Sync:     app.NewSyncClient(transport, settings),
		Feedback: staticFeedback("Bon travail."),
	}, app.ControllerOptions{})
	return service, transport
}

func sampleBanks() map[string]domain.QuestionBank {
	return map[string]domain.QuestionBank{
		"izyshow": {
			ID:              "izyshow",
			TimePerQuestion: 45,
			Questions: []domain.Question{
				{
					ID:            1,
					Text:          "Quel est le taux de commission IZYSHOW ?",
					Options:       []string{"5%", "10%", "20%"},
					CorrectAnswer: 1,
					Category:      domain.CategoryMarketplace,
					Difficulty:    domain.DifficultyEasy,
				},
				{
					ID:            2,
					Text:          "Quel est le délai des payouts Stripe ?",
					Options:       []string{"2 jours", "7 jours", "30 jours"},
					CorrectAnswer: 1,
					Category:      domain.CategoryStripe,
					Difficulty:    domain.DifficultyMedium,
				},
			},
		},
	}
}
