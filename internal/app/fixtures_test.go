package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

var errTransport = errors.New("network unreachable")

// testBank builds a bank whose correct answer is always option 1.
func testBank(categories ...domain.Category) domain.QuestionBank {
	bank := domain.QuestionBank{ID: "test", TimePerQuestion: 45}
	for i, cat := range categories {
		bank.Questions = append(bank.Questions, domain.Question{
			ID:            i + 1,
			Text:          "question",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: 1,
			Category:      cat,
			Difficulty:    domain.DifficultyMedium,
		})
	}
	return bank
}

type stubFeedback struct {
	text    string
	err     error
	release chan struct{}
}

func (s *stubFeedback) Feedback(ctx context.Context, _ domain.AssessmentResult) (string, error) {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

type post struct {
	url         string
	contentType string
	body        []byte
}

// recordingTransport captures posts and fails while err is set.
type recordingTransport struct {
	mu    sync.Mutex
	err   error
	posts []post
	block chan struct{}
}

func (r *recordingTransport) Post(_ context.Context, url, contentType string, body []byte) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, post{url: url, contentType: contentType, body: append([]byte(nil), body...)})
	return r.err
}

func (r *recordingTransport) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *recordingTransport) sent() []post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]post(nil), r.posts...)
}

type staticEndpoint string

func (e staticEndpoint) WebhookURL() string { return string(e) }

var fixedNow = time.Date(2024, 11, 22, 9, 30, 15, 123_000_000, time.UTC)

func fixedClock() time.Time { return fixedNow }

type harness struct {
	ctrl      *app.Controller
	kv        *memory.KeyValueStore
	results   *app.ResultStore
	transport *recordingTransport
}

func newHarness(bank domain.QuestionBank, feedback app.FeedbackProvider, endpoint string) harness {
	kv := memory.NewKeyValueStore()
	results, err := app.OpenResultStore(context.Background(), kv, app.WithResultClock(fixedClock))
	if err != nil {
		panic(err)
	}
	transport := &recordingTransport{}
	syncer := app.NewSyncClient(transport, staticEndpoint(endpoint), app.WithSyncClock(fixedClock))
	ctrl := app.NewController(context.Background(), "s1", app.ControllerDeps{
		Bank:     bank,
		Feedback: feedback,
		Results:  results,
		Sync:     syncer,
	}, app.ControllerOptions{Now: fixedClock})
	return harness{ctrl: ctrl, kv: kv, results: results, transport: transport}
}
