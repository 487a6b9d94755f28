package app

import (
	"context"
	"testing"

	"assessment-service/internal/domain"
)

func internalBank(n int) domain.QuestionBank {
	bank := domain.QuestionBank{ID: "internal", TimePerQuestion: 45}
	for i := 0; i < n; i++ {
		bank.Questions = append(bank.Questions, domain.Question{
			ID:            i + 1,
			Options:       []string{"a", "b"},
			CorrectAnswer: 0,
			Category:      domain.CategoryStripe,
			Difficulty:    domain.DifficultyEasy,
		})
	}
	return bank
}

func TestStaleExpiryIsIgnored(t *testing.T) {
	c := NewController(context.Background(), "s", ControllerDeps{Bank: internalBank(3)}, ControllerOptions{})
	if err := c.Start("a@b.fr"); err != nil {
		t.Fatalf("start: %v", err)
	}

	c.mu.Lock()
	oldGen, oldTimer := c.gen, c.timer
	c.mu.Unlock()

	if err := c.SubmitAnswer(0); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !oldTimer.Stopped() {
		t.Fatalf("expected previous timer stopped on advance")
	}

	// A callback already in flight for the first question must not record an answer.
	c.expire(oldGen)
	c.tick(oldGen, 3)

	snap := c.Snapshot()
	if snap.Answered != 1 || snap.QuestionIndex != 1 || snap.Remaining != 45 {
		t.Fatalf("stale callbacks mutated state: %+v", snap)
	}
}

func TestEveryExitRetiresTimer(t *testing.T) {
	exits := map[string]func(c *Controller){
		"reset":  func(c *Controller) { c.Reset() },
		"admin":  func(c *Controller) { c.EnterAdmin() },
		"close":  func(c *Controller) { c.Close() },
		"finish": func(c *Controller) { _ = c.SubmitAnswer(1) },
	}
	for name, exit := range exits {
		c := NewController(context.Background(), "s", ControllerDeps{Bank: internalBank(1)}, ControllerOptions{})
		if err := c.Start("a@b.fr"); err != nil {
			t.Fatalf("%s: start: %v", name, err)
		}
		c.mu.Lock()
		timer := c.timer
		c.mu.Unlock()

		exit(c)
		c.Wait()

		if !timer.Stopped() {
			t.Fatalf("%s: timer still running", name)
		}
		c.mu.Lock()
		active := c.timer
		c.mu.Unlock()
		if active != nil {
			t.Fatalf("%s: controller kept an active timer", name)
		}
	}
}
