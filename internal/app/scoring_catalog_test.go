package app_test

import (
	"testing"

	"assessment-service/internal/app"
	"assessment-service/internal/catalog"
	"assessment-service/internal/domain"
)

func TestScoreCatalogBank(t *testing.T) {
	bank := catalog.MustBanks()[catalog.DefaultBankID]
	if bank.Len() != 20 {
		t.Fatalf("expected 20 questions, got %d", bank.Len())
	}
	categories := map[string]bool{}
	for _, q := range bank.Questions {
		categories[string(q.Category)] = true
	}

	cases := []struct {
		name      string
		answer    func(domain.Question) int
		wantScore int
		wantPct   int
	}{
		{"all correct", func(q domain.Question) int { return q.CorrectAnswer }, 20, 100},
		{"all expired", func(domain.Question) int { return domain.NoAnswer }, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			answers := make([]int, 0, bank.Len())
			for _, q := range bank.Questions {
				answers = append(answers, tc.answer(q))
			}
			card, err := app.Score(answers, bank)
			if err != nil {
				t.Fatalf("score: %v", err)
			}
			if card.Score != tc.wantScore || card.TotalQuestions != 20 {
				t.Fatalf("expected %d/20, got %d/%d", tc.wantScore, card.Score, card.TotalQuestions)
			}
			if len(card.CategoryBreakdown) != len(categories) {
				t.Fatalf("expected %d categories, got %v", len(categories), card.CategoryBreakdown)
			}
			for cat, pct := range card.CategoryBreakdown {
				if !categories[cat] || pct != tc.wantPct {
					t.Fatalf("category %s: got %d want %d", cat, pct, tc.wantPct)
				}
			}
		})
	}
}
