package app

import (
	"fmt"
	"math"

	"assessment-service/internal/domain"
)

// Scorecard is the pure outcome of scoring an answer sequence.
type Scorecard struct {
	Score             int
	TotalQuestions    int
	CategoryBreakdown map[string]int
}

// Result attaches the candidate identity and feedback text to the scorecard.
func (s Scorecard) Result(email, feedback string) domain.AssessmentResult {
	breakdown := make(map[string]int, len(s.CategoryBreakdown))
	for k, v := range s.CategoryBreakdown {
		breakdown[k] = v
	}
	return domain.AssessmentResult{
		Email:             email,
		Score:             s.Score,
		TotalQuestions:    s.TotalQuestions,
		CategoryBreakdown: breakdown,
		Feedback:          feedback,
	}
}

type categoryTally struct {
	category string
	correct  int
	total    int
}

// Score compares answers position by position against the bank. An expired
// slot (domain.NoAnswer) never matches. The breakdown holds the rounded
// percentage correct for every category that appears at least once.
func Score(answers []int, bank domain.QuestionBank) (Scorecard, error) {
	if len(answers) != bank.Len() {
		return Scorecard{}, fmt.Errorf("%w: %d answers for %d questions", domain.ErrInvalidInput, len(answers), bank.Len())
	}

	var (
		score   int
		tallies []categoryTally
		index   = make(map[string]int)
	)
	for i, answer := range answers {
		q := bank.Questions[i]
		cat := string(q.Category)
		pos, ok := index[cat]
		if !ok {
			pos = len(tallies)
			index[cat] = pos
			tallies = append(tallies, categoryTally{category: cat})
		}
		tallies[pos].total++
		if answer != domain.NoAnswer && answer == q.CorrectAnswer {
			score++
			tallies[pos].correct++
		}
	}

	breakdown := make(map[string]int, len(tallies))
	for _, t := range tallies {
		breakdown[t.category] = percent(t.correct, t.total)
	}
	return Scorecard{
		Score:             score,
		TotalQuestions:    bank.Len(),
		CategoryBreakdown: breakdown,
	}, nil
}

func percent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
