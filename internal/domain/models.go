package domain

import "time"

// Category labels a question's knowledge area.
type Category string

const (
	CategoryMarketplace Category = "Marketplace"
	CategoryTax         Category = "Fiscalité"
	CategoryStripe      Category = "Stripe"
	CategoryClosing     Category = "Clôture"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryMarketplace, CategoryTax, CategoryStripe, CategoryClosing:
		return true
	}
	return false
}

// Difficulty is an ordinal difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Facile"
	DifficultyMedium Difficulty = "Intermédiaire"
	DifficultyHard   Difficulty = "Expert"
)

// Rank orders difficulties from easiest (1) to hardest (3). Unknown levels rank 0.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	}
	return 0
}

// Question models an MCQ item with exactly one correct option.
type Question struct {
	ID            int        `json:"id"`
	Text          string     `json:"text"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correctAnswer"`
	Explanation   string     `json:"explanation"`
	Category      Category   `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
}

// PublicQuestion is the candidate-facing view of a question; the correct index is withheld.
type PublicQuestion struct {
	ID         int        `json:"id"`
	Text       string     `json:"text"`
	Options    []string   `json:"options"`
	Category   Category   `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
}

// Public strips the answer key from q.
func (q Question) Public() PublicQuestion {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return PublicQuestion{
		ID:         q.ID,
		Text:       q.Text,
		Options:    options,
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}
}

// QuestionBank is an ordered, immutable catalog of questions.
type QuestionBank struct {
	ID              string     `json:"id"`
	TimePerQuestion int        `json:"timePerQuestion"`
	Questions       []Question `json:"questions"`
}

// Len returns the number of questions in the bank.
func (b QuestionBank) Len() int {
	return len(b.Questions)
}

// Validate checks the structural invariants every bank must satisfy.
func (b QuestionBank) Validate() error {
	if len(b.Questions) == 0 {
		return ErrEmptyBank
	}
	for _, q := range b.Questions {
		if len(q.Options) < 2 {
			return &BankError{QuestionID: q.ID, Reason: "fewer than two options"}
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return &BankError{QuestionID: q.ID, Reason: "correct answer out of range"}
		}
		if !q.Category.Valid() {
			return &BankError{QuestionID: q.ID, Reason: "unknown category " + string(q.Category)}
		}
		if q.Difficulty.Rank() == 0 {
			return &BankError{QuestionID: q.ID, Reason: "unknown difficulty " + string(q.Difficulty)}
		}
	}
	return nil
}

// NoAnswer marks a question whose timer expired before the candidate chose.
const NoAnswer = -1

// Phase is the coarse state of an assessment attempt.
type Phase string

const (
	PhaseWelcome     Phase = "WELCOME"
	PhaseIdentifying Phase = "IDENTIFYING"
	PhaseInProgress  Phase = "IN_PROGRESS"
	PhaseFinished    Phase = "FINISHED"
	PhaseAdmin       Phase = "ADMIN"
)

// SessionState is the mutable progress of a single attempt.
type SessionState struct {
	Email                string    `json:"email"`
	CurrentQuestionIndex int       `json:"currentQuestionIndex"`
	Answers              []int     `json:"answers"`
	TimeLeft             int       `json:"timeLeft"`
	Finished             bool      `json:"isFinished"`
	StartedAt            time.Time `json:"startTime"`
}

// AssessmentResult is the scored outcome of a completed attempt.
type AssessmentResult struct {
	Email             string         `json:"email"`
	Score             int            `json:"score"`
	TotalQuestions    int            `json:"totalQuestions"`
	CategoryBreakdown map[string]int `json:"categoryBreakdown"`
	Feedback          string         `json:"feedback"`
}

// Clone returns a deep copy so holders never share the breakdown map.
func (r AssessmentResult) Clone() AssessmentResult {
	out := r
	if r.CategoryBreakdown != nil {
		out.CategoryBreakdown = make(map[string]int, len(r.CategoryBreakdown))
		for k, v := range r.CategoryBreakdown {
			out.CategoryBreakdown[k] = v
		}
	}
	return out
}

// Percent is the overall score as a rounded percentage.
func (r AssessmentResult) Percent() int {
	if r.TotalQuestions == 0 {
		return 0
	}
	return (r.Score*100 + r.TotalQuestions/2) / r.TotalQuestions
}

// StoredResult is an AssessmentResult persisted by the result store.
type StoredResult struct {
	AssessmentResult
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
}

// Passed applies the 12/20 pass mark, scaled to the bank size.
func (r StoredResult) Passed() bool {
	if r.TotalQuestions == 0 {
		return false
	}
	return r.Score*20 >= 12*r.TotalQuestions
}

// Clone returns a deep copy of the stored record.
func (r StoredResult) Clone() StoredResult {
	out := r
	out.AssessmentResult = r.AssessmentResult.Clone()
	return out
}

// Settings is the persisted admin configuration.
type Settings struct {
	WebhookURL string `json:"webhookUrl"`
}
