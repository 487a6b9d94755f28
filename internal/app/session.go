package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"assessment-service/internal/domain"
)

// EventType labels controller notifications.
type EventType string

const (
	EventState    EventType = "state"
	EventQuestion EventType = "question"
	EventTick     EventType = "tick"
	EventFinished EventType = "finished"
	EventFeedback EventType = "feedback"
	EventSync     EventType = "sync"
)

// Event is a controller notification carrying the snapshot taken when it was raised.
type Event struct {
	Type     EventType
	Snapshot Snapshot
}

// Snapshot is a read-only view of a controller.
type Snapshot struct {
	SessionID       string                   `json:"sessionId"`
	Phase           domain.Phase             `json:"phase"`
	Email           string                   `json:"email,omitempty"`
	QuestionIndex   int                      `json:"questionIndex"`
	TotalQuestions  int                      `json:"totalQuestions"`
	Question        *domain.PublicQuestion   `json:"question,omitempty"`
	Answered        int                      `json:"answered"`
	Remaining       int                      `json:"remaining"`
	Severity        Severity                 `json:"severity"`
	Result          *domain.AssessmentResult `json:"result,omitempty"`
	FeedbackPending bool                     `json:"feedbackPending"`
	StoredID        string                   `json:"storedId,omitempty"`
	Sync            SyncState                `json:"sync"`
}

// ControllerDeps are the collaborators a controller drives.
type ControllerDeps struct {
	Bank     domain.QuestionBank
	Feedback FeedbackProvider
	Results  *ResultStore
	Sync     *SyncClient
	// Work, when set, also tracks this controller's completions.
	Work     *WorkGroup
}

// ControllerOptions tune timing and logging.
type ControllerOptions struct {
	// TickInterval is the wall-clock length of one countdown unit. Zero
	// disables the ticker; the countdown then only moves through Tick.
	TickInterval time.Duration
	// TimePerQuestion overrides the bank's per-question budget when positive.
	TimePerQuestion int
	Now             func() time.Time
	Logger          *slog.Logger
}

// Controller drives one candidate through WELCOME -> IDENTIFYING ->
// IN_PROGRESS -> FINISHED. Every exit from a question retires its timer.
type Controller struct {
	id           string
	ctx          context.Context
	bank         domain.QuestionBank
	budget       int
	feedback     FeedbackProvider
	results      *ResultStore
	sync         *SyncClient
	tickInterval time.Duration
	now          func() time.Time
	logger       *slog.Logger

	mu              sync.Mutex
	phase           domain.Phase
	state           domain.SessionState
	gen             uint64
	attempt         uint64
	timer           *Timer
	result          *domain.AssessmentResult
	feedbackPending bool
	storedID        string
	tracker         *SyncTracker
	subscribers     map[chan Event]struct{}
	closed          bool

	pending sync.WaitGroup
	work    *WorkGroup
}

type completion struct {
	attempt uint64
	result  domain.AssessmentResult
	tracker *SyncTracker
}

// NewController creates a controller in WELCOME. ctx bounds the asynchronous
// feedback/save/sync work started when an attempt finishes.
func NewController(ctx context.Context, id string, deps ControllerDeps, opts ControllerOptions) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	budget := deps.Bank.TimePerQuestion
	if opts.TimePerQuestion > 0 {
		budget = opts.TimePerQuestion
	}
	if budget <= 0 {
		budget = DefaultTimePerQuestion
	}
	c := &Controller{
		id:           id,
		ctx:          ctx,
		bank:         deps.Bank,
		budget:       budget,
		feedback:     deps.Feedback,
		results:      deps.Results,
		sync:         deps.Sync,
		work:         deps.Work,
		tickInterval: opts.TickInterval,
		now:          opts.Now,
		logger:       opts.Logger.With("session", id),
		phase:        domain.PhaseWelcome,
		subscribers:  make(map[chan Event]struct{}),
	}
	c.state = domain.SessionState{Answers: []int{}, TimeLeft: budget}
	c.tracker = c.newTrackerLocked()
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// Begin moves from WELCOME to IDENTIFYING.
func (c *Controller) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != domain.PhaseWelcome {
		return
	}
	c.phase = domain.PhaseIdentifying
	c.broadcastLocked(EventState)
}

// Start validates the email and opens the first question. A rejected email
// leaves the controller untouched.
func (c *Controller) Start(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.ErrInvalidEmail
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == domain.PhaseInProgress || c.phase == domain.PhaseFinished {
		return domain.ErrSessionAlreadyStarted
	}

	c.attempt++
	c.state = domain.SessionState{
		Email:     email,
		Answers:   []int{},
		TimeLeft:  c.budget,
		StartedAt: c.now(),
	}
	c.result = nil
	c.feedbackPending = false
	c.storedID = ""
	c.tracker = c.newTrackerLocked()
	c.phase = domain.PhaseInProgress
	c.armTimerLocked()
	c.broadcastLocked(EventQuestion)
	return nil
}

// SubmitAnswer records choice for the current question. domain.NoAnswer is
// accepted and is exactly what a timer expiry submits.
func (c *Controller) SubmitAnswer(choice int) error {
	c.mu.Lock()
	if c.phase != domain.PhaseInProgress {
		c.mu.Unlock()
		return domain.ErrSessionNotInProgress
	}
	q := c.bank.Questions[c.state.CurrentQuestionIndex]
	if choice != domain.NoAnswer && (choice < 0 || choice >= len(q.Options)) {
		c.mu.Unlock()
		return fmt.Errorf("%w: choice %d for question %d", domain.ErrInvalidInput, choice, q.ID)
	}
	job, err := c.submitLocked(choice)
	c.mu.Unlock()

	if job != nil {
		c.launch(job)
	}
	return err
}

// Tick advances the active countdown by one unit.
func (c *Controller) Tick() {
	c.mu.Lock()
	t := c.timer
	c.mu.Unlock()
	if t != nil {
		t.Tick()
	}
}

// Reset discards the attempt and any displayed result, returning to WELCOME.
// Work already started for a finished attempt still saves and syncs.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandonLocked(domain.PhaseWelcome)
}

// EnterAdmin leaves the candidate flow for the operator branch.
func (c *Controller) EnterAdmin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandonLocked(domain.PhaseAdmin)
}

// RetrySync resends the finished result on user request.
func (c *Controller) RetrySync(ctx context.Context) error {
	c.mu.Lock()
	if c.result == nil || c.feedbackPending {
		c.mu.Unlock()
		return domain.ErrNoResult
	}
	result := c.result.Clone()
	tracker := c.tracker
	c.mu.Unlock()

	if c.sync == nil {
		return nil
	}
	return c.sync.Retry(ctx, result, tracker)
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel of events. The caller must invoke the returned
// cancel function to avoid leaks.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// Close retires the timer and closes all subscriptions.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.abandonLocked(domain.PhaseWelcome)
	c.closed = true
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
}

// Wait blocks until background completion work (feedback, save, sync) is done.
func (c *Controller) Wait() {
	c.pending.Wait()
}

func (c *Controller) submitLocked(choice int) (*completion, error) {
	c.state.Answers = append(c.state.Answers, choice)
	if c.state.CurrentQuestionIndex < c.bank.Len()-1 {
		c.state.CurrentQuestionIndex++
		c.armTimerLocked()
		c.broadcastLocked(EventQuestion)
		return nil, nil
	}

	c.retireTimerLocked()
	card, err := Score(c.state.Answers, c.bank)
	if err != nil {
		return nil, err
	}
	result := card.Result(c.state.Email, PendingFeedback)
	c.state.Finished = true
	c.phase = domain.PhaseFinished
	c.result = &result
	c.feedbackPending = true
	c.broadcastLocked(EventFinished)

	return &completion{attempt: c.attempt, result: result.Clone(), tracker: c.tracker}, nil
}

func (c *Controller) launch(job *completion) {
	c.pending.Add(1)
	c.work.begin()
	go func() {
		defer c.pending.Done()
		defer c.work.end()
		c.complete(job)
	}()
}

// complete enriches the result with feedback, then saves and syncs it.
func (c *Controller) complete(job *completion) {
	text := generateFeedback(c.ctx, c.feedback, job.result, c.logger)
	final := job.result.Clone()
	final.Feedback = text

	c.mu.Lock()
	if c.attempt == job.attempt {
		c.result = &final
		c.feedbackPending = false
		c.broadcastLocked(EventFeedback)
	}
	c.mu.Unlock()

	if c.results != nil {
		stored, err := c.results.Save(c.ctx, final)
		if err != nil {
			c.logger.Error("save result failed", "email", final.Email, "error", err)
		} else {
			c.mu.Lock()
			if c.attempt == job.attempt {
				c.storedID = stored.ID
			}
			c.mu.Unlock()
		}
	}

	if c.sync != nil {
		if err := c.sync.Deliver(c.ctx, final, job.tracker); err != nil {
			c.logger.Debug("automatic sync failed", "error", err)
		}
	}
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.phase != domain.PhaseInProgress {
		c.mu.Unlock()
		return
	}
	job, err := c.submitLocked(domain.NoAnswer)
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("expire question", "error", err)
	}
	if job != nil {
		c.launch(job)
	}
}

func (c *Controller) tick(gen uint64, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.state.TimeLeft = remaining
	c.broadcastLocked(EventTick)
}

func (c *Controller) abandonLocked(phase domain.Phase) {
	c.retireTimerLocked()
	c.attempt++
	c.phase = phase
	c.state = domain.SessionState{Answers: []int{}, TimeLeft: c.budget}
	c.result = nil
	c.feedbackPending = false
	c.storedID = ""
	c.tracker = c.newTrackerLocked()
	c.broadcastLocked(EventState)
}

// armTimerLocked replaces the question timer; callbacks from older timers
// carry a stale generation and are ignored.
func (c *Controller) armTimerLocked() {
	c.retireTimerLocked()
	gen := c.gen
	t := NewTimer(c.budget, func() { c.expire(gen) })
	t.OnTick(func(remaining int) { c.tick(gen, remaining) })
	c.timer = t
	c.state.TimeLeft = c.budget
	t.Start(c.tickInterval)
}

func (c *Controller) retireTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Controller) newTrackerLocked() *SyncTracker {
	attempt := c.attempt
	return NewSyncTracker(func(SyncState) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.attempt == attempt {
			c.broadcastLocked(EventSync)
		}
	})
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:       c.id,
		Phase:           c.phase,
		Email:           c.state.Email,
		QuestionIndex:   c.state.CurrentQuestionIndex,
		TotalQuestions:  c.bank.Len(),
		Answered:        len(c.state.Answers),
		Remaining:       c.state.TimeLeft,
		Severity:        SeverityFor(c.state.TimeLeft),
		FeedbackPending: c.feedbackPending,
		StoredID:        c.storedID,
		Sync:            c.tracker.State(),
	}
	if c.phase == domain.PhaseInProgress {
		q := c.bank.Questions[c.state.CurrentQuestionIndex].Public()
		snap.Question = &q
	}
	if c.result != nil {
		r := c.result.Clone()
		snap.Result = &r
	}
	return snap
}

func (c *Controller) broadcastLocked(typ EventType) {
	if len(c.subscribers) == 0 {
		return
	}
	ev := Event{Type: typ, Snapshot: c.snapshotLocked()}
	for ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop the oldest event, snapshots supersede each other.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
