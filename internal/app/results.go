package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"assessment-service/internal/domain"
	"github.com/google/uuid"
)

// ResultsKey is the key-value slot holding the whole results collection.
const ResultsKey = "izyshow_assessment_db"

// DisplayDateLayout mirrors the French locale date shown next to each result.
const DisplayDateLayout = "02/01/2006 15:04:05"

// ResultStore keeps finalized results newest-first. Every mutation rewrites
// the whole collection to the backing slot.
type ResultStore struct {
	kv     KeyValueStore
	key    string
	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	mu      sync.RWMutex
	results []domain.StoredResult
}

// ResultStoreOption customizes a ResultStore.
type ResultStoreOption func(*ResultStore)

// WithResultClock overrides the clock used for timestamps (tests).
func WithResultClock(now func() time.Time) ResultStoreOption {
	return func(s *ResultStore) { s.now = now }
}

// WithResultIDs overrides id generation (tests).
func WithResultIDs(newID func() string) ResultStoreOption {
	return func(s *ResultStore) { s.newID = newID }
}

// WithResultLogger sets the logger used for recovered read errors.
func WithResultLogger(logger *slog.Logger) ResultStoreOption {
	return func(s *ResultStore) { s.logger = logger }
}

// OpenResultStore loads the persisted collection once. Malformed content is
// logged and treated as empty; only a failure to reach the slot is returned.
func OpenResultStore(ctx context.Context, kv KeyValueStore, opts ...ResultStoreOption) (*ResultStore, error) {
	s := &ResultStore{
		kv:     kv,
		key:    ResultsKey,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, ok, err := kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load results slot: %w", err)
	}
	if ok && len(raw) > 0 {
		var results []domain.StoredResult
		if err := json.Unmarshal(raw, &results); err != nil {
			s.logger.Error("malformed results slot, starting empty", "key", s.key, "error", err)
		} else {
			s.results = results
		}
	}
	return s, nil
}

// List returns a copy of every stored result, newest first.
func (s *ResultStore) List() []domain.StoredResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StoredResult, len(s.results))
	for i, r := range s.results {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of the stored result with the given id.
func (s *ResultStore) Get(id string) (domain.StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return domain.StoredResult{}, domain.ErrResultNotFound
}

// Save stamps the result with a fresh id and creation time, prepends it and
// persists the collection.
func (s *ResultStore) Save(ctx context.Context, result domain.AssessmentResult) (domain.StoredResult, error) {
	now := s.now()
	stored := domain.StoredResult{
		AssessmentResult: result.Clone(),
		ID:               s.newID(),
		Timestamp:        now.UnixMilli(),
		Date:             now.Format(DisplayDateLayout),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]domain.StoredResult, 0, len(s.results)+1)
	updated = append(updated, stored)
	updated = append(updated, s.results...)
	if err := s.persistLocked(ctx, updated); err != nil {
		return domain.StoredResult{}, err
	}
	s.results = updated
	return stored.Clone(), nil
}

// Delete removes the result with the given id once confirm approves it.
// An unknown id is a no-op.
func (s *ResultStore) Delete(ctx context.Context, id string, confirm func() bool) error {
	if confirm == nil || !confirm() {
		return domain.ErrDeleteNotConfirmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]domain.StoredResult, 0, len(s.results))
	for _, r := range s.results {
		if r.ID != id {
			updated = append(updated, r)
		}
	}
	if len(updated) == len(s.results) {
		return nil
	}
	if err := s.persistLocked(ctx, updated); err != nil {
		return err
	}
	s.results = updated
	return nil
}

// Confirmed is a confirm callback for callers that already obtained consent.
func Confirmed() bool { return true }

func (s *ResultStore) persistLocked(ctx context.Context, results []domain.StoredResult) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("persist results: %w", err)
	}
	return nil
}
