package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"assessment-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches bank content from a backing store (e.g., Postgres JSONB).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// BankRepository caches whole banks in Redis and falls back to a loader on cache miss.
// Banks are stored as JSON under: assessment:bank:{bankID}
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	key := r.bankKey(bankID)
	if bank, ok := r.cached(ctx, key); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := r.cached(ctx, key); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.QuestionBank{}, err
		}
		if err := bank.Validate(); err != nil {
			return domain.QuestionBank{}, err
		}

		if raw, err := json.Marshal(bank); err == nil {
			// best-effort fill; a cache outage must not fail the read
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (r *BankRepository) cached(ctx context.Context, key string) (domain.QuestionBank, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil || len(raw) == 0 {
		return domain.QuestionBank{}, false
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil || bank.Validate() != nil {
		return domain.QuestionBank{}, false
	}
	return bank, true
}

func (r *BankRepository) bankKey(bankID string) string {
	return "assessment:bank:" + bankID
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
