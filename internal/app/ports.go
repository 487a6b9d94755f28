package app

import (
	"context"

	"assessment-service/internal/domain"
)

// KeyValueStore is a whole-value persistent slot store (sqlite, Redis, Postgres, memory).
// Get reports ok=false when the key has never been written.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// SessionRepository abstracts where live controllers are registered (in-memory, Redis, etc).
type SessionRepository interface {
	Put(id string, ctrl *Controller)
	Get(id string) (*Controller, bool)
	Delete(id string)
	Len() int
}

// FeedbackProvider turns a scored result into narrative feedback.
type FeedbackProvider interface {
	Feedback(ctx context.Context, result domain.AssessmentResult) (string, error)
}

// Transport performs a one-way POST. Only a local failure to send is observable.
type Transport interface {
	Post(ctx context.Context, url, contentType string, body []byte) error
}

// EndpointSource yields the currently configured webhook URL ("" when unset).
type EndpointSource interface {
	WebhookURL() string
}
