package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"assessment-service/internal/domain"
)

// PayloadType distinguishes real results from connectivity probes.
type PayloadType string

const (
	PayloadRealData       PayloadType = "REAL_DATA"
	PayloadTestConnection PayloadType = "TEST_CONNECTION"
)

// DefaultPlatform tags every outbound payload.
const DefaultPlatform = "IZYSHOW-Assessment"

// webhookContentType keeps the request "simple" for Apps Script receivers.
const webhookContentType = "text/plain;charset=utf-8"

// SyncState is the observable status of a send.
type SyncState string

const (
	SyncIdle    SyncState = "idle"
	SyncSyncing SyncState = "syncing"
	SyncSuccess SyncState = "success"
	SyncError   SyncState = "error"
)

// SyncTracker holds the status of one send channel (an attempt's automatic
// send and its retries, or the admin probe).
type SyncTracker struct {
	mu       sync.Mutex
	state    SyncState
	inFlight bool
	onChange func(SyncState)
}

// NewSyncTracker returns an idle tracker. onChange, when set, observes every transition.
func NewSyncTracker(onChange func(SyncState)) *SyncTracker {
	return &SyncTracker{state: SyncIdle, onChange: onChange}
}

// State returns the current status.
func (t *SyncTracker) State() SyncState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// InFlight reports whether a send is outstanding.
func (t *SyncTracker) InFlight() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

func (t *SyncTracker) begin(exclusive bool) error {
	t.mu.Lock()
	if exclusive && t.inFlight {
		t.mu.Unlock()
		return domain.ErrSyncInFlight
	}
	t.inFlight = true
	t.state = SyncSyncing
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(SyncSyncing)
	}
	return nil
}

func (t *SyncTracker) finish(state SyncState) {
	t.mu.Lock()
	t.inFlight = false
	t.state = state
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(state)
	}
}

// DispatchError reports a send that failed locally. The tracker has already
// moved to SyncError when it is returned.
type DispatchError struct {
	Type PayloadType
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Type, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// SyncClient relays payloads to the configured webhook. Delivery is
// fire-and-forget: success only means the transport did not fail locally.
type SyncClient struct {
	transport Transport
	endpoint  EndpointSource
	platform  string
	now       func() time.Time
	logger    *slog.Logger
}

// SyncOption customizes a SyncClient.
type SyncOption func(*SyncClient)

// WithSyncClock overrides the payload timestamp clock (tests).
func WithSyncClock(now func() time.Time) SyncOption {
	return func(c *SyncClient) { c.now = now }
}

// WithPlatform overrides the platform tag.
func WithPlatform(platform string) SyncOption {
	return func(c *SyncClient) {
		if platform != "" {
			c.platform = platform
		}
	}
}

// WithSyncLogger sets the logger for transport failures.
func WithSyncLogger(logger *slog.Logger) SyncOption {
	return func(c *SyncClient) { c.logger = logger }
}

func NewSyncClient(transport Transport, endpoint EndpointSource, opts ...SyncOption) *SyncClient {
	c := &SyncClient{
		transport: transport,
		endpoint:  endpoint,
		platform:  DefaultPlatform,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliver is the automatic post-assessment send. Without an endpoint it is a
// silent no-op and the tracker stays untouched.
func (c *SyncClient) Deliver(ctx context.Context, record any, tracker *SyncTracker) error {
	url := c.endpoint.WebhookURL()
	if url == "" {
		return nil
	}
	return c.dispatch(ctx, url, PayloadRealData, record, tracker, false)
}

// Retry is a user-triggered resend of a real record. A second trigger while
// one is outstanding on the same tracker is rejected with ErrSyncInFlight.
func (c *SyncClient) Retry(ctx context.Context, record any, tracker *SyncTracker) error {
	url := c.endpoint.WebhookURL()
	if url == "" {
		return nil
	}
	return c.dispatch(ctx, url, PayloadRealData, record, tracker, true)
}

// Probe sends a synthetic TEST_CONNECTION payload. A missing endpoint is
// reported as ErrEndpointNotConfigured.
func (c *SyncClient) Probe(ctx context.Context, tracker *SyncTracker) error {
	url := c.endpoint.WebhookURL()
	if url == "" {
		return domain.ErrEndpointNotConfigured
	}
	probe := map[string]any{
		"test": "IZYSHOW_VERIFICATION",
		"date": c.now().Format(DisplayDateLayout),
	}
	return c.dispatch(ctx, url, PayloadTestConnection, probe, tracker, true)
}

func (c *SyncClient) dispatch(ctx context.Context, url string, kind PayloadType, record any, tracker *SyncTracker, exclusive bool) error {
	if tracker == nil {
		tracker = NewSyncTracker(nil)
	}
	if err := tracker.begin(exclusive); err != nil {
		return err
	}

	body, err := c.payload(kind, record)
	if err != nil {
		tracker.finish(SyncError)
		return err
	}
	if err := c.transport.Post(ctx, url, webhookContentType, body); err != nil {
		c.logger.Warn("webhook dispatch failed", "type", kind, "error", err)
		tracker.finish(SyncError)
		return &DispatchError{Type: kind, Err: err}
	}
	tracker.finish(SyncSuccess)
	return nil
}

// payload spreads record's JSON fields and adds timestamp, platform and type.
func (c *SyncClient) payload(kind PayloadType, record any) ([]byte, error) {
	fields := map[string]any{}
	if record != nil {
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("payload must be a JSON object: %w", err)
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}
	fields["timestamp"] = c.now().UTC().Format("2006-01-02T15:04:05.000Z")
	fields["platform"] = c.platform
	fields["type"] = string(kind)
	return json.Marshal(fields)
}
