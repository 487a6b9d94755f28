package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"assessment-service/internal/domain"
)

// SettingsKey is the key-value slot holding the admin configuration.
const SettingsKey = "izyshow_admin_config"

// SettingsStore holds the webhook configuration. It implements EndpointSource.
type SettingsStore struct {
	kv     KeyValueStore
	logger *slog.Logger

	mu      sync.RWMutex
	current domain.Settings
}

// OpenSettingsStore loads the configuration slot, falling back to defaultURL
// only when the slot is absent or malformed. A saved empty URL keeps sync off.
func OpenSettingsStore(ctx context.Context, kv KeyValueStore, defaultURL string, logger *slog.Logger) (*SettingsStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SettingsStore{
		kv:      kv,
		logger:  logger,
		current: domain.Settings{WebhookURL: defaultURL},
	}

	raw, ok, err := kv.Get(ctx, SettingsKey)
	if err != nil {
		return nil, fmt.Errorf("load settings slot: %w", err)
	}
	if !ok || len(raw) == 0 {
		return s, nil
	}
	var saved domain.Settings
	if err := json.Unmarshal(raw, &saved); err != nil {
		logger.Error("malformed settings slot, using defaults", "key", SettingsKey, "error", err)
		return s, nil
	}
	s.current = saved
	return s, nil
}

// Settings returns the active configuration.
func (s *SettingsStore) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// WebhookURL returns the active endpoint, "" when sync is disabled.
func (s *SettingsStore) WebhookURL() string {
	return s.Settings().WebhookURL
}

// Save replaces and persists the configuration.
func (s *SettingsStore) Save(ctx context.Context, settings domain.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Put(ctx, SettingsKey, raw); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	s.current = settings
	return nil
}
