package app_test

import (
	"context"
	"testing"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

const defaultHook = "https://script.google.com/macros/s/default/exec"

func TestSettingsDefaultWhenAbsent(t *testing.T) {
	store, err := app.OpenSettingsStore(context.Background(), memory.NewKeyValueStore(), defaultHook, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.WebhookURL() != defaultHook {
		t.Fatalf("expected default url, got %q", store.WebhookURL())
	}
}

func TestSettingsSavedValueWins(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	store, err := app.OpenSettingsStore(ctx, kv, defaultHook, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Save(ctx, domain.Settings{WebhookURL: "https://hook.example/new"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened, err := app.OpenSettingsStore(ctx, kv, defaultHook, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.WebhookURL() != "https://hook.example/new" {
		t.Fatalf("expected saved url, got %q", reopened.WebhookURL())
	}
}

func TestSettingsFallBackOnBadSlot(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"not json", "[1,2]"} {
		kv := memory.NewKeyValueStore()
		if err := kv.Put(ctx, app.SettingsKey, []byte(raw)); err != nil {
			t.Fatalf("seed: %v", err)
		}
		store, err := app.OpenSettingsStore(ctx, kv, defaultHook, nil)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if store.WebhookURL() != defaultHook {
			t.Fatalf("slot %q: expected default, got %q", raw, store.WebhookURL())
		}
	}
}

func TestSettingsCanDisableSync(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	store, err := app.OpenSettingsStore(ctx, kv, defaultHook, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Save(ctx, domain.Settings{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if store.WebhookURL() != "" {
		t.Fatalf("expected sync disabled, got %q", store.WebhookURL())
	}

	reopened, err := app.OpenSettingsStore(ctx, kv, defaultHook, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.WebhookURL() != "" {
		t.Fatalf("expected disabled sync to survive reload, got %q", reopened.WebhookURL())
	}
}
