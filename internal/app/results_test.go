package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("r%d", n)
	}
}

func sampleResult(email string, score int) domain.AssessmentResult {
	return domain.AssessmentResult{
		Email:             email,
		Score:             score,
		TotalQuestions:    20,
		CategoryBreakdown: map[string]int{"Marketplace": 50, "Stripe": 100},
		Feedback:          "Bon profil.",
	}
}

func TestResultStorePersistsNewestFirst(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	store, err := app.OpenResultStore(ctx, kv, app.WithResultClock(fixedClock), app.WithResultIDs(sequentialIDs()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	first, err := store.Save(ctx, sampleResult("a@b.fr", 12))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.ID != "r1" || first.Timestamp != fixedNow.UnixMilli() || first.Date != "22/11/2024 09:30:15" {
		t.Fatalf("unexpected stamp %+v", first)
	}
	if _, err := store.Save(ctx, sampleResult("c@d.fr", 8)); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened, err := app.OpenResultStore(ctx, kv)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	list := reopened.List()
	if len(list) != 2 || list[0].Email != "c@d.fr" || list[1].Email != "a@b.fr" {
		t.Fatalf("expected newest first after reload, got %+v", list)
	}
	if list[1].CategoryBreakdown["Stripe"] != 100 || list[1].Feedback != "Bon profil." {
		t.Fatalf("round trip lost fields: %+v", list[1])
	}
	if !list[1].Passed() || list[0].Passed() {
		t.Fatalf("expected 12/20 to pass and 8/20 to fail")
	}
}

func TestResultStoreListIsACopy(t *testing.T) {
	ctx := context.Background()
	store, err := app.OpenResultStore(ctx, memory.NewKeyValueStore())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.Save(ctx, sampleResult("a@b.fr", 10)); err != nil {
		t.Fatalf("save: %v", err)
	}
	list := store.List()
	list[0].CategoryBreakdown["Stripe"] = 0
	list[0].Email = "mutated"

	again := store.List()
	if again[0].Email != "a@b.fr" || again[0].CategoryBreakdown["Stripe"] != 100 {
		t.Fatalf("store shared state with caller: %+v", again[0])
	}
}

func TestResultStoreMalformedSlotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	if err := kv.Put(ctx, app.ResultsKey, []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store, err := app.OpenResultStore(ctx, kv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(store.List()) != 0 {
		t.Fatalf("expected empty collection")
	}
}

func TestResultStoreSurfacesReadFailure(t *testing.T) {
	_, err := app.OpenResultStore(context.Background(), failingKV{})
	if !errors.Is(err, errSlot) {
		t.Fatalf("expected slot error, got %v", err)
	}
}

func TestResultStoreDelete(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	store, err := app.OpenResultStore(ctx, kv, app.WithResultIDs(sequentialIDs()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, email := range []string{"a@b.fr", "c@d.fr", "e@f.fr"} {
		if _, err := store.Save(ctx, sampleResult(email, 10)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	if err := store.Delete(ctx, "r2", nil); !errors.Is(err, domain.ErrDeleteNotConfirmed) {
		t.Fatalf("expected ErrDeleteNotConfirmed, got %v", err)
	}
	if err := store.Delete(ctx, "r2", func() bool { return false }); !errors.Is(err, domain.ErrDeleteNotConfirmed) {
		t.Fatalf("expected ErrDeleteNotConfirmed on refusal, got %v", err)
	}
	if len(store.List()) != 3 {
		t.Fatalf("declined delete removed a record")
	}

	if err := store.Delete(ctx, "missing", app.Confirmed); err != nil {
		t.Fatalf("unknown id must be a no-op, got %v", err)
	}
	if err := store.Delete(ctx, "r2", app.Confirmed); err != nil {
		t.Fatalf("delete: %v", err)
	}

	reopened, err := app.OpenResultStore(ctx, kv)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	list := reopened.List()
	if len(list) != 2 || list[0].ID != "r3" || list[1].ID != "r1" {
		t.Fatalf("expected r3, r1 after delete, got %+v", list)
	}
	if _, err := reopened.Get("r2"); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

func TestResultStoreDateUsesLocalClock(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	at := time.Date(2024, 1, 5, 18, 4, 9, 0, paris)
	store, err := app.OpenResultStore(context.Background(), memory.NewKeyValueStore(),
		app.WithResultClock(func() time.Time { return at }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	stored, err := store.Save(context.Background(), sampleResult("a@b.fr", 1))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if stored.Date != "05/01/2024 18:04:09" {
		t.Fatalf("unexpected display date %q", stored.Date)
	}
}

var errSlot = errors.New("slot unavailable")

type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errSlot }
func (failingKV) Put(context.Context, string, []byte) error         { return errSlot }
