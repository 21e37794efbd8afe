package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"spendwise/internal/core"
	"spendwise/internal/kv"
)

func TestLoadAbsentKey(t *testing.T) {
	a := New(kv.NewMemoryStore(), "")

	state, err := a.Load(context.Background())
	if err != nil {
		t.Fatalf("absent key should not error: %v", err)
	}
	if len(state.Expenses) != 0 {
		t.Fatalf("want empty expenses, got %d", len(state.Expenses))
	}
	if state.Targets.Weekly.Cents != core.DefaultWeeklyTargetCents {
		t.Fatalf("weekly target: want %d, got %d", core.DefaultWeeklyTargetCents, state.Targets.Weekly.Cents)
	}
	if state.Targets.Monthly.Cents != core.DefaultMonthlyTargetCents {
		t.Fatalf("monthly target: want %d, got %d", core.DefaultMonthlyTargetCents, state.Targets.Monthly.Cents)
	}
}

func TestLoadCorruptRecord(t *testing.T) {
	mem := kv.NewMemoryStore()
	ctx := context.Background()
	if err := mem.Set(ctx, DefaultKey, "not json at all{"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a := New(mem, "")

	state, err := a.Load(ctx)
	if err == nil {
		t.Fatalf("corrupt record should surface a diagnostic error")
	}
	// State is still fully usable.
	if len(state.Expenses) != 0 || state.Targets.Monthly.Cents != core.DefaultMonthlyTargetCents {
		t.Fatalf("corrupt record should yield defaults, got %+v", state)
	}
}

func TestLoadFieldLevelFallback(t *testing.T) {
	// monthlyTarget missing: defaulted. weeklyTarget and expenses preserved.
	stored := `{"expenses":[{"id":1,"amount":100,"category":"Food","date":"2024-07-01"}],"weeklyTarget":500}`
	mem := kv.NewMemoryStore()
	ctx := context.Background()
	if err := mem.Set(ctx, DefaultKey, stored); err != nil {
		t.Fatalf("seed: %v", err)
	}

	state, err := New(mem, "").Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Targets.Monthly.Cents != core.DefaultMonthlyTargetCents {
		t.Fatalf("monthly target not defaulted: %d", state.Targets.Monthly.Cents)
	}
	if state.Targets.Weekly.Cents != 50000 {
		t.Fatalf("weekly target not preserved: %d", state.Targets.Weekly.Cents)
	}
	if len(state.Expenses) != 1 {
		t.Fatalf("want 1 expense, got %d", len(state.Expenses))
	}
	e := state.Expenses[0]
	if e.ID != 1 || e.Amount.Cents != 10000 || e.Category != core.CategoryFood || e.Date.String() != "2024-07-01" {
		t.Fatalf("expense mangled: %+v", e)
	}
}

func TestLoadZeroTargetFallsBack(t *testing.T) {
	mem := kv.NewMemoryStore()
	ctx := context.Background()
	if err := mem.Set(ctx, DefaultKey, `{"expenses":[],"weeklyTarget":0,"monthlyTarget":-3}`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	state, err := New(mem, "").Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Targets.Weekly.Cents != core.DefaultWeeklyTargetCents {
		t.Fatalf("zero weekly target should default, got %d", state.Targets.Weekly.Cents)
	}
	if state.Targets.Monthly.Cents != core.DefaultMonthlyTargetCents {
		t.Fatalf("negative monthly target should default, got %d", state.Targets.Monthly.Cents)
	}
}

func TestLoadSkipsMalformedEntries(t *testing.T) {
	stored := `{"expenses":[
		{"id":1,"amount":10,"category":"Food","date":"2024-07-01"},
		{"id":2,"amount":"abc","category":"Food","date":"2024-07-02"},
		{"id":3,"amount":-4,"category":"Food","date":"2024-07-03"},
		{"amount":5,"category":"Food","date":"2024-07-04"},
		{"id":5,"amount":5,"category":"Food","date":"yesterday"},
		{"id":6,"amount":7.5,"category":"Travel","date":"2024-07-06"}
	],"weeklyTarget":500,"monthlyTarget":2000}`
	mem := kv.NewMemoryStore()
	ctx := context.Background()
	if err := mem.Set(ctx, DefaultKey, stored); err != nil {
		t.Fatalf("seed: %v", err)
	}

	state, err := New(mem, "").Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(state.Expenses) != 2 {
		t.Fatalf("want 2 surviving expenses, got %d: %+v", len(state.Expenses), state.Expenses)
	}
	// Sorted most recent first on load.
	if state.Expenses[0].ID != 6 || state.Expenses[1].ID != 1 {
		t.Fatalf("unexpected order: %+v", state.Expenses)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	mem := kv.NewMemoryStore()
	ctx := context.Background()
	a := New(mem, "")

	in := core.AppState{
		Expenses: []core.Expense{
			{ID: 2, Amount: core.Money{Cents: 1250}, Category: core.CategoryTravel, Date: core.NewDate(2024, 7, 10)},
			{ID: 1, Amount: core.Money{Cents: 10000}, Category: core.CategoryFood, Date: core.NewDate(2024, 7, 1)},
		},
		Targets: core.Targets{
			Weekly:  core.Money{Cents: 30000},
			Monthly: core.Money{Cents: 120000},
		},
	}
	if err := a.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := a.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out.Expenses) != 2 {
		t.Fatalf("want 2 expenses, got %d", len(out.Expenses))
	}
	got := out.Expenses[0]
	if got.ID != 2 || got.Amount.Cents != 1250 || got.Category != core.CategoryTravel || got.Date.String() != "2024-07-10" {
		t.Fatalf("round-trip mangled expense: %+v", got)
	}
	if out.Targets.Weekly.Cents != 30000 || out.Targets.Monthly.Cents != 120000 {
		t.Fatalf("round-trip mangled targets: %+v", out.Targets)
	}
}

func TestSaveEmptyListMarshalsAsArray(t *testing.T) {
	mem := kv.NewMemoryStore()
	ctx := context.Background()
	if err := New(mem, "").Save(ctx, core.DefaultState()); err != nil {
		t.Fatalf("save: %v", err)
	}

	value, ok, _ := mem.Get(ctx, DefaultKey)
	if !ok {
		t.Fatalf("record not written")
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		t.Fatalf("stored value not json: %v", err)
	}
	if string(raw["expenses"]) != "[]" {
		t.Fatalf(`expenses should serialize as [], got %s`, raw["expenses"])
	}
}

// failingStore rejects every operation; used to check degrade paths.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage unavailable")
}
func (failingStore) Set(context.Context, string, string) error {
	return errors.New("quota exceeded")
}
func (failingStore) Close() error { return nil }

func TestFailingStoreDegradesToDefaults(t *testing.T) {
	a := New(failingStore{}, "")
	ctx := context.Background()

	state, err := a.Load(ctx)
	if err == nil {
		t.Fatalf("expected diagnostic error from failing store")
	}
	if state.Targets.Weekly.Cents != core.DefaultWeeklyTargetCents {
		t.Fatalf("failing store should still yield usable defaults")
	}

	if err := a.Save(ctx, core.DefaultState()); err == nil {
		t.Fatalf("save against failing store should report the error")
	}
}
