// Package store is the persistence adapter: it maps the in-memory AppState
// to the single JSON record kept in the local key-value store. Loading is
// defensive — missing or corrupt fields fall back to defaults one by one —
// and both operations report failures explicitly so the caller decides
// whether to log, retry, or ignore.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"spendwise/internal/core"
	"spendwise/internal/kv"
)

// DefaultKey is the fixed key the record is stored under.
const DefaultKey = "expense-tracker"

type Adapter struct {
	store kv.Store
	key   string
}

func New(store kv.Store, key string) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{store: store, key: key}
}

// record mirrors the stored JSON shape loosely: every field is optional and
// validated individually so one bad field never discards the others.
type record struct {
	Expenses      json.RawMessage `json:"expenses"`
	WeeklyTarget  *json.Number    `json:"weeklyTarget"`
	MonthlyTarget *json.Number    `json:"monthlyTarget"`
}

type expenseRecord struct {
	ID       *int64       `json:"id"`
	Amount   *json.Number `json:"amount"`
	Category string       `json:"category"`
	Date     string       `json:"date"`
}

// persisted types carry the strict outbound shape.
type persistedExpense struct {
	ID       int64   `json:"id"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
}

type persisted struct {
	Expenses      []persistedExpense `json:"expenses"`
	WeeklyTarget  float64            `json:"weeklyTarget"`
	MonthlyTarget float64            `json:"monthlyTarget"`
}

// Load reads the stored record. The returned state is always usable: an
// absent key yields defaults, a corrupt record yields defaults, and a
// record missing one field keeps the others. The error is diagnostic only
// and never leaves the state incomplete.
func (a *Adapter) Load(ctx context.Context) (core.AppState, error) {
	value, ok, err := a.store.Get(ctx, a.key)
	if err != nil {
		return core.DefaultState(), fmt.Errorf("read stored record: %w", err)
	}
	if !ok {
		return core.DefaultState(), nil
	}

	var rec record
	dec := json.NewDecoder(bytes.NewReader([]byte(value)))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return core.DefaultState(), fmt.Errorf("parse stored record: %w", err)
	}

	state := core.AppState{
		Expenses: decodeExpenses(rec.Expenses),
		Targets: core.Targets{
			Weekly:  targetOrDefault(rec.WeeklyTarget, core.DefaultWeeklyTargetCents),
			Monthly: targetOrDefault(rec.MonthlyTarget, core.DefaultMonthlyTargetCents),
		},
	}
	core.SortExpenses(state.Expenses)
	return state, nil
}

// Save serializes the full state and overwrites the stored record. On
// failure the prior stored value is untouched; the caller keeps the
// in-memory state authoritative.
func (a *Adapter) Save(ctx context.Context, state core.AppState) error {
	out := persisted{
		Expenses:      make([]persistedExpense, 0, len(state.Expenses)),
		WeeklyTarget:  state.Targets.Weekly.Units(),
		MonthlyTarget: state.Targets.Monthly.Units(),
	}
	for _, e := range state.Expenses {
		out.Expenses = append(out.Expenses, persistedExpense{
			ID:       e.ID,
			Amount:   e.Amount.Units(),
			Category: string(e.Category),
			Date:     e.Date.String(),
		})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := a.store.Set(ctx, a.key, string(data)); err != nil {
		return fmt.Errorf("write stored record: %w", err)
	}
	return nil
}

// decodeExpenses tolerates a missing or non-array field and skips entries
// that fail to parse, keeping the rest.
func decodeExpenses(raw json.RawMessage) []core.Expense {
	out := []core.Expense{}
	if len(raw) == 0 {
		return out
	}

	var rawEntries []json.RawMessage
	if err := json.Unmarshal(raw, &rawEntries); err != nil {
		return out
	}

	for _, rawEntry := range rawEntries {
		// Each entry is decoded on its own: one bad entry never takes
		// its neighbors down with it.
		var entry expenseRecord
		dec := json.NewDecoder(bytes.NewReader(rawEntry))
		dec.UseNumber()
		if err := dec.Decode(&entry); err != nil {
			continue
		}
		if entry.ID == nil || entry.Amount == nil {
			continue
		}
		cents, err := core.ParseDecimalToCents(entry.Amount.String())
		if err != nil {
			continue
		}
		date, err := core.ParseDate(entry.Date)
		if err != nil {
			continue
		}
		out = append(out, core.Expense{
			ID:       *entry.ID,
			Amount:   core.Money{Cents: cents},
			Category: core.Category(entry.Category),
			Date:     date,
		})
	}
	return out
}

// targetOrDefault applies the field-level fallback: a missing, unparseable,
// or non-positive target collapses to its default.
func targetOrDefault(n *json.Number, defaultCents int64) core.Money {
	if n == nil {
		return core.Money{Cents: defaultCents}
	}
	cents := core.TargetCents(n.String())
	if cents <= 0 {
		return core.Money{Cents: defaultCents}
	}
	return core.Money{Cents: cents}
}
