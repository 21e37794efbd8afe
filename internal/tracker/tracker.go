// Package tracker owns the canonical in-memory state and every mutation of
// it. All writes go through here and are written through to the
// persistence adapter; the view layer only ever sees snapshots and derived
// aggregates.
package tracker

import (
	"context"
	"sync"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/log"
)

// Clock supplies the reference instant for aggregation. Injectable so
// window math is testable against fixed dates.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock implementation.
func SystemClock() Clock { return systemClock{} }

// Persister is the slice of the persistence adapter the tracker needs.
type Persister interface {
	Load(ctx context.Context) (core.AppState, error)
	Save(ctx context.Context, state core.AppState) error
}

// View is the page selector. It is session state, never persisted.
type View string

const (
	ViewSummary    View = "summary"
	ViewAddExpense View = "add"
	ViewHistory    View = "history"
	ViewSettings   View = "settings"
)

// IsValid returns true if the view names a known page.
func (v View) IsValid() bool {
	switch v {
	case ViewSummary, ViewAddExpense, ViewHistory, ViewSettings:
		return true
	default:
		return false
	}
}

type Tracker struct {
	mu      sync.Mutex
	persist Persister
	clock   Clock
	logger  *log.Logger
	state   core.AppState
	view    View
}

// New loads the stored record and returns a ready tracker. An unreadable
// record is not fatal: the tracker starts from defaults and the diagnostic
// is logged.
func New(ctx context.Context, persist Persister, clock Clock, logger *log.Logger) *Tracker {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentTracker)
	}

	state, err := persist.Load(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Stored record unreadable, starting from defaults", log.FieldError, err.Error())
	}

	return &Tracker{
		persist: persist,
		clock:   clock,
		logger:  logger,
		state:   state,
		view:    ViewSummary,
	}
}

// AddExpense parses and records a new expense. An unparseable amount or
// date rejects the operation with no state change and no storage write.
func (t *Tracker) AddExpense(ctx context.Context, amountText string, category string, dateText string) (core.Expense, error) {
	cents, err := core.ParseDecimalToCents(amountText)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(dateText)
	if err != nil {
		return core.Expense{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	expense := core.Expense{
		ID:       t.nextIDLocked(),
		Amount:   core.Money{Cents: cents},
		Category: core.Category(category),
		Date:     date,
	}
	t.state.Expenses = append(t.state.Expenses, expense)
	core.SortExpenses(t.state.Expenses)
	t.writeThroughLocked(ctx)

	t.logger.InfoContext(ctx, "Expense recorded",
		log.FieldExpenseID, expense.ID,
		log.FieldAmountCents, expense.Amount.Cents,
		log.FieldCategory, string(expense.Category),
		log.FieldDate, expense.Date.String())
	return expense, nil
}

// DeleteExpense removes the expense with the given id. An unknown id is a
// no-op, not an error, and performs no storage write.
func (t *Tracker) DeleteExpense(ctx context.Context, id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, e := range t.state.Expenses {
		if e.ID != id {
			continue
		}
		t.state.Expenses = append(t.state.Expenses[:i], t.state.Expenses[i+1:]...)
		t.writeThroughLocked(ctx)
		t.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id)
		return
	}
}

// SetWeeklyTarget replaces the weekly target. Negative or unparseable
// input is coerced to zero, never rejected.
func (t *Tracker) SetWeeklyTarget(ctx context.Context, raw string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Targets.Weekly = core.Money{Cents: core.TargetCents(raw)}
	t.writeThroughLocked(ctx)
}

// SetMonthlyTarget replaces the monthly target with the same coercion
// rules as SetWeeklyTarget.
func (t *Tracker) SetMonthlyTarget(ctx context.Context, raw string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Targets.Monthly = core.Money{Cents: core.TargetCents(raw)}
	t.writeThroughLocked(ctx)
}

// Snapshot returns a copy of the current state for rendering.
func (t *Tracker) Snapshot() core.AppState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// Summary computes the derived aggregates against the injected clock.
func (t *Tracker) Summary() core.Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.Summarize(t.state.Expenses, t.clock.Now())
}

// SetView switches the current page. Unknown names are ignored.
func (t *Tracker) SetView(v View) {
	if !v.IsValid() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view = v
}

// CurrentView returns the active page selector.
func (t *Tracker) CurrentView() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view
}

// nextIDLocked derives an id from the clock, bumped past any existing id
// so rapid successive adds within one session stay unique.
func (t *Tracker) nextIDLocked() int64 {
	id := t.clock.Now().UnixMilli()
	for _, e := range t.state.Expenses {
		if e.ID >= id {
			id = e.ID + 1
		}
	}
	return id
}

// writeThroughLocked persists the full state after a mutation. A write
// failure is non-fatal: the in-memory state stays authoritative for the
// rest of the session and the loss surfaces only on reload.
func (t *Tracker) writeThroughLocked(ctx context.Context) {
	if err := t.persist.Save(ctx, t.state); err != nil {
		t.logger.WarnContext(ctx, "Persist failed, in-memory state kept", log.FieldError, err.Error())
	}
}
