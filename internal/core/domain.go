package core

import (
	"errors"
	"sort"
	"time"
)

const (
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryDress         Category = "Dress"
	CategoryEntertainment Category = "Entertainment"
	CategoryOther         Category = "Other"
)

// Categories lists the fixed category set in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTravel,
	CategoryDress,
	CategoryEntertainment,
	CategoryOther,
}

type (
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is one recorded transaction. Category is kept even when it is
	// outside the fixed set; such entries count toward the spent totals but
	// not toward the per-category breakdown.
	Expense struct {
		ID       int64
		Amount   Money
		Category Category
		Date     Date
	}

	Targets struct {
		Weekly  Money
		Monthly Money
	}

	// AppState is the aggregate root: the full persisted record held in memory.
	AppState struct {
		Expenses []Expense
		Targets  Targets
	}
)

const (
	DefaultWeeklyTargetCents  int64 = 50000
	DefaultMonthlyTargetCents int64 = 200000
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// DateLayout is the calendar-date wire format.
const DateLayout = "2006-01-02"

// IsValid reports whether the category belongs to the fixed set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFood, CategoryTravel, CategoryDress, CategoryEntertainment, CategoryOther:
		return true
	default:
		return false
	}
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date in wire format.
func (d Date) String() string {
	return d.Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

// DefaultTargets returns the targets applied when nothing is stored.
func DefaultTargets() Targets {
	return Targets{
		Weekly:  Money{Cents: DefaultWeeklyTargetCents},
		Monthly: Money{Cents: DefaultMonthlyTargetCents},
	}
}

// DefaultState is the record used when the store is empty or unreadable.
func DefaultState() AppState {
	return AppState{Expenses: []Expense{}, Targets: DefaultTargets()}
}

// Clone returns a deep copy; callers may mutate it freely.
func (s AppState) Clone() AppState {
	out := s
	out.Expenses = make([]Expense, len(s.Expenses))
	copy(out.Expenses, s.Expenses)
	return out
}

// SortExpenses orders the list most recent first. The sort is stable so
// entries sharing a date keep their relative order across mutations.
func SortExpenses(expenses []Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Date.After(expenses[j].Date.Time)
	})
}
