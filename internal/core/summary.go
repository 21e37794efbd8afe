package core

import "time"

// CategoryTotal is the month-to-date amount for one fixed category.
type CategoryTotal struct {
	Category Category
	Amount   Money
}

// Summary holds the derived aggregates for a reference instant.
type Summary struct {
	WeekStart  Date
	MonthStart Date
	WeekSpent  Money
	MonthSpent Money
	ByCategory []CategoryTotal // fixed categories, display order
}

// WeekStartFor returns the most recent Monday at or before now, at midnight.
// A Sunday falls at the end of its week, so it maps to the Monday six days
// earlier. The calendar date is taken in now's location; all further window
// math is pure date arithmetic in UTC.
func WeekStartFor(now time.Time) Date {
	year, month, day := now.Date()
	base := NewDate(year, int(month), day)
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return Date{Time: base.AddDate(0, 0, -(weekday - 1))}
}

// MonthStartFor returns the first day of now's calendar month at midnight.
func MonthStartFor(now time.Time) Date {
	year, month, _ := now.Date()
	return NewDate(year, int(month), 1)
}

// Summarize computes the weekly total, monthly total, and per-category
// monthly totals for the given reference instant. It is pure: the input
// list is never mutated, and equal inputs yield equal results. The weekly
// and monthly sums are computed independently against now.
func Summarize(expenses []Expense, now time.Time) Summary {
	weekStart := WeekStartFor(now)
	monthStart := MonthStartFor(now)

	byCategory := make(map[Category]int64, len(Categories))
	s := Summary{WeekStart: weekStart, MonthStart: monthStart}

	for _, e := range expenses {
		if !e.Date.Before(weekStart.Time) {
			s.WeekSpent.Cents += e.Amount.Cents
		}
		if !e.Date.Before(monthStart.Time) {
			s.MonthSpent.Cents += e.Amount.Cents
			if e.Category.IsValid() {
				byCategory[e.Category] += e.Amount.Cents
			}
		}
	}

	s.ByCategory = make([]CategoryTotal, 0, len(Categories))
	for _, c := range Categories {
		s.ByCategory = append(s.ByCategory, CategoryTotal{
			Category: c,
			Amount:   Money{Cents: byCategory[c]},
		})
	}
	return s
}
