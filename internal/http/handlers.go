package http

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/tracker"
)

const summaryCacheKey = "summary"

type categoryRow struct {
	Name   string
	Amount string
	Width  int
}

type summaryData struct {
	WeekSpent   string
	WeekTarget  string
	WeekPct     int
	MonthSpent  string
	MonthTarget string
	MonthPct    int
	Rows        []categoryRow
}

type historyRow struct {
	ID       int64
	Date     string
	Category string
	Amount   string
}

type indexData struct {
	View          tracker.View
	Categories    []core.Category
	Today         string
	WeeklyTarget  string
	MonthlyTarget string
	Summary       summaryData
	History       []historyRow
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	snap := s.tracker.Snapshot()
	data := indexData{
		View:          s.tracker.CurrentView(),
		Categories:    core.Categories,
		Today:         time.Now().Format(core.DateLayout),
		WeeklyTarget:  snap.Targets.Weekly.String(),
		MonthlyTarget: snap.Targets.Monthly.String(),
		Summary:       buildSummary(s.tracker.Summary(), snap.Targets),
		History:       buildHistory(snap.Expenses),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed", log.FieldError, err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	amount := strings.TrimSpace(r.Form.Get("amount"))
	category := strings.TrimSpace(r.Form.Get("category"))
	date := strings.TrimSpace(r.Form.Get("date"))
	if date == "" {
		date = time.Now().Format(core.DateLayout)
	}

	expense, err := s.tracker.AddExpense(r.Context(), amount, category, date)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid amount or date</div>`))
		return
	}

	s.summaryCache.Delete(summaryCacheKey)
	w.Header().Set("HX-Trigger", `{"expense:created": {"id": `+strconv.FormatInt(expense.ID, 10)+`}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Recorded ` +
		template.HTMLEscapeString(string(expense.Category)) +
		` expense of ` + template.HTMLEscapeString(expense.Amount.String()) +
		` on ` + template.HTMLEscapeString(expense.Date.String()) + `</div>`))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("id")), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid expense id</div>`))
		return
	}

	// Unknown ids are a no-op by contract; the refreshed list is the answer
	// either way.
	s.tracker.DeleteExpense(r.Context(), id)
	s.summaryCache.Delete(summaryCacheKey)
	s.renderHistory(w, r)
}

func (s *Server) handleSetTargets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	if v, ok := r.Form["weekly"]; ok && len(v) > 0 {
		s.tracker.SetWeeklyTarget(r.Context(), v[0])
	}
	if v, ok := r.Form["monthly"]; ok && len(v) > 0 {
		s.tracker.SetMonthlyTarget(r.Context(), v[0])
	}
	s.summaryCache.Delete(summaryCacheKey)

	snap := s.tracker.Snapshot()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Targets updated: weekly ` +
		template.HTMLEscapeString(snap.Targets.Weekly.String()) +
		`, monthly ` + template.HTMLEscapeString(snap.Targets.Monthly.String()) + `</div>`))
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err == nil {
		s.tracker.SetView(tracker.View(r.Form.Get("page")))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSummary renders the summary partial, memoized until the next mutation.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if html, found := s.summaryCache.Get(summaryCacheKey); found {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Summary cache hit")
		_, _ = w.Write([]byte(html))
		return
	}

	snap := s.tracker.Snapshot()
	data := buildSummary(s.tracker.Summary(), snap.Targets)

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "page_summary", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Summary template execution failed", log.FieldError, err.Error())
		_, _ = w.Write([]byte(`<section class="summary"><div class="placeholder">Error rendering summary</div></section>`))
		return
	}
	s.summaryCache.Set(summaryCacheKey, buf.String())
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.renderHistory(w, r)
}

func (s *Server) renderHistory(w http.ResponseWriter, r *http.Request) {
	rows := buildHistory(s.tracker.Snapshot().Expenses)
	if err := s.templates.ExecuteTemplate(w, "page_history", rows); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "History template execution failed", log.FieldError, err.Error())
		_, _ = w.Write([]byte(`<section class="history"><div class="placeholder">Error rendering history</div></section>`))
	}
}

func buildSummary(sum core.Summary, targets core.Targets) summaryData {
	data := summaryData{
		WeekSpent:   sum.WeekSpent.String(),
		WeekTarget:  targets.Weekly.String(),
		WeekPct:     progressPct(sum.WeekSpent.Cents, targets.Weekly.Cents),
		MonthSpent:  sum.MonthSpent.String(),
		MonthTarget: targets.Monthly.String(),
		MonthPct:    progressPct(sum.MonthSpent.Cents, targets.Monthly.Cents),
	}

	// Scale category bars against the largest bucket, keeping tiny but
	// non-zero values visible.
	var maxCents int64
	for _, ct := range sum.ByCategory {
		if ct.Amount.Cents > maxCents {
			maxCents = ct.Amount.Cents
		}
	}
	for _, ct := range sum.ByCategory {
		width := 0
		if maxCents > 0 && ct.Amount.Cents > 0 {
			width = int((ct.Amount.Cents*100 + maxCents/2) / maxCents)
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		data.Rows = append(data.Rows, categoryRow{
			Name:   string(ct.Category),
			Amount: ct.Amount.String(),
			Width:  width,
		})
	}
	return data
}

func buildHistory(expenses []core.Expense) []historyRow {
	rows := make([]historyRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, historyRow{
			ID:       e.ID,
			Date:     e.Date.String(),
			Category: string(e.Category),
			Amount:   e.Amount.String(),
		})
	}
	return rows
}

// progressPct maps spent-vs-target to a 0..100 bar width. A zero target
// with any spending pins the bar at full.
func progressPct(spent, target int64) int {
	if spent <= 0 {
		return 0
	}
	if target <= 0 {
		return 100
	}
	pct := int((spent*100 + target/2) / target)
	if pct > 100 {
		pct = 100
	}
	return pct
}
