// Package report turns a flat list of finance records into the nested
// summaries the app's reporting screens show. Everything here is a pure
// function of the record list and the window bounds; nothing is stored.
package report

import (
	"sort"
	"time"

	"github.com/agrifleet/agrifleet-backend/internal/models"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

type CategorySummary struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"total_amount"`
	RecordCount int     `json:"record_count"`
	Percentage  float64 `json:"percentage"`
	IsIncome    bool    `json:"is_income"`
}

type DaySummary struct {
	Date        time.Time `json:"date"`
	Income      float64   `json:"income"`
	Expense     float64   `json:"expense"`
	Balance     float64   `json:"balance"`
	RecordCount int       `json:"record_count"`
}

type HourSummary struct {
	Hour        int     `json:"hour"`
	TotalAmount float64 `json:"total_amount"`
	RecordCount int     `json:"record_count"`
}

type Report struct {
	Period       Period    `json:"period"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	TotalIncome  float64   `json:"total_income"`
	TotalExpense float64   `json:"total_expense"`
	Balance      float64   `json:"balance"`

	// Categories merges income and expense entries under the category
	// name; when a name appears on both sides the expense entry wins.
	// Use IncomeCategories/ExpenseCategories when both sides matter.
	Categories        map[string]CategorySummary `json:"categories"`
	IncomeCategories  []CategorySummary          `json:"income_categories"`
	ExpenseCategories []CategorySummary          `json:"expense_categories"`

	// Days covers every calendar day of the window, zero-filled and in
	// chronological order.
	Days []DaySummary `json:"days"`

	// Hourly breakdowns are only computed for single-day windows.
	Hours         []HourSummary          `json:"hours,omitempty"`
	HourlyIncome  map[string][24]float64 `json:"hourly_income,omitempty"`
	HourlyExpense map[string][24]float64 `json:"hourly_expense,omitempty"`
}

// Classify maps a window to a period: one calendar day is daily, up to a
// week is weekly, anything longer is monthly. Only daily reports get
// hourly breakdowns.
func Classify(start, end time.Time) Period {
	switch days := daySpan(start, end); {
	case days <= 1:
		return PeriodDaily
	case days <= 7:
		return PeriodWeekly
	default:
		return PeriodMonthly
	}
}

// Build produces the report for records falling inside [start, end]
// inclusive. Records outside the window are ignored; the input order
// does not matter.
func Build(records []models.FinanceRecord, start, end time.Time) Report {
	rep := Report{
		Period:     Classify(start, end),
		Start:      start,
		End:        end,
		Categories: map[string]CategorySummary{},
	}

	var inWindow []models.FinanceRecord
	for _, r := range records {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		inWindow = append(inWindow, r)
		if r.IsIncome {
			rep.TotalIncome += r.Amount
		} else {
			rep.TotalExpense += r.Amount
		}
	}
	rep.Balance = rep.TotalIncome - rep.TotalExpense

	rep.IncomeCategories = categorize(inWindow, true, rep.TotalIncome)
	rep.ExpenseCategories = categorize(inWindow, false, rep.TotalExpense)
	// Income first so a colliding expense category overwrites it,
	// matching the combined map the app has always shown.
	for _, c := range rep.IncomeCategories {
		rep.Categories[c.Category] = c
	}
	for _, c := range rep.ExpenseCategories {
		rep.Categories[c.Category] = c
	}

	rep.Days = dailyBreakdown(inWindow, start, end)

	if rep.Period == PeriodDaily {
		rep.Hours, rep.HourlyIncome, rep.HourlyExpense = hourlyBreakdown(inWindow)
	}
	return rep
}

func categorize(records []models.FinanceRecord, income bool, subsetTotal float64) []CategorySummary {
	byName := map[string]*CategorySummary{}
	for _, r := range records {
		if r.IsIncome != income {
			continue
		}
		c := byName[r.Category]
		if c == nil {
			c = &CategorySummary{Category: r.Category, IsIncome: income}
			byName[r.Category] = c
		}
		c.TotalAmount += r.Amount
		c.RecordCount++
	}

	out := make([]CategorySummary, 0, len(byName))
	for _, c := range byName {
		if subsetTotal != 0 {
			c.Percentage = c.TotalAmount / subsetTotal * 100
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalAmount > out[j].TotalAmount })
	return out
}

func dailyBreakdown(records []models.FinanceRecord, start, end time.Time) []DaySummary {
	loc := start.Location()
	first := truncateDay(start)
	last := truncateDay(end.In(loc))

	byDay := map[time.Time]*DaySummary{}
	var days []DaySummary
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, DaySummary{Date: d})
		byDay[d] = &days[len(days)-1]
	}

	for _, r := range records {
		day := truncateDay(r.Date.In(loc))
		s := byDay[day]
		if s == nil {
			continue
		}
		if r.IsIncome {
			s.Income += r.Amount
		} else {
			s.Expense += r.Amount
		}
		s.Balance = s.Income - s.Expense
		s.RecordCount++
	}
	return days
}

func hourlyBreakdown(records []models.FinanceRecord) ([]HourSummary, map[string][24]float64, map[string][24]float64) {
	hours := make([]HourSummary, 24)
	for h := range hours {
		hours[h].Hour = h
	}
	income := map[string][24]float64{}
	expense := map[string][24]float64{}

	for _, r := range records {
		h := r.Date.Hour()
		hours[h].TotalAmount += r.Amount
		hours[h].RecordCount++

		target := expense
		if r.IsIncome {
			target = income
		}
		buckets := target[r.Category]
		buckets[h] += r.Amount
		target[r.Category] = buckets
	}
	return hours, income, expense
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daySpan(start, end time.Time) int {
	return int(truncateDay(end.In(start.Location())).Sub(truncateDay(start)).Hours()/24) + 1
}
