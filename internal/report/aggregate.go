// Package report turns raw ledgers into the derived series consumed by the
// dashboard and the spreadsheet reports: per-period sums, per-category sums
// and the cumulative balance over both ledgers.
//
// All functions are pure: they never mutate their inputs and repeated calls
// on the same ledgers yield identical output.
package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"treasury/internal/core"
)

const (
	Monthly Granularity = "month"
	Yearly  Granularity = "year"
)

type (
	// Granularity selects the period bucket size.
	Granularity string

	// Summary maps a chronologically sortable period key ("2024-01" or
	// "2024") or a category name to the summed amount. Skipped counts
	// records excluded because their date was missing or malformed; it is
	// a data-quality signal, not an error.
	Summary struct {
		Totals  map[string]decimal.Decimal
		Skipped int
	}

	// PeriodPair reconciles two summaries onto one period key. Periods
	// present in only one ledger carry an implicit zero for the other.
	PeriodPair struct {
		Period  string
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	// BalancePoint is one sample of the running signed balance, taken at
	// each transaction across both ledgers.
	BalancePoint struct {
		Date    core.Date
		Balance decimal.Decimal
	}

	// BalanceSeries is the date-ordered cumulative balance with the count
	// of dateless records excluded from it.
	BalanceSeries struct {
		Points  []BalancePoint
		Skipped int
	}
)

func (g Granularity) periodKey(d core.Date) string {
	if g == Yearly {
		return d.Format("2006")
	}
	return d.Format("2006-01")
}

// PeriodSummary sums one ledger's amounts per period bucket. Input order does
// not matter. An empty ledger produces an empty (non-nil) map.
func PeriodSummary(ledger []core.Transaction, g Granularity) (Summary, error) {
	if g != Monthly && g != Yearly {
		return Summary{}, fmt.Errorf("invalid granularity %q", g)
	}

	s := Summary{Totals: make(map[string]decimal.Decimal, len(ledger))}
	for _, t := range ledger {
		if t.Date.IsZero() {
			s.Skipped++
			continue
		}
		key := g.periodKey(t.Date)
		s.Totals[key] = s.Totals[key].Add(t.Amount)
	}
	return s, nil
}

// CategorySummary sums one ledger's amounts per category label. Orphaned
// category strings (the category was renamed or deleted later) are ordinary
// keys here.
func CategorySummary(ledger []core.Transaction) Summary {
	s := Summary{Totals: make(map[string]decimal.Decimal)}
	for _, t := range ledger {
		s.Totals[t.Category] = s.Totals[t.Category].Add(t.Amount)
	}
	return s
}

// UnionPeriods reconciles income and expense period totals onto the sorted
// union of their period keys, filling missing sides with zero.
func UnionPeriods(income, expense Summary) []PeriodPair {
	keys := make(map[string]struct{}, len(income.Totals)+len(expense.Totals))
	for k := range income.Totals {
		keys[k] = struct{}{}
	}
	for k := range expense.Totals {
		keys[k] = struct{}{}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	pairs := make([]PeriodPair, len(sorted))
	for i, k := range sorted {
		pairs[i] = PeriodPair{
			Period:  k,
			Income:  income.Totals[k],
			Expense: expense.Totals[k],
		}
	}
	return pairs
}

// CumulativeBalance merges both ledgers into one signed sequence, sorts it
// ascending by date and computes the running sum. Same-date transactions are
// ordered by id ascending so the series is deterministic regardless of how
// the ledgers were fetched. Records without a date are skipped and counted.
//
// The final point's balance equals total income minus total expense.
func CumulativeBalance(income, expense []core.Transaction) BalanceSeries {
	type signedTx struct {
		id     int64
		date   core.Date
		amount decimal.Decimal
	}

	merged := make([]signedTx, 0, len(income)+len(expense))
	var skipped int
	for _, t := range income {
		if t.Date.IsZero() {
			skipped++
			continue
		}
		merged = append(merged, signedTx{id: t.ID, date: t.Date, amount: t.Amount})
	}
	for _, t := range expense {
		if t.Date.IsZero() {
			skipped++
			continue
		}
		merged = append(merged, signedTx{id: t.ID, date: t.Date, amount: t.Amount.Neg()})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].date.Equal(merged[j].date.Time) {
			return merged[i].date.Before(merged[j].date.Time)
		}
		return merged[i].id < merged[j].id
	})

	points := make([]BalancePoint, len(merged))
	running := decimal.Zero
	for i, t := range merged {
		running = running.Add(t.amount)
		points[i] = BalancePoint{Date: t.date, Balance: running}
	}
	return BalanceSeries{Points: points, Skipped: skipped}
}

// Total sums a whole ledger, ignoring dates.
func Total(ledger []core.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range ledger {
		sum = sum.Add(t.Amount)
	}
	return sum
}
