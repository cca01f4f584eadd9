package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"treasury/internal/core"
	"treasury/internal/forecast"
	"treasury/internal/report"
	"treasury/internal/storage"
)

// Overview carries the dashboard summary cards.
type Overview struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
}

// DashboardService feeds the dashboard and report charts: ledger snapshot ->
// aggregation -> forecast. All reads snapshot the ledgers before computing so
// the derived series are internally consistent.
type DashboardService struct {
	storage      *storage.SQLiteRepository
	lookbackDays int
	horizonDays  int
}

func NewDashboardService(storage *storage.SQLiteRepository, lookbackDays, horizonDays int) *DashboardService {
	return &DashboardService{
		storage:      storage,
		lookbackDays: lookbackDays,
		horizonDays:  horizonDays,
	}
}

func (s *DashboardService) snapshot(ctx context.Context, rng storage.DateRange) (income, expense []core.Transaction, err error) {
	income, err = s.storage.ListTransactions(ctx, core.KindIncome, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot income ledger: %w", err)
	}
	expense, err = s.storage.ListTransactions(ctx, core.KindExpense, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot expense ledger: %w", err)
	}
	return income, expense, nil
}

// Overview computes the three summary cards over the full ledgers.
func (s *DashboardService) Overview(ctx context.Context) (Overview, error) {
	income, expense, err := s.snapshot(ctx, storage.DateRange{})
	if err != nil {
		return Overview{}, err
	}
	ti := report.Total(income)
	te := report.Total(expense)
	return Overview{
		TotalIncome:  ti,
		TotalExpense: te,
		Balance:      ti.Sub(te),
	}, nil
}

// PeriodComparison returns income and expense totals reconciled on the union
// of period keys, plus the count of dateless records skipped.
func (s *DashboardService) PeriodComparison(ctx context.Context, g report.Granularity, rng storage.DateRange) ([]report.PeriodPair, int, error) {
	income, expense, err := s.snapshot(ctx, rng)
	if err != nil {
		return nil, 0, err
	}

	incomeSummary, err := report.PeriodSummary(income, g)
	if err != nil {
		return nil, 0, err
	}
	expenseSummary, err := report.PeriodSummary(expense, g)
	if err != nil {
		return nil, 0, err
	}

	skipped := incomeSummary.Skipped + expenseSummary.Skipped
	return report.UnionPeriods(incomeSummary, expenseSummary), skipped, nil
}

// CategoryBreakdown returns per-category totals for one ledger. Historical
// labels whose category was renamed or deleted later appear as their own keys.
func (s *DashboardService) CategoryBreakdown(ctx context.Context, kind core.Kind, rng storage.DateRange) (report.Summary, error) {
	ledger, err := s.storage.ListTransactions(ctx, kind, rng)
	if err != nil {
		return report.Summary{}, fmt.Errorf("snapshot %s ledger: %w", kind, err)
	}
	return report.CategorySummary(ledger), nil
}

// BalanceSeries returns the cumulative balance over both ledgers.
func (s *DashboardService) BalanceSeries(ctx context.Context) (report.BalanceSeries, error) {
	income, expense, err := s.snapshot(ctx, storage.DateRange{})
	if err != nil {
		return report.BalanceSeries{}, err
	}
	return report.CumulativeBalance(income, expense), nil
}

// Forecast projects the balance trend past the last observed transaction.
func (s *DashboardService) Forecast(ctx context.Context) (forecast.Result, error) {
	series, err := s.BalanceSeries(ctx)
	if err != nil {
		return forecast.Result{}, err
	}
	return forecast.Forecast(series.Points, s.lookbackDays, s.horizonDays)
}
