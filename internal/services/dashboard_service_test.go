package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"treasury/internal/core"
	"treasury/internal/report"
	"treasury/internal/storage"
)

func seedLedgers(t *testing.T, repo *storage.SQLiteRepository) {
	t.Helper()
	ctx := context.Background()
	rows := []core.Transaction{
		{Kind: core.KindIncome, Amount: decimal.NewFromInt(100), Date: core.NewDate(2024, 1, 5), Category: "Grants", Payer: "X"},
		{Kind: core.KindIncome, Amount: decimal.NewFromInt(50), Date: core.NewDate(2024, 2, 10), Category: "Grants", Payer: "X"},
		{Kind: core.KindExpense, Amount: decimal.NewFromInt(30), Date: core.NewDate(2024, 1, 20), Category: "Utilities"},
	}
	for _, r := range rows {
		if _, err := repo.CreateTransaction(ctx, r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestOverview(t *testing.T) {
	repo := testStorage(t)
	seedLedgers(t, repo)
	svc := NewDashboardService(repo, 90, 60)

	ov, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.TotalIncome.String() != "150" || ov.TotalExpense.String() != "30" || ov.Balance.String() != "120" {
		t.Fatalf("overview = %+v", ov)
	}
}

func TestPeriodComparison(t *testing.T) {
	repo := testStorage(t)
	seedLedgers(t, repo)
	svc := NewDashboardService(repo, 90, 60)

	pairs, skipped, err := svc.PeriodComparison(context.Background(), report.Monthly, storage.DateRange{})
	if err != nil {
		t.Fatalf("comparison: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d", skipped)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(pairs))
	}
	if pairs[0].Period != "2024-01" || pairs[0].Income.String() != "100" || pairs[0].Expense.String() != "30" {
		t.Fatalf("pair 0 = %+v", pairs[0])
	}
	if pairs[1].Period != "2024-02" || pairs[1].Income.String() != "50" || pairs[1].Expense.String() != "0" {
		t.Fatalf("pair 1 = %+v", pairs[1])
	}
}

func TestPeriodComparison_InvalidGranularity(t *testing.T) {
	repo := testStorage(t)
	svc := NewDashboardService(repo, 90, 60)
	if _, _, err := svc.PeriodComparison(context.Background(), "week", storage.DateRange{}); err == nil {
		t.Fatal("expected error for invalid granularity")
	}
}

func TestCategoryBreakdown(t *testing.T) {
	repo := testStorage(t)
	seedLedgers(t, repo)
	svc := NewDashboardService(repo, 90, 60)

	income, err := svc.CategoryBreakdown(context.Background(), core.KindIncome, storage.DateRange{})
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if got := income.Totals["Grants"].String(); got != "150" {
		t.Fatalf("Grants total = %s", got)
	}

	expense, err := svc.CategoryBreakdown(context.Background(), core.KindExpense, storage.DateRange{})
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if got := expense.Totals["Utilities"].String(); got != "30" {
		t.Fatalf("Utilities total = %s", got)
	}
}

func TestBalanceSeries(t *testing.T) {
	repo := testStorage(t)
	seedLedgers(t, repo)
	svc := NewDashboardService(repo, 90, 60)

	series, err := svc.BalanceSeries(context.Background())
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(series.Points) != 3 {
		t.Fatalf("points = %d", len(series.Points))
	}
	for i, want := range []string{"100", "70", "120"} {
		if series.Points[i].Balance.String() != want {
			t.Fatalf("point %d = %s, want %s", i, series.Points[i].Balance, want)
		}
	}
}

func TestForecast_InsufficientWithSparseLedger(t *testing.T) {
	repo := testStorage(t)
	svc := NewDashboardService(repo, 90, 60)

	ctx := context.Background()
	if _, err := repo.CreateTransaction(ctx, core.Transaction{
		Kind: core.KindIncome, Amount: decimal.NewFromInt(10),
		Date: core.NewDate(2024, 1, 1), Category: "Grants", Payer: "X",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := svc.Forecast(ctx)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if !res.Insufficient {
		t.Fatal("expected Insufficient with one balance point")
	}
}

func TestForecast_ProjectsHorizon(t *testing.T) {
	repo := testStorage(t)
	seedLedgers(t, repo)
	svc := NewDashboardService(repo, 90, 60)

	res, err := svc.Forecast(context.Background())
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if res.Insufficient {
		t.Fatal("unexpected Insufficient")
	}
	if len(res.Points) != 60 {
		t.Fatalf("points = %d", len(res.Points))
	}
	if res.Points[0].Date.String() != "2024-02-11" {
		t.Fatalf("first projected date = %s", res.Points[0].Date)
	}
}
