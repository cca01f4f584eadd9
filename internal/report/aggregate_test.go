package report

import (
	"testing"

	"github.com/shopspring/decimal"

	"treasury/internal/core"
)

func tx(id int64, amount string, year, month, day int) core.Transaction {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	return core.Transaction{ID: id, Amount: d, Date: core.NewDate(year, month, day), Category: "General"}
}

func TestPeriodSummary_Monthly(t *testing.T) {
	ledger := []core.Transaction{
		tx(1, "100", 2024, 1, 5),
		tx(2, "50", 2024, 2, 10),
		tx(3, "30", 2024, 1, 20),
	}
	s, err := PeriodSummary(ledger, Monthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Totals) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(s.Totals))
	}
	if s.Totals["2024-01"].String() != "130" {
		t.Fatalf("2024-01 = %s", s.Totals["2024-01"])
	}
	if s.Totals["2024-02"].String() != "50" {
		t.Fatalf("2024-02 = %s", s.Totals["2024-02"])
	}
	if s.Skipped != 0 {
		t.Fatalf("skipped = %d", s.Skipped)
	}
}

func TestPeriodSummary_Yearly(t *testing.T) {
	ledger := []core.Transaction{
		tx(1, "100", 2023, 12, 31),
		tx(2, "50", 2024, 1, 1),
	}
	s, err := PeriodSummary(ledger, Yearly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Totals["2023"].String() != "100" || s.Totals["2024"].String() != "50" {
		t.Fatalf("totals = %v", s.Totals)
	}
}

func TestPeriodSummary_Empty(t *testing.T) {
	s, err := PeriodSummary(nil, Monthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Totals == nil || len(s.Totals) != 0 {
		t.Fatalf("expected empty non-nil map, got %v", s.Totals)
	}
}

func TestPeriodSummary_InvalidGranularity(t *testing.T) {
	if _, err := PeriodSummary(nil, "week"); err == nil {
		t.Fatal("expected error for invalid granularity")
	}
}

func TestPeriodSummary_SkipsDatelessRecords(t *testing.T) {
	ledger := []core.Transaction{
		tx(1, "100", 2024, 1, 5),
		{ID: 2, Amount: decimal.NewFromInt(40), Category: "General"}, // no date
	}
	s, err := PeriodSummary(ledger, Monthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Skipped != 1 {
		t.Fatalf("skipped = %d", s.Skipped)
	}
	if s.Totals["2024-01"].String() != "100" {
		t.Fatalf("2024-01 = %s", s.Totals["2024-01"])
	}
}

// The period totals must re-sum to the ledger total minus skipped records.
func TestPeriodSummary_ResumsToTotal(t *testing.T) {
	ledger := []core.Transaction{
		tx(1, "100.10", 2024, 1, 5),
		tx(2, "50.25", 2024, 2, 10),
		tx(3, "30.65", 2025, 1, 20),
		tx(4, "19", 2025, 3, 1),
	}
	for _, g := range []Granularity{Monthly, Yearly} {
		s, err := PeriodSummary(ledger, g)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sum := decimal.Zero
		for _, v := range s.Totals {
			sum = sum.Add(v)
		}
		if !sum.Equal(Total(ledger)) {
			t.Fatalf("%s: periods sum to %s, ledger total %s", g, sum, Total(ledger))
		}
	}
}

func TestCategorySummary_StaleLabelsAreOrdinaryKeys(t *testing.T) {
	ledger := []core.Transaction{
		tx(1, "10", 2024, 1, 1),
		tx(2, "20", 2024, 1, 2),
	}
	ledger[1].Category = "Removed Category"

	s := CategorySummary(ledger)
	if s.Totals["General"].String() != "10" {
		t.Fatalf("General = %s", s.Totals["General"])
	}
	if s.Totals["Removed Category"].String() != "20" {
		t.Fatalf("Removed Category = %s", s.Totals["Removed Category"])
	}
}

func TestUnionPeriods(t *testing.T) {
	income := Summary{Totals: map[string]decimal.Decimal{
		"2024-01": decimal.NewFromInt(100),
		"2024-03": decimal.NewFromInt(20),
	}}
	expense := Summary{Totals: map[string]decimal.Decimal{
		"2024-01": decimal.NewFromInt(30),
		"2024-02": decimal.NewFromInt(5),
	}}

	pairs := UnionPeriods(income, expense)
	want := []struct{ period, in, out string }{
		{"2024-01", "100", "30"},
		{"2024-02", "0", "5"},
		{"2024-03", "20", "0"},
	}
	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %d", len(want), len(pairs))
	}
	for i, w := range want {
		p := pairs[i]
		if p.Period != w.period || p.Income.String() != w.in || p.Expense.String() != w.out {
			t.Fatalf("pair %d = %+v, want %+v", i, p, w)
		}
	}
}

func TestCumulativeBalance(t *testing.T) {
	income := []core.Transaction{
		tx(1, "100", 2024, 1, 5),
		tx(2, "50", 2024, 2, 10),
	}
	expense := []core.Transaction{
		tx(3, "30", 2024, 1, 20),
	}

	series := CumulativeBalance(income, expense)
	if len(series.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(series.Points))
	}
	for i, want := range []string{"100", "70", "120"} {
		if series.Points[i].Balance.String() != want {
			t.Fatalf("point %d balance = %s, want %s", i, series.Points[i].Balance, want)
		}
	}
	if series.Skipped != 0 {
		t.Fatalf("skipped = %d", series.Skipped)
	}
}

// The last balance must equal total income minus total expense, whatever the
// input order.
func TestCumulativeBalance_FinalPoint(t *testing.T) {
	income := []core.Transaction{
		tx(4, "12.50", 2024, 3, 3),
		tx(1, "100", 2024, 1, 5),
		tx(2, "50", 2024, 2, 10),
	}
	expense := []core.Transaction{
		tx(5, "0.75", 2024, 2, 28),
		tx(3, "30", 2024, 1, 20),
	}

	series := CumulativeBalance(income, expense)
	last := series.Points[len(series.Points)-1].Balance
	want := Total(income).Sub(Total(expense))
	if !last.Equal(want) {
		t.Fatalf("final balance = %s, want %s", last, want)
	}
}

func TestCumulativeBalance_SameDateOrderedByID(t *testing.T) {
	income := []core.Transaction{tx(2, "10", 2024, 1, 1)}
	expense := []core.Transaction{tx(1, "4", 2024, 1, 1)}

	series := CumulativeBalance(income, expense)
	// id 1 (expense) first, then id 2 (income).
	if series.Points[0].Balance.String() != "-4" {
		t.Fatalf("first balance = %s", series.Points[0].Balance)
	}
	if series.Points[1].Balance.String() != "6" {
		t.Fatalf("second balance = %s", series.Points[1].Balance)
	}
}

func TestCumulativeBalance_SkipsDatelessRecords(t *testing.T) {
	income := []core.Transaction{
		tx(1, "100", 2024, 1, 5),
		{ID: 2, Amount: decimal.NewFromInt(99), Category: "General"},
	}
	series := CumulativeBalance(income, nil)
	if len(series.Points) != 1 || series.Skipped != 1 {
		t.Fatalf("points = %d, skipped = %d", len(series.Points), series.Skipped)
	}
}

func TestCumulativeBalance_Empty(t *testing.T) {
	series := CumulativeBalance(nil, nil)
	if len(series.Points) != 0 || series.Skipped != 0 {
		t.Fatalf("expected empty series, got %+v", series)
	}
}

// Aggregation is pure: running it twice over the same input must give the
// same output and leave the input untouched.
func TestCumulativeBalance_Idempotent(t *testing.T) {
	income := []core.Transaction{tx(2, "50", 2024, 2, 10), tx(1, "100", 2024, 1, 5)}
	expense := []core.Transaction{tx(3, "30", 2024, 1, 20)}

	first := CumulativeBalance(income, expense)
	second := CumulativeBalance(income, expense)
	if len(first.Points) != len(second.Points) {
		t.Fatalf("point counts differ: %d vs %d", len(first.Points), len(second.Points))
	}
	for i := range first.Points {
		if !first.Points[i].Balance.Equal(second.Points[i].Balance) ||
			!first.Points[i].Date.Equal(second.Points[i].Date.Time) {
			t.Fatalf("point %d differs between runs", i)
		}
	}
	if income[0].ID != 2 || income[1].ID != 1 {
		t.Fatal("input slice was reordered")
	}
}
