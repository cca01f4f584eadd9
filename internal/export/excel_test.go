package export

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"treasury/internal/core"
)

func sampleLedgers() (incomes, expenses []core.Transaction) {
	incomes = []core.Transaction{
		{
			Kind:     core.KindIncome,
			Amount:   decimal.RequireFromString("1500.50"),
			Date:     core.NewDate(2024, 1, 5),
			Category: "Grants",
			Payer:    "City council",
		},
		{
			Kind:        core.KindIncome,
			Amount:      decimal.RequireFromString("75"),
			Date:        core.NewDate(2024, 2, 1),
			Category:    "Membership fees",
			Payer:       "J. Doe",
			Description: "annual fee",
		},
	}
	expenses = []core.Transaction{
		{
			Kind:        core.KindExpense,
			Amount:      decimal.RequireFromString("320.25"),
			Date:        core.NewDate(2024, 1, 20),
			Category:    "Utilities",
			Description: "electricity",
		},
	}
	return incomes, expenses
}

func TestWriteAndReadBackup(t *testing.T) {
	incomes, expenses := sampleLedgers()

	var buf bytes.Buffer
	if err := WriteReport(&buf, incomes, expenses, "all time"); err != nil {
		t.Fatalf("write: %v", err)
	}

	gotIncomes, gotExpenses, err := ReadBackup(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if len(gotIncomes) != len(incomes) || len(gotExpenses) != len(expenses) {
		t.Fatalf("counts = %d/%d, want %d/%d", len(gotIncomes), len(gotExpenses), len(incomes), len(expenses))
	}
	for i, want := range incomes {
		got := gotIncomes[i]
		if got.Kind != core.KindIncome {
			t.Fatalf("income %d kind = %s", i, got.Kind)
		}
		if !got.Amount.Equal(want.Amount) || got.Date.String() != want.Date.String() {
			t.Fatalf("income %d = %+v, want %+v", i, got, want)
		}
		if got.Payer != want.Payer || got.Category != want.Category || got.Description != want.Description {
			t.Fatalf("income %d fields = %+v, want %+v", i, got, want)
		}
	}
	got := gotExpenses[0]
	if got.Kind != core.KindExpense || got.Payer != "" {
		t.Fatalf("expense row carries income fields: %+v", got)
	}
	if !got.Amount.Equal(expenses[0].Amount) || got.Category != "Utilities" {
		t.Fatalf("expense = %+v", got)
	}
}

func TestSummarySheetTotals(t *testing.T) {
	incomes, expenses := sampleLedgers()

	f, err := NewReportFile(incomes, expenses, "2024-01-01 to 2024-02-29")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer f.Close()

	checks := []struct{ cell, want string }{
		{"B1", "2024-01-01 to 2024-02-29"},
		{"B3", "1575.5"},
		{"B4", "320.25"},
		{"B5", "1255.25"},
	}
	for _, c := range checks {
		got, err := f.GetCellValue("Summary", c.cell)
		if err != nil {
			t.Fatalf("get %s: %v", c.cell, err)
		}
		if got != c.want {
			t.Fatalf("Summary!%s = %q, want %q", c.cell, got, c.want)
		}
	}
}

func TestReadBackup_EmptyLedgers(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, nil, nil, "all time"); err != nil {
		t.Fatalf("write: %v", err)
	}
	incomes, expenses, err := ReadBackup(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(incomes) != 0 || len(expenses) != 0 {
		t.Fatalf("expected empty ledgers, got %d/%d", len(incomes), len(expenses))
	}
}

func TestReadBackup_BadRowAborts(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	for _, sheet := range []string{"Incomes", "Expenses"} {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("sheet: %v", err)
		}
	}
	// Header plus one row with a malformed date.
	for i, h := range []string{"Date", "Payer", "Description", "Category", "Amount"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Incomes", cell, h)
	}
	for i, v := range []string{"not-a-date", "X", "", "Grants", "10"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue("Incomes", cell, v)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := ReadBackup(bytes.NewReader(buf.Bytes())); err == nil {
		t.Fatal("expected error for malformed row")
	}
}
