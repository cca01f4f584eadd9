// Package export writes the financial report / backup workbook and reads it
// back for restore. The workbook has three sheets: a summary of totals, the
// income ledger and the expense ledger.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"treasury/internal/core"
	"treasury/internal/report"
)

const (
	sheetSummary  = "Summary"
	sheetIncomes  = "Incomes"
	sheetExpenses = "Expenses"
)

var (
	incomeHeader  = []string{"Date", "Payer", "Description", "Category", "Amount"}
	expenseHeader = []string{"Date", "Description", "Category", "Amount"}
)

// NewReportFile builds the report workbook in memory. period is a human
// label for the covered range ("2024-01-01 to 2024-06-30" or "all time").
func NewReportFile(incomes, expenses []core.Transaction, period string) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSummarySheet(f, incomes, expenses, period); err != nil {
		return nil, err
	}
	if err := writeLedgerSheet(f, sheetIncomes, incomeHeader, incomes); err != nil {
		return nil, err
	}
	if err := writeLedgerSheet(f, sheetExpenses, expenseHeader, expenses); err != nil {
		return nil, err
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// WriteReport streams the workbook to w.
func WriteReport(w io.Writer, incomes, expenses []core.Transaction, period string) error {
	f, err := NewReportFile(incomes, expenses, period)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveReport writes the workbook to a file path.
func SaveReport(path string, incomes, expenses []core.Transaction, period string) error {
	f, err := NewReportFile(incomes, expenses, period)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, incomes, expenses []core.Transaction, period string) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	totalIncome := report.Total(incomes)
	totalExpense := report.Total(expenses)

	cells := []struct {
		cell  string
		value any
	}{
		{"A1", "Financial report"},
		{"B1", period},
		{"A3", "Total income"},
		{"B3", totalIncome.String()},
		{"A4", "Total expense"},
		{"B4", totalExpense.String()},
		{"A5", "Net balance"},
		{"B5", totalIncome.Sub(totalExpense).String()},
	}
	for _, c := range cells {
		if err := f.SetCellValue(sheetSummary, c.cell, c.value); err != nil {
			return fmt.Errorf("set summary cell %s: %w", c.cell, err)
		}
	}
	return nil
}

func writeLedgerSheet(f *excelize.File, sheet string, header []string, ledger []core.Transaction) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("set header cell: %w", err)
		}
	}

	for rowIdx, t := range ledger {
		row := ledgerRow(sheet, t)
		for colIdx, v := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("set cell %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func ledgerRow(sheet string, t core.Transaction) []any {
	if sheet == sheetIncomes {
		return []any{t.Date.String(), t.Payer, t.Description, t.Category, t.Amount.String()}
	}
	return []any{t.Date.String(), t.Description, t.Category, t.Amount.String()}
}
