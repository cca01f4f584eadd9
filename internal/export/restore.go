package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"treasury/internal/core"
)

// ReadBackup parses a previously exported workbook back into the two
// ledgers. Rows with an unparseable date or amount abort the restore; a
// partial restore would silently lose data.
func ReadBackup(r io.Reader) (incomes, expenses []core.Transaction, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	incomes, err = readLedgerSheet(f, sheetIncomes, core.KindIncome)
	if err != nil {
		return nil, nil, err
	}
	expenses, err = readLedgerSheet(f, sheetExpenses, core.KindExpense)
	if err != nil {
		return nil, nil, err
	}
	return incomes, expenses, nil
}

func readLedgerSheet(f *excelize.File, sheet string, kind core.Kind) ([]core.Transaction, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var out []core.Transaction
	for i, row := range rows[1:] { // skip header
		if len(row) == 0 {
			continue
		}
		t, err := parseLedgerRow(sheet, kind, row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func parseLedgerRow(sheet string, kind core.Kind, row []string) (core.Transaction, error) {
	want := len(expenseHeader)
	if sheet == sheetIncomes {
		want = len(incomeHeader)
	}
	if len(row) < want {
		return core.Transaction{}, fmt.Errorf("expected %d columns, got %d", want, len(row))
	}

	date, err := core.ParseDate(row[0])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", row[0], err)
	}

	t := core.Transaction{Kind: kind, Date: date}
	if sheet == sheetIncomes {
		t.Payer = row[1]
		t.Description = row[2]
		t.Category = row[3]
		t.Amount, err = core.ParseAmount(row[4])
	} else {
		t.Description = row[1]
		t.Category = row[2]
		t.Amount, err = core.ParseAmount(row[3])
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	return t, nil
}
