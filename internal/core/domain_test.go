package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func validIncome() Transaction {
	return Transaction{
		Kind:     KindIncome,
		Amount:   decimal.NewFromInt(100),
		Date:     NewDate(2024, 1, 5),
		Category: "Donations",
		Payer:    "A. Member",
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid income", func(tx *Transaction) {}, nil},
		{"valid expense without payer", func(tx *Transaction) {
			tx.Kind = KindExpense
			tx.Payer = ""
		}, nil},
		{"unknown kind", func(tx *Transaction) { tx.Kind = "transfer" }, ErrInvalidKind},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-3) }, ErrInvalidAmount},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"blank category", func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
		{"income without payer", func(tx *Transaction) { tx.Payer = "" }, ErrEmptyPayer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validIncome()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTransactionValidate_LongDescription(t *testing.T) {
	tx := validIncome()
	for len(tx.Description) <= 200 {
		tx.Description += "xxxxxxxxxx"
	}
	if err := tx.Validate(); err == nil {
		t.Fatal("expected error for description over 200 characters")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Fatalf("got %s", d)
	}

	for _, bad := range []string{"", "2024-13-01", "05/01/2024", "2024-02-30", "yesterday"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestSigned(t *testing.T) {
	in := validIncome()
	if in.Signed().String() != "100" {
		t.Fatalf("income signed = %s", in.Signed())
	}
	out := validIncome()
	out.Kind = KindExpense
	if out.Signed().String() != "-100" {
		t.Fatalf("expense signed = %s", out.Signed())
	}
}

func TestMemberValidate(t *testing.T) {
	m := Member{FullName: "Jo Smith", JoinDate: NewDate(2023, 6, 1)}
	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.FullName = " "
	if !errors.Is(m.Validate(), ErrEmptyName) {
		t.Fatal("expected ErrEmptyName")
	}
}

func TestActivityValidate(t *testing.T) {
	a := Activity{Name: "Cleanup day", Date: NewDate(2024, 4, 20)}
	if err := a.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.Date = Date{}
	if !errors.Is(a.Validate(), ErrInvalidDate) {
		t.Fatal("expected ErrInvalidDate")
	}
}
