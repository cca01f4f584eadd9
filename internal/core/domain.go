package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type (
	// Kind distinguishes the two ledgers.
	Kind string

	Date struct {
		time.Time
	}

	// Transaction is a single ledger record. Payer is only meaningful for
	// income records; Category is a historical label, not a foreign key.
	Transaction struct {
		ID            int64
		Kind          Kind
		Amount        decimal.Decimal
		Date          Date
		Category      string
		Description   string
		Notes         string
		Payer         string
		AttachmentRef string
	}

	Member struct {
		ID       int64
		FullName string
		JoinDate Date
		Phone    string
		Address  string
		Status   string
		Notes    string
	}

	Activity struct {
		ID          int64
		Name        string
		Date        Date
		Location    string
		Description string
	}

	User struct {
		ID                 int64
		Username           string
		PasswordHash       string
		Role               string
		MustChangePassword bool
	}

	Category struct {
		ID   int64
		Name string
	}

	AuditEntry struct {
		ID        int64
		Timestamp time.Time
		Username  string
		Action    string
		Details   string
	}
)

var (
	ErrInvalidKind   = errors.New("invalid transaction kind")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyName     = errors.New("empty name")
	ErrEmptyUsername = errors.New("empty username")
	ErrEmptyPayer    = errors.New("empty payer")
)

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Truncate drops any time component, keeping UTC midnight.
func (d Date) Truncate() Date {
	y, m, day := d.Date()
	return NewDate(y, int(m), day)
}

func (k Kind) Validate() error {
	switch k {
	case KindIncome, KindExpense:
		return nil
	}
	return ErrInvalidKind
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Kind == KindIncome && strings.TrimSpace(t.Payer) == "" {
		return ErrEmptyPayer
	}
	return nil
}

// Signed returns +Amount for income and -Amount for expense.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == KindExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.FullName) == "" {
		return ErrEmptyName
	}
	if err := m.JoinDate.Validate(); err != nil {
		return err
	}
	return nil
}

func (a Activity) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if err := a.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	if u.Role == "" {
		return errors.New("empty role")
	}
	return nil
}
