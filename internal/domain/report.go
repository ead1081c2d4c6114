package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow is one account's posted totals.
type TrialBalanceRow struct {
	AccountNumber string
	AccountName   string
	AccountType   string
	DebitTotal    decimal.Decimal
	CreditTotal   decimal.Decimal
	Balance       decimal.Decimal
	AccountID     int64
}

// TrialBalance lists every account with posted activity.
type TrialBalance struct {
	GeneratedAt time.Time
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balanced    bool
}

// NewTrialBalance builds the report. Accounts without posted activity are
// left out and rows are ordered by account number.
func NewTrialBalance(
	accounts []*Account,
	types map[int64]AccountType,
	balances map[int64]AccountBalance,
	generatedAt time.Time,
) *TrialBalance {
	tb := &TrialBalance{
		GeneratedAt: generatedAt,
		Rows:        make([]TrialBalanceRow, 0, len(balances)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}

	for _, a := range accounts {
		bal, ok := balances[a.ID]
		if !ok || !bal.HasActivity() {
			continue
		}

		tb.Rows = append(tb.Rows, TrialBalanceRow{
			AccountID:     a.ID,
			AccountNumber: a.AccountNumber,
			AccountName:   a.Name,
			AccountType:   types[a.TypeID].Name,
			DebitTotal:    bal.DebitTotal,
			CreditTotal:   bal.CreditTotal,
			Balance:       bal.Balance,
		})
		tb.TotalDebit = tb.TotalDebit.Add(bal.DebitTotal)
		tb.TotalCredit = tb.TotalCredit.Add(bal.CreditTotal)
	}

	sort.Slice(tb.Rows, func(i, j int) bool {
		return tb.Rows[i].AccountNumber < tb.Rows[j].AccountNumber
	})

	tb.Balanced = tb.TotalDebit.Equal(tb.TotalCredit)

	return tb
}
