package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrialBalance(t *testing.T) {
	accounts := []*Account{
		{ID: 3, AccountNumber: "5020", Name: "Expense", TypeID: AccountTypeExpense},
		{ID: 1, AccountNumber: "1012", Name: "Cash", TypeID: AccountTypeAsset},
		{ID: 2, AccountNumber: "4012", Name: "Revenue", TypeID: AccountTypeRevenue},
		{ID: 4, AccountNumber: "3010", Name: "Idle", TypeID: AccountTypeEquity},
		{ID: 5, AccountNumber: "1021", Name: "Zeroed", TypeID: AccountTypeAsset},
	}
	types := map[int64]AccountType{}
	for _, at := range DefaultAccountTypes() {
		types[at.ID] = at
	}
	balances := map[int64]AccountBalance{
		1: NewAccountBalance(1, decimal.NewFromInt(500), decimal.NewFromInt(200)),
		2: NewAccountBalance(2, decimal.Zero, decimal.NewFromInt(500)),
		3: NewAccountBalance(3, decimal.NewFromInt(200), decimal.Zero),
		5: NewAccountBalance(5, decimal.Zero, decimal.Zero),
	}

	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	tb := NewTrialBalance(accounts, types, balances, now)

	require.Len(t, tb.Rows, 3)
	assert.Equal(t, "1012", tb.Rows[0].AccountNumber)
	assert.Equal(t, "4012", tb.Rows[1].AccountNumber)
	assert.Equal(t, "5020", tb.Rows[2].AccountNumber)

	assert.Equal(t, "asset", tb.Rows[0].AccountType)
	assert.True(t, tb.Rows[0].Balance.Equal(decimal.NewFromInt(300)))
	assert.True(t, tb.Rows[1].Balance.Equal(decimal.NewFromInt(-500)))
	assert.True(t, tb.Rows[2].Balance.Equal(decimal.NewFromInt(200)))

	assert.True(t, tb.TotalDebit.Equal(decimal.NewFromInt(700)))
	assert.True(t, tb.TotalCredit.Equal(decimal.NewFromInt(700)))
	assert.True(t, tb.Balanced)
	assert.Equal(t, now, tb.GeneratedAt)
}

func TestNewTrialBalance_Empty(t *testing.T) {
	tb := NewTrialBalance(nil, nil, nil, time.Time{})

	assert.Empty(t, tb.Rows)
	assert.True(t, tb.Balanced)
	assert.True(t, tb.TotalDebit.IsZero())
}
