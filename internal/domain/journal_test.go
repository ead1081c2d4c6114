package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestValidateLines(t *testing.T) {
	tests := []struct {
		name    string
		lines   []LedgerLine
		wantErr error
	}{
		{
			name: "balanced two lines",
			lines: []LedgerLine{
				{AccountID: 1, Debit: dec("100.00")},
				{AccountID: 2, Credit: dec("100.00")},
			},
		},
		{
			name: "balanced split credit",
			lines: []LedgerLine{
				{AccountID: 1, Debit: dec("1100.00")},
				{AccountID: 2, Credit: dec("1000.00")},
				{AccountID: 3, Credit: dec("100.00")},
			},
		},
		{
			name: "scale differences compare exactly",
			lines: []LedgerLine{
				{AccountID: 1, Debit: dec("0.1")},
				{AccountID: 1, Debit: dec("0.2")},
				{AccountID: 2, Credit: dec("0.30")},
			},
		},
		{
			name: "line with both sides is allowed when aggregate balances",
			lines: []LedgerLine{
				{AccountID: 1, Debit: dec("50"), Credit: dec("10")},
				{AccountID: 2, Credit: dec("40")},
			},
		},
		{
			name: "unbalanced",
			lines: []LedgerLine{
				{AccountID: 1, Debit: dec("100")},
				{AccountID: 2, Credit: dec("90")},
			},
			wantErr: ErrUnbalancedEntry,
		},
		{
			name: "off by a fraction of a cent",
			lines: []LedgerLine{
				{AccountID: 1, Debit: dec("100.0001")},
				{AccountID: 2, Credit: dec("100")},
			},
			wantErr: ErrUnbalancedEntry,
		},
		{
			name:    "single line",
			lines:   []LedgerLine{{AccountID: 1, Debit: dec("0")}},
			wantErr: ErrInsufficientLines,
		},
		{
			name:    "no lines",
			wantErr: ErrInsufficientLines,
		},
		{
			name: "negative debit",
			lines: []LedgerLine{
				{AccountID: 1, Debit: dec("-10")},
				{AccountID: 2, Credit: dec("-10")},
			},
			wantErr: ErrNegativeAmount,
		},
		{
			name: "halves of the smallest unit round apart",
			lines: []LedgerLine{
				{AccountID: 1, Debit: dec("0.00005")},
				{AccountID: 1, Debit: dec("0.00005")},
				{AccountID: 2, Credit: dec("0.0001")},
			},
			wantErr: ErrInvalidAmountScale,
		},
		{
			name: "credit with five decimal places",
			lines: []LedgerLine{
				{AccountID: 1, Debit: dec("10.12345")},
				{AccountID: 2, Credit: dec("10.12345")},
			},
			wantErr: ErrInvalidAmountScale,
		},
		{
			name: "trailing zeros beyond four places are fine",
			lines: []LedgerLine{
				{AccountID: 1, Debit: dec("10.123400")},
				{AccountID: 2, Credit: dec("10.1234")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLines(tt.lines)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
		})
	}
}

func TestJournalEntry_TotalsAndAccounts(t *testing.T) {
	entry := &JournalEntry{
		Lines: []LedgerLine{
			{AccountID: 10, Debit: dec("200")},
			{AccountID: 11, Credit: dec("150")},
			{AccountID: 10, Credit: dec("50")},
		},
	}

	debit, credit := entry.Totals()
	assert.True(t, debit.Equal(dec("200")))
	assert.True(t, credit.Equal(dec("200")))
	assert.Equal(t, []int64{10, 11}, entry.AccountIDs())
	assert.Equal(t, EntryStatusDraft, entry.Status())

	entry.IsPosted = true
	assert.Equal(t, EntryStatusPosted, entry.Status())
}

func TestNumberLines(t *testing.T) {
	lines := make([]LedgerLine, 3)
	NumberLines(42, lines)

	for i, l := range lines {
		assert.Equal(t, int64(42), l.JournalEntryID)
		assert.Equal(t, i+1, l.LineNo)
	}
}
