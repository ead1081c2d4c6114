package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MinEntryLines is the smallest number of lines a journal entry may carry.
const MinEntryLines = 2

// MaxAmountScale is the number of fractional digits ledger amounts are
// stored with (NUMERIC(20,4)).
const MaxAmountScale = 4

// JournalEntry is a dated set of ledger lines whose debits equal its credits.
// Entries start as drafts and become immutable once posted.
type JournalEntry struct {
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PostedAt    *time.Time
	Reference   *string
	EntryNumber string
	Description string
	Lines       []LedgerLine
	ID          int64
	IsPosted    bool
}

// LedgerLine is one debit and/or credit amount against one account.
type LedgerLine struct {
	CreatedAt      time.Time
	Description    string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	ID             int64
	JournalEntryID int64
	AccountID      int64
	LineNo         int
}

// AccountLine is a ledger line enriched with its entry header, used for
// account activity listings.
type AccountLine struct {
	EntryDate   time.Time
	EntryNumber string
	LedgerLine
	IsPosted bool
}

// Totals returns the summed debits and credits of the entry's lines.
func (e *JournalEntry) Totals() (debit, credit decimal.Decimal) {
	return LineTotals(e.Lines)
}

// Status returns "posted" or "draft".
func (e *JournalEntry) Status() string {
	if e.IsPosted {
		return EntryStatusPosted
	}
	return EntryStatusDraft
}

// Entry statuses.
const (
	EntryStatusDraft  = "draft"
	EntryStatusPosted = "posted"
)

// AccountIDs returns the distinct accounts referenced by the lines, in first-seen order.
func (e *JournalEntry) AccountIDs() []int64 {
	return DistinctAccountIDs(e.Lines)
}

// LineTotals sums debits and credits.
func LineTotals(lines []LedgerLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// DistinctAccountIDs returns each referenced account id once.
func DistinctAccountIDs(lines []LedgerLine) []int64 {
	seen := make(map[int64]bool, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	return ids
}

// ValidateLines checks the double-entry invariant: at least two lines, no
// negative amounts, at most MaxAmountScale fractional digits, and total
// debits exactly equal to total credits.
// Per-line debit/credit exclusivity is not enforced.
func ValidateLines(lines []LedgerLine) error {
	if len(lines) < MinEntryLines {
		return fmt.Errorf("%w: got %d, need at least %d", ErrInsufficientLines, len(lines), MinEntryLines)
	}

	for i, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d", ErrNegativeAmount, i+1)
		}
		if !FitsAmountScale(l.Debit) || !FitsAmountScale(l.Credit) {
			return fmt.Errorf("%w: line %d has more than %d decimal places", ErrInvalidAmountScale, i+1, MaxAmountScale)
		}
	}

	debit, credit := LineTotals(lines)
	if !debit.Equal(credit) {
		return fmt.Errorf("%w: debits %s != credits %s", ErrUnbalancedEntry, debit.String(), credit.String())
	}

	return nil
}

// FitsAmountScale reports whether a is stored without rounding.
func FitsAmountScale(a decimal.Decimal) bool {
	return a.Equal(a.Truncate(MaxAmountScale))
}

// NumberLines assigns sequential line numbers and the owning entry id.
func NumberLines(entryID int64, lines []LedgerLine) {
	for i := range lines {
		lines[i].JournalEntryID = entryID
		lines[i].LineNo = i + 1
	}
}
