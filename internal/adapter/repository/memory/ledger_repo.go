package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// AppendLines adds lines to an entry and assigns their ids.
func (r *LedgerRepository) AppendLines(_ context.Context, tx usecase.Transaction, entryID int64, lines []domain.LedgerLine) error {
	return r.store.update(tx, func(st *state) error {
		return appendLines(st, entryID, lines)
	})
}

// ReplaceLines deletes the entry's lines and inserts lines instead.
func (r *LedgerRepository) ReplaceLines(_ context.Context, tx usecase.Transaction, entryID int64, lines []domain.LedgerLine) error {
	return r.store.update(tx, func(st *state) error {
		delete(st.lines, entryID)
		return appendLines(st, entryID, lines)
	})
}

func appendLines(st *state, entryID int64, lines []domain.LedgerLine) error {
	if st.entries[entryID] == nil {
		return domain.ErrEntryNotFound
	}
	for _, l := range lines {
		if st.accounts[l.AccountID] == nil {
			return fmt.Errorf("%w: %d", domain.ErrUnknownAccount, l.AccountID)
		}
	}

	for i := range lines {
		lines[i].ID = st.nextLineID
		lines[i].JournalEntryID = entryID
		st.nextLineID++
		st.lines[entryID] = append(st.lines[entryID], lines[i])
	}
	return nil
}

// LinesForEntry returns the entry's lines ordered by line number.
func (r *LedgerRepository) LinesForEntry(_ context.Context, tx usecase.Transaction, entryID int64) ([]domain.LedgerLine, error) {
	var lines []domain.LedgerLine
	err := r.store.view(tx, func(st *state) error {
		lines = append([]domain.LedgerLine{}, st.lines[entryID]...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNo < lines[j].LineNo })
	return lines, nil
}

// LinesForAccount returns the account's lines with their entry header,
// newest entry first.
func (r *LedgerRepository) LinesForAccount(_ context.Context, accountID int64, limit, offset int) ([]domain.AccountLine, error) {
	lines := []domain.AccountLine{}
	err := r.store.view(nil, func(st *state) error {
		for entryID, entryLines := range st.lines {
			e := st.entries[entryID]
			for _, l := range entryLines {
				if l.AccountID != accountID {
					continue
				}
				lines = append(lines, domain.AccountLine{
					EntryDate:   e.Date,
					EntryNumber: e.EntryNumber,
					LedgerLine:  l,
					IsPosted:    e.IsPosted,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.After(b.EntryDate)
		}
		if a.JournalEntryID != b.JournalEntryID {
			return a.JournalEntryID > b.JournalEntryID
		}
		return a.LineNo < b.LineNo
	})

	return page(lines, limit, offset), nil
}

// CountLinesForAccount counts lines referencing the account, drafts included.
func (r *LedgerRepository) CountLinesForAccount(_ context.Context, tx usecase.Transaction, accountID int64) (int64, error) {
	var n int64
	err := r.store.view(tx, func(st *state) error {
		n = countLines(st, accountID)
		return nil
	})
	return n, err
}

// PostedTotalsForAccount sums the account's posted lines.
func (r *LedgerRepository) PostedTotalsForAccount(_ context.Context, accountID int64) (domain.AccountBalance, error) {
	var balance domain.AccountBalance
	err := r.store.view(nil, func(st *state) error {
		totals := postedTotals(st)
		if b, ok := totals[accountID]; ok {
			balance = b
			return nil
		}
		balance = domain.NewAccountBalance(accountID, decimal.Zero, decimal.Zero)
		return nil
	})
	return balance, err
}

// PostedTotals returns the posted totals of every account with posted lines.
func (r *LedgerRepository) PostedTotals(_ context.Context) (map[int64]domain.AccountBalance, error) {
	var totals map[int64]domain.AccountBalance
	err := r.store.view(nil, func(st *state) error {
		totals = postedTotals(st)
		return nil
	})
	return totals, err
}

// LedgerTotals sums every posted debit and credit.
func (r *LedgerRepository) LedgerTotals(_ context.Context) (decimal.Decimal, decimal.Decimal, error) {
	debit, credit := decimal.Zero, decimal.Zero
	err := r.store.view(nil, func(st *state) error {
		for entryID, lines := range st.lines {
			if e := st.entries[entryID]; e == nil || !e.IsPosted {
				continue
			}
			d, c := domain.LineTotals(lines)
			debit = debit.Add(d)
			credit = credit.Add(c)
		}
		return nil
	})
	return debit, credit, err
}

func postedTotals(st *state) map[int64]domain.AccountBalance {
	debits := make(map[int64]decimal.Decimal)
	credits := make(map[int64]decimal.Decimal)

	for entryID, lines := range st.lines {
		if e := st.entries[entryID]; e == nil || !e.IsPosted {
			continue
		}
		for _, l := range lines {
			debits[l.AccountID] = debits[l.AccountID].Add(l.Debit)
			credits[l.AccountID] = credits[l.AccountID].Add(l.Credit)
		}
	}

	totals := make(map[int64]domain.AccountBalance, len(debits))
	for id, d := range debits {
		totals[id] = domain.NewAccountBalance(id, d, credits[id])
	}
	return totals
}

func countLines(st *state, accountID int64) int64 {
	var n int64
	for _, lines := range st.lines {
		for _, l := range lines {
			if l.AccountID == accountID {
				n++
			}
		}
	}
	return n
}
