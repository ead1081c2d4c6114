package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/postgres/generated"
	"github.com/iho/goledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// AppendLines inserts lines for entryID and assigns their ids.
func (r *LedgerRepository) AppendLines(ctx context.Context, tx usecase.Transaction, entryID int64, lines []domain.LedgerLine) error {
	return insertLines(ctx, queriesFor(r.db, tx), entryID, lines)
}

// ReplaceLines deletes the entry's lines and inserts lines instead.
func (r *LedgerRepository) ReplaceLines(ctx context.Context, tx usecase.Transaction, entryID int64, lines []domain.LedgerLine) error {
	q := queriesFor(r.db, tx)
	if err := q.DeleteLedgerLinesForEntry(ctx, entryID); err != nil {
		return err
	}
	return insertLines(ctx, q, entryID, lines)
}

func insertLines(ctx context.Context, q *generated.Queries, entryID int64, lines []domain.LedgerLine) error {
	for i := range lines {
		l := &lines[i]
		id, err := q.CreateLedgerLine(ctx, generated.CreateLedgerLineParams{
			JournalEntryID: entryID,
			AccountID:      l.AccountID,
			LineNo:         int32(l.LineNo),
			Description:    l.Description,
			Debit:          decimalToNumeric(l.Debit),
			Credit:         decimalToNumeric(l.Credit),
			CreatedAt:      timeToPgTimestamptz(l.CreatedAt),
		})
		if err != nil {
			if constraint, ok := constraintError(err, pgErrForeignKeyViolation); ok && constraint == constraintLineAccount {
				return fmt.Errorf("%w: %d", domain.ErrUnknownAccount, l.AccountID)
			}
			return err
		}
		l.ID = id
		l.JournalEntryID = entryID
	}
	return nil
}

// LinesForEntry returns the entry's lines ordered by line number.
func (r *LedgerRepository) LinesForEntry(ctx context.Context, tx usecase.Transaction, entryID int64) ([]domain.LedgerLine, error) {
	rows, err := queriesFor(r.db, tx).ListLedgerLinesForEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.LedgerLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, rowToLedgerLine(row))
	}
	return lines, nil
}

// LinesForAccount returns the account's lines, newest entry first.
func (r *LedgerRepository) LinesForAccount(ctx context.Context, accountID int64, limit, offset int) ([]domain.AccountLine, error) {
	rows, err := r.queries.ListLedgerLinesForAccount(ctx, generated.ListLedgerLinesForAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	lines := make([]domain.AccountLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, domain.AccountLine{
			EntryDate:   timeToPgDate(row.EntryDate.Time).Time,
			EntryNumber: row.EntryNumber,
			IsPosted:    row.IsPosted,
			LedgerLine: rowToLedgerLine(generated.LedgerLine{
				ID:             row.ID,
				JournalEntryID: row.JournalEntryID,
				AccountID:      row.AccountID,
				LineNo:         row.LineNo,
				Description:    row.Description,
				Debit:          row.Debit,
				Credit:         row.Credit,
				CreatedAt:      row.CreatedAt,
			}),
		})
	}
	return lines, nil
}

// CountLinesForAccount counts lines of any entry state referencing the account.
func (r *LedgerRepository) CountLinesForAccount(ctx context.Context, tx usecase.Transaction, accountID int64) (int64, error) {
	return queriesFor(r.db, tx).CountLedgerLinesForAccount(ctx, accountID)
}

// PostedTotalsForAccount sums the account's lines of posted entries.
func (r *LedgerRepository) PostedTotalsForAccount(ctx context.Context, accountID int64) (domain.AccountBalance, error) {
	row, err := r.queries.GetPostedTotalsForAccount(ctx, accountID)
	if err != nil {
		return domain.AccountBalance{}, err
	}
	return domain.NewAccountBalance(accountID, numericToDecimal(row.TotalDebit), numericToDecimal(row.TotalCredit)), nil
}

// PostedTotals returns posted totals of every account with activity.
func (r *LedgerRepository) PostedTotals(ctx context.Context) (map[int64]domain.AccountBalance, error) {
	rows, err := r.queries.ListPostedTotals(ctx)
	if err != nil {
		return nil, err
	}

	totals := make(map[int64]domain.AccountBalance, len(rows))
	for _, row := range rows {
		totals[row.AccountID] = domain.NewAccountBalance(row.AccountID, numericToDecimal(row.TotalDebit), numericToDecimal(row.TotalCredit))
	}
	return totals, nil
}

// LedgerTotals sums every posted debit and credit.
func (r *LedgerRepository) LedgerTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	row, err := r.queries.GetLedgerTotals(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return numericToDecimal(row.TotalDebit), numericToDecimal(row.TotalCredit), nil
}

func rowToLedgerLine(row generated.LedgerLine) domain.LedgerLine {
	return domain.LedgerLine{
		ID:             row.ID,
		JournalEntryID: row.JournalEntryID,
		AccountID:      row.AccountID,
		LineNo:         int(row.LineNo),
		Description:    row.Description,
		Debit:          numericToDecimal(row.Debit),
		Credit:         numericToDecimal(row.Credit),
		CreatedAt:      row.CreatedAt.Time.UTC(),
	}
}
