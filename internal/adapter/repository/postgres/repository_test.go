package postgres

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goledger/internal/domain"
)

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func numeric(v int64, exp int32) pgtype.Numeric {
	return pgtype.Numeric{Int: big.NewInt(v), Exp: exp, Valid: true}
}

func TestAccountRepositoryCreateAssignsID(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs(anyArgs(8)...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := newTxManagerWithPool(mock).Begin(ctx)
	require.NoError(t, err)

	account := &domain.Account{AccountNumber: "1000", Name: "Cash", TypeID: domain.AccountTypeAsset, IsActive: true}
	require.NoError(t, NewAccountRepository(mock).Create(ctx, tx, account))
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, int64(11), account.ID)
	assertExpectations(t, mock)
}

func TestAccountRepositoryCreateMapsConstraintViolations(t *testing.T) {
	tests := []struct {
		name    string
		pgErr   *pgconn.PgError
		wantErr error
	}{
		{
			name:    "duplicate number",
			pgErr:   &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintAccountNumber},
			wantErr: domain.ErrDuplicateAccountNumber,
		},
		{
			name:    "missing parent",
			pgErr:   &pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: constraintAccountParent},
			wantErr: domain.ErrParentNotFound,
		},
		{
			name:    "unknown type",
			pgErr:   &pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: constraintAccountType},
			wantErr: domain.ErrUnknownAccountType,
		},
		{
			name:    "own parent",
			pgErr:   &pgconn.PgError{Code: pgErrCheckViolation, ConstraintName: constraintNotOwnParent},
			wantErr: domain.ErrHierarchyCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			mock.ExpectQuery("INSERT INTO accounts").
				WithArgs(anyArgs(8)...).
				WillReturnError(tt.pgErr)

			err := NewAccountRepository(mock).Create(context.Background(), nil, &domain.Account{AccountNumber: "1000"})
			assert.ErrorIs(t, err, tt.wantErr)
			assertExpectations(t, mock)
		})
	}
}

func TestAccountRepositoryGetByIDNotFound(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`FROM accounts WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	_, err := NewAccountRepository(mock).GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assertExpectations(t, mock)
}

func TestAccountRepositoryGetByNumber(t *testing.T) {
	mock := newMockPool(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	columns := []string{"id", "account_number", "name", "description", "type_id", "parent_account_id", "is_active", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM accounts WHERE account_number = \$1`).
		WithArgs("1010").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			int64(2), "1010", "Petty cash", "", domain.AccountTypeAsset,
			pgtype.Int8{Int64: 1, Valid: true}, true,
			pgtype.Timestamptz{Time: created, Valid: true}, pgtype.Timestamptz{Time: created, Valid: true},
		))

	account, err := NewAccountRepository(mock).GetByNumber(context.Background(), "1010")
	require.NoError(t, err)

	assert.Equal(t, int64(2), account.ID)
	require.NotNil(t, account.ParentID)
	assert.Equal(t, int64(1), *account.ParentID)
	assert.Equal(t, created, account.CreatedAt)
	assertExpectations(t, mock)
}

func TestAccountRepositoryFindExisting(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`FOR SHARE`).
		WithArgs([]int64{1, 2, 3}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(3)))

	repo := NewAccountRepository(mock)

	ids, err := repo.FindExisting(context.Background(), nil, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)

	ids, err = repo.FindExisting(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	assertExpectations(t, mock)
}

func TestAccountRepositorySearchEscapesPattern(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`ILIKE`).
		WithArgs(`%50\%\_off%`, int32(20)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "account_number", "name", "description", "type_id", "parent_account_id", "is_active", "created_at", "updated_at"}))

	accounts, err := NewAccountRepository(mock).Search(context.Background(), "50%_off", 20)
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assertExpectations(t, mock)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%cash%", containsPattern("cash"))
	assert.Equal(t, `%a\_b\%c\\%`, containsPattern(`a_b%c\`))
}

func TestJournalEntryRepositoryCreateConflict(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery("INSERT INTO journal_entries").
		WithArgs(anyArgs(8)...).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintEntryNumber})

	entry := &domain.JournalEntry{EntryNumber: "JE-202401-0001", Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)}
	err := NewJournalEntryRepository(mock).Create(context.Background(), nil, entry)

	assert.ErrorIs(t, err, domain.ErrPersistenceConflict)
	assert.Zero(t, entry.ID)
	assertExpectations(t, mock)
}

func TestJournalEntryRepositoryMarkPosted(t *testing.T) {
	for _, affected := range []int64{0, 1} {
		mock := newMockPool(t)
		mock.ExpectExec("UPDATE journal_entries SET is_posted = TRUE").
			WithArgs(int64(5), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", affected))

		changed, err := NewJournalEntryRepository(mock).MarkPosted(context.Background(), nil, 5, time.Now())
		require.NoError(t, err)
		assert.Equal(t, affected == 1, changed)
		assertExpectations(t, mock)
	}
}

func TestJournalEntryRepositoryUpdateHeaderOnPostedEntry(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectExec("UPDATE journal_entries SET entry_date").
		WithArgs(anyArgs(5)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`FROM journal_entries WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "entry_number", "entry_date", "description", "reference", "is_posted", "posted_at", "created_at", "updated_at"}).
			AddRow(int64(5), "JE-202401-0001", pgtype.Date{Time: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Valid: true},
				"", pgtype.Text{}, true, pgtype.Timestamptz{Time: time.Now(), Valid: true},
				pgtype.Timestamptz{Time: time.Now(), Valid: true}, pgtype.Timestamptz{Time: time.Now(), Valid: true}))

	err := NewJournalEntryRepository(mock).UpdateHeader(context.Background(), nil, &domain.JournalEntry{ID: 5})
	assert.ErrorIs(t, err, domain.ErrEntryAlreadyPosted)
	assertExpectations(t, mock)
}

func TestJournalEntryRepositoryNumberSequence(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs("JE-202401").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`SELECT COALESCE\(MAX`).
		WithArgs("JE-202401").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(7)))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := newTxManagerWithPool(mock).Begin(ctx)
	require.NoError(t, err)

	repo := NewJournalEntryRepository(mock)
	require.NoError(t, repo.LockNumberSequence(ctx, tx, "JE-202401"))

	seq, err := repo.MaxSequence(ctx, tx, "JE-202401")
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)

	require.NoError(t, tx.Rollback(ctx))
	assertExpectations(t, mock)
}

func TestLedgerRepositoryAppendLines(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery("INSERT INTO ledger_lines").
		WithArgs(anyArgs(7)...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery("INSERT INTO ledger_lines").
		WithArgs(anyArgs(7)...).
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: constraintLineAccount})

	lines := []domain.LedgerLine{
		{AccountID: 1, LineNo: 1, Debit: decimal.NewFromInt(10), Credit: decimal.Zero},
		{AccountID: 99, LineNo: 2, Debit: decimal.Zero, Credit: decimal.NewFromInt(10)},
	}

	err := NewLedgerRepository(mock).AppendLines(context.Background(), nil, 3, lines)
	assert.ErrorIs(t, err, domain.ErrUnknownAccount)
	assert.Equal(t, int64(100), lines[0].ID)
	assert.Equal(t, int64(3), lines[0].JournalEntryID)
	assertExpectations(t, mock)
}

func TestLedgerRepositoryPostedTotals(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`WHERE l.account_id = \$1 AND je.is_posted`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"total_debit", "total_credit"}).
			AddRow(numeric(1500000, -4), numeric(40, 0)))
	mock.ExpectQuery(`GROUP BY l.account_id`).
		WillReturnRows(pgxmock.NewRows([]string{"account_id", "total_debit", "total_credit"}).
			AddRow(int64(1), numeric(100, 0), numeric(0, 0)).
			AddRow(int64(2), numeric(0, 0), numeric(10000, -2)))

	repo := NewLedgerRepository(mock)

	balance, err := repo.PostedTotalsForAccount(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "150", balance.DebitTotal.String())
	assert.Equal(t, "110", balance.Balance.String())

	totals, err := repo.PostedTotals(context.Background())
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "-100", totals[2].Balance.String())

	assertExpectations(t, mock)
}

func TestLedgerRepositoryLedgerTotalsError(t *testing.T) {
	mock := newMockPool(t)
	dbErr := errors.New("connection reset")
	mock.ExpectQuery(`WHERE je.is_posted`).WillReturnError(dbErr)

	_, _, err := NewLedgerRepository(mock).LedgerTotals(context.Background())
	assert.ErrorIs(t, err, dbErr)
	assertExpectations(t, mock)
}

func TestOutboxRepositoryRoundTrip(t *testing.T) {
	mock := newMockPool(t)
	created := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs("01HX", domain.AggregateTypeAccount, "11", domain.EventTypeAccountCreated, []byte(`{"account_id":11}`), pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("FROM outbox_events").
		WithArgs(int32(10)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "aggregate_type", "aggregate_id", "event_type", "payload", "created_at", "published", "published_at"}).
			AddRow("01HX", domain.AggregateTypeAccount, "11", domain.EventTypeAccountCreated, []byte(`{"account_id":11}`),
				pgtype.Timestamptz{Time: created, Valid: true}, false, pgtype.Timestamptz{}))

	repo := NewOutboxRepository(mock)
	ctx := context.Background()

	err := repo.Create(ctx, nil, &domain.OutboxEvent{
		ID:            "01HX",
		AggregateType: domain.AggregateTypeAccount,
		AggregateID:   "11",
		EventType:     domain.EventTypeAccountCreated,
		Payload:       map[string]any{"account_id": 11},
		CreatedAt:     created,
	})
	require.NoError(t, err)

	events, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, float64(11), events[0].Payload["account_id"])
	assert.Nil(t, events[0].PublishedAt)

	assertExpectations(t, mock)
}

func TestOutboxRepositoryMarkPublishedBatch(t *testing.T) {
	mock := newMockPool(t)
	at := time.Date(2024, 3, 5, 9, 31, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE outbox_events SET published = TRUE").
		WithArgs(pgxmock.AnyArg(), []string{"01HX", "01HY"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	repo := NewOutboxRepository(mock)
	require.NoError(t, repo.MarkPublished(context.Background(), []string{"01HX", "01HY"}, at))
	require.NoError(t, repo.MarkPublished(context.Background(), nil, at))

	assertExpectations(t, mock)
}

func TestOutboxRepositoryRejectsCorruptPayload(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery("FROM outbox_events").
		WithArgs(int32(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "aggregate_type", "aggregate_id", "event_type", "payload", "created_at", "published", "published_at"}).
			AddRow("01HZ", domain.AggregateTypeJournalEntry, "4", domain.EventTypeJournalEntryPosted, []byte(`{"entry_id":`),
				pgtype.Timestamptz{Time: time.Now(), Valid: true}, false, pgtype.Timestamptz{}))

	_, err := NewOutboxRepository(mock).GetUnpublished(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "01HZ")

	assertExpectations(t, mock)
}

func TestNumericConversion(t *testing.T) {
	d := decimal.RequireFromString("1234.5600")
	assert.True(t, d.Equal(numericToDecimal(decimalToNumeric(d))))
	assert.True(t, numericToDecimal(pgtype.Numeric{}).IsZero())
}

func TestULIDGeneratorIsMonotonic(t *testing.T) {
	gen := NewULIDGenerator()
	prev := gen.Generate()
	for i := 0; i < 100; i++ {
		next := gen.Generate()
		require.Len(t, next, 26)
		require.Greater(t, next, prev)
		prev = next
	}
}
