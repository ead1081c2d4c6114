package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/metrics"
)

// numberConflictRetries is how often a generated entry number that lost a
// race is recomputed before the conflict surfaces.
const numberConflictRetries = 1

// JournalUseCase creates, edits and posts journal entries.
type JournalUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   JournalEntryRepository
	ledgerRepo  LedgerRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	cache       BalanceCache
	metrics     *metrics.Metrics
	now         Clock
}

// NewJournalUseCase creates a new JournalUseCase. retrier, cache and metrics
// may be nil.
func NewJournalUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo JournalEntryRepository,
	ledgerRepo LedgerRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	cache BalanceCache,
	metrics *metrics.Metrics,
) *JournalUseCase {
	return &JournalUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		ledgerRepo:  ledgerRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		retrier:     retrier,
		cache:       cache,
		metrics:     metrics,
		now:         systemClock,
	}
}

// WithClock replaces the time source.
func (uc *JournalUseCase) WithClock(now Clock) *JournalUseCase {
	uc.now = now
	return uc
}

// LineInput is one requested ledger line.
type LineInput struct {
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	AccountID   int64
}

// CreateEntryInput represents input for creating a journal entry. When
// EntryNumber is empty a number is generated from NumberPrefix (default "JE")
// and the entry date.
type CreateEntryInput struct {
	Date         time.Time
	Reference    *string
	EntryNumber  string
	NumberPrefix string
	Description  string
	Lines        []LineInput
	Post         bool
}

// CreateEntry validates and stores a journal entry with its lines in one
// transaction. With Post set the entry is stored already posted.
func (uc *JournalUseCase) CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.JournalEntry, error) {
	lines := toLedgerLines(input.Lines)
	if err := uc.validateEntry(lines, input.Description, input.Reference); err != nil {
		return nil, err
	}

	explicit := strings.TrimSpace(input.EntryNumber)
	prefix := input.NumberPrefix
	if prefix == "" {
		prefix = domain.DefaultEntryPrefix
	}
	if explicit == "" {
		if err := domain.ValidateEntryPrefix(prefix); err != nil {
			return nil, err
		}
	}

	date := input.Date
	if date.IsZero() {
		date = uc.now()
	}
	date = entryDate(date)

	var entry *domain.JournalEntry
	err := uc.retryNumberConflict(ctx, explicit != "", func() error {
		return uc.retry(ctx, func() error {
			created, err := uc.createEntryTx(ctx, input, lines, explicit, prefix, date)
			if err != nil {
				return err
			}
			entry = created
			return nil
		})
	})
	if err != nil {
		if explicit != "" && errors.Is(err, domain.ErrPersistenceConflict) {
			err = fmt.Errorf("%w: %s", domain.ErrDuplicateEntryNumber, explicit)
		}
		uc.reject(err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesCreated.WithLabelValues(entryPrefix(entry.EntryNumber)).Inc()
		if entry.IsPosted {
			uc.metrics.EntriesPosted.Inc()
		}
	}

	if entry.IsPosted {
		uc.invalidateBalances(ctx, entry.AccountIDs())
	}

	return entry, nil
}

func (uc *JournalUseCase) createEntryTx(
	ctx context.Context,
	input CreateEntryInput,
	lines []domain.LedgerLine,
	explicit, prefix string,
	date time.Time,
) (*domain.JournalEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.ensureAccountsExist(txCtx, tx, lines); err != nil {
		return nil, err
	}

	number := explicit
	if number == "" {
		number, err = uc.nextEntryNumber(txCtx, tx, prefix, date)
		if err != nil {
			return nil, err
		}
	}

	now := uc.now()
	entry := &domain.JournalEntry{
		EntryNumber: number,
		Date:        date,
		Description: input.Description,
		Reference:   input.Reference,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.Post {
		entry.IsPosted = true
		entry.PostedAt = &now
	}

	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return nil, err
	}

	entry.Lines = make([]domain.LedgerLine, len(lines))
	copy(entry.Lines, lines)
	for i := range entry.Lines {
		entry.Lines[i].CreatedAt = now
	}
	domain.NumberLines(entry.ID, entry.Lines)

	if err := uc.ledgerRepo.AppendLines(txCtx, tx, entry.ID, entry.Lines); err != nil {
		return nil, err
	}

	if err := uc.writeEvent(txCtx, tx, entry, domain.EventTypeJournalEntryCreated, now); err != nil {
		return nil, err
	}
	if entry.IsPosted {
		if err := uc.writeEvent(txCtx, tx, entry, domain.EventTypeJournalEntryPosted, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return entry, nil
}

// UpdateEntryInput carries a partial draft update. Non-nil Lines replace the
// whole line set.
type UpdateEntryInput struct {
	Date           *time.Time
	Description    *string
	Reference      *string
	ClearReference bool
	Lines          []LineInput
}

// UpdateEntry edits a draft entry. Posted entries are immutable.
func (uc *JournalUseCase) UpdateEntry(ctx context.Context, id int64, input UpdateEntryInput) (*domain.JournalEntry, error) {
	var newLines []domain.LedgerLine
	if input.Lines != nil {
		newLines = toLedgerLines(input.Lines)
		if err := domain.ValidateLines(newLines); err != nil {
			uc.reject(err)
			return nil, err
		}
	}
	if input.Description != nil {
		if err := domain.ValidateDescription(*input.Description); err != nil {
			return nil, err
		}
	}
	if err := domain.ValidateReference(input.Reference); err != nil {
		return nil, err
	}

	var entry *domain.JournalEntry
	err := uc.retry(ctx, func() error {
		updated, err := uc.updateEntryTx(ctx, id, input, newLines)
		if err != nil {
			return err
		}
		entry = updated
		return nil
	})
	if err != nil {
		uc.reject(err)
		return nil, err
	}

	return entry, nil
}

func (uc *JournalUseCase) updateEntryTx(
	ctx context.Context,
	id int64,
	input UpdateEntryInput,
	newLines []domain.LedgerLine,
) (*domain.JournalEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.entryRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	if entry.IsPosted {
		return nil, fmt.Errorf("%w: %s", domain.ErrEntryAlreadyPosted, entry.EntryNumber)
	}

	now := uc.now()

	if input.Description != nil {
		entry.Description = *input.Description
	}
	switch {
	case input.ClearReference:
		entry.Reference = nil
	case input.Reference != nil:
		ref := *input.Reference
		entry.Reference = &ref
	}
	if input.Date != nil {
		entry.Date = entryDate(*input.Date)
	}
	entry.UpdatedAt = now

	if newLines != nil {
		if err := uc.ensureAccountsExist(txCtx, tx, newLines); err != nil {
			return nil, err
		}
		for i := range newLines {
			newLines[i].CreatedAt = now
		}
		domain.NumberLines(entry.ID, newLines)
		if err := uc.ledgerRepo.ReplaceLines(txCtx, tx, entry.ID, newLines); err != nil {
			return nil, err
		}
		entry.Lines = newLines
	} else {
		entry.Lines, err = uc.ledgerRepo.LinesForEntry(txCtx, tx, entry.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := uc.entryRepo.UpdateHeader(txCtx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return entry, nil
}

// PostEntry moves a draft entry to posted. Posting an already posted entry
// returns it unchanged.
func (uc *JournalUseCase) PostEntry(ctx context.Context, id int64) (*domain.JournalEntry, error) {
	start := time.Now()

	var (
		entry   *domain.JournalEntry
		changed bool
	)
	err := uc.retry(ctx, func() error {
		posted, ok, err := uc.postEntryTx(ctx, id)
		if err != nil {
			return err
		}
		entry, changed = posted, ok
		return nil
	})
	if err != nil {
		uc.reject(err)
		return nil, err
	}

	if !changed {
		return entry, nil
	}

	zerolog.Ctx(ctx).Info().
		Int64("entry_id", entry.ID).
		Str("entry_number", entry.EntryNumber).
		Msg("journal entry posted")

	if uc.metrics != nil {
		uc.metrics.EntriesPosted.Inc()
		uc.metrics.EntryPostingDuration.Observe(time.Since(start).Seconds())
	}

	uc.invalidateBalances(ctx, entry.AccountIDs())

	return entry, nil
}

func (uc *JournalUseCase) postEntryTx(ctx context.Context, id int64) (*domain.JournalEntry, bool, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.entryRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, false, err
	}

	entry.Lines, err = uc.ledgerRepo.LinesForEntry(txCtx, tx, entry.ID)
	if err != nil {
		return nil, false, err
	}

	if entry.IsPosted {
		return entry, false, nil
	}

	if err := domain.ValidateLines(entry.Lines); err != nil {
		return nil, false, err
	}

	now := uc.now()
	changed, err := uc.entryRepo.MarkPosted(txCtx, tx, entry.ID, now)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		// Lost a race with a concurrent post.
		current, err := uc.entryRepo.GetByID(ctx, entry.ID)
		if err != nil {
			return nil, false, err
		}
		current.Lines = entry.Lines
		return current, false, nil
	}

	entry.IsPosted = true
	entry.PostedAt = &now
	entry.UpdatedAt = now

	if err := uc.writeEvent(txCtx, tx, entry, domain.EventTypeJournalEntryPosted, now); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, false, err
	}

	return entry, true, nil
}

// GetEntry retrieves an entry with its lines.
func (uc *JournalUseCase) GetEntry(ctx context.Context, id int64) (*domain.JournalEntry, error) {
	entry, err := uc.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entry.Lines, err = uc.ledgerRepo.LinesForEntry(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ListEntries returns one page of entries, newest first, with the total
// number of entries. page starts at 1.
func (uc *JournalUseCase) ListEntries(ctx context.Context, page, pageSize int) ([]*domain.JournalEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	pageSize = clampPage(pageSize)

	entries, err := uc.entryRepo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}

	for _, e := range entries {
		e.Lines, err = uc.ledgerRepo.LinesForEntry(ctx, nil, e.ID)
		if err != nil {
			return nil, 0, err
		}
	}

	total, err := uc.entryRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// GenerateEntryNumber previews the next entry number for prefix in the month
// of at. The number is not reserved.
func (uc *JournalUseCase) GenerateEntryNumber(ctx context.Context, prefix string, at time.Time) (string, error) {
	if prefix == "" {
		prefix = domain.DefaultEntryPrefix
	}
	if err := domain.ValidateEntryPrefix(prefix); err != nil {
		return "", err
	}
	if at.IsZero() {
		at = uc.now()
	}
	at = entryDate(at)

	seq, err := uc.entryRepo.MaxSequence(ctx, nil, domain.EntryNumberPeriod(prefix, at))
	if err != nil {
		return "", err
	}

	return domain.FormatEntryNumber(prefix, at, seq+1), nil
}

func (uc *JournalUseCase) nextEntryNumber(ctx context.Context, tx Transaction, prefix string, at time.Time) (string, error) {
	period := domain.EntryNumberPeriod(prefix, at)

	if err := uc.entryRepo.LockNumberSequence(ctx, tx, period); err != nil {
		return "", err
	}

	seq, err := uc.entryRepo.MaxSequence(ctx, tx, period)
	if err != nil {
		return "", err
	}

	return domain.FormatEntryNumber(prefix, at, seq+1), nil
}

func (uc *JournalUseCase) validateEntry(lines []domain.LedgerLine, description string, reference *string) error {
	if err := domain.ValidateLines(lines); err != nil {
		uc.reject(err)
		return err
	}
	if err := domain.ValidateDescription(description); err != nil {
		return err
	}
	return domain.ValidateReference(reference)
}

func (uc *JournalUseCase) ensureAccountsExist(ctx context.Context, tx Transaction, lines []domain.LedgerLine) error {
	ids := domain.DistinctAccountIDs(lines)

	found, err := uc.accountRepo.FindExisting(ctx, tx, ids)
	if err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}

	present := make(map[int64]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	var missing []int64
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}

	return fmt.Errorf("%w: %v", domain.ErrUnknownAccount, missing)
}

func (uc *JournalUseCase) writeEvent(ctx context.Context, tx Transaction, entry *domain.JournalEntry, eventType string, at time.Time) error {
	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   strconv.FormatInt(entry.ID, 10),
		AggregateType: domain.AggregateTypeJournalEntry,
		EventType:     eventType,
		Payload:       domain.JournalEntryEventPayload(entry),
		CreatedAt:     at,
	})
}

// retryNumberConflict recomputes a generated entry number once after a
// unique violation. Explicit numbers are never retried.
func (uc *JournalUseCase) retryNumberConflict(ctx context.Context, explicit bool, op func() error) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(5*time.Millisecond), numberConflictRetries),
		ctx,
	)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if explicit || !errors.Is(err, domain.ErrPersistenceConflict) {
			return backoff.Permanent(err)
		}

		zerolog.Ctx(ctx).Warn().Err(err).Msg("entry number conflict, recomputing")
		if uc.metrics != nil {
			uc.metrics.EntryNumberConflicts.Inc()
		}

		return err
	}, b)
}

func (uc *JournalUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func (uc *JournalUseCase) invalidateBalances(ctx context.Context, accountIDs []int64) {
	if uc.cache == nil || len(accountIDs) == 0 {
		return
	}
	if err := uc.cache.Invalidate(ctx, accountIDs...); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Ints64("account_ids", accountIDs).Msg("balance cache invalidation failed")
	}
}

func (uc *JournalUseCase) reject(err error) {
	if uc.metrics == nil {
		return
	}
	if reason := rejectionReason(err); reason != "" {
		uc.metrics.EntriesRejected.WithLabelValues(reason).Inc()
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnbalancedEntry):
		return "unbalanced"
	case errors.Is(err, domain.ErrInsufficientLines):
		return "insufficient_lines"
	case errors.Is(err, domain.ErrNegativeAmount):
		return "negative_amount"
	case errors.Is(err, domain.ErrInvalidAmountScale):
		return "amount_scale"
	case errors.Is(err, domain.ErrUnknownAccount):
		return "unknown_account"
	case errors.Is(err, domain.ErrEntryAlreadyPosted):
		return "already_posted"
	case errors.Is(err, domain.ErrDuplicateEntryNumber):
		return "duplicate_number"
	case errors.Is(err, domain.ErrPersistenceConflict):
		return "conflict"
	default:
		return ""
	}
}

func toLedgerLines(inputs []LineInput) []domain.LedgerLine {
	lines := make([]domain.LedgerLine, len(inputs))
	for i, in := range inputs {
		lines[i] = domain.LedgerLine{
			AccountID:   in.AccountID,
			Debit:       in.Debit,
			Credit:      in.Credit,
			Description: in.Description,
		}
	}
	return lines
}

// entryDate truncates t to its calendar day in UTC.
func entryDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entryPrefix(number string) string {
	if i := strings.IndexByte(number, '-'); i > 0 {
		return number[:i]
	}
	return "custom"
}
