package domain

import "errors"

var (
	// Account registry errors
	ErrAccountNotFound        = errors.New("account not found")
	ErrDuplicateAccountNumber = errors.New("account number already exists")
	ErrParentNotFound         = errors.New("parent account not found")
	ErrTypeMismatch           = errors.New("account type does not match parent account type")
	ErrHierarchyCycle         = errors.New("account cannot be its own ancestor")
	ErrUnknownAccountType     = errors.New("unknown account type")

	// Journal entry errors
	ErrEntryNotFound        = errors.New("journal entry not found")
	ErrUnbalancedEntry      = errors.New("journal entry is unbalanced")
	ErrInsufficientLines    = errors.New("journal entry needs at least two lines")
	ErrUnknownAccount       = errors.New("journal entry references unknown account")
	ErrEntryAlreadyPosted   = errors.New("journal entry is already posted")
	ErrNegativeAmount       = errors.New("amounts must not be negative")
	ErrInvalidAmountScale   = errors.New("amount has too many decimal places")
	ErrDuplicateEntryNumber = errors.New("entry number already exists")
	ErrInvalidEntryPrefix   = errors.New("invalid entry number prefix")

	// ErrPersistenceConflict is a unique constraint violation on a generated
	// entry number. It is the only error retried automatically.
	ErrPersistenceConflict = errors.New("persistence conflict")

	// ErrInconsistentLedger means posted debits and credits no longer agree.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: total debits do not equal total credits")

	// Posting errors
	ErrPostingAccountMissing = errors.New("posting account not configured in chart of accounts")
	ErrInvalidPostingRules   = errors.New("invalid posting rules")
)
