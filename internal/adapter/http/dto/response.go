package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ParentID      *int64    `json:"parent_id"`
	AccountNumber string    `json:"account_number"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	ID            int64     `json:"id"`
	TypeID        int64     `json:"type_id"`
	IsActive      bool      `json:"is_active"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		Name:          a.Name,
		Description:   a.Description,
		TypeID:        a.TypeID,
		ParentID:      a.ParentID,
		IsActive:      a.IsActive,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// AccountTypeResponse represents an account type.
type AccountTypeResponse struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// AccountTypesFromDomain converts account types to responses.
func AccountTypesFromDomain(types []domain.AccountType) []AccountTypeResponse {
	result := make([]AccountTypeResponse, len(types))
	for i, t := range types {
		result[i] = AccountTypeResponse{ID: t.ID, Name: t.Name}
	}
	return result
}

// BalanceResponse represents the posted balance of an account.
type BalanceResponse struct {
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
	Balance     decimal.Decimal `json:"balance"`
	AccountID   int64           `json:"account_id"`
}

// BalanceFromDomain converts a balance to response.
func BalanceFromDomain(b domain.AccountBalance) BalanceResponse {
	return BalanceResponse{
		AccountID:   b.AccountID,
		DebitTotal:  b.DebitTotal,
		CreditTotal: b.CreditTotal,
		Balance:     b.Balance,
	}
}

// AccountDetailResponse is an account with its type name and posted balance.
type AccountDetailResponse struct {
	*AccountResponse
	TypeName string          `json:"type_name"`
	Balance  BalanceResponse `json:"balance"`
}

// AccountDetailFromDomain converts an account with balance to response.
func AccountDetailFromDomain(a *domain.AccountWithBalance) *AccountDetailResponse {
	return &AccountDetailResponse{
		AccountResponse: AccountFromDomain(a.Account),
		TypeName:        a.Type.Name,
		Balance:         BalanceFromDomain(a.Balance),
	}
}

// AccountNodeResponse is one node of the account hierarchy.
type AccountNodeResponse struct {
	*AccountResponse
	Balance  decimal.Decimal        `json:"balance"`
	Children []*AccountNodeResponse `json:"children"`
}

// AccountTreeFromDomain converts a forest of account nodes to responses.
func AccountTreeFromDomain(nodes []*domain.AccountNode) []*AccountNodeResponse {
	result := make([]*AccountNodeResponse, len(nodes))
	for i, n := range nodes {
		result[i] = &AccountNodeResponse{
			AccountResponse: AccountFromDomain(n.Account),
			Balance:         n.Balance.Balance,
			Children:        AccountTreeFromDomain(n.Children),
		}
	}
	return result
}

// DeleteAccountResponse reports how an account was removed.
type DeleteAccountResponse struct {
	Mode        string `json:"mode"`
	ID          int64  `json:"id"`
	HardDeleted bool   `json:"hard_deleted"`
}

// DeleteAccountFromResult converts a delete result to response.
func DeleteAccountFromResult(id int64, res usecase.DeleteResult) DeleteAccountResponse {
	mode := "deactivated"
	if res.HardDeleted {
		mode = "deleted"
	}
	return DeleteAccountResponse{ID: id, HardDeleted: res.HardDeleted, Mode: mode}
}

// LineResponse represents a ledger line.
type LineResponse struct {
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	LineNo      int             `json:"line_no"`
}

// LineFromDomain converts a ledger line to response.
func LineFromDomain(l domain.LedgerLine) LineResponse {
	return LineResponse{
		ID:          l.ID,
		LineNo:      l.LineNo,
		AccountID:   l.AccountID,
		Description: l.Description,
		Debit:       l.Debit,
		Credit:      l.Credit,
	}
}

// AccountLineResponse is a ledger line seen from its account.
type AccountLineResponse struct {
	LineResponse
	EntryNumber    string `json:"entry_number"`
	EntryDate      string `json:"entry_date"`
	JournalEntryID int64  `json:"journal_entry_id"`
	IsPosted       bool   `json:"is_posted"`
}

// AccountLinesFromDomain converts account lines to responses.
func AccountLinesFromDomain(lines []domain.AccountLine) []AccountLineResponse {
	result := make([]AccountLineResponse, len(lines))
	for i, l := range lines {
		result[i] = AccountLineResponse{
			LineResponse:   LineFromDomain(l.LedgerLine),
			JournalEntryID: l.JournalEntryID,
			EntryNumber:    l.EntryNumber,
			EntryDate:      l.EntryDate.Format(DateLayout),
			IsPosted:       l.IsPosted,
		}
	}
	return result
}

// JournalEntryResponse represents a journal entry with its lines.
type JournalEntryResponse struct {
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	PostedAt    *time.Time      `json:"posted_at"`
	Reference   *string         `json:"reference"`
	EntryNumber string          `json:"entry_number"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Lines       []LineResponse  `json:"lines"`
	ID          int64           `json:"id"`
	IsPosted    bool            `json:"is_posted"`
}

// JournalEntryFromDomain converts a journal entry to response.
func JournalEntryFromDomain(e *domain.JournalEntry) *JournalEntryResponse {
	debit, credit := e.Totals()
	lines := make([]LineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = LineFromDomain(l)
	}
	return &JournalEntryResponse{
		ID:          e.ID,
		EntryNumber: e.EntryNumber,
		Date:        e.Date.Format(DateLayout),
		Description: e.Description,
		Reference:   e.Reference,
		Status:      e.Status(),
		IsPosted:    e.IsPosted,
		PostedAt:    e.PostedAt,
		TotalDebit:  debit,
		TotalCredit: credit,
		Lines:       lines,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// ListJournalEntriesResponse represents a page of journal entries.
type ListJournalEntriesResponse struct {
	Entries  []*JournalEntryResponse `json:"entries"`
	Total    int64                   `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
}

// NextEntryNumberResponse carries a previewed entry number.
type NextEntryNumberResponse struct {
	EntryNumber string `json:"entry_number"`
}

// TrialBalanceRowResponse is one account row of the trial balance.
type TrialBalanceRowResponse struct {
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	AccountType   string          `json:"account_type"`
	DebitTotal    decimal.Decimal `json:"debit_total"`
	CreditTotal   decimal.Decimal `json:"credit_total"`
	Balance       decimal.Decimal `json:"balance"`
	AccountID     int64           `json:"account_id"`
}

// TrialBalanceResponse represents the trial balance report.
type TrialBalanceResponse struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Rows        []TrialBalanceRowResponse `json:"rows"`
	TotalDebit  decimal.Decimal           `json:"total_debit"`
	TotalCredit decimal.Decimal           `json:"total_credit"`
	Balanced    bool                      `json:"balanced"`
}

// TrialBalanceFromDomain converts the report to response.
func TrialBalanceFromDomain(tb *domain.TrialBalance) *TrialBalanceResponse {
	rows := make([]TrialBalanceRowResponse, len(tb.Rows))
	for i, r := range tb.Rows {
		rows[i] = TrialBalanceRowResponse{
			AccountID:     r.AccountID,
			AccountNumber: r.AccountNumber,
			AccountName:   r.AccountName,
			AccountType:   r.AccountType,
			DebitTotal:    r.DebitTotal,
			CreditTotal:   r.CreditTotal,
			Balance:       r.Balance,
		}
	}
	return &TrialBalanceResponse{
		GeneratedAt: tb.GeneratedAt,
		Rows:        rows,
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
		Balanced:    tb.Balanced,
	}
}

// ReconciliationResponse compares a cached balance with the ledger.
type ReconciliationResponse struct {
	LastChecked       time.Time        `json:"last_checked"`
	CachedBalance     *decimal.Decimal `json:"cached_balance"`
	CalculatedBalance decimal.Decimal  `json:"calculated_balance"`
	Difference        decimal.Decimal  `json:"difference"`
	AccountID         int64            `json:"account_id"`
	IsReconciled      bool             `json:"is_reconciled"`
}

// ReconciliationsFromUseCase converts reconciliation results to responses.
func ReconciliationsFromUseCase(results []*usecase.ReconciliationResult) []ReconciliationResponse {
	out := make([]ReconciliationResponse, len(results))
	for i, r := range results {
		out[i] = ReconciliationResponse{
			AccountID:         r.AccountID,
			CachedBalance:     r.CachedBalance,
			CalculatedBalance: r.CalculatedBalance,
			Difference:        r.Difference,
			IsReconciled:      r.IsReconciled,
			LastChecked:       r.LastChecked,
		}
	}
	return out
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
