package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/metrics"
)

// AccountResolver looks accounts up by number.
type AccountResolver interface {
	GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error)
}

// EntryCreator stores journal entries.
type EntryCreator interface {
	CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.JournalEntry, error)
}

// PostingUseCase turns business events into journal entries using the
// configured posting rules.
type PostingUseCase struct {
	accounts AccountResolver
	journal  EntryCreator
	rules    domain.PostingRules
	metrics  *metrics.Metrics
	now      Clock
}

// NewPostingUseCase creates a new PostingUseCase. metrics may be nil.
func NewPostingUseCase(
	accounts AccountResolver,
	journal EntryCreator,
	rules domain.PostingRules,
	metrics *metrics.Metrics,
) *PostingUseCase {
	return &PostingUseCase{
		accounts: accounts,
		journal:  journal,
		rules:    rules,
		metrics:  metrics,
		now:      systemClock,
	}
}

// WithClock replaces the time source.
func (uc *PostingUseCase) WithClock(now Clock) *PostingUseCase {
	uc.now = now
	return uc
}

// InvoiceEvent is an issued customer invoice.
type InvoiceEvent struct {
	IssueDate    time.Time
	CustomerName string
	Amount       decimal.Decimal
	TaxAmount    decimal.Decimal
	TotalAmount  decimal.Decimal
	ID           int64
	Post         bool
}

// ExpenseEvent is a recorded vendor expense paid from the bank account.
type ExpenseEvent struct {
	ExpenseDate time.Time
	VendorName  string
	Amount      decimal.Decimal
	TaxAmount   decimal.Decimal
	ID          int64
	CategoryID  int64
	Post        bool
}

// PayrollEvent is a processed payslip.
type PayrollEvent struct {
	PayDate       *time.Time
	EmployeeName  string
	GrossSalary   decimal.Decimal
	NetSalary     decimal.Decimal
	TaxDeduction  decimal.Decimal
	ProvidentFund decimal.Decimal
	PayslipID     int64
	Post          bool
}

// PostInvoice debits trade receivables with the invoice total and credits
// revenue and, when present, sales tax payable.
func (uc *PostingUseCase) PostInvoice(ctx context.Context, ev InvoiceEvent) (*domain.JournalEntry, error) {
	if err := nonNegative(ev.Amount, ev.TaxAmount, ev.TotalAmount); err != nil {
		return nil, err
	}

	receivables, err := uc.resolve(ctx, domain.RoleTradeReceivables)
	if err != nil {
		return nil, err
	}
	revenue, err := uc.resolve(ctx, domain.RoleServiceRevenue)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("%s-%d", domain.PrefixInvoice, ev.ID)
	lines := []LineInput{
		{AccountID: receivables, Debit: ev.TotalAmount, Description: "Receivable from " + ev.CustomerName},
		{AccountID: revenue, Credit: ev.Amount, Description: "Service revenue"},
	}

	if ev.TaxAmount.IsPositive() {
		taxPayable, err := uc.resolve(ctx, domain.RoleSalesTaxPayable)
		if err != nil {
			return nil, err
		}
		lines = append(lines, LineInput{AccountID: taxPayable, Credit: ev.TaxAmount, Description: "Sales tax"})
	}

	return uc.create(ctx, "invoice", CreateEntryInput{
		Date:         ev.IssueDate,
		Reference:    &reference,
		NumberPrefix: domain.PrefixInvoice,
		Description:  fmt.Sprintf("Invoice %s - %s", reference, ev.CustomerName),
		Lines:        lines,
		Post:         ev.Post,
	})
}

// PostExpense debits the category's expense account and, when present, tax
// prepaid, and credits cash in bank with the sum.
func (uc *PostingUseCase) PostExpense(ctx context.Context, ev ExpenseEvent) (*domain.JournalEntry, error) {
	if err := nonNegative(ev.Amount, ev.TaxAmount); err != nil {
		return nil, err
	}

	expense, err := uc.resolveNumber(ctx, "expense category "+fmt.Sprint(ev.CategoryID), uc.rules.ExpenseAccountFor(ev.CategoryID))
	if err != nil {
		return nil, err
	}
	bank, err := uc.resolve(ctx, domain.RoleCashInBank)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("%s-%d", domain.PrefixExpense, ev.ID)
	lines := []LineInput{
		{AccountID: expense, Debit: ev.Amount, Description: "Expense from " + ev.VendorName},
	}

	if ev.TaxAmount.IsPositive() {
		prepaid, err := uc.resolve(ctx, domain.RoleTaxPrepaid)
		if err != nil {
			return nil, err
		}
		lines = append(lines, LineInput{AccountID: prepaid, Debit: ev.TaxAmount, Description: "Input tax"})
	}

	lines = append(lines, LineInput{
		AccountID:   bank,
		Credit:      ev.Amount.Add(ev.TaxAmount),
		Description: "Paid to " + ev.VendorName,
	})

	return uc.create(ctx, "expense", CreateEntryInput{
		Date:         ev.ExpenseDate,
		Reference:    &reference,
		NumberPrefix: domain.PrefixExpense,
		Description:  fmt.Sprintf("Expense %s - %s", reference, ev.VendorName),
		Lines:        lines,
		Post:         ev.Post,
	})
}

// PostPayroll debits staff salaries with the gross amount and credits net pay,
// withheld tax and provident fund contributions.
func (uc *PostingUseCase) PostPayroll(ctx context.Context, ev PayrollEvent) (*domain.JournalEntry, error) {
	if err := nonNegative(ev.GrossSalary, ev.NetSalary, ev.TaxDeduction, ev.ProvidentFund); err != nil {
		return nil, err
	}

	salaries, err := uc.resolve(ctx, domain.RoleStaffSalaries)
	if err != nil {
		return nil, err
	}
	payable, err := uc.resolve(ctx, domain.RoleSalariesPayable)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("%s-%d", domain.PrefixPayroll, ev.PayslipID)
	lines := []LineInput{
		{AccountID: salaries, Debit: ev.GrossSalary, Description: "Gross salary " + ev.EmployeeName},
		{AccountID: payable, Credit: ev.NetSalary, Description: "Net salary " + ev.EmployeeName},
	}

	if ev.TaxDeduction.IsPositive() {
		taxPayable, err := uc.resolve(ctx, domain.RolePayrollTaxPayable)
		if err != nil {
			return nil, err
		}
		lines = append(lines, LineInput{AccountID: taxPayable, Credit: ev.TaxDeduction, Description: "Payroll tax"})
	}

	if ev.ProvidentFund.IsPositive() {
		benefits, err := uc.resolve(ctx, domain.RoleEmployeeBenefitsPayable)
		if err != nil {
			return nil, err
		}
		lines = append(lines, LineInput{AccountID: benefits, Credit: ev.ProvidentFund, Description: "Provident fund"})
	}

	date := uc.now()
	if ev.PayDate != nil {
		date = *ev.PayDate
	}

	return uc.create(ctx, "payroll", CreateEntryInput{
		Date:         date,
		Reference:    &reference,
		NumberPrefix: domain.PrefixPayroll,
		Description:  fmt.Sprintf("Payroll %s - %s", reference, ev.EmployeeName),
		Lines:        lines,
		Post:         ev.Post,
	})
}

func (uc *PostingUseCase) create(ctx context.Context, source string, input CreateEntryInput) (*domain.JournalEntry, error) {
	entry, err := uc.journal.CreateEntry(ctx, input)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		debit, _ := entry.Totals()
		uc.metrics.GeneratedEntryAmounts.WithLabelValues(source).Observe(debit.InexactFloat64())
	}

	return entry, nil
}

func (uc *PostingUseCase) resolve(ctx context.Context, role string) (int64, error) {
	return uc.resolveNumber(ctx, role, uc.rules.AccountFor(role))
}

func (uc *PostingUseCase) resolveNumber(ctx context.Context, purpose, number string) (int64, error) {
	if number == "" {
		return 0, fmt.Errorf("%w: no account configured for %s", domain.ErrPostingAccountMissing, purpose)
	}

	account, err := uc.accounts.GetAccountByNumber(ctx, number)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return 0, fmt.Errorf("%w: %s (%s): %w", domain.ErrPostingAccountMissing, number, purpose, err)
	}
	if err != nil {
		return 0, err
	}

	return account.ID, nil
}

func nonNegative(amounts ...decimal.Decimal) error {
	for _, a := range amounts {
		if a.IsNegative() {
			return fmt.Errorf("%w: %s", domain.ErrNegativeAmount, a.String())
		}
	}
	return nil
}
