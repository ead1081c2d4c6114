package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goledger/internal/usecase"
)

// DateLayout is the wire format of entry and event dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	ParentID      *int64 `json:"parent_id,omitempty"`
	AccountNumber string `json:"account_number"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	TypeID        int64  `json:"type_id"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		AccountNumber: r.AccountNumber,
		Name:          r.Name,
		Description:   r.Description,
		TypeID:        r.TypeID,
		ParentID:      r.ParentID,
	}
}

// UpdateAccountRequest is a partial account update. Omitted fields keep
// their value; clear_parent turns the account into a root.
type UpdateAccountRequest struct {
	AccountNumber *string `json:"account_number,omitempty"`
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	TypeID        *int64  `json:"type_id,omitempty"`
	ParentID      *int64  `json:"parent_id,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
	ClearParent   bool    `json:"clear_parent,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateAccountRequest) ToUseCaseInput() usecase.UpdateAccountInput {
	return usecase.UpdateAccountInput{
		AccountNumber: r.AccountNumber,
		Name:          r.Name,
		Description:   r.Description,
		TypeID:        r.TypeID,
		ParentID:      r.ParentID,
		IsActive:      r.IsActive,
		ClearParent:   r.ClearParent,
	}
}

// LineRequest is one ledger line of an entry.
type LineRequest struct {
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	AccountID   int64           `json:"account_id"`
}

func linesToUseCase(lines []LineRequest) []usecase.LineInput {
	if lines == nil {
		return nil
	}
	out := make([]usecase.LineInput, len(lines))
	for i, l := range lines {
		out[i] = usecase.LineInput{
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
		}
	}
	return out
}

// CreateEntryRequest represents a request to create a journal entry.
// entry_number is optional; without it a number is generated from
// number_prefix and the entry date.
type CreateEntryRequest struct {
	Reference    *string       `json:"reference,omitempty"`
	EntryNumber  string        `json:"entry_number,omitempty"`
	NumberPrefix string        `json:"number_prefix,omitempty"`
	Date         string        `json:"date,omitempty"`
	Description  string        `json:"description"`
	Lines        []LineRequest `json:"lines"`
	Post         bool          `json:"post,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEntryRequest) ToUseCaseInput() (usecase.CreateEntryInput, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return usecase.CreateEntryInput{}, err
	}
	return usecase.CreateEntryInput{
		EntryNumber:  r.EntryNumber,
		NumberPrefix: r.NumberPrefix,
		Date:         date,
		Description:  r.Description,
		Reference:    r.Reference,
		Lines:        linesToUseCase(r.Lines),
		Post:         r.Post,
	}, nil
}

// UpdateEntryRequest edits a draft entry. A non-null lines array replaces
// every line of the entry.
type UpdateEntryRequest struct {
	Date           *string       `json:"date,omitempty"`
	Description    *string       `json:"description,omitempty"`
	Reference      *string       `json:"reference,omitempty"`
	Lines          []LineRequest `json:"lines,omitempty"`
	ClearReference bool          `json:"clear_reference,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateEntryRequest) ToUseCaseInput() (usecase.UpdateEntryInput, error) {
	input := usecase.UpdateEntryInput{
		Description:    r.Description,
		Reference:      r.Reference,
		ClearReference: r.ClearReference,
		Lines:          linesToUseCase(r.Lines),
	}
	if r.Date != nil {
		date, err := ParseDate(*r.Date)
		if err != nil {
			return usecase.UpdateEntryInput{}, err
		}
		if !date.IsZero() {
			input.Date = &date
		}
	}
	return input, nil
}

// InvoiceRequest is an issued invoice to be journalized.
type InvoiceRequest struct {
	CustomerName string          `json:"customer_name"`
	IssueDate    string          `json:"issue_date"`
	Amount       decimal.Decimal `json:"amount"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ID           int64           `json:"id"`
	Post         bool            `json:"post,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *InvoiceRequest) ToUseCaseInput() (usecase.InvoiceEvent, error) {
	date, err := ParseDate(r.IssueDate)
	if err != nil {
		return usecase.InvoiceEvent{}, err
	}
	return usecase.InvoiceEvent{
		ID:           r.ID,
		CustomerName: r.CustomerName,
		Amount:       r.Amount,
		TaxAmount:    r.TaxAmount,
		TotalAmount:  r.TotalAmount,
		IssueDate:    date,
		Post:         r.Post,
	}, nil
}

// ExpenseRequest is a recorded expense to be journalized.
type ExpenseRequest struct {
	VendorName  string          `json:"vendor_name"`
	ExpenseDate string          `json:"expense_date"`
	Amount      decimal.Decimal `json:"amount"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"category_id"`
	Post        bool            `json:"post,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ExpenseRequest) ToUseCaseInput() (usecase.ExpenseEvent, error) {
	date, err := ParseDate(r.ExpenseDate)
	if err != nil {
		return usecase.ExpenseEvent{}, err
	}
	return usecase.ExpenseEvent{
		ID:          r.ID,
		VendorName:  r.VendorName,
		CategoryID:  r.CategoryID,
		Amount:      r.Amount,
		TaxAmount:   r.TaxAmount,
		ExpenseDate: date,
		Post:        r.Post,
	}, nil
}

// PayrollRequest is a processed payslip to be journalized.
type PayrollRequest struct {
	PayDate       *string         `json:"pay_date,omitempty"`
	EmployeeName  string          `json:"employee_name"`
	GrossSalary   decimal.Decimal `json:"gross_salary"`
	NetSalary     decimal.Decimal `json:"net_salary"`
	TaxDeduction  decimal.Decimal `json:"tax_deduction"`
	ProvidentFund decimal.Decimal `json:"provident_fund"`
	PayslipID     int64           `json:"payslip_id"`
	Post          bool            `json:"post,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PayrollRequest) ToUseCaseInput() (usecase.PayrollEvent, error) {
	ev := usecase.PayrollEvent{
		PayslipID:     r.PayslipID,
		EmployeeName:  r.EmployeeName,
		GrossSalary:   r.GrossSalary,
		NetSalary:     r.NetSalary,
		TaxDeduction:  r.TaxDeduction,
		ProvidentFund: r.ProvidentFund,
		Post:          r.Post,
	}
	if r.PayDate != nil {
		date, err := ParseDate(*r.PayDate)
		if err != nil {
			return usecase.PayrollEvent{}, err
		}
		if !date.IsZero() {
			ev.PayDate = &date
		}
	}
	return ev, nil
}
