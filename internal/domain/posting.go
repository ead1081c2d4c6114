package domain

import (
	"fmt"
	"sort"
)

// Posting roles used by the event-to-entry generators.
const (
	RoleTradeReceivables        = "trade_receivables"
	RoleServiceRevenue          = "service_revenue"
	RoleSalesTaxPayable         = "sales_tax_payable"
	RoleCashInBank              = "cash_in_bank"
	RoleTaxPrepaid              = "tax_prepaid"
	RoleStaffSalaries           = "staff_salaries"
	RoleSalariesPayable         = "salaries_payable"
	RolePayrollTaxPayable       = "payroll_tax_payable"
	RoleEmployeeBenefitsPayable = "employee_benefits_payable"
)

// Entry number prefixes of generated entries.
const (
	PrefixInvoice = "INV"
	PrefixExpense = "EXP"
	PrefixPayroll = "PAY"
)

var requiredRoles = []string{
	RoleTradeReceivables,
	RoleServiceRevenue,
	RoleSalesTaxPayable,
	RoleCashInBank,
	RoleTaxPrepaid,
	RoleStaffSalaries,
	RoleSalariesPayable,
	RolePayrollTaxPayable,
	RoleEmployeeBenefitsPayable,
}

// PostingRules maps semantic roles and expense categories to account numbers.
type PostingRules struct {
	Accounts              map[string]string `yaml:"accounts"`
	ExpenseCategories     map[int64]string  `yaml:"expense_categories"`
	DefaultExpenseAccount string            `yaml:"default_expense_account"`
}

// DefaultPostingRules returns the account table matching DefaultChart.
func DefaultPostingRules() PostingRules {
	return PostingRules{
		Accounts: map[string]string{
			RoleTradeReceivables:        "1021",
			RoleServiceRevenue:          "4012",
			RoleSalesTaxPayable:         "2042",
			RoleCashInBank:              "1012",
			RoleTaxPrepaid:              "1061",
			RoleStaffSalaries:           "5011",
			RoleSalariesPayable:         "2021",
			RolePayrollTaxPayable:       "2043",
			RoleEmployeeBenefitsPayable: "2044",
		},
		ExpenseCategories: map[int64]string{
			1: "5021",
			2: "5022",
			3: "5023",
			4: "5024",
			5: "5025",
		},
		DefaultExpenseAccount: "5099",
	}
}

// Validate checks that every role and the fallback expense account is set.
func (r PostingRules) Validate() error {
	var missing []string
	for _, role := range requiredRoles {
		if r.Accounts[role] == "" {
			missing = append(missing, role)
		}
	}
	if r.DefaultExpenseAccount == "" {
		missing = append(missing, "default_expense_account")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: missing %v", ErrInvalidPostingRules, missing)
	}
	return nil
}

// AccountFor returns the account number configured for role.
func (r PostingRules) AccountFor(role string) string {
	return r.Accounts[role]
}

// ExpenseAccountFor returns the category's account, or the fallback account
// when the category is unmapped.
func (r PostingRules) ExpenseAccountFor(categoryID int64) string {
	if number, ok := r.ExpenseCategories[categoryID]; ok && number != "" {
		return number
	}
	return r.DefaultExpenseAccount
}

// DefaultChart is a small services-business chart of accounts that covers
// every account referenced by DefaultPostingRules.
func DefaultChart() []ChartAccount {
	return []ChartAccount{
		{Number: "1000", Name: "Assets", TypeID: AccountTypeAsset},
		{Number: "1010", Name: "Cash and Cash Equivalents", ParentNumber: "1000", TypeID: AccountTypeAsset},
		{Number: "1011", Name: "Petty Cash", ParentNumber: "1010", TypeID: AccountTypeAsset},
		{Number: "1012", Name: "Cash in Bank", ParentNumber: "1010", TypeID: AccountTypeAsset},
		{Number: "1020", Name: "Receivables", ParentNumber: "1000", TypeID: AccountTypeAsset},
		{Number: "1021", Name: "Trade Receivables", ParentNumber: "1020", TypeID: AccountTypeAsset},
		{Number: "1060", Name: "Prepaid Taxes", ParentNumber: "1000", TypeID: AccountTypeAsset},
		{Number: "1061", Name: "Input Tax Prepaid", ParentNumber: "1060", TypeID: AccountTypeAsset},

		{Number: "2000", Name: "Liabilities", TypeID: AccountTypeLiability},
		{Number: "2020", Name: "Payroll Liabilities", ParentNumber: "2000", TypeID: AccountTypeLiability},
		{Number: "2021", Name: "Salaries Payable", ParentNumber: "2020", TypeID: AccountTypeLiability},
		{Number: "2044", Name: "Employee Benefits Payable", ParentNumber: "2020", TypeID: AccountTypeLiability},
		{Number: "2040", Name: "Tax Liabilities", ParentNumber: "2000", TypeID: AccountTypeLiability},
		{Number: "2042", Name: "Sales Tax Payable", ParentNumber: "2040", TypeID: AccountTypeLiability},
		{Number: "2043", Name: "Payroll Tax Payable", ParentNumber: "2040", TypeID: AccountTypeLiability},

		{Number: "3000", Name: "Equity", TypeID: AccountTypeEquity},
		{Number: "3010", Name: "Owner's Capital", ParentNumber: "3000", TypeID: AccountTypeEquity},
		{Number: "3020", Name: "Retained Earnings", ParentNumber: "3000", TypeID: AccountTypeEquity},

		{Number: "4000", Name: "Revenue", TypeID: AccountTypeRevenue},
		{Number: "4010", Name: "Operating Revenue", ParentNumber: "4000", TypeID: AccountTypeRevenue},
		{Number: "4012", Name: "Service Revenue", ParentNumber: "4010", TypeID: AccountTypeRevenue},

		{Number: "5000", Name: "Expenses", TypeID: AccountTypeExpense},
		{Number: "5010", Name: "Personnel Expenses", ParentNumber: "5000", TypeID: AccountTypeExpense},
		{Number: "5011", Name: "Staff Salaries", ParentNumber: "5010", TypeID: AccountTypeExpense},
		{Number: "5020", Name: "Operating Expenses", ParentNumber: "5000", TypeID: AccountTypeExpense},
		{Number: "5021", Name: "Office Supplies", ParentNumber: "5020", TypeID: AccountTypeExpense},
		{Number: "5022", Name: "Travel", ParentNumber: "5020", TypeID: AccountTypeExpense},
		{Number: "5023", Name: "Utilities", ParentNumber: "5020", TypeID: AccountTypeExpense},
		{Number: "5024", Name: "Rent", ParentNumber: "5020", TypeID: AccountTypeExpense},
		{Number: "5025", Name: "Software Subscriptions", ParentNumber: "5020", TypeID: AccountTypeExpense},
		{Number: "5099", Name: "Miscellaneous Expenses", ParentNumber: "5020", TypeID: AccountTypeExpense},
	}
}
