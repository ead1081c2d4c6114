package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Seeded account type ids.
const (
	AccountTypeAsset     int64 = 1
	AccountTypeLiability int64 = 2
	AccountTypeEquity    int64 = 3
	AccountTypeRevenue   int64 = 4
	AccountTypeExpense   int64 = 5
)

// AccountType is static reference data classifying accounts.
type AccountType struct {
	ID   int64
	Name string
}

// DefaultAccountTypes returns the account types every ledger is seeded with.
func DefaultAccountTypes() []AccountType {
	return []AccountType{
		{ID: AccountTypeAsset, Name: "asset"},
		{ID: AccountTypeLiability, Name: "liability"},
		{ID: AccountTypeEquity, Name: "equity"},
		{ID: AccountTypeRevenue, Name: "revenue"},
		{ID: AccountTypeExpense, Name: "expense"},
	}
}

// Account is a node in the chart of accounts.
type Account struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ParentID      *int64
	AccountNumber string
	Name          string
	Description   string
	ID            int64
	TypeID        int64
	IsActive      bool
}

// HasParent reports whether the account sits below another account.
func (a *Account) HasParent() bool {
	return a.ParentID != nil
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	TypeID     *int64
	ActiveOnly bool
}

// Matches reports whether a passes the filter.
func (f AccountFilter) Matches(a *Account) bool {
	if f.TypeID != nil && a.TypeID != *f.TypeID {
		return false
	}
	if f.ActiveOnly && !a.IsActive {
		return false
	}
	return true
}

// AccountBalance is the posted activity of one account.
type AccountBalance struct {
	AccountID   int64
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
	Balance     decimal.Decimal
}

// NewAccountBalance builds a balance as debit total minus credit total.
func NewAccountBalance(accountID int64, debit, credit decimal.Decimal) AccountBalance {
	return AccountBalance{
		AccountID:   accountID,
		DebitTotal:  debit,
		CreditTotal: credit,
		Balance:     debit.Sub(credit),
	}
}

// HasActivity reports whether any posted debit or credit hit the account.
func (b AccountBalance) HasActivity() bool {
	return !b.DebitTotal.IsZero() || !b.CreditTotal.IsZero()
}

// AccountWithBalance is the flat read shape: one account plus its balance.
type AccountWithBalance struct {
	Account *Account
	Type    AccountType
	Balance AccountBalance
}

// AccountNode is one node of the chart-of-accounts forest.
type AccountNode struct {
	Account  *Account
	Balance  AccountBalance
	Children []*AccountNode
}

// BuildAccountTree assembles accounts into a forest ordered by account number.
// An account whose parent is not part of the input becomes a root.
func BuildAccountTree(accounts []*Account, balances map[int64]AccountBalance) []*AccountNode {
	nodes := make(map[int64]*AccountNode, len(accounts))
	for _, a := range accounts {
		bal, ok := balances[a.ID]
		if !ok {
			bal = NewAccountBalance(a.ID, decimal.Zero, decimal.Zero)
		}
		nodes[a.ID] = &AccountNode{Account: a, Balance: bal}
	}

	var roots []*AccountNode
	for _, a := range accounts {
		node := nodes[a.ID]
		if a.ParentID != nil {
			if parent, ok := nodes[*a.ParentID]; ok && *a.ParentID != a.ID {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)

	return roots
}

func sortNodes(nodes []*AccountNode) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Account.AccountNumber < nodes[j].Account.AccountNumber
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// ChartAccount describes an account of a predefined chart. Parents are
// referenced by account number.
type ChartAccount struct {
	Number       string
	Name         string
	ParentNumber string
	TypeID       int64
}
