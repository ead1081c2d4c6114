package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/goledger/internal/adapter/http/dto"
	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	UpdateAccount(ctx context.Context, id int64, input usecase.UpdateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error)
	GetAccountWithBalance(ctx context.Context, id int64) (*domain.AccountWithBalance, error)
	SearchAccounts(ctx context.Context, query string) ([]*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	ListAccountTypes(ctx context.Context) ([]domain.AccountType, error)
	DeleteAccount(ctx context.Context, id int64) (usecase.DeleteResult, error)
	BuildHierarchy(ctx context.Context, typeID int64) ([]*domain.AccountNode, error)
}

// BalanceService computes posted account balances.
type BalanceService interface {
	GetAccountBalance(ctx context.Context, accountID int64) (domain.AccountBalance, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
	balanceUC BalanceService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, balanceUC BalanceService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, balanceUC: balanceUC}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Update applies a partial update to an account.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.UpdateAccount(r.Context(), id, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to update account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID. With ?include=balance the response also
// carries the type name and posted balance.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if r.URL.Query().Get("include") == "balance" {
		detail, err := h.accountUC.GetAccountWithBalance(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, "failed to get account", err)
			return
		}
		writeJSON(w, http.StatusOK, dto.AccountDetailFromDomain(detail))
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// GetByNumber retrieves an account by its account number.
func (h *AccountHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		writeError(w, http.StatusBadRequest, "missing account number", "")
		return
	}

	account, err := h.accountUC.GetAccountByNumber(r.Context(), number)
	if err != nil {
		writeDomainError(w, r, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts, optionally filtered by type and active flag.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	typeID, err := parseOptionalInt64Query(r, "type_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	limit, offset := parsePagination(r, 20)

	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		TypeID:     typeID,
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeDomainError(w, r, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Limit:    limit,
		Offset:   offset,
	})
}

// Search matches ?q= against account numbers and names.
func (h *AccountHandler) Search(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountUC.SearchAccounts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, r, "failed to search accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// Tree returns the active accounts of ?type_id= as a forest with balances.
func (h *AccountHandler) Tree(w http.ResponseWriter, r *http.Request) {
	typeID, err := parseOptionalInt64Query(r, "type_id")
	if err != nil || typeID == nil {
		writeError(w, http.StatusBadRequest, "invalid query", "type_id is required")
		return
	}

	nodes, err := h.accountUC.BuildHierarchy(r.Context(), *typeID)
	if err != nil {
		writeDomainError(w, r, "failed to build account tree", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountTreeFromDomain(nodes))
}

// Delete removes an unused account or deactivates a used one.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	res, err := h.accountUC.DeleteAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to delete account", err)
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Int64("account_id", id).
		Bool("hard_deleted", res.HardDeleted).
		Msg("account removed")

	writeJSON(w, http.StatusOK, dto.DeleteAccountFromResult(id, res))
}

// Balance returns the posted balance of an account.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	balance, err := h.balanceUC.GetAccountBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// ListTypes returns the account types.
func (h *AccountHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.accountUC.ListAccountTypes(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to list account types", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountTypesFromDomain(types))
}
