package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/iho/goledger/internal/adapter/http/dto"
	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/usecase"
)

// LedgerService defines the ledger-wide reads needed by LedgerHandler.
type LedgerService interface {
	GetAccountLines(ctx context.Context, accountID int64, limit, offset int) ([]domain.AccountLine, error)
	CheckConsistency(ctx context.Context) (bool, error)
}

// ReportService builds financial reports.
type ReportService interface {
	GetTrialBalance(ctx context.Context) (*domain.TrialBalance, error)
}

// ReconciliationService compares cached balances with the ledger.
type ReconciliationService interface {
	ReconcileAllAccounts(ctx context.Context) ([]*usecase.ReconciliationResult, error)
}

// LedgerHandler handles ledger-wide operations and reports.
type LedgerHandler struct {
	ledgerUC    LedgerService
	reportUC    ReportService
	reconcileUC ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService, reportUC ReportService, reconcileUC ReconciliationService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, reportUC: reportUC, reconcileUC: reconcileUC}
}

// CheckConsistency checks if the ledger is consistent.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	consistent, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrInconsistentLedger) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"status":     "inconsistent",
				"consistent": false,
				"message":    err.Error(),
			})
			return
		}
		writeDomainError(w, r, "failed to check consistency", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "consistent",
		"consistent": consistent,
	})
}

// AccountLines lists an account's ledger lines, newest entry first.
func (h *LedgerHandler) AccountLines(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	limit, offset := parsePagination(r, 50)

	lines, err := h.ledgerUC.GetAccountLines(r.Context(), id, limit, offset)
	if err != nil {
		writeDomainError(w, r, "failed to list account lines", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountLinesFromDomain(lines))
}

// TrialBalance returns the trial balance over posted entries.
func (h *LedgerHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	tb, err := h.reportUC.GetTrialBalance(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to build trial balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TrialBalanceFromDomain(tb))
}

// Reconcile compares every cached balance with the ledger and evicts stale
// cache entries.
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	results, err := h.reconcileUC.ReconcileAllAccounts(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to reconcile balances", err)
		return
	}

	stale := 0
	for _, res := range results {
		if !res.IsReconciled {
			stale++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": dto.ReconciliationsFromUseCase(results),
		"stale":    stale,
	})
}
