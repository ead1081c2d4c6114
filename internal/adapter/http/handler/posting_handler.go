package handler

import (
	"context"
	"net/http"

	"github.com/iho/goledger/internal/adapter/http/dto"
	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/usecase"
)

// PostingService turns business events into journal entries.
type PostingService interface {
	PostInvoice(ctx context.Context, ev usecase.InvoiceEvent) (*domain.JournalEntry, error)
	PostExpense(ctx context.Context, ev usecase.ExpenseEvent) (*domain.JournalEntry, error)
	PostPayroll(ctx context.Context, ev usecase.PayrollEvent) (*domain.JournalEntry, error)
}

// PostingHandler handles business event HTTP requests.
type PostingHandler struct {
	postingUC PostingService
}

// NewPostingHandler creates a new PostingHandler.
func NewPostingHandler(postingUC PostingService) *PostingHandler {
	return &PostingHandler{postingUC: postingUC}
}

// Invoice journalizes an issued invoice.
func (h *PostingHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	var req dto.InvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ev, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.postingUC.PostInvoice(r.Context(), ev)
	if err != nil {
		writeDomainError(w, r, "failed to post invoice", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalEntryFromDomain(entry))
}

// Expense journalizes a recorded expense.
func (h *PostingHandler) Expense(w http.ResponseWriter, r *http.Request) {
	var req dto.ExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ev, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.postingUC.PostExpense(r.Context(), ev)
	if err != nil {
		writeDomainError(w, r, "failed to post expense", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalEntryFromDomain(entry))
}

// Payroll journalizes a processed payslip.
func (h *PostingHandler) Payroll(w http.ResponseWriter, r *http.Request) {
	var req dto.PayrollRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ev, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.postingUC.PostPayroll(r.Context(), ev)
	if err != nil {
		writeDomainError(w, r, "failed to post payroll", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalEntryFromDomain(entry))
}
