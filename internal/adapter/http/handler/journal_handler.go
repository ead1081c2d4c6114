package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/iho/goledger/internal/adapter/http/dto"
	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/usecase"
)

// JournalService defines the behavior needed by JournalHandler.
type JournalService interface {
	CreateEntry(ctx context.Context, input usecase.CreateEntryInput) (*domain.JournalEntry, error)
	UpdateEntry(ctx context.Context, id int64, input usecase.UpdateEntryInput) (*domain.JournalEntry, error)
	PostEntry(ctx context.Context, id int64) (*domain.JournalEntry, error)
	GetEntry(ctx context.Context, id int64) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, page, pageSize int) ([]*domain.JournalEntry, int64, error)
	GenerateEntryNumber(ctx context.Context, prefix string, at time.Time) (string, error)
}

// JournalHandler handles journal entry HTTP requests.
type JournalHandler struct {
	journalUC JournalService
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journalUC JournalService) *JournalHandler {
	return &JournalHandler{journalUC: journalUC}
}

// Create validates and stores a journal entry.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.journalUC.CreateEntry(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to create journal entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalEntryFromDomain(entry))
}

// Update edits a draft entry.
func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.journalUC.UpdateEntry(r.Context(), id, input)
	if err != nil {
		writeDomainError(w, r, "failed to update journal entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalEntryFromDomain(entry))
}

// Post posts a draft entry. Posting an already posted entry returns it
// unchanged.
func (h *JournalHandler) Post(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.journalUC.PostEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to post journal entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalEntryFromDomain(entry))
}

// Get retrieves an entry with its lines.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.journalUC.GetEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get journal entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalEntryFromDomain(entry))
}

// List returns one page of entries, newest first.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	page := max(parseIntQuery(r, "page", 1), 1)
	pageSize := parseIntQuery(r, "page_size", 20)

	entries, total, err := h.journalUC.ListEntries(r.Context(), page, pageSize)
	if err != nil {
		writeDomainError(w, r, "failed to list journal entries", err)
		return
	}

	resp := dto.ListJournalEntriesResponse{
		Entries:  make([]*dto.JournalEntryResponse, len(entries)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i, e := range entries {
		resp.Entries[i] = dto.JournalEntryFromDomain(e)
	}

	writeJSON(w, http.StatusOK, resp)
}

// NextNumber previews the next entry number for ?prefix= in the month of
// ?date= (default today).
func (h *JournalHandler) NextNumber(w http.ResponseWriter, r *http.Request) {
	at, err := dto.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	number, err := h.journalUC.GenerateEntryNumber(r.Context(), r.URL.Query().Get("prefix"), at)
	if err != nil {
		writeDomainError(w, r, "failed to generate entry number", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NextEntryNumberResponse{EntryNumber: number})
}
