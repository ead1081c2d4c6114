package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goledger/internal/adapter/http/dto"
	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/usecase"
)

type ledgerServiceStub struct {
	lines      []domain.AccountLine
	linesErr   error
	consistent bool
	checkErr   error
	gotLimit   int
}

func (s *ledgerServiceStub) GetAccountLines(ctx context.Context, accountID int64, limit, offset int) ([]domain.AccountLine, error) {
	s.gotLimit = limit
	return s.lines, s.linesErr
}

func (s *ledgerServiceStub) CheckConsistency(ctx context.Context) (bool, error) {
	return s.consistent, s.checkErr
}

type reportServiceStub struct {
	tb  *domain.TrialBalance
	err error
}

func (s reportServiceStub) GetTrialBalance(ctx context.Context) (*domain.TrialBalance, error) {
	return s.tb, s.err
}

type reconcileServiceStub struct {
	results []*usecase.ReconciliationResult
}

func (s reconcileServiceStub) ReconcileAllAccounts(ctx context.Context) ([]*usecase.ReconciliationResult, error) {
	return s.results, nil
}

func TestLedgerHandler_CheckConsistency(t *testing.T) {
	tests := []struct {
		name   string
		stub   *ledgerServiceStub
		status int
	}{
		{"consistent", &ledgerServiceStub{consistent: true}, http.StatusOK},
		{
			"inconsistent",
			&ledgerServiceStub{checkErr: fmt.Errorf("%w: debits 10, credits 9", domain.ErrInconsistentLedger)},
			http.StatusConflict,
		},
		{"storage failure", &ledgerServiceStub{checkErr: errors.New("db down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewLedgerHandler(tt.stub, nil, nil)

			rec := httptest.NewRecorder()
			handler.CheckConsistency(rec, httptest.NewRequest(http.MethodGet, "/ledger/consistency", nil))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestLedgerHandler_AccountLines(t *testing.T) {
	stub := &ledgerServiceStub{
		lines: []domain.AccountLine{
			{
				LedgerLine:  domain.LedgerLine{ID: 1, JournalEntryID: 3, AccountID: 2, Debit: decimal.NewFromInt(7)},
				EntryNumber: "JE-202401-0001",
				EntryDate:   time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
				IsPosted:    true,
			},
		},
	}
	handler := NewLedgerHandler(stub, nil, nil)

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/2/lines", nil), "id", "2")
	rec := httptest.NewRecorder()

	handler.AccountLines(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.gotLimit != 50 {
		t.Fatalf("expected default limit 50, got %d", stub.gotLimit)
	}

	var resp []dto.AccountLineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].EntryDate != "2024-01-09" || resp[0].JournalEntryID != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestLedgerHandler_AccountLines_UnknownAccount(t *testing.T) {
	handler := NewLedgerHandler(&ledgerServiceStub{linesErr: domain.ErrAccountNotFound}, nil, nil)

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/2/lines", nil), "id", "2")
	rec := httptest.NewRecorder()

	handler.AccountLines(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLedgerHandler_TrialBalance(t *testing.T) {
	handler := NewLedgerHandler(nil, reportServiceStub{tb: &domain.TrialBalance{
		TotalDebit:  decimal.NewFromInt(100),
		TotalCredit: decimal.NewFromInt(100),
		Balanced:    true,
	}}, nil)

	rec := httptest.NewRecorder()
	handler.TrialBalance(rec, httptest.NewRequest(http.MethodGet, "/reports/trial-balance", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dto.TrialBalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Balanced || !resp.TotalDebit.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestLedgerHandler_Reconcile(t *testing.T) {
	cached := decimal.NewFromInt(12)
	handler := NewLedgerHandler(nil, nil, reconcileServiceStub{results: []*usecase.ReconciliationResult{
		{AccountID: 1, IsReconciled: true},
		{AccountID: 2, CachedBalance: &cached, CalculatedBalance: decimal.NewFromInt(10), Difference: decimal.NewFromInt(2)},
	}})

	rec := httptest.NewRecorder()
	handler.Reconcile(rec, httptest.NewRequest(http.MethodPost, "/ledger/reconcile", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Accounts []dto.ReconciliationResponse `json:"accounts"`
		Stale    int                          `json:"stale"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Stale != 1 || len(resp.Accounts) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler(map[string]Pinger{
		"postgres": PingFunc(func(ctx context.Context) error { return nil }),
		"redis":    nil,
	})

	rec := httptest.NewRecorder()
	handler.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected liveness 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected readiness 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["postgres"] != "ok" {
		t.Fatalf("expected postgres ok, got %v", body)
	}
	if _, ok := body["redis"]; ok {
		t.Fatalf("nil pinger must be skipped, got %v", body)
	}
}

func TestHealthHandler_NotReady(t *testing.T) {
	handler := NewHealthHandler(map[string]Pinger{
		"redis": PingFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	})

	rec := httptest.NewRecorder()
	handler.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
