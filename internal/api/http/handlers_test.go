package apihttp

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freelance-tax/internal/auth"
	ledger "freelance-tax/internal/ledger/domain"
	tax "freelance-tax/internal/tax/domain"
)

type stubLister struct {
	ops    []ledger.Operation
	filter ledger.OperationFilter
}

func (s *stubLister) ListOperations(_ context.Context, filter ledger.OperationFilter) ([]ledger.Operation, error) {
	s.filter = filter
	return s.ops, nil
}

func TestExportOperationsCSV(t *testing.T) {
	paid := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	lister := &stubLister{ops: []ledger.Operation{{
		ID:             "op-1",
		InvoiceDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		PaymentDate:    &paid,
		Type:           ledger.OperationSale,
		AmountHTCents:  100000,
		VATAmountCents: 20000,
		AmountTTCCents: 120000,
		VATOnPayments:  true,
		Label:          "Mission, mars",
	}}}
	handler, err := NewExportOperationsCSVHandler(lister, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/operations.csv?year=2024&month=3", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if lister.filter.Month == nil || *lister.filter.Month != (ledger.MonthID{Year: 2024, Month: 3}) {
		t.Fatalf("month filter not applied: %+v", lister.filter)
	}
	records, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header and one row, got %d", len(records))
	}
	row := records[1]
	if row[1] != "2024-03-01" || row[2] != "2024-03-20" || row[6] != "120000" || row[8] != "Mission, mars" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestExportOperationsCSV_BadMonth(t *testing.T) {
	handler, _ := NewExportOperationsCSVHandler(&stubLister{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/operations.csv?year=2024&month=13", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ledger.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("get: %w", ledger.ErrNotFound), http.StatusNotFound},
		{ledger.NewValidationError("month", "bad"), http.StatusBadRequest},
		{ledger.ErrMonthClosed, http.StatusConflict},
		{tax.ErrScheduleAlreadyPaid, http.StatusConflict},
		{auth.ErrForbidden, http.StatusForbidden},
		{auth.ErrUnauthorized, http.StatusUnauthorized},
		{&ledger.RepoError{Op: "list", Err: errors.New("conn reset")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		RespondError(resp, tc.err)
		if resp.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, resp.Code)
		}
	}
}
