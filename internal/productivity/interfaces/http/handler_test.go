package productivityhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	ledger "freelance-tax/internal/ledger/domain"
	ledgermemory "freelance-tax/internal/ledger/infrastructure/memory"
	prodapp "freelance-tax/internal/productivity/application"
	productivity "freelance-tax/internal/productivity/domain"
	"freelance-tax/internal/productivity/infrastructure/memory"
)

type staticSettings struct{}

func (staticSettings) Settings(context.Context) (ledger.Settings, error) {
	return ledger.DefaultSettings(), nil
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	records := ledgermemory.NewRecordRepository()
	svc, err := prodapp.NewService(prodapp.Deps{
		WorkingDays: memory.NewWorkingDayRepository(),
		KPIs:        memory.NewKPIRepository(),
		Invoices:    records,
		Expenses:    records,
		Settings:    staticSettings{},
		Clock:       ledger.FixedClock{At: time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	h, err := NewHandler(svc, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	return resp
}

func TestWorkingDayRoutes(t *testing.T) {
	mux := newTestMux(t)

	resp := do(mux, http.MethodPost, "/api/v1/working-days", `{"date":"2024-03-04","hours_worked":8,"billable_hours":6,"hourly_rate_cents":7500}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.Code, resp.Body.String())
	}
	var day productivity.WorkingDay
	if err := json.Unmarshal(resp.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp := do(mux, http.MethodPost, "/api/v1/working-days", `{"date":"2024-03-05","hours_worked":30}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for 30 hours, got %d", resp.Code)
	}

	resp = do(mux, http.MethodPut, "/api/v1/working-days/"+day.ID, `{"date":"2024-03-04","hours_worked":8,"billable_hours":8,"hourly_rate_cents":7500}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("update: %d %s", resp.Code, resp.Body.String())
	}

	resp = do(mux, http.MethodGet, "/api/v1/working-days?from=2024-03-01&to=2024-03-31", "")
	var days []productivity.WorkingDay
	if err := json.Unmarshal(resp.Body.Bytes(), &days); err != nil || len(days) != 1 {
		t.Fatalf("list: %d %s", resp.Code, resp.Body.String())
	}
	if resp := do(mux, http.MethodGet, "/api/v1/working-days?from=2024-03-31&to=2024-03-01", ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed range, got %d", resp.Code)
	}

	resp = do(mux, http.MethodGet, "/api/v1/working-days/stats?from=2024-03-01&to=2024-03-31", "")
	var stats productivity.WorkingDaysStats
	if err := json.Unmarshal(resp.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Days != 1 || stats.TotalRevenueCents != 60000 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if resp := do(mux, http.MethodGet, "/api/v1/working-days/stats", ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without range, got %d", resp.Code)
	}
	if resp := do(mux, http.MethodGet, "/api/v1/working-days/analysis?from=2024-03-01&to=2024-03-31", ""); resp.Code != http.StatusOK {
		t.Fatalf("analysis: %d %s", resp.Code, resp.Body.String())
	}

	if resp := do(mux, http.MethodDelete, "/api/v1/working-days/"+day.ID, ""); resp.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.Code)
	}
	if resp := do(mux, http.MethodGet, "/api/v1/working-days/"+day.ID, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestKPIRoutes(t *testing.T) {
	mux := newTestMux(t)

	resp := do(mux, http.MethodPost, "/api/v1/kpis/compute", `{"year":2024,"month":3}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("compute: %d %s", resp.Code, resp.Body.String())
	}
	var kpi productivity.MonthlyKPI
	if err := json.Unmarshal(resp.Body.Bytes(), &kpi); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp = do(mux, http.MethodGet, "/api/v1/kpis?year=2024&month=3", "")
	var stored productivity.MonthlyKPI
	if err := json.Unmarshal(resp.Body.Bytes(), &stored); err != nil || stored.ID != kpi.ID {
		t.Fatalf("get: %d %s", resp.Code, resp.Body.String())
	}
	resp = do(mux, http.MethodGet, "/api/v1/kpis?year=2024", "")
	var list []productivity.MonthlyKPI
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("list: %d %s", resp.Code, resp.Body.String())
	}
	if resp := do(mux, http.MethodGet, "/api/v1/kpis?year=2024&month=5", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing month, got %d", resp.Code)
	}
	if resp := do(mux, http.MethodPost, "/api/v1/kpis/compute", `{"year":2024,"month":13}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for month 13, got %d", resp.Code)
	}
}
