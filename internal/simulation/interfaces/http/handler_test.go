package simulationhttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	ledger "freelance-tax/internal/ledger/domain"
	simapp "freelance-tax/internal/simulation/application"
	simulation "freelance-tax/internal/simulation/domain"
	"freelance-tax/internal/simulation/infrastructure/memory"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	svc, err := simapp.NewService(memory.NewRepository(),
		ledger.FixedClock{At: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}, zerolog.Nop())
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

func TestSimulationLifecycle(t *testing.T) {
	mux := newTestMux(t)

	body := `{"name":"TJM 2024","scenario_type":"DailyRateOptimization","parameters":{"target_annual_income_cents":7800000,"working_days_per_month":20,"urssaf_rate_ppm":220000}}`
	resp := do(mux, http.MethodPost, "/api/v1/simulations", body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.Code, resp.Body.String())
	}
	var sim simulation.Simulation
	if err := json.Unmarshal(resp.Body.Bytes(), &sim); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sim.Scenario != simulation.ScenarioDailyRateOptimization || sim.Results != nil {
		t.Fatalf("unexpected simulation: %+v", sim)
	}

	resp = do(mux, http.MethodPost, "/api/v1/simulations/"+sim.ID+"/run", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("run: %d %s", resp.Code, resp.Body.String())
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &sim); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if sim.Results == nil || sim.Results.OptimalDailyRateCents == nil {
		t.Fatalf("expected results, got %+v", sim.Results)
	}

	renamed := strings.Replace(body, "TJM 2024", "TJM 2025", 1)
	resp = do(mux, http.MethodPut, "/api/v1/simulations/"+sim.ID, renamed)
	var updated simulation.Simulation
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil || updated.Name != "TJM 2025" || updated.Results == nil {
		t.Fatalf("update: %d %s", resp.Code, resp.Body.String())
	}

	resp = do(mux, http.MethodGet, "/api/v1/simulations", "")
	var list []simulation.Simulation
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("list: %d %s", resp.Code, resp.Body.String())
	}

	if resp := do(mux, http.MethodDelete, "/api/v1/simulations/"+sim.ID, ""); resp.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.Code)
	}
	if resp := do(mux, http.MethodGet, "/api/v1/simulations/"+sim.ID, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestSimulationValidation(t *testing.T) {
	mux := newTestMux(t)
	if resp := do(mux, http.MethodPost, "/api/v1/simulations", `{"name":"x","scenario_type":"lottery"}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown scenario, got %d", resp.Code)
	}

	resp := do(mux, http.MethodPost, "/api/v1/simulations", `{"name":"impact","scenario_type":"working_days_impact"}`)
	var sim simulation.Simulation
	if err := json.Unmarshal(resp.Body.Bytes(), &sim); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp := do(mux, http.MethodPost, "/api/v1/simulations/"+sim.ID+"/run", ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unimplemented scenario, got %d", resp.Code)
	}
	if resp := do(mux, http.MethodGet, "/api/v1/simulations/"+sim.ID+"/run", ""); resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestCalculatorRoutes(t *testing.T) {
	mux := newTestMux(t)

	resp := do(mux, http.MethodPost, "/api/v1/simulations/daily-rate",
		`{"target_annual_income_cents":7800000,"working_days_per_year":200,"urssaf_rate_ppm":220000}`)
	var calc simulation.DailyRateCalculation
	if err := json.Unmarshal(resp.Body.Bytes(), &calc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if calc.OptimalDailyRateCents != 50000 {
		t.Fatalf("expected 50000, got %d", calc.OptimalDailyRateCents)
	}
	if resp := do(mux, http.MethodPost, "/api/v1/simulations/daily-rate",
		`{"target_annual_income_cents":100,"working_days_per_year":200,"urssaf_rate_ppm":600000,"income_tax_rate_ppm":400000}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for combined rate, got %d", resp.Code)
	}

	resp = do(mux, http.MethodPost, "/api/v1/simulations/annual-income",
		`{"monthly_average_revenue_cents":500000,"working_months":11,"urssaf_rate_ppm":220000}`)
	var projection simulation.AnnualIncomeProjection
	if err := json.Unmarshal(resp.Body.Bytes(), &projection); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if projection.TotalRevenueHTCents != 5500000 || projection.URSSAFDueCents != 1210000 {
		t.Fatalf("unexpected projection: %+v", projection)
	}
	if resp := do(mux, http.MethodPost, "/api/v1/simulations/annual-income", `{"working_months":-1}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative months, got %d", resp.Code)
	}
}
