package taxhttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	apihttp "freelance-tax/internal/api/http"
	ledger "freelance-tax/internal/ledger/domain"
	"freelance-tax/internal/observability/metrics"
	taxapp "freelance-tax/internal/tax/application"
	tax "freelance-tax/internal/tax/domain"
	taxinterfaces "freelance-tax/internal/tax/interfaces"
)

const (
	prefix          = "/api/v1/"
	schedulesPath   = prefix + "tax-schedules"
	defaultForecast = 12
	defaultRemind   = 7
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler serves reports, schedules, provisions and exports.
type Handler struct {
	service *taxapp.Service
	clock   ledger.Clock
	auditor *apihttp.Auditor
}

// NewHandler constructs a handler.
func NewHandler(service *taxapp.Service, clock ledger.Clock, auditor *apihttp.Auditor) (*Handler, error) {
	if service == nil {
		return nil, errors.New("tax handler: nil service")
	}
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	return &Handler{service: service, clock: clock, auditor: auditor}, nil
}

// Register mounts the handler on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	paths := []string{
		"vat", "vat/v2", "urssaf", "urssaf/v2",
		"dashboard", "dashboard/v2", "dashboard/enhanced",
		"recap", "recap/v2", "forecast", "annual-tax",
		"tax-schedules", "tax-schedules/",
		"provisions", "provisions/optimize",
		"exports/recap.pdf", "exports/recap.xlsx", "exports/annual.xlsx",
	}
	for _, p := range paths {
		mux.Handle(prefix+p, h)
	}
}

type monthReport func(ctx context.Context, month ledger.MonthID) (any, error)

// ServeHTTP dispatches on path and method.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if report, ok := h.monthReports()[strings.TrimPrefix(path, prefix)]; ok {
		if r.Method != http.MethodGet {
			apihttp.MethodNotAllowed(w)
			return
		}
		h.handleMonthReport(w, r, report)
		return
	}

	switch {
	case path == prefix+"forecast" && r.Method == http.MethodGet:
		h.handleForecast(w, r)
	case path == prefix+"annual-tax" && r.Method == http.MethodGet:
		h.handleAnnual(w, r)
	case path == schedulesPath && r.Method == http.MethodGet:
		h.handleListSchedules(w, r)
	case path == schedulesPath+"/generate" && r.Method == http.MethodPost:
		h.handleGenerate(w, r)
	case path == schedulesPath+"/overdue" && r.Method == http.MethodGet:
		h.handleOverdue(w, r)
	case path == schedulesPath+"/remind" && r.Method == http.MethodPost:
		h.handleRemind(w, r)
	case strings.HasPrefix(path, schedulesPath+"/") && strings.HasSuffix(path, "/paid") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, schedulesPath+"/"), "/paid")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.handleMarkPaid(w, r, id)
	case path == prefix+"provisions":
		switch r.Method {
		case http.MethodGet:
			h.handleListProvisions(w, r)
		case http.MethodPost:
			h.handleUpsertProvision(w, r)
		default:
			apihttp.MethodNotAllowed(w)
		}
	case path == prefix+"provisions/optimize" && r.Method == http.MethodPost:
		h.handleOptimize(w, r)
	case path == prefix+"exports/recap.pdf" && r.Method == http.MethodGet:
		h.handleRecapExport(w, r, "pdf")
	case path == prefix+"exports/recap.xlsx" && r.Method == http.MethodGet:
		h.handleRecapExport(w, r, "xlsx")
	case path == prefix+"exports/annual.xlsx" && r.Method == http.MethodGet:
		h.handleAnnualExport(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) monthReports() map[string]monthReport {
	s := h.service
	return map[string]monthReport{
		"vat":                func(ctx context.Context, m ledger.MonthID) (any, error) { return s.PrepareVAT(ctx, m) },
		"vat/v2":             func(ctx context.Context, m ledger.MonthID) (any, error) { return s.PrepareVATV2(ctx, m) },
		"urssaf":             func(ctx context.Context, m ledger.MonthID) (any, error) { return s.PrepareURSSAF(ctx, m) },
		"urssaf/v2":          func(ctx context.Context, m ledger.MonthID) (any, error) { return s.PrepareURSSAFV2(ctx, m) },
		"dashboard":          func(ctx context.Context, m ledger.MonthID) (any, error) { return s.Dashboard(ctx, m) },
		"dashboard/v2":       func(ctx context.Context, m ledger.MonthID) (any, error) { return s.DashboardV2(ctx, m) },
		"dashboard/enhanced": func(ctx context.Context, m ledger.MonthID) (any, error) { return s.EnhancedDashboard(ctx, m) },
		"recap":              func(ctx context.Context, m ledger.MonthID) (any, error) { return s.MonthRecap(ctx, m) },
		"recap/v2":           func(ctx context.Context, m ledger.MonthID) (any, error) { return s.MonthRecapV2(ctx, m) },
	}
}

func (h *Handler) handleMonthReport(w http.ResponseWriter, r *http.Request, report monthReport) {
	month, err := apihttp.MonthQuery(r)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	out, err := report(r.Context(), month)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	start, err := apihttp.MonthQuery(r)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	horizon, err := apihttp.IntQuery(r, "horizon", defaultForecast)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	result, err := h.service.Forecast(r.Context(), start, horizon)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAnnual(w http.ResponseWriter, r *http.Request) {
	year, err := apihttp.YearQuery(r)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	data, err := h.service.AnnualTaxData(r.Context(), year)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, data)
}

func (h *Handler) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	var status tax.ScheduleStatus
	if value := r.URL.Query().Get("status"); value != "" {
		parsed, err := tax.ParseScheduleStatus(value)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		status = parsed
	}
	list, err := h.service.ListSchedules(r.Context(), status)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year          int `json:"year"`
		Month         int `json:"month"`
		HorizonMonths int `json:"horizon_months"`
	}
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		apihttp.RespondError(w, err)
		return
	}
	month, err := ledger.MonthFromParts(req.Year, req.Month)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	list, err := h.service.GenerateSchedule(r.Context(), month, req.HorizonMonths)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, list)
	h.auditor.Record(r, "schedule.generate", "tax_schedule", month.String(), map[string]any{
		"horizon_months": req.HorizonMonths,
		"entries":        len(list),
	})
}

func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	asOf, err := apihttp.DateQuery(r, "as_of")
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	if asOf.IsZero() {
		asOf = h.clock.Now()
	}
	list, err := h.service.OverdueSchedules(r.Context(), asOf)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	if list == nil {
		list = []tax.TaxSchedule{}
	}
	apihttp.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		PaidOn string `json:"paid_on"`
	}
	if r.ContentLength != 0 {
		if err := apihttp.DecodeJSON(r, &req); err != nil {
			apihttp.RespondError(w, err)
			return
		}
	}
	paidOn := h.clock.Now()
	if req.PaidOn != "" {
		parsed, err := ledger.ParseDate(req.PaidOn)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		paidOn = parsed
	}
	entry, err := h.service.MarkSchedulePaid(r.Context(), id, paidOn)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, entry)
	h.auditor.Record(r, "schedule.paid", "tax_schedule", id, map[string]any{
		"paid_on": ledger.FormatDate(paidOn),
	})
}

func (h *Handler) handleRemind(w http.ResponseWriter, r *http.Request) {
	horizon, err := apihttp.IntQuery(r, "horizon_days", defaultRemind)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	reminder, err := h.service.SendReminders(r.Context(), horizon)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, reminder)
}

func (h *Handler) handleListProvisions(w http.ResponseWriter, r *http.Request) {
	month, err := apihttp.OptionalMonthQuery(r)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	list, err := h.service.ListProvisions(r.Context(), month)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleUpsertProvision(w http.ResponseWriter, r *http.Request) {
	var req taxapp.ProvisionRequest
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		apihttp.RespondError(w, err)
		return
	}
	p, err := h.service.UpsertProvision(r.Context(), req)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, p)
	h.auditor.Record(r, "provision.upsert", "provision", p.ID, map[string]any{
		"kind":         p.Kind,
		"amount_cents": p.AmountCents,
	})
}

func (h *Handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AvailableCashCents int64 `json:"available_cash_cents"`
		HorizonDays        int   `json:"horizon_days"`
	}
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		apihttp.RespondError(w, err)
		return
	}
	result, err := h.service.OptimizeProvisions(r.Context(), req.AvailableCashCents, req.HorizonDays)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRecapExport(w http.ResponseWriter, r *http.Request, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("recap", format, result, time.Since(start))
	}()

	month, err := apihttp.MonthQuery(r)
	if err != nil {
		result = metrics.ResultError
		apihttp.RespondError(w, err)
		return
	}
	doc, err := taxinterfaces.LoadRecapDocument(r.Context(), h.service, month)
	if err != nil {
		result = metrics.ResultError
		apihttp.RespondError(w, err)
		return
	}
	var (
		data        []byte
		contentType string
	)
	if format == "pdf" {
		data, err = taxinterfaces.BuildRecapPDF(doc)
		contentType = "application/pdf"
	} else {
		data, err = taxinterfaces.BuildRecapXLSX(doc)
		contentType = xlsxContentType
	}
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export "+format+" error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=recap-"+month.String()+"."+format)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.auditor.Record(r, "recap.export", "recap", month.String(), map[string]any{"format": format})
}

func (h *Handler) handleAnnualExport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("annual", "xlsx", result, time.Since(start))
	}()

	year, err := apihttp.YearQuery(r)
	if err != nil {
		result = metrics.ResultError
		apihttp.RespondError(w, err)
		return
	}
	annual, err := h.service.AnnualTaxData(r.Context(), year)
	if err != nil {
		result = metrics.ResultError
		apihttp.RespondError(w, err)
		return
	}
	data, err := taxinterfaces.BuildAnnualXLSX(annual)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.auditor.Record(r, "annual.export", "annual_tax", strconv.Itoa(year), map[string]any{"format": "xlsx"})
}
