package productivityhttp

import (
	"errors"
	"net/http"
	"strings"
	"time"

	apihttp "freelance-tax/internal/api/http"
	ledger "freelance-tax/internal/ledger/domain"
	prodapp "freelance-tax/internal/productivity/application"
	productivity "freelance-tax/internal/productivity/domain"
)

const (
	workingDaysPath = "/api/v1/working-days"
	kpisPath        = "/api/v1/kpis"
)

// Handler serves working days and monthly KPIs.
type Handler struct {
	service *prodapp.Service
	auditor *apihttp.Auditor
}

// NewHandler constructs a handler.
func NewHandler(service *prodapp.Service, auditor *apihttp.Auditor) (*Handler, error) {
	if service == nil {
		return nil, errors.New("productivity handler: nil service")
	}
	return &Handler{service: service, auditor: auditor}, nil
}

// Register mounts the handler on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle(workingDaysPath, h)
	mux.Handle(workingDaysPath+"/", h)
	mux.Handle(kpisPath, h)
	mux.Handle(kpisPath+"/compute", h)
}

// ServeHTTP dispatches on path and method.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == workingDaysPath:
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			apihttp.MethodNotAllowed(w)
		}
	case path == workingDaysPath+"/stats" && r.Method == http.MethodGet:
		h.handleStats(w, r)
	case path == workingDaysPath+"/analysis" && r.Method == http.MethodGet:
		h.handleAnalysis(w, r)
	case strings.HasPrefix(path, workingDaysPath+"/"):
		id := strings.TrimPrefix(path, workingDaysPath+"/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.handleItem(w, r, id)
	case path == kpisPath && r.Method == http.MethodGet:
		h.handleKPIs(w, r)
	case path == kpisPath+"/compute" && r.Method == http.MethodPost:
		h.handleCompute(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeQuery(r)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	days, err := h.service.ListWorkingDays(r.Context(), from, to)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	if days == nil {
		days = []productivity.WorkingDay{}
	}
	apihttp.WriteJSON(w, http.StatusOK, days)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req prodapp.WorkingDayRequest
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		apihttp.RespondError(w, err)
		return
	}
	day, err := h.service.CreateWorkingDay(r.Context(), req)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusCreated, day)
	h.auditor.Record(r, "working_day.create", "working_day", day.ID, map[string]any{"date": req.Date})
}

func (h *Handler) handleItem(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		day, err := h.service.GetWorkingDay(r.Context(), id)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, day)
	case http.MethodPut:
		var req prodapp.WorkingDayRequest
		if err := apihttp.DecodeJSON(r, &req); err != nil {
			apihttp.RespondError(w, err)
			return
		}
		day, err := h.service.UpdateWorkingDay(r.Context(), id, req)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, day)
		h.auditor.Record(r, "working_day.update", "working_day", id, map[string]any{"date": req.Date})
	case http.MethodDelete:
		if err := h.service.DeleteWorkingDay(r.Context(), id); err != nil {
			apihttp.RespondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		h.auditor.Record(r, "working_day.delete", "working_day", id, nil)
	default:
		apihttp.MethodNotAllowed(w)
	}
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeQuery(r)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	stats, err := h.service.Stats(r.Context(), from, to)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeQuery(r)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	analysis, err := h.service.AnalyzePatterns(r.Context(), from, to)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, analysis)
}

// handleKPIs returns one month when month is given, else the whole year.
func (h *Handler) handleKPIs(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("month") != "" {
		month, err := apihttp.MonthQuery(r)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		kpi, err := h.service.GetMonthlyKPI(r.Context(), month)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, kpi)
		return
	}
	year, err := apihttp.YearQuery(r)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	list, err := h.service.ListMonthlyKPIs(r.Context(), year)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	if list == nil {
		list = []productivity.MonthlyKPI{}
	}
	apihttp.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year  int `json:"year"`
		Month int `json:"month"`
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
	kpi, err := h.service.ComputeMonthlyKPIs(r.Context(), month)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, kpi)
	h.auditor.Record(r, "kpi.compute", "monthly_kpi", month.String(), nil)
}

func rangeQuery(r *http.Request) (time.Time, time.Time, error) {
	from, err := apihttp.DateQuery(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := apihttp.DateQuery(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
