package ledgerhttp

import (
	"errors"
	"net/http"
	"strings"

	apihttp "freelance-tax/internal/api/http"
	ledgerapp "freelance-tax/internal/ledger/application"
	ledger "freelance-tax/internal/ledger/domain"
)

const (
	operationsPath = "/api/v1/operations"
	invoicesPath   = "/api/v1/invoices"
	expensesPath   = "/api/v1/expenses"
	settingsPath   = "/api/v1/settings"
	monthsPath     = "/api/v1/months/"
)

// Handler serves the ledger routes.
type Handler struct {
	service *ledgerapp.Service
	auditor *apihttp.Auditor
}

// NewHandler constructs a handler.
func NewHandler(service *ledgerapp.Service, auditor *apihttp.Auditor) (*Handler, error) {
	if service == nil {
		return nil, errors.New("ledger handler: nil service")
	}
	return &Handler{service: service, auditor: auditor}, nil
}

// Register mounts the handler on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	for _, p := range []string{operationsPath, operationsPath + "/", invoicesPath, expensesPath, settingsPath, monthsPath} {
		mux.Handle(p, h)
	}
}

// ServeHTTP dispatches on path and method.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == operationsPath:
		switch r.Method {
		case http.MethodGet:
			h.handleListOperations(w, r)
		case http.MethodPost:
			h.handleCreateOperation(w, r)
		default:
			apihttp.MethodNotAllowed(w)
		}
	case path == operationsPath+"/by-payment-month":
		if r.Method != http.MethodGet {
			apihttp.MethodNotAllowed(w)
			return
		}
		h.handleByPaymentMonth(w, r)
	case strings.HasPrefix(path, operationsPath+"/"):
		id := strings.TrimPrefix(path, operationsPath+"/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.handleOperation(w, r, id)
	case path == invoicesPath:
		h.handleInvoices(w, r)
	case path == expensesPath:
		h.handleExpenses(w, r)
	case path == settingsPath:
		h.handleSettings(w, r)
	case path == monthsPath+"status" && r.Method == http.MethodGet:
		h.handleMonthStatus(w, r)
	case path == monthsPath+"close" && r.Method == http.MethodPost:
		h.handleCloseMonth(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleListOperations(w http.ResponseWriter, r *http.Request) {
	month, err := apihttp.OptionalMonthQuery(r)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	filter := ledger.OperationFilter{Month: month}
	if value := r.URL.Query().Get("type"); value != "" {
		kind, err := ledger.ParseOperationType(value)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		filter.Type = kind
	}
	ops, err := h.service.ListOperations(r.Context(), filter)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, ops)
}

func (h *Handler) handleByPaymentMonth(w http.ResponseWriter, r *http.Request) {
	month, err := apihttp.MonthQuery(r)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	ops, err := h.service.ListOperationsByPaymentMonth(r.Context(), month)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, ops)
}

func (h *Handler) handleCreateOperation(w http.ResponseWriter, r *http.Request) {
	var req ledgerapp.OperationRequest
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		apihttp.RespondError(w, err)
		return
	}
	op, err := h.service.CreateOperation(r.Context(), req)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusCreated, op)
	h.auditor.Record(r, "operation.create", "operation", op.ID, map[string]any{
		"operation_type":   op.Type,
		"amount_ttc_cents": op.AmountTTCCents,
	})
}

func (h *Handler) handleOperation(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		op, err := h.service.GetOperation(r.Context(), id)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, op)
	case http.MethodPut:
		var req ledgerapp.OperationRequest
		if err := apihttp.DecodeJSON(r, &req); err != nil {
			apihttp.RespondError(w, err)
			return
		}
		op, err := h.service.UpdateOperation(r.Context(), id, req)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, op)
		h.auditor.Record(r, "operation.update", "operation", id, map[string]any{
			"amount_ttc_cents": op.AmountTTCCents,
		})
	case http.MethodDelete:
		if err := h.service.DeleteOperation(r.Context(), id); err != nil {
			apihttp.RespondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		h.auditor.Record(r, "operation.delete", "operation", id, nil)
	default:
		apihttp.MethodNotAllowed(w)
	}
}

func (h *Handler) handleInvoices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		month, err := apihttp.OptionalMonthQuery(r)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		list, err := h.service.ListInvoices(r.Context(), month)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req ledgerapp.RecordRequest
		if err := apihttp.DecodeJSON(r, &req); err != nil {
			apihttp.RespondError(w, err)
			return
		}
		inv, err := h.service.CreateInvoice(r.Context(), req)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusCreated, inv)
		h.auditor.Record(r, "invoice.create", "invoice", inv.ID, map[string]any{"amount_ttc": inv.AmountTTC})
	default:
		apihttp.MethodNotAllowed(w)
	}
}

func (h *Handler) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		month, err := apihttp.OptionalMonthQuery(r)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		list, err := h.service.ListExpenses(r.Context(), month)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req ledgerapp.RecordRequest
		if err := apihttp.DecodeJSON(r, &req); err != nil {
			apihttp.RespondError(w, err)
			return
		}
		exp, err := h.service.CreateExpense(r.Context(), req)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusCreated, exp)
		h.auditor.Record(r, "expense.create", "expense", exp.ID, map[string]any{"amount_ttc": exp.AmountTTC})
	default:
		apihttp.MethodNotAllowed(w)
	}
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := h.service.Settings(r.Context())
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, settings)
	case http.MethodPut:
		var settings ledger.Settings
		if err := apihttp.DecodeJSON(r, &settings); err != nil {
			apihttp.RespondError(w, err)
			return
		}
		if err := h.service.SaveSettings(r.Context(), settings); err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, settings)
		h.auditor.Record(r, "settings.save", "settings", "1", map[string]any{
			"default_vat_rate_ppm": settings.DefaultVATRatePPM,
			"urssaf_rate_ppm":      settings.URSSAFRatePPM,
		})
	default:
		apihttp.MethodNotAllowed(w)
	}
}

func (h *Handler) handleMonthStatus(w http.ResponseWriter, r *http.Request) {
	month, err := apihttp.MonthQuery(r)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	status, err := h.service.MonthStatus(r.Context(), month)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleCloseMonth(w http.ResponseWriter, r *http.Request) {
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
	status, err := h.service.CloseMonth(r.Context(), month)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, status)
	h.auditor.Record(r, "month.close", "month", month.String(), nil)
}
