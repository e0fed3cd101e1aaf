package simulationhttp

import (
	"errors"
	"net/http"
	"strings"

	apihttp "freelance-tax/internal/api/http"
	simapp "freelance-tax/internal/simulation/application"
	simulation "freelance-tax/internal/simulation/domain"
)

const simulationsPath = "/api/v1/simulations"

// Handler serves simulations and the one-off calculators.
type Handler struct {
	service *simapp.Service
	auditor *apihttp.Auditor
}

// NewHandler constructs a handler.
func NewHandler(service *simapp.Service, auditor *apihttp.Auditor) (*Handler, error) {
	if service == nil {
		return nil, errors.New("simulation handler: nil service")
	}
	return &Handler{service: service, auditor: auditor}, nil
}

// Register mounts the handler on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle(simulationsPath, h)
	mux.Handle(simulationsPath+"/", h)
}

// ServeHTTP dispatches on path and method.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == simulationsPath:
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			apihttp.MethodNotAllowed(w)
		}
	case path == simulationsPath+"/daily-rate" && r.Method == http.MethodPost:
		h.handleDailyRate(w, r)
	case path == simulationsPath+"/annual-income" && r.Method == http.MethodPost:
		h.handleAnnualIncome(w, r)
	case strings.HasPrefix(path, simulationsPath+"/"):
		rest := strings.TrimPrefix(path, simulationsPath+"/")
		if id, ok := strings.CutSuffix(rest, "/run"); ok && id != "" && !strings.Contains(id, "/") {
			if r.Method != http.MethodPost {
				apihttp.MethodNotAllowed(w)
				return
			}
			h.handleRun(w, r, id)
			return
		}
		if rest == "" || strings.Contains(rest, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.handleItem(w, r, rest)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListSimulations(r.Context())
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	if list == nil {
		list = []simulation.Simulation{}
	}
	apihttp.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req simapp.SimulationRequest
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		apihttp.RespondError(w, err)
		return
	}
	sim, err := h.service.CreateSimulation(r.Context(), req)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusCreated, sim)
	h.auditor.Record(r, "simulation.create", "simulation", sim.ID, map[string]any{"scenario_type": sim.Scenario})
}

func (h *Handler) handleItem(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		sim, err := h.service.GetSimulation(r.Context(), id)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, sim)
	case http.MethodPut:
		var req simapp.SimulationRequest
		if err := apihttp.DecodeJSON(r, &req); err != nil {
			apihttp.RespondError(w, err)
			return
		}
		sim, err := h.service.UpdateSimulation(r.Context(), id, req)
		if err != nil {
			apihttp.RespondError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, sim)
		h.auditor.Record(r, "simulation.update", "simulation", id, nil)
	case http.MethodDelete:
		if err := h.service.DeleteSimulation(r.Context(), id); err != nil {
			apihttp.RespondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		h.auditor.Record(r, "simulation.delete", "simulation", id, nil)
	default:
		apihttp.MethodNotAllowed(w)
	}
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request, id string) {
	sim, err := h.service.RunSimulation(r.Context(), id)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, sim)
	h.auditor.Record(r, "simulation.run", "simulation", id, map[string]any{"scenario_type": sim.Scenario})
}

func (h *Handler) handleDailyRate(w http.ResponseWriter, r *http.Request) {
	var req simapp.DailyRateRequest
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		apihttp.RespondError(w, err)
		return
	}
	calc, err := h.service.OptimalDailyRate(req)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, calc)
}

func (h *Handler) handleAnnualIncome(w http.ResponseWriter, r *http.Request) {
	var req simapp.IncomeRequest
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		apihttp.RespondError(w, err)
		return
	}
	projection, err := h.service.ProjectAnnualIncome(req)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, projection)
}
