package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/warranty-cli/internal/model"
	"github.com/sells-group/warranty-cli/internal/store"
)

type estimateRequest struct {
	ProductName string `json:"product_name"`
}

type estimateResponse struct {
	Estimate *model.RiskEstimate  `json:"estimate"`
	Source   model.EstimateSource `json:"source"`
}

type evaluateRequest struct {
	Name          string  `json:"name"`
	Cost          float64 `json:"cost"`
	WarrantyCost  float64 `json:"warranty_cost"`
	WarrantyYears int     `json:"warranty_years"`
	// Probability overrides the estimator when present (the UI slider).
	Probability *int `json:"probability,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductName == "" {
		writeError(w, http.StatusBadRequest, "product_name is required")
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "estimation rate limit exceeded")
		return
	}

	est, src, err := s.advisor.EstimateRisk(r.Context(), req.ProductName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, estimateResponse{Estimate: est, Source: src})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	inputs := model.ProductInputs{
		Name:          req.Name,
		Cost:          req.Cost,
		WarrantyCost:  req.WarrantyCost,
		WarrantyYears: req.WarrantyYears,
	}

	var eval model.Evaluation
	if req.Probability != nil {
		eval = s.advisor.Evaluate(r.Context(), inputs, *req.Probability, nil, model.EstimateSourceManual)
	} else {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "estimation rate limit exceeded")
			return
		}
		var err error
		eval, err = s.advisor.EstimateAndEvaluate(r.Context(), inputs)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []model.Evaluation{})
		return
	}

	filter := store.EvaluationFilter{
		Verdict: model.Verdict(r.URL.Query().Get("verdict")),
		Product: r.URL.Query().Get("product"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	evals, err := s.store.ListEvaluations(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list evaluations")
		return
	}
	if evals == nil {
		evals = []model.Evaluation{}
	}
	writeJSON(w, http.StatusOK, evals)
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "history is not enabled")
		return
	}

	id := chi.URLParam(r, "id")
	eval, err := s.store.GetEvaluation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get evaluation")
		return
	}
	if eval == nil {
		writeError(w, http.StatusNotFound, "evaluation not found")
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
