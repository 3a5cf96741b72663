package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/foamdesk/foamdesk/internal/document"
	"github.com/foamdesk/foamdesk/internal/estimator"
	"github.com/foamdesk/foamdesk/internal/metrics"
	"github.com/foamdesk/foamdesk/internal/model"
	"github.com/foamdesk/foamdesk/internal/store"
)

type calculateRequest struct {
	Job    estimator.Job    `json:"calcData"`
	Extras estimator.Extras `json:"extras"`
}

type calculateResponse struct {
	Result estimator.Result     `json:"result"`
	Items  []estimator.LineItem `json:"items"`
}

// handleEstimateCalculate prices a job against the saved settings without storing anything.
func (s *server) handleEstimateCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pricing := settings.Pricing()
	if err := estimator.Validate(req.Job, req.Extras, pricing); err != nil {
		s.writeError(w, r, err)
		return
	}

	extras := req.Extras.Recalculated()
	result := req.Job.Compute(extras, pricing)
	metrics.EstimatesComputed.WithLabelValues(string(req.Job.Mode)).Inc()

	writeJSON(w, http.StatusOK, calculateResponse{
		Result: result,
		Items:  model.LineItems(result, extras, pricing),
	})
}

func (s *server) handleEstimatesList(w http.ResponseWriter, r *http.Request) {
	status := model.JobStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !status.Valid() {
		s.writeError(w, r, fmt.Errorf("%w: %q", model.ErrInvalidStatus, status))
		return
	}

	estimates, err := s.store.ListEstimates(r.Context(), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, estimates)
}

// handleEstimateCreate commits a draft as a new estimate priced with the saved settings.
func (s *server) handleEstimateCreate(w http.ResponseWriter, r *http.Request) {
	var draft model.EstimateDraft
	if !s.decodeJSON(w, r, &draft) {
		return
	}

	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pricing := settings.Pricing()
	if err := estimator.Validate(draft.Job, draft.Extras, pricing); err != nil {
		s.writeError(w, r, err)
		return
	}

	est, err := model.NewEstimate(draft, pricing, "", "", s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	est, err = s.store.SaveEstimate(r.Context(), est)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.EstimatesSaved.WithLabelValues(string(est.Status)).Inc()

	writeJSON(w, http.StatusCreated, est)
}

func (s *server) handleEstimateGet(w http.ResponseWriter, r *http.Request) {
	est, err := s.store.GetEstimate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *server) handleEstimateDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteEstimate(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status model.JobStatus `json:"status"`
}

func (s *server) handleEstimateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	est, err := s.store.UpdateEstimateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// handleEstimateText serves the estimate as a plain-text document.
func (s *server) handleEstimateText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	est, err := s.store.GetEstimate(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var customer *model.Customer
	c, err := s.store.GetCustomer(ctx, est.CustomerID)
	switch {
	case err == nil:
		customer = &c
	case !errors.Is(err, store.ErrNotFound):
		s.writeError(w, r, err)
		return
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", est.Number+".txt"))
	if err := document.Render(w, est, customer, settings); err != nil {
		s.logger.Warn("write estimate document", zap.Error(err))
	}
}
