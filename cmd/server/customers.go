package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foamdesk/foamdesk/internal/model"
	"github.com/foamdesk/foamdesk/internal/report"
)

func (s *server) handleCustomersList(w http.ResponseWriter, r *http.Request) {
	customers, err := s.store.ListCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (s *server) handleCustomerCreate(w http.ResponseWriter, r *http.Request) {
	var c model.Customer
	if !s.decodeJSON(w, r, &c) {
		return
	}
	c.ID = ""

	saved, err := s.store.SaveCustomer(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// handleCustomerGet returns the customer with their estimates and lifetime value.
func (s *server) handleCustomerGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, err := s.store.GetCustomer(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	estimates, err := s.store.EstimatesForCustomer(ctx, c.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Customer(c, estimates))
}

func (s *server) handleCustomerUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	existing, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var c model.Customer
	if !s.decodeJSON(w, r, &c) {
		return
	}
	c.ID = id
	c.CreatedAt = existing.CreatedAt

	saved, err := s.store.SaveCustomer(ctx, c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *server) handleCustomerDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
