package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foamdesk/foamdesk/internal/metrics"
	"github.com/foamdesk/foamdesk/internal/model"
)

func (s *server) handleInventoryList(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListInventory(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) handleInventoryCreate(w http.ResponseWriter, r *http.Request) {
	var item model.InventoryItem
	if !s.decodeJSON(w, r, &item) {
		return
	}
	item.ID = ""

	saved, err := s.store.SaveInventoryItem(r.Context(), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *server) handleInventoryUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if _, err := s.store.GetInventoryItem(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	var item model.InventoryItem
	if !s.decodeJSON(w, r, &item) {
		return
	}
	item.ID = id

	saved, err := s.store.SaveInventoryItem(ctx, item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *server) handleInventoryDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteInventoryItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustRequest struct {
	Delta float64 `json:"delta"`
}

func (s *server) handleInventoryAdjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	item, err := s.store.AdjustInventory(r.Context(), chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.InventoryAdjustments.Inc()
	writeJSON(w, http.StatusOK, item)
}
