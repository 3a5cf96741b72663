package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/foamdesk/foamdesk/internal/backup"
	"github.com/foamdesk/foamdesk/internal/model"
	"github.com/foamdesk/foamdesk/internal/report"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:  "unhealthy",
			Message: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "foamdesk"})
}

func (s *server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *server) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if !s.decodeJSON(w, r, &settings) {
		return
	}
	if err := s.store.SaveSettings(r.Context(), settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	estimates, err := s.store.ListEstimates(ctx, "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inventory, err := s.store.ListInventory(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Dashboard(estimates, inventory))
}

// handleExport downloads the whole store as a backup file.
func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.backup.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.FileName(snapshot.Timestamp)))
	writeJSON(w, http.StatusOK, snapshot)
}

// importResponse carries the success flag with either the per-collection counts or the reason.
type importResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	*backup.ImportStats
}

func (s *server) handleImport(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, importResponse{Error: "read body: " + err.Error()})
		return
	}

	stats, err := s.backup.Import(r.Context(), payload)
	if err != nil {
		var importErr *backup.ImportError
		if errors.As(err, &importErr) {
			writeJSON(w, http.StatusBadRequest, importResponse{Error: importErr.Error()})
			return
		}
		s.logger.Error("import failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, importResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, importResponse{OK: true, ImportStats: &stats})
}

// handleClear removes customers, estimates and inventory. Settings and the session stay.
func (s *server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("data cleared", zap.String("remote_addr", r.RemoteAddr))
	w.WriteHeader(http.StatusNoContent)
}
