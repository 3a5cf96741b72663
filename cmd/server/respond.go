package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/foamdesk/foamdesk/internal/backup"
	"github.com/foamdesk/foamdesk/internal/estimator"
	"github.com/foamdesk/foamdesk/internal/model"
	"github.com/foamdesk/foamdesk/internal/store"
)

const maxBodyBytes = 10 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v before writing the status line so an encoding failure becomes a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// badRequestErrors are client mistakes whose message is safe to return.
var badRequestErrors = []error{
	estimator.ErrInvalidInput,
	model.ErrNameRequired,
	model.ErrCustomerRequired,
	model.ErrInvalidStatus,
	model.ErrInvalidCategory,
	model.ErrNegativeQuantity,
	model.ErrInvalidSettings,
	errCredentialsRequired,
}

// writeError maps err to a status code. Unexpected errors are logged and hidden.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}

	var importErr *backup.ImportError
	if errors.As(err, &importErr) {
		writeJSONError(w, http.StatusBadRequest, importErr.Error())
		return
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSONError(w, http.StatusInternalServerError, "internal error")
}

// decodeJSON reads the request body into v and reports whether it succeeded. On failure
// the response has already been written.
func (s *server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
