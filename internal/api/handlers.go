package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/cazamitos/cazamitos/internal/materials"
	"github.com/cazamitos/cazamitos/internal/results"
)

const maxBodyBytes = 1 << 20

type handlers struct {
	results *results.Service
	metrics *Metrics
	logger  *zap.Logger
	debug   bool
}

type failure struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	MissingFields []string `json:"missingFields,omitempty"`
	InvalidFields []string `json:"invalidFields,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) saveResults(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, failure{Message: "Only POST requests are allowed"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.metrics.submission("invalid")
		writeJSON(w, http.StatusBadRequest, failure{Message: "could not read request body"})
		return
	}

	rec, err := results.Parse(body)
	if err != nil {
		h.metrics.submission("invalid")
		var ve *results.ValidationError
		if !errors.As(err, &ve) {
			ve = &results.ValidationError{Message: err.Error()}
		}
		writeJSON(w, http.StatusBadRequest, failure{
			Message:       ve.Error(),
			MissingFields: ve.Missing,
			InvalidFields: ve.Invalid,
		})
		return
	}

	receipt, err := h.results.Submit(r.Context(), rec, results.Metadata{
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	})
	if err != nil {
		h.metrics.submission("error")
		resp := failure{Message: "Internal server error"}
		if h.debug {
			resp.Error = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	h.metrics.submission("stored")
	h.metrics.collectionSize.Set(float64(receipt.TotalResults))
	writeJSON(w, http.StatusOK, receipt)
}

func (h *handlers) materials(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := materials.Scan(dir)
		if err != nil {
			h.logger.Error("failed to scan materials", zap.String("dir", dir), zap.Error(err))
			resp := failure{Message: "Internal server error"}
			if h.debug {
				resp.Error = err.Error()
			}
			writeJSON(w, http.StatusInternalServerError, resp)
			return
		}
		writeJSON(w, http.StatusOK, cat)
	}
}
