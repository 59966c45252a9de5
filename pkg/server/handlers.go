// Copyright 2025 Certen Protocol

// Package server exposes the oracle's read operations over
// plain net/http, the same handler-struct-plus-writeJSONError shape the
// validator's own API handlers use.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/certen/tls-oracle/pkg/metrics"
	"github.com/certen/tls-oracle/pkg/oracle"
)

// Handlers serves the oracle's read-only query surface directly against an
// in-process *oracle.Registry. Submit/admin operations that must go through
// consensus are served by pkg/host's ABCI app instead; this surface exists
// for read replicas and for single-node/devnet deployments that run the
// registry without CometBFT.
type Handlers struct {
	reg     *oracle.Registry
	metrics *metrics.Oracle
	logger  *log.Logger
}

// NewHandlers builds a Handlers bound to reg. m may be nil to disable
// instrumentation (used by tests).
func NewHandlers(reg *oracle.Registry, m *metrics.Oracle, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.New(log.Writer(), "[oracle-api] ", log.LstdFlags)
	}
	return &Handlers{reg: reg, metrics: m, logger: logger}
}

// Mux builds the full set of routes this package serves.
func (h *Handlers) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/attestations/", h.HandleGetAttestation)
	mux.HandleFunc("/api/attestations", h.HandleListAttestations)
	mux.HandleFunc("/api/notaries", h.HandleListNotaries)
	mux.HandleFunc("/api/stats", h.HandleStats)
	mux.HandleFunc("/api/owner", h.HandleGetOwner)
	return mux
}

// HandleGetAttestation handles GET /api/attestations/{id}.
func (h *Handlers) HandleGetAttestation(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", requestID)

	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.URL.Path[len("/api/attestations/"):]
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		writeJSONError(w, "invalid attestation id", http.StatusBadRequest)
		return
	}

	rec, err := h.reg.GetAttestation(id)
	if err != nil {
		h.logger.Printf("request=%s get attestation %d failed: %v", requestID, id, err)
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}
	json.NewEncoder(w).Encode(rec)
}

// HandleListAttestations handles GET /api/attestations?from=&limit=.
func (h *Handlers) HandleListAttestations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", uuid.New().String())

	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var fromIndex *uint64
	if v := r.URL.Query().Get("from"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeJSONError(w, "invalid from index", http.StatusBadRequest)
			return
		}
		fromIndex = &n
	}
	var limit *int
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = &n
	}
	if serverName := r.URL.Query().Get("serverName"); serverName != "" {
		recs, err := h.reg.GetAttestationsBySource(serverName, limit)
		if err != nil {
			writeJSONError(w, err.Error(), statusFor(err))
			return
		}
		json.NewEncoder(w).Encode(recs)
		return
	}

	recs, err := h.reg.GetAttestations(fromIndex, limit)
	if err != nil {
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}
	json.NewEncoder(w).Encode(recs)
}

// HandleListNotaries handles GET /api/notaries.
func (h *Handlers) HandleListNotaries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	notaries, err := h.reg.GetNotaries()
	if err != nil {
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}
	json.NewEncoder(w).Encode(notaries)
}

// HandleStats handles GET /api/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats, err := h.reg.GetStats()
	if err != nil {
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}
	json.NewEncoder(w).Encode(stats)
}

// HandleGetOwner handles GET /api/owner.
func (h *Handlers) HandleGetOwner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner, err := h.reg.GetOwner()
	if err != nil {
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"owner": owner})
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, oracle.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, oracle.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
