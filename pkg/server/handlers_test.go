// Copyright 2025 Certen Protocol

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/certen/tls-oracle/pkg/oracle"
	"github.com/certen/tls-oracle/pkg/oraclestore"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	kv := oraclestore.NewMemory()
	reg := oracle.NewRegistry(kv)
	require.NoError(t, reg.Init("alice"))
	return NewHandlers(reg, nil, nil)
}

func TestHandleGetOwner(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/api/owner", nil)
	rr := httptest.NewRecorder()
	h.HandleGetOwner(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "alice")
}

func TestHandleGetAttestationNotFound(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/api/attestations/9", nil)
	rr := httptest.NewRecorder()
	h.HandleGetAttestation(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleGetAttestationRejectsNonGet(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodPost, "/api/attestations/9", nil)
	rr := httptest.NewRecorder()
	h.HandleGetAttestation(rr, req)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandleListNotariesEmpty(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/api/notaries", nil)
	rr := httptest.NewRecorder()
	h.HandleListNotaries(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, "[]", rr.Body.String())
}

func TestHandleStats(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rr := httptest.NewRecorder()
	h.HandleStats(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"owner":"alice"`)
}
