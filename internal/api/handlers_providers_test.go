package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratesync/internal/provider"
)

func TestHandleProviders(t *testing.T) {
	registry := provider.NewRegistry()
	require.NoError(t, registry.Register(provider.NewFrankfurterProvider("", 5)))
	require.NoError(t, registry.Register(provider.NewCNBProvider("", 5)))

	req := httptest.NewRequest(http.MethodGet, "/providers", nil)
	rec := httptest.NewRecorder()
	HandleProviders(registry)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ProviderListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Providers, 2)
	assert.Equal(t, "CNB", resp.Providers[0].Code)
	assert.Equal(t, "FRANKFURTER", resp.Providers[1].Code)
	assert.Contains(t, resp.Providers[0].MultiUnitCurrencies, "JPY")
}

func TestHandleHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	HandleHealthz()(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
