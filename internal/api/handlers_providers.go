package api

import (
	"net/http"

	"ratesync/internal/provider"
)

// ProviderListResponse represents the installed provider plugins.
type ProviderListResponse struct {
	Providers []provider.Descriptor `json:"providers"`
}

// HandleProviders godoc
// @Summary List installed rate providers
// @Description Returns the descriptor of every registered provider plugin, sorted by code.
// @Tags providers
// @Produce json
// @Success 200 {object} ProviderListResponse "Installed providers"
// @Router /providers [get]
func HandleProviders(registry *provider.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ProviderListResponse{Providers: registry.List()})
	}
}
