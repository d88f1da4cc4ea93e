package api

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"ratesync/internal/repository"
	"ratesync/internal/service"
)

// PairSourceEntry represents one pair-source configuration row.
type PairSourceEntry struct {
	Base         string `json:"base" example:"EUR"`
	Quote        string `json:"quote" example:"USD"`
	ProviderCode string `json:"provider_code" example:"FRANKFURTER"`
	Priority     int    `json:"priority" example:"1"`
}

// PairSourceUpsertBody represents the request body for pair-source upserts.
type PairSourceUpsertBody struct {
	Entries []PairSourceEntry `json:"entries"`
}

// PairSourceDeleteBody represents the request body for pair-source deletes.
type PairSourceDeleteBody struct {
	Base     string `json:"base" example:"EUR"`
	Quote    string `json:"quote" example:"USD"`
	Priority *int   `json:"priority,omitempty" example:"2"`
}

// PairSourceListResponse represents the full pair-source configuration.
type PairSourceListResponse struct {
	Entries []PairSourceEntry `json:"entries"`
}

// ResolveResponse represents the ordered provider chain for one pair.
type ResolveResponse struct {
	Base      string   `json:"base" example:"EUR"`
	Quote     string   `json:"quote" example:"USD"`
	Providers []string `json:"providers" example:"FRANKFURTER,ERH"`
}

// ManualRateEntry represents one manually supplied rate.
type ManualRateEntry struct {
	Date  string `json:"date" example:"2025-01-15"`
	Base  string `json:"base" example:"EUR"`
	Quote string `json:"quote" example:"USD"`
	Rate  string `json:"rate" example:"1.0423"`
}

// ManualRateUpsertBody represents the request body for manual rate entry.
type ManualRateUpsertBody struct {
	Entries      []ManualRateEntry `json:"entries"`
	RaiseOnError bool              `json:"raise_on_error,omitempty"`
}

// RateDeleteBody represents the request body for a rate-range delete.
type RateDeleteBody struct {
	Base  string `json:"base" example:"EUR"`
	Quote string `json:"quote" example:"USD"`
	Start string `json:"start" example:"2025-01-01"`
	End   string `json:"end" example:"2025-01-31"`
}

// HandlePairSourceUpsert godoc
// @Summary Replace or add pair-source entries
// @Description Applies the batch atomically. Any invalid entry, duplicate key, or inverse-pair priority clash rejects the whole batch.
// @Tags pair-sources
// @Accept json
// @Produce json
// @Param request body PairSourceUpsertBody true "Entries to upsert"
// @Success 204 "Batch applied"
// @Failure 400 {object} ErrorResponse "Invalid entries"
// @Failure 409 {object} ErrorResponse "Inverse-pair priority conflict"
// @Router /pair-sources [put]
func HandlePairSourceUpsert(pairs service.PairSourceManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body PairSourceUpsertBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
			return
		}
		if len(body.Entries) == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "entries are required"})
			return
		}

		entries := make([]repository.PairSource, 0, len(body.Entries))
		for _, e := range body.Entries {
			entries = append(entries, repository.PairSource{
				Base:         e.Base,
				Quote:        e.Quote,
				ProviderCode: e.ProviderCode,
				Priority:     e.Priority,
			})
		}

		if err := pairs.UpsertBulk(r.Context(), entries); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandlePairSourceDelete godoc
// @Summary Delete pair-source entries
// @Description Removes one priority slot when priority is given, otherwise the pair's whole chain. Deleting a missing entry succeeds with a notice.
// @Tags pair-sources
// @Accept json
// @Produce json
// @Param request body PairSourceDeleteBody true "Pair to delete"
// @Success 200 {object} service.DeleteResult "Delete outcome"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Router /pair-sources [delete]
func HandlePairSourceDelete(pairs service.PairSourceManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body PairSourceDeleteBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
			return
		}

		result, err := pairs.Delete(r.Context(), body.Base, body.Quote, body.Priority)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandlePairSourceList godoc
// @Summary List the full pair-source configuration
// @Tags pair-sources
// @Produce json
// @Success 200 {object} PairSourceListResponse "All configured entries"
// @Router /pair-sources [get]
func HandlePairSourceList(pairs service.PairSourceManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stored, err := pairs.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		entries := make([]PairSourceEntry, 0, len(stored))
		for _, s := range stored {
			entries = append(entries, PairSourceEntry{
				Base:         s.Base,
				Quote:        s.Quote,
				ProviderCode: s.ProviderCode,
				Priority:     s.Priority,
			})
		}
		writeJSON(w, http.StatusOK, PairSourceListResponse{Entries: entries})
	}
}

// HandlePairSourceResolve godoc
// @Summary Resolve the provider chain for one pair
// @Description Returns the ordered provider codes configured for the pair in its stored orientation.
// @Tags pair-sources
// @Produce json
// @Param base query string true "Base currency" example(EUR)
// @Param quote query string true "Quote currency" example(USD)
// @Success 200 {object} ResolveResponse "Ordered provider chain"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Pair not configured"
// @Router /pair-sources/resolve [get]
func HandlePairSourceResolve(pairs service.PairSourceManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := r.URL.Query().Get("base")
		quote := r.URL.Query().Get("quote")

		providers, err := pairs.Resolve(r.Context(), base, quote)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ResolveResponse{
			Base:      base,
			Quote:     quote,
			Providers: providers,
		})
	}
}

// HandleManualRateUpsert godoc
// @Summary Store manually supplied rates
// @Description Normalizes and upserts each entry independently. With raise_on_error the first invalid entry aborts the call; otherwise failures are reported per entry.
// @Tags rates
// @Accept json
// @Produce json
// @Param request body ManualRateUpsertBody true "Rates to store"
// @Success 200 {object} service.ManualUpsertResult "Per-entry outcome"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Router /rates [post]
func HandleManualRateUpsert(rates service.RateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body ManualRateUpsertBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
			return
		}
		if len(body.Entries) == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "entries are required"})
			return
		}

		entries := make([]service.ManualRate, 0, len(body.Entries))
		for _, e := range body.Entries {
			date, err := parseDate(e.Date)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
				return
			}
			rate, err := decimal.NewFromString(e.Rate)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
				return
			}
			entries = append(entries, service.ManualRate{
				Date:  date,
				Base:  e.Base,
				Quote: e.Quote,
				Rate:  rate,
			})
		}

		result, err := rates.UpsertManual(r.Context(), entries, body.RaiseOnError)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleRateDelete godoc
// @Summary Delete stored rates for a pair and date range
// @Description Accepts the pair in either orientation and removes all matching rows in chunks. Deleting an empty range succeeds with a notice.
// @Tags rates
// @Accept json
// @Produce json
// @Param request body RateDeleteBody true "Range to delete"
// @Success 200 {object} service.DeleteResult "Delete outcome"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Router /rates [delete]
func HandleRateDelete(rates service.RateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body RateDeleteBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
			return
		}
		start, err := parseDate(body.Start)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		end, err := parseDate(body.End)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		result, err := rates.DeleteRange(r.Context(), body.Base, body.Quote, start, end)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
