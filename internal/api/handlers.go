package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"ratesync/internal/service"
	"ratesync/internal/worker"
)

// SyncRequestBody represents the request body for a sync run.
type SyncRequestBody struct {
	Start        string   `json:"start" example:"2025-01-01"`
	End          string   `json:"end" example:"2025-01-31"`
	Currencies   []string `json:"currencies" example:"EUR,USD,JPY"`
	ProviderCode string   `json:"provider_code,omitempty" example:"FRANKFURTER"`
	BaseCurrency string   `json:"base_currency,omitempty" example:"EUR"`
}

// AsyncSyncResponse represents the response for an enqueued sync task.
type AsyncSyncResponse struct {
	TaskID string `json:"task_id" example:"b5a2c3d4-0000-0000-0000-000000000000"`
}

// ConvertRequestBody represents the request body for a conversion.
type ConvertRequestBody struct {
	Amount  string `json:"amount" example:"100.00"`
	From    string `json:"from" example:"USD"`
	To      string `json:"to" example:"EUR"`
	Date    string `json:"date,omitempty" example:"2025-01-15"`
	EndDate string `json:"end_date,omitempty" example:"2025-01-20"`
}

// ConvertRangeResponse represents the response for a range conversion.
type ConvertRangeResponse struct {
	Results []service.Conversion `json:"results"`
}

// BulkConvertRequestBody represents the request body for a bulk conversion.
type BulkConvertRequestBody struct {
	Requests     []ConvertRequestBody `json:"requests"`
	RaiseOnError bool                 `json:"raise_on_error,omitempty"`
}

func (b SyncRequestBody) toRequest() (service.SyncRequest, error) {
	start, err := parseDate(b.Start)
	if err != nil {
		return service.SyncRequest{}, err
	}
	end, err := parseDate(b.End)
	if err != nil {
		return service.SyncRequest{}, err
	}
	return service.SyncRequest{
		Start:        start,
		End:          end,
		Currencies:   b.Currencies,
		ProviderCode: b.ProviderCode,
		BaseCurrency: b.BaseCurrency,
	}, nil
}

// HandleSync godoc
// @Summary Synchronize rates now
// @Description Fetches rates for the requested currencies and date range, either from an explicitly named provider or via pair-source auto-configuration, and upserts them into the rate store. Partial failures are reported inside the result.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body SyncRequestBody true "Sync parameters"
// @Success 200 {object} service.SyncResult "Sync outcome, possibly with per-pair failures"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Unknown provider or no configuration"
// @Failure 502 {object} ErrorResponse "Explicit provider failed"
// @Router /sync [post]
func HandleSync(syncer service.Syncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body SyncRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
			return
		}
		req, err := body.toRequest()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		result, err := syncer.Sync(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// SyncEnqueuer enqueues background sync tasks.
type SyncEnqueuer interface {
	EnqueueSyncTask(ctx context.Context, payload worker.SyncRatesPayload) (string, error)
}

// HandleSyncAsync godoc
// @Summary Enqueue a background sync
// @Description Validates the request shape and enqueues a sync task, returning immediately with the task ID.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body SyncRequestBody true "Sync parameters"
// @Success 202 {object} AsyncSyncResponse "Task accepted"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /sync/async [post]
func HandleSyncAsync(enqueuer SyncEnqueuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body SyncRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
			return
		}
		if _, err := body.toRequest(); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		if len(body.Currencies) == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "currencies are required"})
			return
		}

		taskID, err := enqueuer.EnqueueSyncTask(r.Context(), worker.SyncRatesPayload{
			Start:        body.Start,
			End:          body.End,
			Currencies:   body.Currencies,
			ProviderCode: body.ProviderCode,
			BaseCurrency: body.BaseCurrency,
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			return
		}
		writeJSON(w, http.StatusAccepted, AsyncSyncResponse{TaskID: taskID})
	}
}

// HandleConvert godoc
// @Summary Convert an amount between currencies
// @Description Converts the amount at the given date (today when omitted), falling back to the nearest earlier rate or composing through a pivot currency when needed. When end_date is set, one result per day in [date, end_date] is returned.
// @Tags convert
// @Accept json
// @Produce json
// @Param request body ConvertRequestBody true "Conversion parameters"
// @Success 200 {object} service.Conversion "Single conversion (no end_date)"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "No rate resolvable"
// @Router /convert [post]
func HandleConvert(converter service.Converter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body ConvertRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
			return
		}

		req, err := toConversionRequest(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		if req.EndDate != nil {
			results, err := converter.ConvertRange(r.Context(), req.Amount, req.From, req.To, req.Date, *req.EndDate)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, ConvertRangeResponse{Results: results})
			return
		}

		result, err := converter.Convert(r.Context(), req.Amount, req.From, req.To, req.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleConvertBulk godoc
// @Summary Convert a batch of amounts
// @Description Resolves every request independently. With raise_on_error the first failure aborts the call; otherwise failures are collected alongside successful results.
// @Tags convert
// @Accept json
// @Produce json
// @Param request body BulkConvertRequestBody true "Bulk conversion parameters"
// @Success 200 {object} service.BulkConversionResult "Per-item results and errors"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Router /convert/bulk [post]
func HandleConvertBulk(converter service.Converter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body BulkConvertRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
			return
		}
		if len(body.Requests) == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "requests are required"})
			return
		}

		requests := make([]service.ConversionRequest, 0, len(body.Requests))
		for _, item := range body.Requests {
			req, err := toConversionRequest(item)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
				return
			}
			requests = append(requests, req)
		}

		result, err := converter.ConvertBulk(r.Context(), requests, body.RaiseOnError)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func toConversionRequest(body ConvertRequestBody) (service.ConversionRequest, error) {
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		return service.ConversionRequest{}, err
	}
	date, err := parseDate(body.Date)
	if err != nil {
		return service.ConversionRequest{}, err
	}

	req := service.ConversionRequest{
		Amount: amount,
		From:   body.From,
		To:     body.To,
		Date:   date,
	}
	if body.EndDate != "" {
		var end time.Time
		if end, err = parseDate(body.EndDate); err != nil {
			return service.ConversionRequest{}, err
		}
		req.EndDate = &end
	}
	return req, nil
}
