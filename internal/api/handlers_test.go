package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratesync/internal/apperrors"
	"ratesync/internal/service"
	"ratesync/internal/worker"
)

func doJSON(t *testing.T, handler http.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleSync_OK(t *testing.T) {
	var gotReq service.SyncRequest
	syncer := &mockSyncer{
		syncFunc: func(_ context.Context, req service.SyncRequest) (*service.SyncResult, error) {
			gotReq = req
			return &service.SyncResult{RowsChanged: 4}, nil
		},
	}

	rec := doJSON(t, HandleSync(syncer), http.MethodPost,
		`{"start":"2025-01-13","end":"2025-01-14","currencies":["EUR","USD"],"provider_code":"FRANKFURTER"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FRANKFURTER", gotReq.ProviderCode)
	assert.Equal(t, []string{"EUR", "USD"}, gotReq.Currencies)
	assert.True(t, gotReq.Start.Equal(time.Date(2025, time.January, 13, 0, 0, 0, 0, time.UTC)))

	var result service.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 4, result.RowsChanged)
}

func TestHandleSync_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", fmt.Errorf("%w: bad currency", apperrors.ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: no configuration", apperrors.ErrNotFound), http.StatusNotFound},
		{"provider", fmt.Errorf("%w: upstream down", apperrors.ErrProvider), http.StatusBadGateway},
		{"conflict wins over validation", fmt.Errorf("%w: %w", apperrors.ErrConflict, apperrors.ErrValidation), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &mockSyncer{
				syncFunc: func(context.Context, service.SyncRequest) (*service.SyncResult, error) {
					return nil, tt.err
				},
			}
			rec := doJSON(t, HandleSync(syncer), http.MethodPost,
				`{"start":"2025-01-13","end":"2025-01-14","currencies":["EUR"]}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleSync_BadRequest(t *testing.T) {
	syncer := &mockSyncer{
		syncFunc: func(context.Context, service.SyncRequest) (*service.SyncResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	rec := doJSON(t, HandleSync(syncer), http.MethodPost, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, HandleSync(syncer), http.MethodPost, `{"start":"13.01.2025","end":"2025-01-14"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSyncAsync(t *testing.T) {
	var gotPayload worker.SyncRatesPayload
	enqueuer := &mockEnqueuer{
		enqueueFunc: func(_ context.Context, payload worker.SyncRatesPayload) (string, error) {
			gotPayload = payload
			return "task-123", nil
		},
	}

	rec := doJSON(t, HandleSyncAsync(enqueuer), http.MethodPost,
		`{"start":"2025-01-13","end":"2025-01-14","currencies":["EUR","USD"]}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"EUR", "USD"}, gotPayload.Currencies)

	var resp AsyncSyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "task-123", resp.TaskID)
}

func TestHandleSyncAsync_RequiresCurrencies(t *testing.T) {
	enqueuer := &mockEnqueuer{
		enqueueFunc: func(context.Context, worker.SyncRatesPayload) (string, error) {
			t.Fatal("enqueue must not be called")
			return "", nil
		},
	}

	rec := doJSON(t, HandleSyncAsync(enqueuer), http.MethodPost,
		`{"start":"2025-01-13","end":"2025-01-14"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleConvert_Single(t *testing.T) {
	converter := &mockConverter{
		convertFunc: func(_ context.Context, amount decimal.Decimal, from, to string, date time.Time) (*service.Conversion, error) {
			return &service.Conversion{
				Amount:    amount,
				From:      from,
				To:        to,
				Date:      date,
				Converted: decimal.RequireFromString("95.94"),
				Rate:      decimal.RequireFromString("0.9594"),
				RateDate:  date,
			}, nil
		},
	}

	rec := doJSON(t, HandleConvert(converter), http.MethodPost,
		`{"amount":"100","from":"USD","to":"EUR","date":"2025-01-15"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var result service.Conversion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "USD", result.From)
	assert.True(t, result.Converted.Equal(decimal.RequireFromString("95.94")))
}

func TestHandleConvert_RangeWhenEndDateSet(t *testing.T) {
	var gotStart, gotEnd time.Time
	converter := &mockConverter{
		convertRangeFunc: func(_ context.Context, amount decimal.Decimal, from, to string, start, end time.Time) ([]service.Conversion, error) {
			gotStart, gotEnd = start, end
			return []service.Conversion{{From: from, To: to, Date: start}, {From: from, To: to, Date: end}}, nil
		},
	}

	rec := doJSON(t, HandleConvert(converter), http.MethodPost,
		`{"amount":"100","from":"USD","to":"EUR","date":"2025-01-15","end_date":"2025-01-16"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotStart.Equal(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, gotEnd.Equal(time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC)))

	var resp ConvertRangeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 2)
}

func TestHandleConvert_NoRoute(t *testing.T) {
	converter := &mockConverter{
		convertFunc: func(context.Context, decimal.Decimal, string, string, time.Time) (*service.Conversion, error) {
			return nil, fmt.Errorf("%w: no rate for pair", apperrors.ErrNotFound)
		},
	}

	rec := doJSON(t, HandleConvert(converter), http.MethodPost,
		`{"amount":"100","from":"USD","to":"XXX"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleConvert_BadAmount(t *testing.T) {
	rec := doJSON(t, HandleConvert(&mockConverter{}), http.MethodPost,
		`{"amount":"abc","from":"USD","to":"EUR"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleConvertBulk(t *testing.T) {
	converter := &mockConverter{
		convertBulkFunc: func(_ context.Context, requests []service.ConversionRequest, raiseOnError bool) (*service.BulkConversionResult, error) {
			assert.Len(t, requests, 2)
			assert.False(t, raiseOnError)
			return &service.BulkConversionResult{
				Results: []service.Conversion{{From: "USD", To: "EUR"}},
				Errors:  []service.BulkConversionError{{Index: 1, Error: "no rate"}},
			}, nil
		},
	}

	rec := doJSON(t, HandleConvertBulk(converter), http.MethodPost,
		`{"requests":[{"amount":"100","from":"USD","to":"EUR"},{"amount":"5","from":"USD","to":"XXX"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var result service.BulkConversionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Results, 1)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)
}

func TestHandleConvertBulk_EmptyRequests(t *testing.T) {
	rec := doJSON(t, HandleConvertBulk(&mockConverter{}), http.MethodPost, `{"requests":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
