package api

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ratesync/internal/repository"
	"ratesync/internal/service"
	"ratesync/internal/worker"
)

type mockSyncer struct {
	syncFunc func(ctx context.Context, req service.SyncRequest) (*service.SyncResult, error)
}

func (m *mockSyncer) Sync(ctx context.Context, req service.SyncRequest) (*service.SyncResult, error) {
	return m.syncFunc(ctx, req)
}

type mockEnqueuer struct {
	enqueueFunc func(ctx context.Context, payload worker.SyncRatesPayload) (string, error)
}

func (m *mockEnqueuer) EnqueueSyncTask(ctx context.Context, payload worker.SyncRatesPayload) (string, error) {
	return m.enqueueFunc(ctx, payload)
}

type mockConverter struct {
	convertFunc      func(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (*service.Conversion, error)
	convertRangeFunc func(ctx context.Context, amount decimal.Decimal, from, to string, start, end time.Time) ([]service.Conversion, error)
	convertBulkFunc  func(ctx context.Context, requests []service.ConversionRequest, raiseOnError bool) (*service.BulkConversionResult, error)
}

func (m *mockConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (*service.Conversion, error) {
	return m.convertFunc(ctx, amount, from, to, date)
}

func (m *mockConverter) ConvertRange(ctx context.Context, amount decimal.Decimal, from, to string, start, end time.Time) ([]service.Conversion, error) {
	return m.convertRangeFunc(ctx, amount, from, to, start, end)
}

func (m *mockConverter) ConvertBulk(ctx context.Context, requests []service.ConversionRequest, raiseOnError bool) (*service.BulkConversionResult, error) {
	return m.convertBulkFunc(ctx, requests, raiseOnError)
}

type mockPairManager struct {
	upsertBulkFunc func(ctx context.Context, entries []repository.PairSource) error
	deleteFunc     func(ctx context.Context, base, quote string, priority *int) (*service.DeleteResult, error)
	resolveFunc    func(ctx context.Context, base, quote string) ([]string, error)
	listFunc       func(ctx context.Context) ([]repository.PairSource, error)
}

func (m *mockPairManager) UpsertBulk(ctx context.Context, entries []repository.PairSource) error {
	return m.upsertBulkFunc(ctx, entries)
}

func (m *mockPairManager) Delete(ctx context.Context, base, quote string, priority *int) (*service.DeleteResult, error) {
	return m.deleteFunc(ctx, base, quote, priority)
}

func (m *mockPairManager) Resolve(ctx context.Context, base, quote string) ([]string, error) {
	return m.resolveFunc(ctx, base, quote)
}

func (m *mockPairManager) List(ctx context.Context) ([]repository.PairSource, error) {
	return m.listFunc(ctx)
}

type mockRateManager struct {
	upsertManualFunc func(ctx context.Context, entries []service.ManualRate, raiseOnError bool) (*service.ManualUpsertResult, error)
	deleteRangeFunc  func(ctx context.Context, base, quote string, start, end time.Time) (*service.DeleteResult, error)
}

func (m *mockRateManager) UpsertManual(ctx context.Context, entries []service.ManualRate, raiseOnError bool) (*service.ManualUpsertResult, error) {
	return m.upsertManualFunc(ctx, entries, raiseOnError)
}

func (m *mockRateManager) DeleteRange(ctx context.Context, base, quote string, start, end time.Time) (*service.DeleteResult, error) {
	return m.deleteRangeFunc(ctx, base, quote, start, end)
}

var (
	_ service.Syncer            = (*mockSyncer)(nil)
	_ SyncEnqueuer              = (*mockEnqueuer)(nil)
	_ service.Converter         = (*mockConverter)(nil)
	_ service.PairSourceManager = (*mockPairManager)(nil)
	_ service.RateManager       = (*mockRateManager)(nil)
)
