package service

import (
	"context"
	"time"

	"ratesync/internal/provider"
	"ratesync/internal/repository"
)

// mockRateRepo implements repository.RateRepository for testing.
type mockRateRepo struct {
	upsertFunc            func(ctx context.Context, r repository.Rate) (bool, error)
	getFunc               func(ctx context.Context, date time.Time, base, quote string) (*repository.Rate, error)
	getLatestBeforeFunc   func(ctx context.Context, date time.Time, base, quote string) (*repository.Rate, error)
	counterCurrenciesFunc func(ctx context.Context, currency string) ([]string, error)
	deleteRangeFunc       func(ctx context.Context, base, quote string, start, end time.Time) (int64, error)
}

func (m *mockRateRepo) Upsert(ctx context.Context, r repository.Rate) (bool, error) {
	return m.upsertFunc(ctx, r)
}

func (m *mockRateRepo) Get(ctx context.Context, date time.Time, base, quote string) (*repository.Rate, error) {
	return m.getFunc(ctx, date, base, quote)
}

func (m *mockRateRepo) GetLatestBefore(ctx context.Context, date time.Time, base, quote string) (*repository.Rate, error) {
	return m.getLatestBeforeFunc(ctx, date, base, quote)
}

func (m *mockRateRepo) CounterCurrencies(ctx context.Context, currency string) ([]string, error) {
	return m.counterCurrenciesFunc(ctx, currency)
}

func (m *mockRateRepo) DeleteRange(ctx context.Context, base, quote string, start, end time.Time) (int64, error) {
	return m.deleteRangeFunc(ctx, base, quote, start, end)
}

// mockPairRepo implements repository.PairSourceRepository for testing.
type mockPairRepo struct {
	upsertBulkFunc  func(ctx context.Context, entries []repository.PairSource) error
	deleteFunc      func(ctx context.Context, base, quote string, priority *int) (int64, error)
	listForPairFunc func(ctx context.Context, base, quote string) ([]repository.PairSource, error)
	listAllFunc     func(ctx context.Context) ([]repository.PairSource, error)
}

func (m *mockPairRepo) UpsertBulk(ctx context.Context, entries []repository.PairSource) error {
	return m.upsertBulkFunc(ctx, entries)
}

func (m *mockPairRepo) Delete(ctx context.Context, base, quote string, priority *int) (int64, error) {
	return m.deleteFunc(ctx, base, quote, priority)
}

func (m *mockPairRepo) ListForPair(ctx context.Context, base, quote string) ([]repository.PairSource, error) {
	return m.listForPairFunc(ctx, base, quote)
}

func (m *mockPairRepo) ListAll(ctx context.Context) ([]repository.PairSource, error) {
	return m.listAllFunc(ctx)
}

// fakeProvider is a scriptable provider.RatesProvider for sync tests.
type fakeProvider struct {
	desc      provider.Descriptor
	fetchFunc func(ctx context.Context, dates provider.DateRange, currencies []string, base string) (map[string][]provider.Observation, error)
}

func (f *fakeProvider) Code() string                    { return f.desc.Code }
func (f *fakeProvider) Descriptor() provider.Descriptor { return f.desc }
func (f *fakeProvider) BaseCurrencies() []string        { return f.desc.BaseCurrencies }

func (f *fakeProvider) SupportedCurrencies(context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeProvider) FetchRates(ctx context.Context, dates provider.DateRange, currencies []string, base string) (map[string][]provider.Observation, error) {
	return f.fetchFunc(ctx, dates, currencies, base)
}

// memRateRepo is an in-memory RateRepository with real upsert semantics,
// for tests that exercise idempotency and chained lookups.
type memRateRepo struct {
	rows map[string]repository.Rate
}

func newMemRateRepo() *memRateRepo {
	return &memRateRepo{rows: make(map[string]repository.Rate)}
}

func rateKey(date time.Time, base, quote string) string {
	return date.Format("2006-01-02") + "|" + base + "|" + quote
}

func (m *memRateRepo) Upsert(_ context.Context, r repository.Rate) (bool, error) {
	key := rateKey(r.Date, r.Base, r.Quote)
	if existing, ok := m.rows[key]; ok && existing.Rate.Equal(r.Rate) {
		return false, nil
	}
	m.rows[key] = r
	return true, nil
}

func (m *memRateRepo) Get(_ context.Context, date time.Time, base, quote string) (*repository.Rate, error) {
	if r, ok := m.rows[rateKey(date, base, quote)]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *memRateRepo) GetLatestBefore(_ context.Context, date time.Time, base, quote string) (*repository.Rate, error) {
	var best *repository.Rate
	for _, r := range m.rows {
		if r.Base != base || r.Quote != quote || !r.Date.Before(date) {
			continue
		}
		if best == nil || r.Date.After(best.Date) {
			row := r
			best = &row
		}
	}
	return best, nil
}

func (m *memRateRepo) CounterCurrencies(_ context.Context, currency string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, r := range m.rows {
		switch currency {
		case r.Base:
			if !seen[r.Quote] {
				seen[r.Quote] = true
				out = append(out, r.Quote)
			}
		case r.Quote:
			if !seen[r.Base] {
				seen[r.Base] = true
				out = append(out, r.Base)
			}
		}
	}
	return out, nil
}

func (m *memRateRepo) DeleteRange(_ context.Context, base, quote string, start, end time.Time) (int64, error) {
	var deleted int64
	for key, r := range m.rows {
		if r.Base == base && r.Quote == quote && !r.Date.Before(start) && !r.Date.After(end) {
			delete(m.rows, key)
			deleted++
		}
	}
	return deleted, nil
}
