package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ratesync/internal/apperrors"
	"ratesync/internal/provider"
	"ratesync/internal/repository"
)

// SyncRequest describes one synchronization run. ProviderCode empty means
// auto-configuration mode, where pair-source configuration decides which
// provider serves which currency. BaseCurrency is only meaningful together
// with an explicit provider.
type SyncRequest struct {
	Start        time.Time
	End          time.Time
	Currencies   []string
	ProviderCode string
	BaseCurrency string
}

// ProviderSync reports one successful fetch round against a provider.
type ProviderSync struct {
	ProviderCode string   `json:"provider_code"`
	Currencies   []string `json:"currencies"`
	RowsChanged  int      `json:"rows_changed"`
	Fallback     bool     `json:"fallback,omitempty"`
}

// SyncFailure reports a pair or currency that could not be synced after all
// fallback priorities were exhausted.
type SyncFailure struct {
	Pair  string `json:"pair"`
	Error string `json:"error"`
}

// SyncResult is the partial-success outcome of a sync run.
type SyncResult struct {
	RowsChanged int            `json:"rows_changed"`
	Providers   []ProviderSync `json:"providers"`
	Failures    []SyncFailure  `json:"failures,omitempty"`
}

// Syncer is the sync orchestrator contract consumed by the API and worker
// layers.
type Syncer interface {
	Sync(ctx context.Context, req SyncRequest) (*SyncResult, error)
}

// SyncService populates the rate store from external providers, either via
// an explicitly named provider or by consulting pair-source configuration.
type SyncService struct {
	registry     *provider.Registry
	rates        repository.RateRepository
	pairs        repository.PairSourceRepository
	log          *zap.SugaredLogger
	fetchTimeout time.Duration
}

var _ Syncer = (*SyncService)(nil)

// NewSyncService creates a new SyncService.
func NewSyncService(registry *provider.Registry, rates repository.RateRepository, pairs repository.PairSourceRepository, log *zap.SugaredLogger, fetchTimeout time.Duration) *SyncService {
	return &SyncService{
		registry:     registry,
		rates:        rates,
		pairs:        pairs,
		log:          log,
		fetchTimeout: fetchTimeout,
	}
}

// Sync fetches, normalizes, and upserts rates for the requested currencies
// and date range. Running the same sync twice with unchanged upstream data
// changes zero rows.
func (s *SyncService) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	if req.Start.IsZero() || req.End.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", apperrors.ErrValidation)
	}
	dates := provider.NewDateRange(req.Start, req.End)
	if dates.Start.After(dates.End) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s",
			apperrors.ErrValidation, dates.Start.Format("2006-01-02"), dates.End.Format("2006-01-02"))
	}

	currencies, err := normalizeCodes(req.Currencies)
	if err != nil {
		return nil, err
	}

	if req.ProviderCode != "" {
		return s.syncExplicit(ctx, dates, currencies, req.ProviderCode, req.BaseCurrency)
	}
	if req.BaseCurrency != "" {
		return nil, fmt.Errorf("%w: base_currency requires an explicit provider", apperrors.ErrValidation)
	}
	return s.syncAuto(ctx, dates, currencies)
}

// syncExplicit calls the named provider directly for all requested
// currencies. There is no fallback in this mode.
func (s *SyncService) syncExplicit(ctx context.Context, dates provider.DateRange, currencies []string, providerCode, base string) (*SyncResult, error) {
	p, err := s.registry.Get(providerCode)
	if err != nil {
		return nil, err
	}

	observations, err := s.fetch(ctx, p, dates, currencies, base)
	if err != nil {
		return nil, err
	}

	changed, err := s.persist(ctx, p.Descriptor(), observations, currencies)
	if err != nil {
		return nil, err
	}

	return &SyncResult{
		RowsChanged: changed,
		Providers: []ProviderSync{{
			ProviderCode: p.Code(),
			Currencies:   currencies,
			RowsChanged:  changed,
		}},
	}, nil
}

// pairChain is one configured pair with its full provider fallback chain,
// ordered by ascending priority.
type pairChain struct {
	base       string
	quote      string
	chain      []string
	currencies []string // pair members that were actually requested
}

func (c *pairChain) name() string { return c.base + "/" + c.quote }

// providerGroup accumulates the pairs and currencies a single primary
// provider is responsible for.
type providerGroup struct {
	providerCode string
	pairs        []*pairChain
	currencies   []string
}

// syncAuto groups requested currencies by the priority-1 provider of every
// configured pair that touches them, fetches each group concurrently, and
// falls back per pair across lower priorities on provider failure.
func (s *SyncService) syncAuto(ctx context.Context, dates provider.DateRange, currencies []string) (*SyncResult, error) {
	configured, err := s.pairs.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	groups, failures := s.groupByPrimaryProvider(configured, currencies)
	if len(groups) == 0 && len(failures) == 0 {
		return nil, fmt.Errorf("%w: no pair sources configured for currencies %v", apperrors.ErrNotFound, currencies)
	}

	// Provider fetches are independent network calls; issue them
	// concurrently. Each slot records its own outcome so one provider's
	// failure never aborts the others.
	type fetchOutcome struct {
		observations map[string][]provider.Observation
		descriptor   provider.Descriptor
		err          error
	}
	outcomes := make([]fetchOutcome, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	for i, grp := range groups {
		g.Go(func() error {
			p, err := s.registry.Get(grp.providerCode)
			if err != nil {
				outcomes[i].err = err
				return nil
			}
			outcomes[i].descriptor = p.Descriptor()
			outcomes[i].observations, outcomes[i].err = s.fetch(gctx, p, dates, grp.currencies, "")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SyncResult{Failures: failures}

	// All fetches have completed before any write is attempted; writes for
	// one group are applied by this single goroutine.
	for i, grp := range groups {
		out := outcomes[i]
		if out.err == nil {
			changed, err := s.persist(ctx, out.descriptor, out.observations, grp.currencies)
			if err != nil {
				return nil, err
			}
			result.RowsChanged += changed
			result.Providers = append(result.Providers, ProviderSync{
				ProviderCode: grp.providerCode,
				Currencies:   grp.currencies,
				RowsChanged:  changed,
			})
			continue
		}

		if !errors.Is(out.err, apperrors.ErrProvider) && !errors.Is(out.err, apperrors.ErrNotFound) {
			return nil, out.err
		}
		s.log.Warnw("Primary provider failed, trying fallbacks",
			"provider", grp.providerCode, "error", out.err)

		s.fallbackGroup(ctx, dates, grp, out.err, result)
	}

	sort.Slice(result.Providers, func(i, j int) bool {
		return result.Providers[i].ProviderCode < result.Providers[j].ProviderCode
	})
	return result, nil
}

// fallbackGroup walks each failed pair's remaining priority chain. A pair
// whose chain is exhausted becomes a failure entry; other pairs' successes
// still count.
func (s *SyncService) fallbackGroup(ctx context.Context, dates provider.DateRange, grp *providerGroup, primaryErr error, result *SyncResult) {
	for _, pair := range grp.pairs {
		var recovered bool
		lastErr := primaryErr

		for _, code := range pair.chain[1:] {
			p, err := s.registry.Get(code)
			if err != nil {
				lastErr = err
				continue
			}
			observations, err := s.fetch(ctx, p, dates, pair.currencies, "")
			if err != nil {
				lastErr = err
				s.log.Warnw("Fallback provider failed",
					"provider", code, "pair", pair.name(), "error", err)
				continue
			}
			changed, err := s.persist(ctx, p.Descriptor(), observations, pair.currencies)
			if err != nil {
				lastErr = err
				continue
			}
			result.RowsChanged += changed
			result.Providers = append(result.Providers, ProviderSync{
				ProviderCode: code,
				Currencies:   pair.currencies,
				RowsChanged:  changed,
				Fallback:     true,
			})
			recovered = true
			break
		}

		if !recovered {
			result.Failures = append(result.Failures, SyncFailure{
				Pair:  pair.name(),
				Error: lastErr.Error(),
			})
		}
	}
}

// groupByPrimaryProvider enumerates every configured pair touching any
// requested currency and groups them by their priority-1 provider. All
// pairs are enumerated; stopping at the first pair found per currency would
// silently drop providers responsible for other pairs involving the same
// currency.
func (s *SyncService) groupByPrimaryProvider(configured []repository.PairSource, currencies []string) ([]*providerGroup, []SyncFailure) {
	requested := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		requested[c] = true
	}

	// ListAll orders rows by (base, quote, priority), so rows for one pair
	// are contiguous with priority 1 first.
	var chains []*pairChain
	for _, row := range configured {
		if !requested[row.Base] && !requested[row.Quote] {
			continue
		}
		if n := len(chains); n > 0 && chains[n-1].base == row.Base && chains[n-1].quote == row.Quote {
			chains[n-1].chain = append(chains[n-1].chain, row.ProviderCode)
			continue
		}
		c := &pairChain{base: row.Base, quote: row.Quote, chain: []string{row.ProviderCode}}
		for _, member := range []string{row.Base, row.Quote} {
			if requested[member] {
				c.currencies = append(c.currencies, member)
			}
		}
		chains = append(chains, c)
	}

	covered := make(map[string]bool)
	byProvider := make(map[string]*providerGroup)
	var groups []*providerGroup
	for _, c := range chains {
		primary := c.chain[0]
		grp, ok := byProvider[primary]
		if !ok {
			grp = &providerGroup{providerCode: primary}
			byProvider[primary] = grp
			groups = append(groups, grp)
		}
		grp.pairs = append(grp.pairs, c)
		for _, cur := range c.currencies {
			covered[cur] = true
			grp.currencies = appendUnique(grp.currencies, cur)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].providerCode < groups[j].providerCode })

	var failures []SyncFailure
	for _, cur := range currencies {
		if !covered[cur] {
			failures = append(failures, SyncFailure{
				Pair:  cur,
				Error: "no pair source configured for currency",
			})
		}
	}
	return groups, failures
}

// fetch calls the provider with a per-call timeout. A timeout surfaces as a
// provider error and triggers fallback like any other transport failure.
func (s *SyncService) fetch(ctx context.Context, p provider.RatesProvider, dates provider.DateRange, currencies []string, base string) (map[string][]provider.Observation, error) {
	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	observations, err := p.FetchRates(fetchCtx, dates, currencies, base)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return observations, nil
}

// persist normalizes and upserts a provider's observations. The response is
// filtered to the requested currency set first: providers are not trusted
// to honor the request filter.
func (s *SyncService) persist(ctx context.Context, desc provider.Descriptor, observations map[string][]provider.Observation, currencies []string) (int, error) {
	requested := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		requested[c] = true
	}

	fetchedAt := time.Now().UTC()
	changed := 0
	for currency, obsList := range observations {
		if !requested[currency] {
			s.log.Warnw("Provider returned unrequested currency, dropping",
				"provider", desc.Code, "currency", currency)
			continue
		}
		for _, obs := range obsList {
			rate, err := normalizeObservation(desc, obs, fetchedAt)
			if err != nil {
				s.log.Warnw("Skipping unnormalizable observation",
					"provider", desc.Code, "currency", currency,
					"date", obs.Date.Format("2006-01-02"), "error", err)
				continue
			}
			didChange, err := s.rates.Upsert(ctx, rate)
			if err != nil {
				return changed, err
			}
			if didChange {
				changed++
			}
		}
	}
	return changed, nil
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
