package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ratesync/internal/apperrors"
	"ratesync/internal/provider"
	"ratesync/internal/repository"
)

// ManualRate is a rate entered directly by a caller, bypassing providers.
// It is subject to the same storage invariants as synced rates.
type ManualRate struct {
	Date  time.Time
	Base  string
	Quote string
	Rate  decimal.Decimal
}

// ManualUpsertError records a failed manual entry by its index.
type ManualUpsertError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// ManualUpsertResult collects per-entry outcomes of a manual rate upsert.
type ManualUpsertResult struct {
	RowsChanged int                 `json:"rows_changed"`
	Errors      []ManualUpsertError `json:"errors,omitempty"`
}

// RateManager is the manual-entry contract consumed by the API layer.
type RateManager interface {
	UpsertManual(ctx context.Context, entries []ManualRate, raiseOnError bool) (*ManualUpsertResult, error)
	DeleteRange(ctx context.Context, base, quote string, start, end time.Time) (*DeleteResult, error)
}

// RateService handles manual rate entry and explicit rate deletion.
type RateService struct {
	rates repository.RateRepository
	log   *zap.SugaredLogger
}

var _ RateManager = (*RateService)(nil)

// NewRateService creates a new RateService.
func NewRateService(rates repository.RateRepository, log *zap.SugaredLogger) *RateService {
	return &RateService{rates: rates, log: log}
}

// UpsertManual stores the given rates with source MANUAL, normalizing each
// entry like a synced observation. With raiseOnError set the first invalid
// entry aborts the call; otherwise failures are collected per entry.
func (s *RateService) UpsertManual(ctx context.Context, entries []ManualRate, raiseOnError bool) (*ManualUpsertResult, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: at least one rate entry is required", apperrors.ErrValidation)
	}

	fetchedAt := time.Now().UTC()
	result := &ManualUpsertResult{}
	for i, e := range entries {
		rate, err := s.normalizeManual(e, fetchedAt)
		if err != nil {
			if raiseOnError {
				return nil, fmt.Errorf("manual rate entry %d: %w", i, err)
			}
			result.Errors = append(result.Errors, ManualUpsertError{Index: i, Error: err.Error()})
			continue
		}

		changed, err := s.rates.Upsert(ctx, rate)
		if err != nil {
			return nil, err
		}
		if changed {
			result.RowsChanged++
		}
	}

	s.log.Infow("Manual rates upserted",
		"entries", len(entries), "rows_changed", result.RowsChanged, "rejected", len(result.Errors))
	return result, nil
}

func (s *RateService) normalizeManual(e ManualRate, fetchedAt time.Time) (repository.Rate, error) {
	base, err := normalizeCode(e.Base)
	if err != nil {
		return repository.Rate{}, err
	}
	quote, err := normalizeCode(e.Quote)
	if err != nil {
		return repository.Rate{}, err
	}
	if e.Date.IsZero() {
		return repository.Rate{}, fmt.Errorf("%w: rate date is required", apperrors.ErrValidation)
	}
	return normalizeTuple(e.Date, base, quote, e.Rate, SourceManual, fetchedAt)
}

// DeleteRange removes every stored rate for the pair within [start, end].
// The pair may be given in either direction. Deleting absent rates is not
// an error.
func (s *RateService) DeleteRange(ctx context.Context, base, quote string, start, end time.Time) (*DeleteResult, error) {
	base, err := normalizeCode(base)
	if err != nil {
		return nil, err
	}
	quote, err = normalizeCode(quote)
	if err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", apperrors.ErrValidation)
	}

	lo, hi, _ := sortPair(base, quote)
	deleted, err := s.rates.DeleteRange(ctx, lo, hi, provider.Day(start), provider.Day(end))
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{DeletedCount: deleted}
	if deleted == 0 {
		result.Message = fmt.Sprintf("no rates matched %s/%s in %s..%s; nothing deleted",
			lo, hi, provider.Day(start).Format("2006-01-02"), provider.Day(end).Format("2006-01-02"))
	}
	s.log.Infow("Rates deleted", "pair", lo+"/"+hi, "deleted", deleted)
	return result, nil
}
