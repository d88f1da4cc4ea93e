package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ratesync/internal/apperrors"
	"ratesync/internal/provider"
	"ratesync/internal/repository"
)

// storageScale is the number of fractional digits a stored rate keeps.
// Truncation happens before comparing against the stored value so that
// precision noise never counts as a change.
const storageScale = 10

// reciprocalScale is the division precision used when inverting a rate.
const reciprocalScale = 16

// SourceManual marks rates entered directly rather than synced from a
// provider.
const SourceManual = "MANUAL"

// reciprocal returns 1/r at reciprocalScale digits.
func reciprocal(r decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).DivRound(r, reciprocalScale)
}

// sortPair returns the pair in storage order plus whether the input was
// swapped.
func sortPair(a, b string) (lo, hi string, swapped bool) {
	if a > b {
		return b, a, true
	}
	return a, b, false
}

// normalizeObservation turns a raw provider tuple into a storable Rate:
// per-100 adjustment for multi-unit currencies, alphabetical pair ordering
// with reciprocal, and truncation to storage precision.
func normalizeObservation(desc provider.Descriptor, obs provider.Observation, fetchedAt time.Time) (repository.Rate, error) {
	rate := obs.Rate
	if desc.IsMultiUnit(obs.Base) {
		// The source quotes this currency per 100 units, e.g.
		// "100 JPY = 1.50 CHF"; shift to a per-1 rate.
		rate = rate.Shift(-2)
	}

	return normalizeTuple(obs.Date, obs.Base, obs.Quote, rate, desc.Code, fetchedAt)
}

// normalizeTuple applies the storage invariants shared by synced and manual
// rates.
func normalizeTuple(date time.Time, base, quote string, rate decimal.Decimal, source string, fetchedAt time.Time) (repository.Rate, error) {
	if base == quote {
		return repository.Rate{}, fmt.Errorf("%w: pair %s/%s has identical currencies", apperrors.ErrValidation, base, quote)
	}
	if !rate.IsPositive() {
		return repository.Rate{}, fmt.Errorf("%w: rate for %s/%s must be positive, got %s", apperrors.ErrValidation, base, quote, rate)
	}

	lo, hi, swapped := sortPair(base, quote)
	if swapped {
		rate = reciprocal(rate)
	}

	return repository.Rate{
		Date:      provider.Day(date),
		Base:      lo,
		Quote:     hi,
		Rate:      rate.Truncate(storageScale),
		Source:    source,
		FetchedAt: fetchedAt,
	}, nil
}
