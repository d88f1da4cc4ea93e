// Package provider implements external rate sources for fetching daily
// currency exchange rates, plus the registry that tracks them.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ratesync/internal/apperrors"
)

// DateRange is an inclusive calendar-date interval. Both bounds are
// UTC midnights with no time component.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to UTC midnight.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Days returns every calendar date in the range, inclusive.
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}

// Observation is a single raw rate tuple exactly as quoted by the source:
// 1 Base = Rate x Quote at the provider's native unit, so a multi-unit
// base currency is still quoted per 100 units here. Base need not be
// alphabetically first; normalization happens downstream.
type Observation struct {
	Date  time.Time
	Base  string
	Quote string
	Rate  decimal.Decimal
}

// Descriptor holds static metadata about a rate provider.
type Descriptor struct {
	Code                string   `json:"code"`
	Name                string   `json:"name"`
	BaseCurrency        string   `json:"base_currency"`
	BaseCurrencies      []string `json:"base_currencies"`
	MultiUnitCurrencies []string `json:"multi_unit_currencies,omitempty"`
}

// IsMultiUnit reports whether the provider quotes the given currency per
// 100 units instead of per 1 unit.
func (d Descriptor) IsMultiUnit(code string) bool {
	for _, c := range d.MultiUnitCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// RatesProvider is the contract every external rate source implements.
type RatesProvider interface {
	// Code returns the unique uppercase identifier of the provider.
	Code() string

	// Descriptor returns the provider's static metadata.
	Descriptor() Descriptor

	// BaseCurrencies returns every base currency the provider can quote from.
	BaseCurrencies() []string

	// SupportedCurrencies returns the currencies the provider can serve.
	SupportedCurrencies(ctx context.Context) ([]string, error)

	// FetchRates returns raw, un-normalized observations keyed by currency
	// for the requested date range. Dates with no fixing (weekends,
	// holidays) are simply absent. base selects which of the provider's
	// quote tables to use; empty means the provider default.
	FetchRates(ctx context.Context, dates DateRange, currencies []string, base string) (map[string][]Observation, error)
}

// resolveBase validates the requested base currency against the descriptor,
// substituting the provider default when empty.
func resolveBase(d Descriptor, base string) (string, error) {
	if base == "" {
		return d.BaseCurrency, nil
	}
	for _, b := range d.BaseCurrencies {
		if b == base {
			return base, nil
		}
	}
	return "", fmt.Errorf("%w: base currency %s not supported by provider %s (supported: %v)",
		apperrors.ErrValidation, base, d.Code, d.BaseCurrencies)
}

// providerErr wraps a fetch failure with enough context to log and trigger
// fallback.
func providerErr(code string, dates DateRange, err error) error {
	return fmt.Errorf("%w: provider %s, range %s: %v", apperrors.ErrProvider, code, dates, err)
}
