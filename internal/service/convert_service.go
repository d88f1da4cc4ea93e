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

// preferredPivots are tried first when composing a cross-currency
// conversion; remaining candidates follow in lexicographic order.
var preferredPivots = []string{"USD", "EUR"}

// BackwardFill reports that no rate existed for the requested date and an
// earlier one was substituted.
type BackwardFill struct {
	ActualRateDate time.Time `json:"actual_rate_date"`
	DaysBack       int       `json:"days_back"`
}

// Conversion is the result of a single currency conversion, including the
// provenance of the rate that was used.
type Conversion struct {
	Amount       decimal.Decimal `json:"amount"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	Date         time.Time       `json:"date"`
	Converted    decimal.Decimal `json:"converted"`
	Rate         decimal.Decimal `json:"rate"`
	RateDate     time.Time       `json:"rate_date"`
	Pivot        string          `json:"pivot,omitempty"`
	BackwardFill *BackwardFill   `json:"backward_fill,omitempty"`
}

// ConversionRequest is one item of a bulk conversion. EndDate turns the
// item into a range request covering every day in [Date, EndDate].
type ConversionRequest struct {
	Amount  decimal.Decimal
	From    string
	To      string
	Date    time.Time
	EndDate *time.Time
}

// BulkConversionError records a failed bulk item by its request index.
type BulkConversionError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BulkConversionResult collects per-item successes and failures.
type BulkConversionResult struct {
	Results []Conversion          `json:"results"`
	Errors  []BulkConversionError `json:"errors,omitempty"`
}

// Converter is the conversion engine contract consumed by the API layer.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (*Conversion, error)
	ConvertRange(ctx context.Context, amount decimal.Decimal, from, to string, start, end time.Time) ([]Conversion, error)
	ConvertBulk(ctx context.Context, requests []ConversionRequest, raiseOnError bool) (*BulkConversionResult, error)
}

// ConvertService resolves conversions against the rate store: direct,
// inverse, backward-filled, or composed through a pivot currency.
type ConvertService struct {
	rates         repository.RateRepository
	log           *zap.SugaredLogger
	staleWarnDays int
}

var _ Converter = (*ConvertService)(nil)

// NewConvertService creates a new ConvertService. staleWarnDays sets the
// backward-fill distance above which a warning is logged; the engine never
// refuses to answer because of lookback distance.
func NewConvertService(rates repository.RateRepository, log *zap.SugaredLogger, staleWarnDays int) *ConvertService {
	return &ConvertService{
		rates:         rates,
		log:           log,
		staleWarnDays: staleWarnDays,
	}
}

// Convert converts amount from one currency to another at the given date.
// A zero date means today.
func (s *ConvertService) Convert(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (*Conversion, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative, got %s", apperrors.ErrValidation, amount)
	}
	from, err := normalizeCode(from)
	if err != nil {
		return nil, err
	}
	to, err = normalizeCode(to)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	date = provider.Day(date)

	if from == to {
		return &Conversion{
			Amount:    amount,
			From:      from,
			To:        to,
			Date:      date,
			Converted: amount,
			Rate:      decimal.NewFromInt(1),
			RateDate:  date,
		}, nil
	}

	rate, rateDate, fill, found, err := s.resolvePairRate(ctx, from, to, date)
	if err != nil {
		return nil, err
	}

	result := &Conversion{Amount: amount, From: from, To: to, Date: date}
	if found {
		result.Rate = rate
		result.RateDate = rateDate
		result.BackwardFill = fill
	} else {
		pivot, pivotRate, pivotDate, pivotFill, err := s.resolveViaPivot(ctx, from, to, date)
		if err != nil {
			return nil, err
		}
		result.Pivot = pivot
		result.Rate = pivotRate
		result.RateDate = pivotDate
		result.BackwardFill = pivotFill
	}

	if result.BackwardFill != nil && s.staleWarnDays > 0 && result.BackwardFill.DaysBack > s.staleWarnDays {
		s.log.Warnw("Conversion used a stale rate",
			"from", from, "to", to,
			"date", date.Format("2006-01-02"),
			"rate_date", result.RateDate.Format("2006-01-02"),
			"days_back", result.BackwardFill.DaysBack)
	}

	result.Converted = amount.Mul(result.Rate)
	return result, nil
}

// ConvertRange produces one independently resolved conversion per calendar
// day in [start, end] inclusive. A day served via backward-fill does not
// affect sibling days.
func (s *ConvertService) ConvertRange(ctx context.Context, amount decimal.Decimal, from, to string, start, end time.Time) ([]Conversion, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", apperrors.ErrValidation)
	}
	dates := provider.NewDateRange(start, end)
	if dates.Start.After(dates.End) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s",
			apperrors.ErrValidation, dates.Start.Format("2006-01-02"), dates.End.Format("2006-01-02"))
	}

	days := dates.Days()
	results := make([]Conversion, 0, len(days))
	for _, day := range days {
		c, err := s.Convert(ctx, amount, from, to, day)
		if err != nil {
			return nil, err
		}
		results = append(results, *c)
	}
	return results, nil
}

// ConvertBulk resolves every request independently. With raiseOnError set
// the first failure aborts the whole call; otherwise failures are collected
// next to the successful results.
func (s *ConvertService) ConvertBulk(ctx context.Context, requests []ConversionRequest, raiseOnError bool) (*BulkConversionResult, error) {
	result := &BulkConversionResult{}
	for i, req := range requests {
		var (
			conversions []Conversion
			err         error
		)
		if req.EndDate != nil {
			conversions, err = s.ConvertRange(ctx, req.Amount, req.From, req.To, req.Date, *req.EndDate)
		} else {
			var c *Conversion
			c, err = s.Convert(ctx, req.Amount, req.From, req.To, req.Date)
			if err == nil {
				conversions = []Conversion{*c}
			}
		}

		if err != nil {
			if raiseOnError {
				return nil, fmt.Errorf("bulk conversion item %d: %w", i, err)
			}
			result.Errors = append(result.Errors, BulkConversionError{Index: i, Error: err.Error()})
			continue
		}
		result.Results = append(result.Results, conversions...)
	}
	return result, nil
}

// resolvePairRate looks up the direct or inverse rate for the pair at the
// given date, backward-filling to the nearest earlier date when the exact
// one is missing. found is false when the pair has no stored rate at any
// date.
func (s *ConvertService) resolvePairRate(ctx context.Context, from, to string, date time.Time) (rate decimal.Decimal, rateDate time.Time, fill *BackwardFill, found bool, err error) {
	lo, hi, swapped := sortPair(from, to)

	stored, err := s.rates.Get(ctx, date, lo, hi)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, nil, false, err
	}
	if stored == nil {
		// Strictly backward, never forward.
		stored, err = s.rates.GetLatestBefore(ctx, date, lo, hi)
		if err != nil {
			return decimal.Decimal{}, time.Time{}, nil, false, err
		}
		if stored == nil {
			return decimal.Decimal{}, time.Time{}, nil, false, nil
		}
		fill = &BackwardFill{
			ActualRateDate: stored.Date,
			DaysBack:       int(date.Sub(stored.Date).Hours() / 24),
		}
	}

	rate = stored.Rate
	if swapped {
		rate = reciprocal(rate)
	}
	return rate, stored.Date, fill, true, nil
}

// resolveViaPivot composes the conversion through an intermediate currency
// for which both legs are resolvable, each leg backward-filling
// independently.
func (s *ConvertService) resolveViaPivot(ctx context.Context, from, to string, date time.Time) (pivot string, rate decimal.Decimal, rateDate time.Time, fill *BackwardFill, err error) {
	counter, err := s.rates.CounterCurrencies(ctx, from)
	if err != nil {
		return "", decimal.Decimal{}, time.Time{}, nil, err
	}

	candidates := make([]string, 0, len(preferredPivots)+len(counter))
	candidates = append(candidates, preferredPivots...)
	candidates = append(candidates, counter...)

	tried := make(map[string]bool, len(candidates))
	for _, p := range candidates {
		if p == from || p == to || tried[p] {
			continue
		}
		tried[p] = true

		leg1, date1, fill1, ok, err := s.resolvePairRate(ctx, from, p, date)
		if err != nil {
			return "", decimal.Decimal{}, time.Time{}, nil, err
		}
		if !ok {
			continue
		}
		leg2, date2, fill2, ok, err := s.resolvePairRate(ctx, p, to, date)
		if err != nil {
			return "", decimal.Decimal{}, time.Time{}, nil, err
		}
		if !ok {
			continue
		}

		rate = leg1.Mul(leg2)
		rateDate = date1
		if date2.Before(date1) {
			rateDate = date2
		}
		fill = olderFill(fill1, fill2)
		s.log.Debugw("Resolved conversion via pivot",
			"from", from, "to", to, "pivot", p, "date", date.Format("2006-01-02"))
		return p, rate, rateDate, fill, nil
	}

	return "", decimal.Decimal{}, time.Time{}, nil,
		fmt.Errorf("%w: no rate resolvable for %s/%s on %s, even via pivot",
			apperrors.ErrNotFound, from, to, date.Format("2006-01-02"))
}

// olderFill returns the leg fill that reaches further back, nil when
// neither leg was filled.
func olderFill(a, b *BackwardFill) *BackwardFill {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.DaysBack > a.DaysBack:
		return b
	default:
		return a
	}
}
