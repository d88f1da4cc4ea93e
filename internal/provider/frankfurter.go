package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var _ RatesProvider = (*FrankfurterProvider)(nil)

// FrankfurterProvider fetches daily reference rates from the Frankfurter
// API. It quotes exclusively against EUR.
type FrankfurterProvider struct {
	baseURL string
	client  *http.Client
}

// NewFrankfurterProvider creates a new FrankfurterProvider.
func NewFrankfurterProvider(baseURL string, timeoutSec int) *FrankfurterProvider {
	if baseURL == "" {
		baseURL = "https://api.frankfurter.dev/v1"
	}
	return &FrankfurterProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Code returns the provider identifier.
func (p *FrankfurterProvider) Code() string { return "FRANKFURTER" }

// Descriptor returns the provider metadata.
func (p *FrankfurterProvider) Descriptor() Descriptor {
	return Descriptor{
		Code:           p.Code(),
		Name:           "Frankfurter (ECB reference rates)",
		BaseCurrency:   "EUR",
		BaseCurrencies: []string{"EUR"},
	}
}

// BaseCurrencies returns the single base this provider quotes from.
func (p *FrankfurterProvider) BaseCurrencies() []string { return []string{"EUR"} }

// SupportedCurrencies queries the /currencies endpoint.
func (p *FrankfurterProvider) SupportedCurrencies(ctx context.Context) ([]string, error) {
	var result map[string]string
	if err := p.getJSON(ctx, p.baseURL+"/currencies", &result); err != nil {
		return nil, providerErr(p.Code(), DateRange{}, err)
	}

	codes := make([]string, 0, len(result))
	for code := range result {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

type frankfurterSeriesResponse struct {
	Amount float64                       `json:"amount"`
	Base   string                        `json:"base"`
	Rates  map[string]map[string]float64 `json:"rates"`
}

// FetchRates retrieves the time series for the requested currencies. The API
// omits weekends and holidays from the response, which is passed through
// unchanged.
func (p *FrankfurterProvider) FetchRates(ctx context.Context, dates DateRange, currencies []string, base string) (map[string][]Observation, error) {
	base, err := resolveBase(p.Descriptor(), base)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/%s..%s?base=%s&symbols=%s",
		p.baseURL,
		dates.Start.Format("2006-01-02"), dates.End.Format("2006-01-02"),
		base, strings.Join(currencies, ","))

	var result frankfurterSeriesResponse
	if err := p.getJSON(ctx, reqURL, &result); err != nil {
		return nil, providerErr(p.Code(), dates, err)
	}

	out := make(map[string][]Observation)
	for dateStr, quotes := range result.Rates {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, providerErr(p.Code(), dates, fmt.Errorf("unparseable date %q in response", dateStr))
		}
		for currency, rate := range quotes {
			rateDec, err := decimal.NewFromString(strconv.FormatFloat(rate, 'f', -1, 64))
			if err != nil {
				return nil, providerErr(p.Code(), dates, fmt.Errorf("unparseable rate for %s on %s", currency, dateStr))
			}
			out[currency] = append(out[currency], Observation{
				Date:  Day(date),
				Base:  base,
				Quote: currency,
				Rate:  rateDec,
			})
		}
	}
	return out, nil
}

func (p *FrankfurterProvider) getJSON(ctx context.Context, reqURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("frankfurter API request creation failed: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("frankfurter API request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("frankfurter API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode frankfurter API response: %w", err)
	}
	return nil
}
