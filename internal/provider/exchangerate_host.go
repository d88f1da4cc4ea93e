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

var _ RatesProvider = (*ExchangeRateHostProvider)(nil)

// erhBaseCurrencies are the source currencies the /timeframe endpoint
// accepts on the plan this service targets.
var erhBaseCurrencies = []string{"USD", "EUR", "GBP", "CHF", "JPY", "AUD", "CAD"}

// ExchangeRateHostProvider fetches historical rates from the
// exchangerate.host API. Unlike single-base sources it can quote from any
// of several base currencies via the source parameter.
type ExchangeRateHostProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewExchangeRateHostProvider creates a new ExchangeRateHostProvider with
// the given configuration.
func NewExchangeRateHostProvider(baseURL, apiKey string, timeoutSec int) *ExchangeRateHostProvider {
	if baseURL == "" {
		baseURL = "https://api.exchangerate.host"
	}
	return &ExchangeRateHostProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Code returns the provider identifier.
func (p *ExchangeRateHostProvider) Code() string { return "ERH" }

// Descriptor returns the provider metadata.
func (p *ExchangeRateHostProvider) Descriptor() Descriptor {
	return Descriptor{
		Code:           p.Code(),
		Name:           "exchangerate.host",
		BaseCurrency:   "USD",
		BaseCurrencies: erhBaseCurrencies,
	}
}

// BaseCurrencies returns every base currency this provider can quote from.
func (p *ExchangeRateHostProvider) BaseCurrencies() []string { return erhBaseCurrencies }

type erhListResponse struct {
	Success    bool              `json:"success"`
	Currencies map[string]string `json:"currencies"`
}

// SupportedCurrencies queries the /list endpoint.
func (p *ExchangeRateHostProvider) SupportedCurrencies(ctx context.Context) ([]string, error) {
	reqURL := fmt.Sprintf("%s/list?access_key=%s", p.baseURL, p.apiKey)

	var result erhListResponse
	if err := p.getJSON(ctx, reqURL, &result); err != nil {
		return nil, providerErr(p.Code(), DateRange{}, err)
	}
	if !result.Success {
		return nil, providerErr(p.Code(), DateRange{}, fmt.Errorf("external API returned success=false for currency list"))
	}

	codes := make([]string, 0, len(result.Currencies))
	for code := range result.Currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

type erhTimeframeResponse struct {
	Success bool                          `json:"success"`
	Source  string                        `json:"source"`
	Quotes  map[string]map[string]float64 `json:"quotes"`
}

// FetchRates retrieves the /timeframe series for the requested currencies.
// The API keys quotes as "SOURCEQUOTE", e.g. "USDEUR", and omits dates
// without data.
func (p *ExchangeRateHostProvider) FetchRates(ctx context.Context, dates DateRange, currencies []string, base string) (map[string][]Observation, error) {
	base, err := resolveBase(p.Descriptor(), base)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/timeframe?access_key=%s&source=%s&currencies=%s&start_date=%s&end_date=%s",
		p.baseURL, p.apiKey, base, strings.Join(currencies, ","),
		dates.Start.Format("2006-01-02"), dates.End.Format("2006-01-02"))

	var result erhTimeframeResponse
	if err := p.getJSON(ctx, reqURL, &result); err != nil {
		return nil, providerErr(p.Code(), dates, err)
	}
	if !result.Success {
		return nil, providerErr(p.Code(), dates, fmt.Errorf("external API returned success=false for source %s", base))
	}

	out := make(map[string][]Observation)
	for dateStr, quotes := range result.Quotes {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, providerErr(p.Code(), dates, fmt.Errorf("unparseable date %q in response", dateStr))
		}
		for key, rate := range quotes {
			if !strings.HasPrefix(key, base) || len(key) != 6 {
				continue
			}
			currency := key[3:]
			rateDec, err := decimal.NewFromString(strconv.FormatFloat(rate, 'f', -1, 64))
			if err != nil {
				return nil, providerErr(p.Code(), dates, fmt.Errorf("unparseable rate for %s on %s", key, dateStr))
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

func (p *ExchangeRateHostProvider) getJSON(ctx context.Context, reqURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("external API request creation failed: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("external API request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("external API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode external API response: %w", err)
	}
	return nil
}
