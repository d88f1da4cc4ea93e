package provider

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var _ RatesProvider = (*CNBProvider)(nil)

// cnbMultiUnit lists the currencies the CNB fixing quotes per 100 units.
var cnbMultiUnit = []string{"HUF", "INR", "ISK", "JPY", "KRW", "PHP", "THB"}

// CNBProvider fetches the Czech National Bank daily exchange-rate fixing.
// The feed is pipe-delimited text, one table per business day, quoting
// foreign currencies against CZK. Some currencies are quoted per 100 units;
// those are passed through at their native unit.
type CNBProvider struct {
	baseURL string
	client  *http.Client
}

// NewCNBProvider creates a new CNBProvider.
func NewCNBProvider(baseURL string, timeoutSec int) *CNBProvider {
	if baseURL == "" {
		baseURL = "https://www.cnb.cz/en/financial-markets/foreign-exchange-market/central-bank-exchange-rate-fixing/central-bank-exchange-rate-fixing"
	}
	return &CNBProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Code returns the provider identifier.
func (p *CNBProvider) Code() string { return "CNB" }

// Descriptor returns the provider metadata.
func (p *CNBProvider) Descriptor() Descriptor {
	return Descriptor{
		Code:                p.Code(),
		Name:                "Czech National Bank daily fixing",
		BaseCurrency:        "CZK",
		BaseCurrencies:      []string{"CZK"},
		MultiUnitCurrencies: cnbMultiUnit,
	}
}

// BaseCurrencies returns the single base this provider serves.
func (p *CNBProvider) BaseCurrencies() []string { return []string{"CZK"} }

// SupportedCurrencies returns the currencies present in the fixing table.
// The set is stable, so it is served statically.
func (p *CNBProvider) SupportedCurrencies(_ context.Context) ([]string, error) {
	return []string{
		"AUD", "BGN", "BRL", "CAD", "CHF", "CNY", "DKK", "EUR", "GBP",
		"HKD", "HUF", "INR", "ISK", "JPY", "KRW", "MXN", "NOK", "NZD",
		"PHP", "PLN", "RON", "SEK", "SGD", "THB", "TRY", "USD", "ZAR",
	}, nil
}

// FetchRates downloads the fixing for every day in the range. The CNB
// responds to weekend and holiday dates with the previous business day's
// table; those responses are detected via the table header and dropped so
// that missing days stay missing.
func (p *CNBProvider) FetchRates(ctx context.Context, dates DateRange, currencies []string, base string) (map[string][]Observation, error) {
	if _, err := resolveBase(p.Descriptor(), base); err != nil {
		return nil, err
	}

	requested := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		requested[c] = true
	}

	out := make(map[string][]Observation)
	for _, day := range dates.Days() {
		obs, err := p.fetchDay(ctx, day, requested)
		if err != nil {
			return nil, providerErr(p.Code(), dates, err)
		}
		for currency, o := range obs {
			out[currency] = append(out[currency], o)
		}
	}
	return out, nil
}

func (p *CNBProvider) fetchDay(ctx context.Context, day time.Time, requested map[string]bool) (map[string]Observation, error) {
	reqURL := fmt.Sprintf("%s/daily.txt?date=%s", p.baseURL, day.Format("02.01.2006"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("CNB request creation failed: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("CNB request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("CNB returned status %d: %s", resp.StatusCode, string(body))
	}

	return parseCNBTable(resp.Body, day, requested)
}

// parseCNBTable reads the pipe-delimited fixing table:
//
//	14 Jan 2025 #9
//	Country|Currency|Amount|Code|Rate
//	Japan|yen|100|JPY|15.842
//
// Rates are "Amount CODE = Rate CZK". Rows with amounts other than 1 or
// 100 are skipped since the storage model only carries per-1 and per-100
// quotes. A header date different from the requested day means there was
// no fixing for that day.
func parseCNBTable(r io.Reader, day time.Time, requested map[string]bool) (map[string]Observation, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return nil, fmt.Errorf("CNB response is empty")
	}
	header := strings.TrimSpace(scanner.Text())
	headerDate, err := time.Parse("02 Jan 2006", strings.TrimSpace(strings.SplitN(header, "#", 2)[0]))
	if err != nil {
		return nil, fmt.Errorf("unparseable CNB table header %q: %w", header, err)
	}
	if !Day(headerDate).Equal(day) {
		return map[string]Observation{}, nil
	}

	// column header line
	if !scanner.Scan() {
		return nil, fmt.Errorf("CNB table for %s is truncated", day.Format("2006-01-02"))
	}

	out := make(map[string]Observation)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) != 5 {
			return nil, fmt.Errorf("malformed CNB table row %q", line)
		}
		amount, code, rateStr := fields[2], fields[3], fields[4]
		if !requested[code] {
			continue
		}
		if amount != "1" && amount != "100" {
			continue
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			return nil, fmt.Errorf("unparseable CNB rate %q for %s: %w", rateStr, code, err)
		}
		out[code] = Observation{
			Date:  day,
			Base:  code,
			Quote: "CZK",
			Rate:  rate,
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading CNB table: %w", err)
	}
	return out, nil
}
