package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ratesync/internal/provider"
)

func TestIsValidCurrencyCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"USD", true},
		{"EUR", true},
		{"JPY", true},
		{"usd", true},   // should accept lowercase and convert
		{"US", false},   // too short
		{"USDA", false}, // too long
		{"US1", false},  // contains number
		{"US$", false},  // contains special char
		{"", false},     // empty
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			result := IsValidCurrencyCode(tc.code)
			if result != tc.valid {
				t.Errorf("IsValidCurrencyCode(%q) = %v, want %v", tc.code, result, tc.valid)
			}
		})
	}
}

func TestNormalizeCodes(t *testing.T) {
	got, err := normalizeCodes([]string{"eur", "USD", "EUR"})
	if err != nil {
		t.Fatalf("normalizeCodes: %v", err)
	}
	if len(got) != 2 || got[0] != "EUR" || got[1] != "USD" {
		t.Fatalf("expected [EUR USD], got %v", got)
	}

	if _, err := normalizeCodes([]string{"EUR", "XY"}); err == nil {
		t.Fatal("expected error for invalid code")
	}
	if _, err := normalizeCodes(nil); err == nil {
		t.Fatal("expected error for empty list")
	}
}

func TestSortPair(t *testing.T) {
	lo, hi, swapped := sortPair("USD", "EUR")
	if lo != "EUR" || hi != "USD" || !swapped {
		t.Fatalf("sortPair(USD, EUR) = %s, %s, %v", lo, hi, swapped)
	}

	lo, hi, swapped = sortPair("EUR", "USD")
	if lo != "EUR" || hi != "USD" || swapped {
		t.Fatalf("sortPair(EUR, USD) = %s, %s, %v", lo, hi, swapped)
	}
}

func TestNormalizeTuple(t *testing.T) {
	date := time.Date(2025, time.January, 15, 13, 45, 0, 0, time.UTC)
	fetchedAt := time.Now().UTC()

	t.Run("ordered pair stored as-is", func(t *testing.T) {
		r, err := normalizeTuple(date, "EUR", "USD", decimal.RequireFromString("1.0423"), SourceManual, fetchedAt)
		if err != nil {
			t.Fatalf("normalizeTuple: %v", err)
		}
		if r.Base != "EUR" || r.Quote != "USD" {
			t.Fatalf("expected EUR/USD, got %s/%s", r.Base, r.Quote)
		}
		if !r.Rate.Equal(decimal.RequireFromString("1.0423")) {
			t.Fatalf("expected rate 1.0423, got %s", r.Rate)
		}
		// Time component must be dropped.
		if r.Date.Hour() != 0 || !r.Date.Equal(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("expected date truncated to midnight, got %s", r.Date)
		}
	})

	t.Run("reversed pair stores reciprocal", func(t *testing.T) {
		r, err := normalizeTuple(date, "USD", "EUR", decimal.RequireFromString("0.9594"), SourceManual, fetchedAt)
		if err != nil {
			t.Fatalf("normalizeTuple: %v", err)
		}
		if r.Base != "EUR" || r.Quote != "USD" {
			t.Fatalf("expected EUR/USD, got %s/%s", r.Base, r.Quote)
		}
		want := decimal.NewFromInt(1).DivRound(decimal.RequireFromString("0.9594"), 16).Truncate(10)
		if !r.Rate.Equal(want) {
			t.Fatalf("expected reciprocal %s, got %s", want, r.Rate)
		}
	})

	t.Run("truncates to storage precision", func(t *testing.T) {
		r, err := normalizeTuple(date, "EUR", "USD", decimal.RequireFromString("1.12345678901234"), SourceManual, fetchedAt)
		if err != nil {
			t.Fatalf("normalizeTuple: %v", err)
		}
		if !r.Rate.Equal(decimal.RequireFromString("1.1234567890")) {
			t.Fatalf("expected 10-digit truncation, got %s", r.Rate)
		}
	})

	t.Run("rejects identical currencies", func(t *testing.T) {
		if _, err := normalizeTuple(date, "EUR", "EUR", decimal.NewFromInt(1), SourceManual, fetchedAt); err == nil {
			t.Fatal("expected error for identical pair")
		}
	})

	t.Run("rejects non-positive rate", func(t *testing.T) {
		if _, err := normalizeTuple(date, "EUR", "USD", decimal.Zero, SourceManual, fetchedAt); err == nil {
			t.Fatal("expected error for zero rate")
		}
		if _, err := normalizeTuple(date, "EUR", "USD", decimal.RequireFromString("-1.05"), SourceManual, fetchedAt); err == nil {
			t.Fatal("expected error for negative rate")
		}
	})
}

func TestNormalizeObservation_MultiUnit(t *testing.T) {
	desc := provider.Descriptor{
		Code:                "CNB",
		BaseCurrency:        "CZK",
		BaseCurrencies:      []string{"CZK"},
		MultiUnitCurrencies: []string{"JPY", "HUF"},
	}
	date := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

	t.Run("multi-unit base divided by 100", func(t *testing.T) {
		// "100 JPY = 1.50 CHF" must become 1 JPY = 0.015 CHF.
		obs := provider.Observation{
			Date:  date,
			Base:  "JPY",
			Quote: "CHF",
			Rate:  decimal.RequireFromString("1.50"),
		}
		r, err := normalizeObservation(desc, obs, time.Now().UTC())
		if err != nil {
			t.Fatalf("normalizeObservation: %v", err)
		}
		if r.Base != "CHF" || r.Quote != "JPY" {
			t.Fatalf("expected CHF/JPY storage order, got %s/%s", r.Base, r.Quote)
		}
		// Stored as the reciprocal of 0.015.
		want := decimal.NewFromInt(1).DivRound(decimal.RequireFromString("0.015"), 16).Truncate(10)
		if !r.Rate.Equal(want) {
			t.Fatalf("expected %s, got %s", want, r.Rate)
		}
	})

	t.Run("single-unit base untouched", func(t *testing.T) {
		obs := provider.Observation{
			Date:  date,
			Base:  "CZK",
			Quote: "EUR",
			Rate:  decimal.RequireFromString("0.0396"),
		}
		r, err := normalizeObservation(desc, obs, time.Now().UTC())
		if err != nil {
			t.Fatalf("normalizeObservation: %v", err)
		}
		if r.Base != "CZK" || r.Quote != "EUR" {
			t.Fatalf("expected CZK/EUR, got %s/%s", r.Base, r.Quote)
		}
		if !r.Rate.Equal(decimal.RequireFromString("0.0396")) {
			t.Fatalf("expected 0.0396, got %s", r.Rate)
		}
	})
}
