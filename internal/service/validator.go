// Package service implements the core business logic: rate synchronization,
// currency conversion, pair-source configuration, and manual rate entry.
package service

import (
	"fmt"
	"strings"

	"ratesync/internal/apperrors"
)

// IsValidCurrencyCode checks whether a string is a valid 3-letter currency code.
func IsValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	code = strings.ToUpper(code)
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// normalizeCode validates and upcases a single currency code.
func normalizeCode(code string) (string, error) {
	if !IsValidCurrencyCode(code) {
		return "", fmt.Errorf("%w: invalid currency code %q", apperrors.ErrValidation, code)
	}
	return strings.ToUpper(code), nil
}

// normalizeCodes validates and upcases a list of currency codes,
// deduplicating while preserving order.
func normalizeCodes(codes []string) ([]string, error) {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		code, err := normalizeCode(c)
		if err != nil {
			return nil, err
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one currency is required", apperrors.ErrValidation)
	}
	return out, nil
}
