package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratesync/internal/apperrors"
)

type staticProvider struct {
	code string
}

func (p *staticProvider) Code() string { return p.code }

func (p *staticProvider) Descriptor() Descriptor {
	return Descriptor{Code: p.code, Name: p.code, BaseCurrency: "EUR", BaseCurrencies: []string{"EUR"}}
}

func (p *staticProvider) BaseCurrencies() []string { return []string{"EUR"} }

func (p *staticProvider) SupportedCurrencies(context.Context) ([]string, error) {
	return []string{"EUR", "USD"}, nil
}

func (p *staticProvider) FetchRates(context.Context, DateRange, []string, string) (map[string][]Observation, error) {
	return map[string][]Observation{}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	p := &staticProvider{code: "ALPHA"}

	require.NoError(t, reg.Register(p))
	assert.True(t, reg.Has("ALPHA"))
	assert.False(t, reg.Has("BETA"))

	got, err := reg.Get("ALPHA")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&staticProvider{code: "ALPHA"}))

	err := reg.Register(&staticProvider{code: "ALPHA"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("NOPE")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRegistryListSorted(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&staticProvider{code: "ZULU"}))
	require.NoError(t, reg.Register(&staticProvider{code: "ALPHA"}))
	require.NoError(t, reg.Register(&staticProvider{code: "MIKE"}))

	list := reg.List()
	require.Len(t, list, 3)
	assert.Equal(t, "ALPHA", list[0].Code)
	assert.Equal(t, "MIKE", list[1].Code)
	assert.Equal(t, "ZULU", list[2].Code)
}
