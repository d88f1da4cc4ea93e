package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ratesync/internal/apperrors"
)

func newTestRateService(repo *memRateRepo) *RateService {
	return NewRateService(repo, zap.NewNop().Sugar())
}

func TestUpsertManual(t *testing.T) {
	repo := newMemRateRepo()
	svc := newTestRateService(repo)
	ctx := context.Background()

	result, err := svc.UpsertManual(ctx, []ManualRate{
		{Date: syncDay(15), Base: "EUR", Quote: "USD", Rate: decimal.RequireFromString("1.0423")},
		{Date: syncDay(15), Base: "usd", Quote: "chf", Rate: decimal.RequireFromString("0.88")},
	}, false)
	if err != nil {
		t.Fatalf("UpsertManual: %v", err)
	}
	if result.RowsChanged != 2 {
		t.Fatalf("expected 2 changed rows, got %d", result.RowsChanged)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}

	stored, _ := repo.Get(ctx, syncDay(15), "EUR", "USD")
	if stored == nil || stored.Source != SourceManual {
		t.Fatalf("expected MANUAL source, got %+v", stored)
	}

	// usd/chf arrives reversed: stored as CHF/USD with reciprocal.
	stored, _ = repo.Get(ctx, syncDay(15), "CHF", "USD")
	if stored == nil {
		t.Fatal("expected CHF/USD row")
	}
	want := decimal.NewFromInt(1).DivRound(decimal.RequireFromString("0.88"), 16).Truncate(10)
	if !stored.Rate.Equal(want) {
		t.Fatalf("expected reciprocal %s, got %s", want, stored.Rate)
	}
}

func TestUpsertManual_PartialFailure(t *testing.T) {
	svc := newTestRateService(newMemRateRepo())

	result, err := svc.UpsertManual(context.Background(), []ManualRate{
		{Date: syncDay(15), Base: "EUR", Quote: "USD", Rate: decimal.RequireFromString("1.0423")},
		{Date: syncDay(15), Base: "EUR", Quote: "EUR", Rate: decimal.NewFromInt(1)},
		{Date: time.Time{}, Base: "EUR", Quote: "GBP", Rate: decimal.RequireFromString("0.84")},
	}, false)
	if err != nil {
		t.Fatalf("UpsertManual: %v", err)
	}
	if result.RowsChanged != 1 {
		t.Fatalf("expected 1 changed row, got %d", result.RowsChanged)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 entry errors, got %v", result.Errors)
	}
	if result.Errors[0].Index != 1 || result.Errors[1].Index != 2 {
		t.Fatalf("expected errors at indexes 1 and 2, got %v", result.Errors)
	}
}

func TestUpsertManual_RaiseOnError(t *testing.T) {
	svc := newTestRateService(newMemRateRepo())

	_, err := svc.UpsertManual(context.Background(), []ManualRate{
		{Date: syncDay(15), Base: "EUR", Quote: "USD", Rate: decimal.Zero},
	}, true)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	_, err = svc.UpsertManual(context.Background(), nil, false)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty batch, got %v", err)
	}
}

func TestRateDeleteRange(t *testing.T) {
	repo := newMemRateRepo()
	svc := newTestRateService(repo)
	ctx := context.Background()

	seedRate(t, repo, 14, "EUR", "USD", "1.04")
	seedRate(t, repo, 15, "EUR", "USD", "1.05")
	seedRate(t, repo, 15, "EUR", "GBP", "0.84")

	// Pair given in reverse orientation must still hit stored EUR/USD rows.
	result, err := svc.DeleteRange(ctx, "USD", "EUR", syncDay(14), syncDay(15))
	if err != nil {
		t.Fatalf("DeleteRange: %v", err)
	}
	if result.DeletedCount != 2 {
		t.Fatalf("expected 2 deleted rows, got %d", result.DeletedCount)
	}
	if left, _ := repo.Get(ctx, syncDay(15), "EUR", "GBP"); left == nil {
		t.Fatal("expected EUR/GBP row to survive")
	}

	// Idempotent repeat.
	result, err = svc.DeleteRange(ctx, "USD", "EUR", syncDay(14), syncDay(15))
	if err != nil {
		t.Fatalf("repeat DeleteRange: %v", err)
	}
	if result.DeletedCount != 0 {
		t.Fatalf("expected 0 deleted rows, got %d", result.DeletedCount)
	}
	if result.Message == "" {
		t.Fatal("expected notice message for empty delete")
	}
}

func TestRateDeleteRange_Validation(t *testing.T) {
	svc := newTestRateService(newMemRateRepo())

	_, err := svc.DeleteRange(context.Background(), "EUR", "USD", time.Time{}, syncDay(15))
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing start, got %v", err)
	}

	_, err = svc.DeleteRange(context.Background(), "EURO", "USD", syncDay(14), syncDay(15))
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad code, got %v", err)
	}
}
