//go:build integration

package integration

import (
	"testing"

	"ratesync/internal/repository"
)

func newPairRepo() repository.PairSourceRepository {
	return repository.NewPostgresPairSourceRepository(testDB)
}

func TestPairSourceUpsertBulk(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newPairRepo()

	err := repo.UpsertBulk(ctx, []repository.PairSource{
		{Base: "EUR", Quote: "USD", ProviderCode: "FRANKFURTER", Priority: 1},
		{Base: "EUR", Quote: "USD", ProviderCode: "ERH", Priority: 2},
		{Base: "CZK", Quote: "EUR", ProviderCode: "CNB", Priority: 1},
	})
	if err != nil {
		t.Fatalf("UpsertBulk: %v", err)
	}

	chain, err := repo.ListForPair(ctx, "EUR", "USD")
	if err != nil {
		t.Fatalf("ListForPair: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(chain))
	}
	if chain[0].ProviderCode != "FRANKFURTER" || chain[1].ProviderCode != "ERH" {
		t.Fatalf("expected priority order FRANKFURTER, ERH; got %s, %s",
			chain[0].ProviderCode, chain[1].ProviderCode)
	}

	// Re-upserting the same slot replaces the provider.
	err = repo.UpsertBulk(ctx, []repository.PairSource{
		{Base: "EUR", Quote: "USD", ProviderCode: "CNB", Priority: 1},
	})
	if err != nil {
		t.Fatalf("replace UpsertBulk: %v", err)
	}
	chain, err = repo.ListForPair(ctx, "EUR", "USD")
	if err != nil {
		t.Fatalf("ListForPair after replace: %v", err)
	}
	if chain[0].ProviderCode != "CNB" {
		t.Fatalf("expected priority 1 replaced by CNB, got %s", chain[0].ProviderCode)
	}
}

func TestPairSourceUpsertBulk_Atomic(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newPairRepo()

	// The second entry violates the base <> quote constraint; the first
	// entry must be rolled back with it.
	err := repo.UpsertBulk(ctx, []repository.PairSource{
		{Base: "EUR", Quote: "USD", ProviderCode: "FRANKFURTER", Priority: 1},
		{Base: "EUR", Quote: "EUR", ProviderCode: "FRANKFURTER", Priority: 1},
	})
	if err == nil {
		t.Fatal("expected constraint violation")
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty table after rollback, got %d rows", len(all))
	}
}

func TestPairSourceDelete(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newPairRepo()

	err := repo.UpsertBulk(ctx, []repository.PairSource{
		{Base: "EUR", Quote: "USD", ProviderCode: "FRANKFURTER", Priority: 1},
		{Base: "EUR", Quote: "USD", ProviderCode: "ERH", Priority: 2},
	})
	if err != nil {
		t.Fatalf("UpsertBulk: %v", err)
	}

	priority := 2
	n, err := repo.Delete(ctx, "EUR", "USD", &priority)
	if err != nil {
		t.Fatalf("Delete priority 2: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted row, got %d", n)
	}

	n, err = repo.Delete(ctx, "EUR", "USD", nil)
	if err != nil {
		t.Fatalf("Delete whole pair: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted row, got %d", n)
	}

	// Deleting an absent pair reports zero rows, not an error.
	n, err = repo.Delete(ctx, "EUR", "USD", nil)
	if err != nil {
		t.Fatalf("Delete absent pair: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 deleted rows, got %d", n)
	}
}
