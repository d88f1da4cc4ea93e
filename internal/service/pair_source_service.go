package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ratesync/internal/apperrors"
	"ratesync/internal/provider"
	"ratesync/internal/repository"
)

// DeleteResult reports the outcome of an idempotent delete operation.
type DeleteResult struct {
	DeletedCount int64  `json:"deleted_count"`
	Message      string `json:"message,omitempty"`
}

// PairSourceManager is the configuration-manager contract consumed by the
// API layer.
type PairSourceManager interface {
	UpsertBulk(ctx context.Context, entries []repository.PairSource) error
	Delete(ctx context.Context, base, quote string, priority *int) (*DeleteResult, error)
	Resolve(ctx context.Context, base, quote string) ([]string, error)
	List(ctx context.Context) ([]repository.PairSource, error)
}

// PairSourceService manages which provider answers which currency pair at
// which fallback rank.
type PairSourceService struct {
	repo     repository.PairSourceRepository
	registry *provider.Registry
	log      *zap.SugaredLogger
}

var _ PairSourceManager = (*PairSourceService)(nil)

// NewPairSourceService creates a new PairSourceService.
func NewPairSourceService(repo repository.PairSourceRepository, registry *provider.Registry, log *zap.SugaredLogger) *PairSourceService {
	return &PairSourceService{
		repo:     repo,
		registry: registry,
		log:      log,
	}
}

// UpsertBulk validates and applies a configuration batch atomically: on any
// entry's validation failure the entire batch is rejected with a per-entry
// error report and nothing is written.
func (s *PairSourceService) UpsertBulk(ctx context.Context, entries []repository.PairSource) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: at least one pair source entry is required", apperrors.ErrValidation)
	}

	normalized := make([]repository.PairSource, len(entries))
	var entryErrs []error
	for i, e := range entries {
		n, err := s.validateEntry(e)
		if err != nil {
			entryErrs = append(entryErrs, fmt.Errorf("entry %d (%s/%s priority %d): %w", i, e.Base, e.Quote, e.Priority, err))
			continue
		}
		normalized[i] = n
	}
	entryErrs = append(entryErrs, s.checkBatchConflicts(normalized)...)
	if dbErrs, err := s.checkStoredConflicts(ctx, normalized); err != nil {
		return err
	} else {
		entryErrs = append(entryErrs, dbErrs...)
	}

	if len(entryErrs) > 0 {
		return fmt.Errorf("pair source batch rejected, no entries applied: %w", errors.Join(entryErrs...))
	}

	if err := s.repo.UpsertBulk(ctx, normalized); err != nil {
		return err
	}
	s.log.Infow("Pair sources updated", "entries", len(normalized))
	return nil
}

func (s *PairSourceService) validateEntry(e repository.PairSource) (repository.PairSource, error) {
	base, err := normalizeCode(e.Base)
	if err != nil {
		return repository.PairSource{}, err
	}
	quote, err := normalizeCode(e.Quote)
	if err != nil {
		return repository.PairSource{}, err
	}
	if base == quote {
		return repository.PairSource{}, fmt.Errorf("%w: base and quote must differ", apperrors.ErrValidation)
	}
	if e.Priority < 1 {
		return repository.PairSource{}, fmt.Errorf("%w: priority must be >= 1, got %d", apperrors.ErrValidation, e.Priority)
	}
	if !s.registry.Has(e.ProviderCode) {
		return repository.PairSource{}, fmt.Errorf("%w: provider %s is not registered", apperrors.ErrValidation, e.ProviderCode)
	}
	return repository.PairSource{
		Base:         base,
		Quote:        quote,
		ProviderCode: e.ProviderCode,
		Priority:     e.Priority,
	}, nil
}

// checkBatchConflicts finds duplicate keys and inverse-pair/same-priority
// collisions inside the batch itself.
func (s *PairSourceService) checkBatchConflicts(entries []repository.PairSource) []error {
	var errs []error
	seen := make(map[string]int)
	for i, e := range entries {
		if e.Base == "" {
			continue // failed per-entry validation already
		}
		key := fmt.Sprintf("%s/%s#%d", e.Base, e.Quote, e.Priority)
		if j, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("%w: entries %d and %d both configure %s/%s at priority %d",
				apperrors.ErrValidation, j, i, e.Base, e.Quote, e.Priority))
			continue
		}
		seen[key] = i

		inverseKey := fmt.Sprintf("%s/%s#%d", e.Quote, e.Base, e.Priority)
		if j, clash := seen[inverseKey]; clash {
			errs = append(errs, fmt.Errorf("%w: entry %d (%s/%s) and entry %d (%s/%s) share priority %d; a pair and its inverse must not use the same priority",
				apperrors.ErrConflict, j, e.Quote, e.Base, i, e.Base, e.Quote, e.Priority))
		}
	}
	return errs
}

// checkStoredConflicts finds inverse-pair/same-priority collisions between
// the batch and already-stored configuration.
func (s *PairSourceService) checkStoredConflicts(ctx context.Context, entries []repository.PairSource) ([]error, error) {
	var errs []error
	for i, e := range entries {
		if e.Base == "" {
			continue
		}
		existing, err := s.repo.ListForPair(ctx, e.Quote, e.Base)
		if err != nil {
			return nil, err
		}
		for _, row := range existing {
			if row.Priority == e.Priority {
				errs = append(errs, fmt.Errorf("%w: entry %d (%s/%s priority %d) conflicts with stored %s/%s priority %d (provider %s)",
					apperrors.ErrConflict, i, e.Base, e.Quote, e.Priority,
					row.Base, row.Quote, row.Priority, row.ProviderCode))
			}
		}
	}
	return errs, nil
}

// Delete removes one priority row, or every row for the pair when priority
// is nil. Deleting absent configuration is not an error.
func (s *PairSourceService) Delete(ctx context.Context, base, quote string, priority *int) (*DeleteResult, error) {
	base, err := normalizeCode(base)
	if err != nil {
		return nil, err
	}
	quote, err = normalizeCode(quote)
	if err != nil {
		return nil, err
	}
	if priority != nil && *priority < 1 {
		return nil, fmt.Errorf("%w: priority must be >= 1, got %d", apperrors.ErrValidation, *priority)
	}

	deleted, err := s.repo.Delete(ctx, base, quote, priority)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{DeletedCount: deleted}
	if deleted == 0 {
		result.Message = fmt.Sprintf("no pair sources matched %s/%s; nothing deleted", base, quote)
	}
	s.log.Infow("Pair sources deleted", "pair", base+"/"+quote, "deleted", deleted)
	return result, nil
}

// Resolve returns the provider fallback chain for a directed pair, ordered
// by ascending priority.
func (s *PairSourceService) Resolve(ctx context.Context, base, quote string) ([]string, error) {
	base, err := normalizeCode(base)
	if err != nil {
		return nil, err
	}
	quote, err = normalizeCode(quote)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListForPair(ctx, base, quote)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no pair source configured for %s/%s", apperrors.ErrNotFound, base, quote)
	}

	codes := make([]string, len(rows))
	for i, row := range rows {
		codes[i] = row.ProviderCode
	}
	return codes, nil
}

// List returns the full pair-source configuration.
func (s *PairSourceService) List(ctx context.Context) ([]repository.PairSource, error) {
	return s.repo.ListAll(ctx)
}
