// Package worker implements background task handling for rate
// synchronization: ad-hoc sync tasks enqueued via the API and the periodic
// daily sync.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"ratesync/internal/service"
)

// TaskTypeSyncRates is the Asynq task type for rate synchronization jobs.
const TaskTypeSyncRates = "rates:sync"

// SyncRatesPayload is the payload structure for sync Asynq tasks. Either
// Start/End are set explicitly (ISO dates), or LookbackDays makes the
// handler compute a trailing window at execution time (used by the
// periodic sync, whose payload is fixed at schedule registration).
type SyncRatesPayload struct {
	Start        string   `json:"start,omitempty"`
	End          string   `json:"end,omitempty"`
	LookbackDays int      `json:"lookback_days,omitempty"`
	Currencies   []string `json:"currencies"`
	ProviderCode string   `json:"provider_code,omitempty"`
	BaseCurrency string   `json:"base_currency,omitempty"`
}

// ToRequest converts the payload into a sync request, resolving the
// trailing window against now.
func (p SyncRatesPayload) ToRequest(now time.Time) (service.SyncRequest, error) {
	req := service.SyncRequest{
		Currencies:   p.Currencies,
		ProviderCode: p.ProviderCode,
		BaseCurrency: p.BaseCurrency,
	}

	if p.Start == "" && p.End == "" {
		req.End = now
		req.Start = now.AddDate(0, 0, -p.LookbackDays)
		return req, nil
	}

	var err error
	if req.Start, err = time.Parse("2006-01-02", p.Start); err != nil {
		return service.SyncRequest{}, fmt.Errorf("invalid start date %q: %w", p.Start, err)
	}
	if req.End, err = time.Parse("2006-01-02", p.End); err != nil {
		return service.SyncRequest{}, fmt.Errorf("invalid end date %q: %w", p.End, err)
	}
	return req, nil
}

// NewSyncHandler returns a function to handle rate sync tasks.
func NewSyncHandler(syncer service.Syncer, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SyncRatesPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
			return nil
		}

		req, err := payload.ToRequest(time.Now().UTC())
		if err != nil {
			logger.Errorw("Invalid sync task dates", "error", err)
			return nil
		}

		result, err := syncer.Sync(ctx, req)
		if err != nil {
			logger.Errorw("Sync task failed", "error", err)
			return err
		}

		logger.Infow("Sync task completed",
			"rows_changed", result.RowsChanged,
			"providers", len(result.Providers),
			"failures", len(result.Failures))
		return nil
	}
}

// AsynqEnqueuer enqueues sync tasks with the configured retry limit and
// task timeout.
type AsynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
}

// NewAsynqEnqueuer creates a new AsynqEnqueuer.
func NewAsynqEnqueuer(client *asynq.Client, maxRetry int, timeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:   client,
		maxRetry: maxRetry,
		timeout:  timeout,
	}
}

// EnqueueSyncTask enqueues a sync task and returns its queue-assigned ID.
func (e *AsynqEnqueuer) EnqueueSyncTask(ctx context.Context, payload SyncRatesPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(TaskTypeSyncRates, data,
		asynq.MaxRetry(e.maxRetry),
		asynq.Timeout(e.timeout),
	)

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// NewPeriodicSyncScheduler returns a scheduler that enqueues the trailing-
// window sync on the given cron spec.
func NewPeriodicSyncScheduler(redisOpt asynq.RedisClientOpt, cronSpec string, payload SyncRatesPayload, logger *zap.SugaredLogger) (*asynq.Scheduler, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})
	if _, err := scheduler.Register(cronSpec, asynq.NewTask(TaskTypeSyncRates, data)); err != nil {
		return nil, fmt.Errorf("register periodic sync (%q): %w", cronSpec, err)
	}

	logger.Infow("Periodic sync scheduled", "cron", cronSpec, "currencies", payload.Currencies)
	return scheduler, nil
}
