// Package main is the entry point for the rate sync service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ratesync/internal/config"
	"ratesync/internal/provider"
	"ratesync/internal/repository"
	"ratesync/internal/service"
	"ratesync/internal/worker"
)

// App holds all application dependencies and manages their lifecycle.
type App struct {
	cfg            *config.Config
	logger         *zap.SugaredLogger
	db             *sql.DB
	rdbCache       *redis.Client
	rdbAsynq       *redis.Client
	asynqClient    *asynq.Client
	asynqServer    *asynq.Server
	asynqMux       *asynq.ServeMux
	asynqScheduler *asynq.Scheduler
	httpServer     *http.Server
}

// NewApp initializes all dependencies and returns a ready-to-run App.
func NewApp(cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{
		cfg:    cfg,
		logger: logger,
	}

	if err := app.initStorage(); err != nil {
		_ = app.close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.close()
		return nil, err
	}

	return app, nil
}

// close releases database and Redis connections
func (app *App) close() error {
	var errs []error
	if app.asynqClient != nil {
		if err := app.asynqClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("asynq client close: %w", err))
		}
	}
	if app.rdbAsynq != nil {
		if err := app.rdbAsynq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis asynq close: %w", err))
		}
	}
	if app.rdbCache != nil {
		if err := app.rdbCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis cache close: %w", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (app *App) initStorage() error {
	db, err := repository.NewPostgresDB(&app.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	app.db = db

	if err := repository.RunMigrations(app.db, app.logger); err != nil {
		return fmt.Errorf("run DB migrations: %w", err)
	}

	app.rdbCache = redis.NewClient(&redis.Options{
		Addr: app.cfg.Redis.CacheAddr,
	})
	if err := app.rdbCache.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("connect to Redis (cache, %s): %w", app.cfg.Redis.CacheAddr, err)
	}
	app.logger.Infow("Connected to Redis cache", "addr", app.cfg.Redis.CacheAddr)

	return nil
}

func (app *App) initServices() error {
	redisOpt := asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr}

	app.rdbAsynq = redis.NewClient(&redis.Options{Addr: app.cfg.Redis.AsynqAddr})
	app.asynqClient = asynq.NewClient(redisOpt)
	app.asynqServer = asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: app.cfg.Worker.Concurrency,
		},
	)
	app.logger.Infow("Asynq configured", "addr", app.cfg.Redis.AsynqAddr)

	registry, err := newProviderRegistry(app.cfg, app.rdbCache)
	if err != nil {
		return err
	}

	rateRepo := repository.NewPostgresRateRepository(app.db)
	pairRepo := repository.NewPostgresPairSourceRepository(app.db)

	syncService := service.NewSyncService(
		registry,
		rateRepo,
		pairRepo,
		app.logger,
		time.Duration(app.cfg.Sync.FetchTimeoutSec)*time.Second,
	)
	convertService := service.NewConvertService(rateRepo, app.logger, app.cfg.Convert.StaleWarnDays)
	pairService := service.NewPairSourceService(pairRepo, registry, app.logger)
	rateService := service.NewRateService(rateRepo, app.logger)

	enqueuer := worker.NewAsynqEnqueuer(
		app.asynqClient,
		app.cfg.Worker.MaxRetry,
		time.Duration(app.cfg.Worker.TimeoutSec)*time.Second,
	)

	app.asynqMux = asynq.NewServeMux()
	app.asynqMux.HandleFunc(worker.TaskTypeSyncRates, worker.NewSyncHandler(syncService, app.logger))

	app.asynqScheduler, err = worker.NewPeriodicSyncScheduler(
		redisOpt,
		app.cfg.Sync.Cron,
		worker.SyncRatesPayload{
			LookbackDays: app.cfg.Sync.LookbackDays,
			Currencies:   app.cfg.Sync.Currencies,
		},
		app.logger,
	)
	if err != nil {
		return err
	}

	app.initHTTP(redisOpt, registry, syncService, convertService, pairService, rateService, enqueuer)
	return nil
}

// newProviderRegistry builds the provider plugin registry. Supported-currency
// lookups of every configured provider are cached in Redis.
func newProviderRegistry(cfg *config.Config, cache *redis.Client) (*provider.Registry, error) {
	ttl := time.Duration(cfg.Cache.ProviderCurrenciesTTLSec) * time.Second
	registry := provider.NewRegistry()

	var installed []provider.RatesProvider

	if cfg.Frankfurter.BaseURL != "" {
		installed = append(installed,
			provider.NewFrankfurterProvider(cfg.Frankfurter.BaseURL, cfg.Frankfurter.Timeout))
	}
	if cfg.ExchangeRateHost.BaseURL != "" && cfg.ExchangeRateHost.APIKey != "" {
		installed = append(installed,
			provider.NewExchangeRateHostProvider(cfg.ExchangeRateHost.BaseURL, cfg.ExchangeRateHost.APIKey, cfg.ExchangeRateHost.Timeout))
	}
	if cfg.CNB.BaseURL != "" {
		installed = append(installed,
			provider.NewCNBProvider(cfg.CNB.BaseURL, cfg.CNB.Timeout))
	}

	if len(installed) == 0 {
		return nil, fmt.Errorf("no exchange rate providers are correctly configured: " +
			"frankfurter and cnb require base_url, exchangerate_host requires base_url and api_key")
	}

	for _, p := range installed {
		if err := registry.Register(provider.NewCachedProvider(p, cache, ttl)); err != nil {
			return nil, fmt.Errorf("register provider %s: %w", p.Code(), err)
		}
	}
	return registry, nil
}

// Run starts the HTTP server, Asynq worker, and periodic scheduler, blocking
// until the context is canceled.
func (app *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Infow("Starting Asynq worker server")
		if err := app.asynqServer.Start(app.asynqMux); err != nil {
			return fmt.Errorf("asynq worker failed to start: %w", err)
		}

		<-ctx.Done()
		return nil
	})

	g.Go(func() error {
		app.logger.Infow("Starting periodic sync scheduler", "cron", app.cfg.Sync.Cron)
		if err := app.asynqScheduler.Start(); err != nil {
			return fmt.Errorf("scheduler failed to start: %w", err)
		}

		<-ctx.Done()
		return nil
	})

	g.Go(func() error {
		app.logger.Infow("HTTP server listening", "port", app.cfg.Server.Port)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown: triggered by context cancellation (signal or component failure).
	g.Go(func() error {
		<-ctx.Done()
		return app.shutdown()
	})

	return g.Wait()
}

// shutdown performs ordered teardown: HTTP server -> scheduler -> Asynq
// worker -> connections. This ensures in-flight tasks finish before the DB
// and Redis connections close.
func (app *App) shutdown() error {
	app.logger.Infow("Shutting down server...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests, drain in-flight
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Errorw("HTTP server shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	// 2. Stop enqueueing scheduled tasks
	app.asynqScheduler.Shutdown()

	// 3. Drain in-flight Asynq tasks
	app.asynqServer.Shutdown()

	// 4. Close connections (asynq client, Redis, database)
	if err := app.close(); err != nil {
		app.logger.Errorw("Connection cleanup errors", "error", err)
		errs = append(errs, err)
	}

	app.logger.Infow("Shutdown complete")
	return errors.Join(errs...)
}
