package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"

	"ratesync/internal/api"
	"ratesync/internal/api/middleware"
	"ratesync/internal/provider"
	"ratesync/internal/service"
	"ratesync/internal/worker"
)

func (app *App) initHTTP(
	redisOpt asynq.RedisClientOpt,
	registry *provider.Registry,
	syncer service.Syncer,
	converter service.Converter,
	pairs service.PairSourceManager,
	rates service.RateManager,
	enqueuer *worker.AsynqEnqueuer,
) {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(app.logger))
	r.Use(chimiddleware.Recoverer)

	r.Post("/sync", api.HandleSync(syncer))
	r.Post("/sync/async", api.HandleSyncAsync(enqueuer))
	r.Post("/convert", api.HandleConvert(converter))
	r.Post("/convert/bulk", api.HandleConvertBulk(converter))
	r.Get("/providers", api.HandleProviders(registry))

	r.Put("/pair-sources", api.HandlePairSourceUpsert(pairs))
	r.Delete("/pair-sources", api.HandlePairSourceDelete(pairs))
	r.Get("/pair-sources", api.HandlePairSourceList(pairs))
	r.Get("/pair-sources/resolve", api.HandlePairSourceResolve(pairs))

	r.Post("/rates", api.HandleManualRateUpsert(rates))
	r.Delete("/rates", api.HandleRateDelete(rates))

	r.Get("/healthz", api.HandleHealthz())
	r.Get("/readyz", api.HandleReadyz(app.db, app.rdbCache, app.rdbAsynq))

	if app.cfg.Server.ServeSwagger {
		r.Get("/swagger/*", api.SwaggerUIHandler())
		r.Get("/openapi.json", api.OpenAPISpecHandler())
	}

	if app.cfg.Server.ServeAsynqmon {
		mon := asynqmon.New(asynqmon.Options{
			RootPath:     "/monitoring",
			RedisConnOpt: redisOpt,
		})
		r.Mount("/monitoring", mon)
	}

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
