// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/squareledger/cliparse"
	"github.com/danielhkuo/squareledger/events"
	"github.com/danielhkuo/squareledger/handlers"
	"github.com/danielhkuo/squareledger/ledger"
	"github.com/danielhkuo/squareledger/metrics"
	"github.com/danielhkuo/squareledger/middleware"
)

// Deps are the shared resources the routes are built from. Events and
// Registry are optional.
type Deps struct {
	DB       *sql.DB
	Config   cliparse.Config
	Events   *events.Client
	Registry *prometheus.Registry
}

func NewRouter(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()
	cfg := deps.Config

	store := ledger.NewStore(deps.DB, cfg.DatabaseType)

	opts := ledger.Options{Timeout: cfg.AllocTimeout}
	opts.Retry = ledger.DefaultRetryPolicy
	if cfg.MaxAttempts > 0 {
		opts.Retry.MaxAttempts = cfg.MaxAttempts
	}
	if deps.Events != nil {
		opts.Notifier = deps.Events
	}
	if deps.Registry != nil {
		opts.Metrics = metrics.New(deps.Registry)
	}
	alloc := ledger.NewAllocator(store, opts)

	// Initialize handlers
	visitHandler := handlers.NewVisitHandler(alloc, cfg)
	wardHandler := handlers.NewWardHandler(store, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if deps.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// Visit logging (public, from phones and the kiosk)
	mux.HandleFunc("POST /v1/temple/logVisit", middleware.WithLogging(visitHandler.LogVisit))
	mux.HandleFunc("POST /v1/temple/logBonusVisit", middleware.WithLogging(visitHandler.LogBonusVisit))

	// Ward provisioning and read views
	mux.HandleFunc("POST /v1/wards", middleware.WithLogging(wardHandler.Provision))
	mux.HandleFunc("GET /v1/wards/{id}", middleware.WithLogging(wardHandler.GetWard))
	mux.HandleFunc("GET /v1/wards/{id}/squares", middleware.WithLogging(wardHandler.GetSquares))
	mux.HandleFunc("GET /v1/wards/{id}/stats", middleware.WithLogging(wardHandler.GetStats))
	mux.HandleFunc("GET /v1/wards/{id}/visits", middleware.WithLogging(wardHandler.ListVisits))

	// Live updates need Redis
	if deps.Events != nil {
		eventsHandler := handlers.NewEventsHandler(store, deps.Events)
		mux.HandleFunc("GET /v1/wards/{id}/events", middleware.WithLogging(eventsHandler.Stream))
	}

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("squareledger API v1"))
	})

	return mux
}
