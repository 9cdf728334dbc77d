package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/danielhkuo/squareledger/cliparse"
	"github.com/danielhkuo/squareledger/db"
	"github.com/danielhkuo/squareledger/events"
	"github.com/danielhkuo/squareledger/middleware"
	"github.com/danielhkuo/squareledger/router"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect and verify
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(ctx, dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	// Optional Redis for live updates
	var eventsClient *events.Client
	if cfg.RedisURL != "" {
		eventsClient, err = events.NewClientFromURL(cfg.RedisURL)
		if err != nil {
			slog.Error("redis configuration invalid", "error", err)
			os.Exit(1)
		}
		defer eventsClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = eventsClient.Ping(pingCtx)
		cancel()
		if err != nil {
			slog.Error("redis ping failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Visit events enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(dbConn, "squareledger"),
	)

	// Create router
	mux := router.NewRouter(router.Deps{
		DB:       dbConn,
		Config:   cfg,
		Events:   eventsClient,
		Registry: registry,
	})

	// Create server. No WriteTimeout: the event stream is long-lived.
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
