// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the square ledger API.

# Route Registration

NewRouter builds the store, the allocator and every handler from Deps:

	mux := router.NewRouter(router.Deps{
		DB:       conn,
		Config:   cfg,
		Events:   eventsClient, // optional
		Registry: registry,     // optional
	})

Allocator retries and timeout come from Config.MaxAttempts and
Config.AllocTimeout.

# Endpoints

	GET  /health
	GET  /metrics                       (when Registry is set)

	POST /v1/temple/logVisit
	POST /v1/temple/logBonusVisit

	POST /v1/wards
	GET  /v1/wards/{id}
	GET  /v1/wards/{id}/squares
	GET  /v1/wards/{id}/stats
	GET  /v1/wards/{id}/visits          (X-Admin-Key)
	GET  /v1/wards/{id}/events          (when Events is set)
*/
package router
