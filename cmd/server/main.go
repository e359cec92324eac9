// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

// Package main is the entry point for the Embarq server.
//
// Embarq validates boarding pass images end to end: a vision language model
// extracts the printed ticket fields, a format validator checks their shape,
// and the claimed flight is reconciled against a schedule provider before a
// verdict is returned.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: settings from environment variables and config files (Koanf v2)
//  2. Caches: in-memory TTL caches for extraction and reconciliation results
//  3. Extraction: vision model client with retry on transient overload
//  4. Flight data: schedule provider client behind a circuit breaker
//  5. Pipeline: the validation orchestrator tying the stages together
//  6. HTTP server: REST API with Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (VISION_API_KEY, FLIGHTDATA_CLIENT_ID, ...)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections and waits up to 10 seconds for in-flight
// requests to complete.
//
// # Example Usage
//
//	export VISION_API_KEY=your-api-key
//	export FLIGHTDATA_CLIENT_ID=your-client-id
//	export FLIGHTDATA_CLIENT_SECRET=your-client-secret
//	./embarq
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomdupuis/embarq/internal/api"
	"github.com/tomdupuis/embarq/internal/cache"
	"github.com/tomdupuis/embarq/internal/config"
	"github.com/tomdupuis/embarq/internal/extraction"
	"github.com/tomdupuis/embarq/internal/flightdata"
	"github.com/tomdupuis/embarq/internal/logging"
	"github.com/tomdupuis/embarq/internal/pipeline"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("vision_model", cfg.Vision.Model).
		Str("flightdata_url", cfg.FlightData.BaseURL).
		Msg("Starting Embarq")

	extractionCache := cache.New("extraction")
	reconciliationCache := cache.New("reconciliation")

	visionClient := extraction.NewClient(&cfg.Vision)
	extractor := extraction.New(visionClient, extractionCache, cfg.Cache.ExtractionTTL, cfg.Vision.MaxRetries)

	scheduleClient := flightdata.NewCircuitBreakerClient(flightdata.NewClient(&cfg.FlightData))
	reconciler := flightdata.NewReconciler(scheduleClient, reconciliationCache, cfg.Cache.ReconciliationTTL)

	svc := pipeline.New(extractor, reconciler, extractionCache, reconciliationCache)

	handler := api.NewHandler(svc, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Run the server and wait for a shutdown signal.
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}

	logging.Info().Msg("Application stopped gracefully")
}
