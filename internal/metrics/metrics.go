// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

// Package metrics provides Prometheus instrumentation for:
//   - HTTP endpoint latency and throughput
//   - Vision extraction calls and retry behavior
//   - Flight-schedule reconciliation and circuit breaker state
//   - Cache efficiency per cache instance
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Cache Metrics (labeled per cache instance: extraction, reconciliation)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses (absent or expired)",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of entries removed (lazy eviction, delete, clear)",
		},
		[]string{"cache"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache"},
	)

	// Vision Extraction Metrics
	VisionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_requests_total",
			Help: "Total number of vision extraction API calls",
		},
		[]string{"status"}, // "success", "overloaded", "error"
	)

	VisionRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vision_retries_total",
			Help: "Total number of retried vision API calls after transient overload",
		},
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extraction_duration_seconds",
			Help:    "Duration of ticket extraction (including retries) in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// Reconciliation Metrics
	ReconciliationResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliation_results_total",
			Help: "Total number of flight reconciliation verdicts",
		},
		[]string{"result"}, // "valid", "not_found", "mismatch", "error"
	)

	// Validation Pipeline Metrics
	ValidationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_outcomes_total",
			Help: "Total number of ticket validation outcomes by terminal stage",
		},
		[]string{"stage", "valid"}, // stage: "extract", "format", "reconcile"
	)

	// Circuit Breaker Metrics (flight-schedule provider)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
