// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

package api

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// HealthLive handles liveness probe requests (Kubernetes-style).
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// Ready means both external capabilities are configured: the service cannot
// validate tickets without vision and schedule provider credentials.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	visionReady := h.cfg.Vision.APIKey != ""
	flightDataReady := h.cfg.FlightData.ClientID != "" && h.cfg.FlightData.ClientSecret != ""

	if !visionReady || !flightDataReady {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service is not ready", map[string]bool{
			"vision_configured":     visionReady,
			"flightdata_configured": flightDataReady,
		})
		return
	}

	rw.Success(map[string]interface{}{
		"ready":  true,
		"uptime": time.Since(startTime).Seconds(),
	})
}
