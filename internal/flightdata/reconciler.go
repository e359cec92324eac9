// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

package flightdata

import (
	"context"
	"time"

	"github.com/tomdupuis/embarq/internal/cache"
	"github.com/tomdupuis/embarq/internal/logging"
	"github.com/tomdupuis/embarq/internal/metrics"
	"github.com/tomdupuis/embarq/internal/models"
)

// Reconciliation verdict messages. Provider faults never surface raw to the
// caller, they collapse into the generic verification message.
const (
	msgFlightNotFound    = "flight not found in schedule database"
	msgFlightMismatch    = "flight data mismatch"
	msgVerificationError = "could not verify flight against schedule data"
)

// Reconciler checks extracted ticket data against published flight
// schedules and caches positive verdicts.
type Reconciler struct {
	client ScheduleClient
	cache  *cache.Cache
	ttl    time.Duration
}

// NewReconciler creates a Reconciler using the given schedule client.
func NewReconciler(client ScheduleClient, c *cache.Cache, ttl time.Duration) *Reconciler {
	return &Reconciler{client: client, cache: c, ttl: ttl}
}

// Reconcile verifies the ticket's flight against the schedule provider.
// It never returns an error: provider faults become an invalid result with
// a generic message so the caller can always render a verdict.
func (r *Reconciler) Reconcile(ctx context.Context, t *models.ExtractedTicket) *models.FlightValidationResult {
	key := cache.FlightKey(t.FlightNumber, t.DepartureDate)
	var cached models.FlightValidationResult
	if r.cache.GetJSON(key, &cached) {
		logging.Ctx(ctx).Debug().Str("flight", t.FlightNumber).Msg("Reconciliation cache hit")
		return &cached
	}

	result := r.lookup(ctx, t)

	// Only positive verdicts are worth keeping: negative ones may flip as
	// the provider's schedule data catches up.
	if result.IsValid {
		r.cache.SetJSON(key, result, r.ttl)
	}
	return result
}

func (r *Reconciler) lookup(ctx context.Context, t *models.ExtractedTicket) *models.FlightValidationResult {
	carrierCode, flightNumber, ok := splitDesignator(t.FlightNumber)
	if !ok {
		// Callers validate the flight number shape first, but guard anyway.
		metrics.ReconciliationResults.WithLabelValues("error").Inc()
		return invalidResult(msgVerificationError)
	}

	schedules, err := r.client.GetFlightSchedules(ctx, carrierCode, flightNumber, t.DepartureDate)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("flight", t.FlightNumber).
			Str("date", t.DepartureDate).
			Msg("Schedule provider lookup failed")
		metrics.ReconciliationResults.WithLabelValues("error").Inc()
		return invalidResult(msgVerificationError)
	}

	if len(schedules) == 0 {
		metrics.ReconciliationResults.WithLabelValues("not_found").Inc()
		return invalidResult(msgFlightNotFound)
	}

	match := findMatch(schedules, carrierCode, flightNumber, t)
	if match == nil {
		metrics.ReconciliationResults.WithLabelValues("mismatch").Inc()
		return invalidResult(msgFlightMismatch)
	}

	metrics.ReconciliationResults.WithLabelValues("valid").Inc()
	return &models.FlightValidationResult{
		IsValid: true,
		Errors:  []string{},
		Details: buildDetails(match),
	}
}

// splitDesignator splits a flight number into its carrier prefix and the
// numeric remainder at the letter/digit boundary, so 3-letter carrier codes
// (EZY123) query the provider as carrier EZY, number 123 rather than being
// truncated to two letters.
func splitDesignator(flightNumber string) (carrierCode, number string, ok bool) {
	i := 0
	for i < len(flightNumber) && flightNumber[i] >= 'A' && flightNumber[i] <= 'Z' {
		i++
	}
	if i < 2 || i > 3 || i == len(flightNumber) {
		return "", "", false
	}
	return flightNumber[:i], flightNumber[i:], true
}

func invalidResult(msg string) *models.FlightValidationResult {
	return &models.FlightValidationResult{
		IsValid: false,
		Errors:  []string{msg},
	}
}

// findMatch returns the first schedule row whose designator and route
// endpoints match the ticket exactly, or nil.
func findMatch(schedules []models.FlightSchedule, carrierCode, flightNumber string, t *models.ExtractedTicket) *models.FlightSchedule {
	for i := range schedules {
		s := &schedules[i]
		if len(s.FlightPoints) < 2 {
			continue
		}
		first := s.FlightPoints[0]
		last := s.FlightPoints[len(s.FlightPoints)-1]
		if s.FlightDesignator.CarrierCode == carrierCode &&
			s.FlightDesignator.FlightNumber == flightNumber &&
			first.IATACode == t.Departure.IATACode &&
			last.IATACode == t.Arrival.IATACode {
			return s
		}
	}
	return nil
}

// buildDetails copies schedule fields into FlightDetails, carrying only
// what the provider actually supplied. Absent optional fields stay empty
// rather than being fabricated.
func buildDetails(s *models.FlightSchedule) *models.FlightDetails {
	first := s.FlightPoints[0]
	last := s.FlightPoints[len(s.FlightPoints)-1]

	details := &models.FlightDetails{
		Carrier: models.Carrier{
			Code: s.FlightDesignator.CarrierCode,
			Name: s.CarrierName,
		},
		FlightNumber: s.FlightDesignator.FlightNumber,
		Departure: models.FlightLeg{
			IATACode:      first.IATACode,
			ScheduledTime: first.ScheduledTime,
		},
		Arrival: models.FlightLeg{
			IATACode:      last.IATACode,
			ScheduledTime: last.ScheduledTime,
		},
		Status: s.Status,
	}
	if first.Terminal != nil {
		details.Departure.Terminal = first.Terminal.Code
	}
	if last.Terminal != nil {
		details.Arrival.Terminal = last.Terminal.Code
	}
	if s.Aircraft != nil {
		details.Aircraft = s.Aircraft.AircraftType
	}
	return details
}

// Enrich merges airport metadata into the ticket's endpoint structs.
// Lookup failures are logged and skipped: enrichment never changes the
// validation verdict.
func (r *Reconciler) Enrich(ctx context.Context, t *models.ExtractedTicket) {
	enrichEndpoint(ctx, r.client, t.Departure)
	enrichEndpoint(ctx, r.client, t.Arrival)
}

func enrichEndpoint(ctx context.Context, client ScheduleClient, ep *models.FlightEndpoint) {
	if ep == nil || ep.IATACode == "" || ep.IATACode == models.FieldUnknown {
		return
	}
	info, err := client.AirportInfo(ctx, ep.IATACode)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("iata", ep.IATACode).Msg("Airport enrichment lookup failed")
		return
	}
	if info == nil {
		return
	}
	if info.Name != "" {
		ep.AirportName = info.Name
	}
	if info.Timezone != "" {
		ep.Timezone = info.Timezone
	}
	if ep.City == "" || ep.City == models.FieldUnknown {
		ep.City = info.City
	}
	if ep.Country == "" || ep.Country == models.FieldUnknown {
		ep.Country = info.Country
	}
}
