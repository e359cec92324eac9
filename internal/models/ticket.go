// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

// Package models defines the data structures shared across the validation
// pipeline: the extracted ticket record, the reconciliation verdict, and the
// wire shapes of the external flight-schedule provider.
package models

// FieldUnknown marks a required extraction field the vision model could not
// read. Downstream format validation treats it as missing; extraction itself
// never fails on an unreadable field.
const FieldUnknown = "unknown"

// FlightEndpoint describes one end of a flight (departure or arrival) as
// extracted from the boarding pass, optionally enriched with airport
// metadata after a successful reconciliation.
//
// Optional fields are omitted from JSON when the source data lacks them:
// the record only asserts what was actually observed.
type FlightEndpoint struct {
	IATACode      string `json:"iata_code,omitempty"`
	City          string `json:"city,omitempty"`
	Country       string `json:"country,omitempty"`
	Terminal      string `json:"terminal,omitempty"`
	ScheduledTime string `json:"scheduled_time,omitempty"`

	// Enrichment fields, populated from airport metadata lookups.
	AirportName string `json:"name,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

// Connection is an intermediate stop on a multi-leg itinerary.
type Connection struct {
	FlightNumber  string          `json:"flight_number,omitempty"`
	DepartureDate string          `json:"departure_date,omitempty"`
	Departure     *FlightEndpoint `json:"departure,omitempty"`
	Arrival       *FlightEndpoint `json:"arrival,omitempty"`
}

// ExtractedTicket is the structured record produced by the extraction
// adapter from a boarding-pass image.
//
// Invariants:
//   - Departure and Arrival are always non-nil (possibly empty) structs so
//     downstream stages can access fields without nil checks.
//   - Connections is always non-nil (default empty).
//   - DepartureDate holds the airline shorthand as printed on the ticket
//     (e.g. "29JUL") until normalization rewrites it to YYYY-MM-DD; if
//     normalization fails the raw string is kept and an advisory error is
//     appended to ValidationErrors.
type ExtractedTicket struct {
	PassengerName string          `json:"passenger_name"`
	FlightNumber  string          `json:"flight_number"`
	DepartureDate string          `json:"departure_date"`
	Departure     *FlightEndpoint `json:"departure"`
	Arrival       *FlightEndpoint `json:"arrival"`
	TicketNumber  string          `json:"ticket_number,omitempty"`
	Connections   []Connection    `json:"connections"`

	// ValidationErrors accumulates advisory errors (e.g. a departure date
	// outside the booking window). Advisories propagate to the final
	// outcome but do not by themselves invalidate extraction.
	ValidationErrors []string `json:"validation_errors,omitempty"`
}

// EnsureDefaults enforces the ticket invariants after decoding untrusted
// extraction output: non-nil endpoint structs, non-nil connections, and
// explicit unknown markers for absent required fields.
func (t *ExtractedTicket) EnsureDefaults() {
	if t.PassengerName == "" {
		t.PassengerName = FieldUnknown
	}
	if t.FlightNumber == "" {
		t.FlightNumber = FieldUnknown
	}
	if t.DepartureDate == "" {
		t.DepartureDate = FieldUnknown
	}
	if t.Departure == nil {
		t.Departure = &FlightEndpoint{}
	}
	if t.Arrival == nil {
		t.Arrival = &FlightEndpoint{}
	}
	if t.Connections == nil {
		t.Connections = []Connection{}
	}
}

// AddValidationError appends an advisory error to the ticket.
func (t *ExtractedTicket) AddValidationError(msg string) {
	t.ValidationErrors = append(t.ValidationErrors, msg)
}
