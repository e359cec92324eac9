// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

package models

// Carrier identifies the operating airline of a reconciled flight.
// Name is present only when the schedule provider returned it.
type Carrier struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// FlightLeg is one endpoint of a reconciled flight as confirmed by the
// schedule provider. Every field except IATACode is optional and present
// only when the provider response carried it; nothing is fabricated.
type FlightLeg struct {
	IATACode      string `json:"iata_code"`
	Terminal      string `json:"terminal,omitempty"`
	ScheduledTime string `json:"scheduled_time,omitempty"`
}

// FlightDetails holds the schedule data confirmed for a valid flight.
// It contains only fields actually returned by the provider.
type FlightDetails struct {
	Carrier      Carrier   `json:"carrier"`
	FlightNumber string    `json:"flight_number"`
	Departure    FlightLeg `json:"departure"`
	Arrival      FlightLeg `json:"arrival"`
	Aircraft     string    `json:"aircraft,omitempty"`
	Status       string    `json:"status,omitempty"`
}

// FlightValidationResult is the verdict of the flight reconciliation
// adapter. Details is non-nil only when IsValid is true.
type FlightValidationResult struct {
	IsValid bool           `json:"is_valid"`
	Errors  []string       `json:"errors"`
	Details *FlightDetails `json:"details"`
}

// ValidationOutcome is the top-level result of the validation pipeline.
type ValidationOutcome struct {
	IsValid       bool             `json:"is_valid"`
	Errors        []string         `json:"errors"`
	ExtractedInfo *ExtractedTicket `json:"extracted_info"`
	FlightInfo    *FlightDetails   `json:"flight_info"`
}
