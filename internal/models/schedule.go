// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

package models

// Wire shapes of the external flight-schedule provider. Field names follow
// the provider's own JSON conventions (camelCase) so the raw client can
// decode responses without an intermediate mapping layer.

// FlightDesignator identifies a scheduled flight: a 2-letter carrier code
// plus the numeric flight number as a string (providers zero-pad it).
type FlightDesignator struct {
	CarrierCode  string `json:"carrierCode"`
	FlightNumber string `json:"flightNumber"`
}

// Terminal is the terminal reference attached to a flight point.
type Terminal struct {
	Code string `json:"code,omitempty"`
}

// FlightPoint is one stop on a scheduled route. The first point is the
// origin, the last the final destination; intermediate points are technical
// stops.
type FlightPoint struct {
	IATACode      string    `json:"iataCode"`
	Terminal      *Terminal `json:"terminal,omitempty"`
	ScheduledTime string    `json:"scheduledTime,omitempty"`
}

// AircraftEquipment describes the scheduled aircraft.
type AircraftEquipment struct {
	AircraftType string `json:"aircraftType,omitempty"`
}

// FlightSchedule is one schedule row returned by the provider for a
// carrier/number/date query.
type FlightSchedule struct {
	FlightDesignator FlightDesignator   `json:"flightDesignator"`
	FlightPoints     []FlightPoint      `json:"flightPoints"`
	CarrierName      string             `json:"carrierName,omitempty"`
	Aircraft         *AircraftEquipment `json:"aircraftEquipment,omitempty"`
	Status           string             `json:"status,omitempty"`
}

// AirportLocation is the airport metadata row returned by the provider's
// location reference API. Optional fields are present only when the
// provider supplied them.
type AirportLocation struct {
	IATACode string `json:"iata_code"`
	Name     string `json:"name,omitempty"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}
