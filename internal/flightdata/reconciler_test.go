// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

package flightdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomdupuis/embarq/internal/cache"
	"github.com/tomdupuis/embarq/internal/models"
)

// stubScheduleClient serves canned schedule rows and airport metadata,
// recording the last schedule query.
type stubScheduleClient struct {
	schedules    []models.FlightSchedule
	scheduleErr  error
	airports     map[string]*models.AirportLocation
	airportErr   error
	scheduleHits int
	lastCarrier  string
	lastNumber   string
}

func (s *stubScheduleClient) GetFlightSchedules(_ context.Context, carrierCode, flightNumber, _ string) ([]models.FlightSchedule, error) {
	s.scheduleHits++
	s.lastCarrier = carrierCode
	s.lastNumber = flightNumber
	return s.schedules, s.scheduleErr
}

func (s *stubScheduleClient) AirportInfo(_ context.Context, iata string) (*models.AirportLocation, error) {
	if s.airportErr != nil {
		return nil, s.airportErr
	}
	return s.airports[iata], nil
}

func testTicket() *models.ExtractedTicket {
	return &models.ExtractedTicket{
		PassengerName: "DOE/JOHN",
		FlightNumber:  "AF123",
		DepartureDate: "2024-07-29",
		Departure:     &models.FlightEndpoint{IATACode: "CDG"},
		Arrival:       &models.FlightEndpoint{IATACode: "JFK"},
	}
}

// matchingSchedule is a provider row that matches testTicket exactly.
func matchingSchedule() models.FlightSchedule {
	return models.FlightSchedule{
		FlightDesignator: models.FlightDesignator{CarrierCode: "AF", FlightNumber: "123"},
		FlightPoints: []models.FlightPoint{
			{IATACode: "CDG", Terminal: &models.Terminal{Code: "2E"}, ScheduledTime: "2024-07-29T10:15:00"},
			{IATACode: "JFK", ScheduledTime: "2024-07-29T13:05:00"},
		},
		CarrierName: "Air France",
		Aircraft:    &models.AircraftEquipment{AircraftType: "77W"},
		Status:      "scheduled",
	}
}

func newTestReconciler(client ScheduleClient) (*Reconciler, *cache.Cache) {
	c := cache.New("reconciliation-test")
	return NewReconciler(client, c, time.Hour), c
}

func TestReconcile_FlightNotFound(t *testing.T) {
	r, _ := newTestReconciler(&stubScheduleClient{})

	result := r.Reconcile(context.Background(), testTicket())
	if result.IsValid {
		t.Error("empty schedule response must be invalid")
	}
	if len(result.Errors) == 0 || result.Errors[0] != msgFlightNotFound {
		t.Errorf("Errors = %v, want %q", result.Errors, msgFlightNotFound)
	}
	if result.Details != nil {
		t.Error("Details must be nil for an invalid result")
	}
}

func TestReconcile_Mismatch(t *testing.T) {
	// Carrier and number match but the route endpoints do not.
	row := matchingSchedule()
	row.FlightPoints[1].IATACode = "LAX"
	r, _ := newTestReconciler(&stubScheduleClient{schedules: []models.FlightSchedule{row}})

	result := r.Reconcile(context.Background(), testTicket())
	if result.IsValid {
		t.Error("mismatched route must be invalid")
	}
	if len(result.Errors) == 0 || result.Errors[0] != msgFlightMismatch {
		t.Errorf("Errors = %v, want %q", result.Errors, msgFlightMismatch)
	}
}

func TestReconcile_ThreeLetterCarrier(t *testing.T) {
	// The carrier prefix splits at the letter/digit boundary, so EZY123 must
	// query carrier EZY number 123, not carrier EZ number Y123.
	stub := &stubScheduleClient{schedules: []models.FlightSchedule{{
		FlightDesignator: models.FlightDesignator{CarrierCode: "EZY", FlightNumber: "123"},
		FlightPoints: []models.FlightPoint{
			{IATACode: "LGW"},
			{IATACode: "NCE"},
		},
	}}}
	r, _ := newTestReconciler(stub)

	ticket := testTicket()
	ticket.FlightNumber = "EZY123"
	ticket.Departure.IATACode = "LGW"
	ticket.Arrival.IATACode = "NCE"

	result := r.Reconcile(context.Background(), ticket)
	if stub.lastCarrier != "EZY" || stub.lastNumber != "123" {
		t.Errorf("queried carrier/number = %q/%q, want EZY/123", stub.lastCarrier, stub.lastNumber)
	}
	if !result.IsValid {
		t.Errorf("expected valid result, got errors %v", result.Errors)
	}
}

func TestSplitDesignator(t *testing.T) {
	tests := []struct {
		in          string
		wantCarrier string
		wantNumber  string
		wantOK      bool
	}{
		{"AF123", "AF", "123", true},
		{"EZY123", "EZY", "123", true},
		{"AF1234A", "AF", "1234A", true},
		{"U2123", "", "", false},   // 1-letter prefix is not a carrier code
		{"ABCD123", "", "", false}, // 4 letters is past the carrier boundary
		{"AF", "", "", false},      // no numeric part
		{"", "", "", false},
	}
	for _, tc := range tests {
		carrier, number, ok := splitDesignator(tc.in)
		if carrier != tc.wantCarrier || number != tc.wantNumber || ok != tc.wantOK {
			t.Errorf("splitDesignator(%q) = %q/%q/%v, want %q/%q/%v",
				tc.in, carrier, number, ok, tc.wantCarrier, tc.wantNumber, tc.wantOK)
		}
	}
}

func TestReconcile_Match(t *testing.T) {
	r, _ := newTestReconciler(&stubScheduleClient{schedules: []models.FlightSchedule{matchingSchedule()}})

	result := r.Reconcile(context.Background(), testTicket())
	if !result.IsValid {
		t.Fatalf("expected valid result, got errors %v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Errorf("valid result carries errors: %v", result.Errors)
	}

	d := result.Details
	if d == nil {
		t.Fatal("valid result must carry details")
	}
	if d.Carrier.Code != "AF" || d.Carrier.Name != "Air France" {
		t.Errorf("carrier = %+v", d.Carrier)
	}
	if d.Departure.Terminal != "2E" {
		t.Errorf("departure terminal = %q", d.Departure.Terminal)
	}
	if d.Aircraft != "77W" || d.Status != "scheduled" {
		t.Errorf("aircraft = %q, status = %q", d.Aircraft, d.Status)
	}
}

func TestReconcile_DetailsCarryOnlyProviderFields(t *testing.T) {
	// A minimal provider row must produce minimal details: no fabricated
	// terminals, times, aircraft or status.
	row := models.FlightSchedule{
		FlightDesignator: models.FlightDesignator{CarrierCode: "AF", FlightNumber: "123"},
		FlightPoints: []models.FlightPoint{
			{IATACode: "CDG"},
			{IATACode: "JFK"},
		},
	}
	r, _ := newTestReconciler(&stubScheduleClient{schedules: []models.FlightSchedule{row}})

	result := r.Reconcile(context.Background(), testTicket())
	if !result.IsValid {
		t.Fatalf("expected valid result, got errors %v", result.Errors)
	}

	d := result.Details
	if d.Carrier.Name != "" || d.Aircraft != "" || d.Status != "" {
		t.Errorf("fabricated optional fields: %+v", d)
	}
	if d.Departure.Terminal != "" || d.Departure.ScheduledTime != "" {
		t.Errorf("fabricated departure fields: %+v", d.Departure)
	}
}

func TestReconcile_FirstMatchWins(t *testing.T) {
	other := matchingSchedule()
	other.FlightPoints[1].IATACode = "LAX"
	first := matchingSchedule()
	first.Status = "first"
	second := matchingSchedule()
	second.Status = "second"

	r, _ := newTestReconciler(&stubScheduleClient{schedules: []models.FlightSchedule{other, first, second}})

	result := r.Reconcile(context.Background(), testTicket())
	if !result.IsValid || result.Details.Status != "first" {
		t.Errorf("expected the first matching row to win, got %+v", result.Details)
	}
}

func TestReconcile_ProviderErrorIsGenericInvalid(t *testing.T) {
	r, _ := newTestReconciler(&stubScheduleClient{scheduleErr: errors.New("connection refused")})

	result := r.Reconcile(context.Background(), testTicket())
	if result.IsValid {
		t.Error("provider error must yield an invalid result")
	}
	if len(result.Errors) != 1 || result.Errors[0] != msgVerificationError {
		t.Errorf("Errors = %v, want the generic advisory only", result.Errors)
	}
}

func TestReconcile_CachesOnlyValidResults(t *testing.T) {
	stub := &stubScheduleClient{}
	r, _ := newTestReconciler(stub)

	// Two lookups for a not-found flight both reach the provider.
	r.Reconcile(context.Background(), testTicket())
	r.Reconcile(context.Background(), testTicket())
	if stub.scheduleHits != 2 {
		t.Errorf("negative verdicts were cached: %d provider calls, want 2", stub.scheduleHits)
	}

	// Once the provider knows the flight, the verdict is cached.
	stub.schedules = []models.FlightSchedule{matchingSchedule()}
	r.Reconcile(context.Background(), testTicket())
	result := r.Reconcile(context.Background(), testTicket())
	if stub.scheduleHits != 3 {
		t.Errorf("positive verdict was not cached: %d provider calls, want 3", stub.scheduleHits)
	}
	if !result.IsValid {
		t.Error("cached verdict lost validity")
	}
}

func TestEnrich_MergesAirportMetadata(t *testing.T) {
	stub := &stubScheduleClient{
		airports: map[string]*models.AirportLocation{
			"CDG": {IATACode: "CDG", Name: "Charles de Gaulle", City: "Paris", Country: "France", Timezone: "Europe/Paris"},
			"JFK": {IATACode: "JFK", Name: "John F Kennedy Intl", City: "New York", Country: "United States", Timezone: "America/New_York"},
		},
	}
	r, _ := newTestReconciler(stub)

	tk := testTicket()
	tk.Departure.City = "Paris" // extracted value must survive enrichment
	r.Enrich(context.Background(), tk)

	if tk.Departure.AirportName != "Charles de Gaulle" || tk.Departure.Timezone != "Europe/Paris" {
		t.Errorf("departure enrichment = %+v", tk.Departure)
	}
	if tk.Departure.City != "Paris" {
		t.Errorf("enrichment overwrote extracted city: %q", tk.Departure.City)
	}
	if tk.Arrival.City != "New York" {
		t.Errorf("absent city not filled from metadata: %q", tk.Arrival.City)
	}
}

func TestEnrich_LookupFailureIsNonFatal(t *testing.T) {
	r, _ := newTestReconciler(&stubScheduleClient{airportErr: errors.New("rate limited")})

	tk := testTicket()
	r.Enrich(context.Background(), tk)

	if tk.Departure.AirportName != "" || tk.Arrival.AirportName != "" {
		t.Error("failed enrichment must leave fields absent")
	}
}

func TestEnrich_SkipsUnknownEndpoints(t *testing.T) {
	stub := &stubScheduleClient{airports: map[string]*models.AirportLocation{}}
	r, _ := newTestReconciler(stub)

	tk := testTicket()
	tk.Departure.IATACode = models.FieldUnknown
	tk.Arrival.IATACode = ""
	r.Enrich(context.Background(), tk)

	if tk.Departure.AirportName != "" || tk.Arrival.AirportName != "" {
		t.Error("unknown endpoints must not be enriched")
	}
}
