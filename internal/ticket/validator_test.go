// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

package ticket

import (
	"strings"
	"testing"

	"github.com/tomdupuis/embarq/internal/models"
)

// wellFormedTicket returns a ticket that passes every format check.
func wellFormedTicket() *models.ExtractedTicket {
	return &models.ExtractedTicket{
		PassengerName: "DOE/JOHN",
		FlightNumber:  "AF123",
		DepartureDate: "2024-07-29",
		Departure:     &models.FlightEndpoint{IATACode: "CDG"},
		Arrival:       &models.FlightEndpoint{IATACode: "JFK"},
	}
}

func TestValidateTicket_WellFormed(t *testing.T) {
	if errs := ValidateTicket(wellFormedTicket()); len(errs) != 0 {
		t.Errorf("well-formed ticket produced errors: %v", errs)
	}
}

func TestValidateTicket_BothPassengerNameForms(t *testing.T) {
	for _, name := range []string{"DOE/JOHN", "DOE/John", "DUPONT/Marie"} {
		tk := wellFormedTicket()
		tk.PassengerName = name
		if errs := ValidateTicket(tk); len(errs) != 0 {
			t.Errorf("passenger name %q should be accepted, got %v", name, errs)
		}
	}
}

// TestValidateTicket_Independence verifies that emptying any single
// required field adds exactly one corresponding error and leaves the
// other checks unaffected.
func TestValidateTicket_Independence(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.ExtractedTicket)
		wantMsg string
	}{
		{
			"missing passenger name",
			func(tk *models.ExtractedTicket) { tk.PassengerName = "" },
			"passenger name is missing",
		},
		{
			"missing flight number",
			func(tk *models.ExtractedTicket) { tk.FlightNumber = "" },
			"flight number is missing",
		},
		{
			"missing departure date",
			func(tk *models.ExtractedTicket) { tk.DepartureDate = "" },
			"departure date is missing",
		},
		{
			"missing departure IATA",
			func(tk *models.ExtractedTicket) { tk.Departure.IATACode = "" },
			"departure IATA code is missing",
		},
		{
			"missing arrival IATA",
			func(tk *models.ExtractedTicket) { tk.Arrival.IATACode = "" },
			"arrival IATA code is missing",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tk := wellFormedTicket()
			tc.mutate(tk)

			errs := ValidateTicket(tk)
			if len(errs) != 1 {
				t.Fatalf("expected exactly 1 error, got %d: %v", len(errs), errs)
			}
			if errs[0] != tc.wantMsg {
				t.Errorf("error = %q, want %q", errs[0], tc.wantMsg)
			}
		})
	}
}

func TestValidateTicket_FormatViolations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.ExtractedTicket)
		wantMsg string
	}{
		{
			"lowercase passenger name",
			func(tk *models.ExtractedTicket) { tk.PassengerName = "doe/john" },
			"passenger name format is invalid",
		},
		{
			"passenger name without slash",
			func(tk *models.ExtractedTicket) { tk.PassengerName = "JOHN DOE" },
			"passenger name format is invalid",
		},
		{
			"flight number without digits",
			func(tk *models.ExtractedTicket) { tk.FlightNumber = "AFX" },
			"flight number format is invalid",
		},
		{
			"flight number with too many digits",
			func(tk *models.ExtractedTicket) { tk.FlightNumber = "AF12345" },
			"flight number format is invalid",
		},
		{
			"date not normalized",
			func(tk *models.ExtractedTicket) { tk.DepartureDate = "29JUL" },
			"departure date format is invalid",
		},
		{
			"date before sanity floor",
			func(tk *models.ExtractedTicket) { tk.DepartureDate = "1999-07-29" },
			"departure date format is invalid",
		},
		{
			"two-letter IATA code",
			func(tk *models.ExtractedTicket) { tk.Departure.IATACode = "CD" },
			"departure IATA code format is invalid",
		},
		{
			"lowercase IATA code",
			func(tk *models.ExtractedTicket) { tk.Arrival.IATACode = "jfk" },
			"arrival IATA code format is invalid",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tk := wellFormedTicket()
			tc.mutate(tk)

			errs := ValidateTicket(tk)
			if len(errs) != 1 {
				t.Fatalf("expected exactly 1 error, got %d: %v", len(errs), errs)
			}
			if !strings.Contains(errs[0], tc.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", errs[0], tc.wantMsg)
			}
		})
	}
}

func TestValidateTicket_UnknownMarkerTreatedAsMissing(t *testing.T) {
	tk := wellFormedTicket()
	tk.PassengerName = models.FieldUnknown
	tk.FlightNumber = models.FieldUnknown

	errs := ValidateTicket(tk)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	if errs[0] != "passenger name is missing" || errs[1] != "flight number is missing" {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestValidateTicket_CollectsAllErrors(t *testing.T) {
	// A fully broken record reports every failed check in field order.
	tk := &models.ExtractedTicket{}
	tk.EnsureDefaults()

	errs := ValidateTicket(tk)
	want := []string{
		"passenger name is missing",
		"flight number is missing",
		"departure date is missing",
		"departure IATA code is missing",
		"arrival IATA code is missing",
	}
	if len(errs) != len(want) {
		t.Fatalf("expected %d errors, got %d: %v", len(want), len(errs), errs)
	}
	for i := range want {
		if errs[i] != want[i] {
			t.Errorf("errs[%d] = %q, want %q", i, errs[i], want[i])
		}
	}
}

func TestAdvisoryErrors(t *testing.T) {
	tests := []struct {
		name         string
		ticketNumber string
		wantAdvisory bool
	}{
		{"well-formed ticket number", "057-1234567890", false},
		{"absent ticket number", "", false},
		{"unknown marker", models.FieldUnknown, false},
		{"malformed ticket number", "ABC123", true},
		{"short serial", "057-123", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tk := wellFormedTicket()
			tk.TicketNumber = tc.ticketNumber

			advisories := AdvisoryErrors(tk)
			if got := len(advisories) > 0; got != tc.wantAdvisory {
				t.Errorf("AdvisoryErrors = %v, wantAdvisory = %v", advisories, tc.wantAdvisory)
			}
		})
	}
}
