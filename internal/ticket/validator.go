// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

package ticket

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tomdupuis/embarq/internal/models"
)

// Format validation of extracted ticket records, built on
// go-playground/validator v10 with custom tag validators. All checks run;
// the result lists one message per failed check so callers can report every
// problem at once. The validator is pure: no I/O, no external calls.

var (
	// passengerNameMixedRe is the LASTNAME/Firstname form printed on most
	// European boarding passes.
	passengerNameMixedRe = regexp.MustCompile(`^[A-Z]+/[A-Z][a-z]+$`)

	// passengerNameUpperRe is the all-caps LASTNAME/FIRSTNAME form used by
	// legacy ticket stock. Both forms are accepted.
	passengerNameUpperRe = regexp.MustCompile(`^[A-Z]+/[A-Z]+$`)

	// flightNumberRe: 2-3 letter carrier code, 1-4 digits, optional
	// operational-suffix letter.
	flightNumberRe = regexp.MustCompile(`^[A-Z]{2,3}\d{1,4}[A-Z]?$`)

	// iataCodeRe: exactly 3 uppercase letters.
	iataCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

	// ticketNumberRe: 3-digit airline prefix, dash, 10-digit serial.
	ticketNumberRe = regexp.MustCompile(`^\d{3}-\d{10}$`)
)

// minTicketYear is the sanity floor for departure dates: anything earlier
// is a misread, not a real flight.
const minTicketYear = 2000

// ticketCheck is the checkable view of an ExtractedTicket. Field order
// fixes the order of reported errors.
type ticketCheck struct {
	PassengerName string `validate:"required,passenger_name"`
	FlightNumber  string `validate:"required,flight_number"`
	DepartureDate string `validate:"required,flight_date"`
	DepartureIATA string `validate:"required,iata_code"`
	ArrivalIATA   string `validate:"required,iata_code"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the singleton validator with the custom ticket tag
// validators registered. Thread-safe; validator caches struct metadata.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		mustRegister := func(tag string, fn validator.Func) {
			if err := validate.RegisterValidation(tag, fn); err != nil {
				panic(fmt.Sprintf("ticket: registering %q validator: %v", tag, err))
			}
		}

		mustRegister("passenger_name", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return passengerNameMixedRe.MatchString(s) || passengerNameUpperRe.MatchString(s)
		})
		mustRegister("flight_number", func(fl validator.FieldLevel) bool {
			return flightNumberRe.MatchString(fl.Field().String())
		})
		mustRegister("iata_code", func(fl validator.FieldLevel) bool {
			return iataCodeRe.MatchString(fl.Field().String())
		})
		mustRegister("flight_date", func(fl validator.FieldLevel) bool {
			d, err := time.Parse("2006-01-02", fl.Field().String())
			return err == nil && d.Year() >= minTicketYear
		})
	})

	return validate
}

// checkMessages maps struct field + failed tag to the user-facing error.
// Messages are centralized here so they stay stable and localizable.
var checkMessages = map[string]map[string]string{
	"PassengerName": {
		"required":       "passenger name is missing",
		"passenger_name": "passenger name format is invalid (expected LASTNAME/Firstname)",
	},
	"FlightNumber": {
		"required":      "flight number is missing",
		"flight_number": "flight number format is invalid",
	},
	"DepartureDate": {
		"required":    "departure date is missing",
		"flight_date": "departure date format is invalid (expected YYYY-MM-DD)",
	},
	"DepartureIATA": {
		"required":  "departure IATA code is missing",
		"iata_code": "departure IATA code format is invalid",
	},
	"ArrivalIATA": {
		"required":  "arrival IATA code is missing",
		"iata_code": "arrival IATA code format is invalid",
	},
}

// ValidateTicket checks the shape of an extracted ticket and returns one
// human-readable error per failed check, in field order. An empty result
// means the ticket is well-formed. Checks are independent: a bad flight
// number does not suppress the IATA-code checks.
func ValidateTicket(t *models.ExtractedTicket) []string {
	chk := ticketCheck{
		PassengerName: knownValue(t.PassengerName),
		FlightNumber:  knownValue(t.FlightNumber),
		DepartureDate: knownValue(t.DepartureDate),
	}
	if t.Departure != nil {
		chk.DepartureIATA = knownValue(t.Departure.IATACode)
	}
	if t.Arrival != nil {
		chk.ArrivalIATA = knownValue(t.Arrival.IATACode)
	}

	err := getValidator().Struct(&chk)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError can only happen on a non-struct argument,
		// which would be a programming error here.
		return []string{"ticket format validation failed"}
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, messageFor(fe.StructField(), fe.Tag()))
	}
	return msgs
}

// AdvisoryErrors returns non-fatal shape problems: today only a present
// but malformed ticket number (the field itself is optional). Advisories
// surface in the final error list without failing format validation.
func AdvisoryErrors(t *models.ExtractedTicket) []string {
	var advisories []string
	if tn := knownValue(t.TicketNumber); tn != "" && !ticketNumberRe.MatchString(tn) {
		advisories = append(advisories, "ticket number format is unusual (expected NNN-NNNNNNNNNN)")
	}
	return advisories
}

// knownValue maps the extraction "unknown" marker to an empty string so
// the required check treats it as missing.
func knownValue(s string) string {
	if s == models.FieldUnknown {
		return ""
	}
	return s
}

// messageFor resolves the user-facing message for a failed check.
func messageFor(field, tag string) string {
	if byTag, ok := checkMessages[field]; ok {
		if msg, ok := byTag[tag]; ok {
			return msg
		}
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
